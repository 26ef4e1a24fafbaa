// Package analysis sweeps a grid of solar/battery sizes and ranks them by
// optimized daily cost, the "sizing/ranking sweep" supplemented feature.
package analysis

import (
	"sort"
	"time"

	"solar-dispatch/internal/dispatch"
	"solar-dispatch/internal/model"
)

// SizeOption is one point in the solar/battery sizing grid to evaluate.
type SizeOption struct {
	Label       string
	SolarSizeKW float64
	Battery     model.BatteryParams
}

// RankedSize pairs a sizing option with its optimized daily cost.
type RankedSize struct {
	SizeOption
	DailyCost float64
}

// RankBySizingSweep solves the dispatch LP for each option against
// (load, solarRefPerKW) scaled per-option, and sorts ascending by
// optimized daily cost — cheapest first. Exercises §8 invariant 7:
// optimized cost is never made worse by adding solar or battery capacity.
func RankBySizingSweep(
	index []time.Time,
	loadKWh []float64,
	solarRefPerKW []float64,
	tariffTable model.TariffTable,
	options []SizeOption,
) ([]RankedSize, error) {
	out := make([]RankedSize, 0, len(options))
	for _, opt := range options {
		solarKWh := make([]float64, len(solarRefPerKW))
		for i, v := range solarRefPerKW {
			solarKWh[i] = opt.SolarSizeKW * v
		}
		site := model.SiteSeries{Index: index, LoadKWh: loadKWh, SolarKWh: solarKWh}

		sched, err := dispatch.SolveLP(site, tariffTable, opt.Battery)
		if err != nil {
			return nil, err
		}
		cost, err := dispatch.DailyCostFromSchedule(sched, tariffTable)
		if err != nil {
			return nil, err
		}
		out = append(out, RankedSize{SizeOption: opt, DailyCost: cost})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DailyCost < out[j].DailyCost })
	return out, nil
}
