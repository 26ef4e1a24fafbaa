// Package dispatch builds and solves the battery dispatch linear program
// (§4.3) and provides the non-optimizing greedy baseline (§4.5) and cost
// accounting (§4.6) that share its Schedule return type.
package dispatch

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"solar-dispatch/internal/model"
)

const dtHours = 1.0

// varsPerHour is the number of split decision variables per hour: battery
// charge magnitude, battery discharge, grid import, grid export magnitude,
// and stored energy above the reserve floor.
const varsPerHour = 5

// column offsets within a single hour's 5-variable block.
const (
	colCharge = iota
	colDischarge
	colGridBuy
	colGridSell
	colEnergyAboveFloor
)

// SolveLP builds the standard-form equality system for §4.3's convex
// program and solves it with gonum's simplex solver, returning the
// collapsed dispatch schedule.
func SolveLP(site model.SiteSeries, tariff model.TariffTable, batt model.BatteryParams) (model.Schedule, error) {
	if err := site.Validate(); err != nil {
		return model.Schedule{}, err
	}
	if err := tariff.Validate(); err != nil {
		return model.Schedule{}, err
	}
	if err := batt.Validate(); err != nil {
		return model.Schedule{}, err
	}
	if !model.SameIndex(site.Index, tariff.Index) {
		return model.Schedule{}, fmt.Errorf("%w: site series and tariff indices differ", model.ErrInputMisalignment)
	}

	n := site.Len()
	eta := batt.OneWayEfficiency()
	headroom := batt.MaxEnergyKWh() - batt.MinEnergyKWh()

	gridBound := bigGridBound(site, batt)

	nPrimary := varsPerHour * n
	nVars := 2 * nPrimary
	nRows := varsPerHour*n + 2*n

	c := make([]float64, nVars)
	bVec := make([]float64, nRows)
	a := mat.NewDense(nRows, nVars, nil)

	primary := func(hour, col int) int { return hour*varsPerHour + col }
	slack := func(hour, col int) int { return nPrimary + hour*varsPerHour + col }

	upperBound := func(col int) float64 {
		switch col {
		case colCharge, colDischarge:
			return batt.PowerCapacityKW
		case colGridBuy, colGridSell:
			return gridBound
		case colEnergyAboveFloor:
			return headroom
		}
		panic("unreachable")
	}

	row := 0
	for h := 0; h < n; h++ {
		for col := 0; col < varsPerHour; col++ {
			a.Set(row, primary(h, col), 1)
			a.Set(row, slack(h, col), 1)
			bVec[row] = upperBound(col)
			row++
		}
	}

	for h := 0; h < n; h++ {
		a.Set(row, primary(h, colCharge), -1)
		a.Set(row, primary(h, colDischarge), 1)
		a.Set(row, primary(h, colGridBuy), 1)
		a.Set(row, primary(h, colGridSell), -1)
		bVec[row] = site.LoadKWh[h] - site.SolarKWh[h]
		row++
	}

	for h := 0; h < n; h++ {
		a.Set(row, primary(h, colEnergyAboveFloor), 1)
		if h > 0 {
			a.Set(row, primary(h-1, colEnergyAboveFloor), -1)
		}
		a.Set(row, primary(h, colCharge), -eta*dtHours)
		a.Set(row, primary(h, colDischarge), dtHours/eta)
		bVec[row] = 0
		row++
	}

	for h := 0; h < n; h++ {
		c[primary(h, colGridBuy)] = tariff.Buy[h]
		c[primary(h, colGridSell)] = -tariff.Sell[h]
	}

	optF, x, err := lp.Simplex(c, a, bVec, 1e-8, nil)
	if err != nil {
		return model.Schedule{}, classifyLPError(err)
	}
	_ = optF

	rows := make([]model.DispatchRow, n)
	for h := 0; h < n; h++ {
		chargeKW := x[primary(h, colCharge)]
		dischargeKW := x[primary(h, colDischarge)]
		gridBuyKW := x[primary(h, colGridBuy)]
		gridSellKW := x[primary(h, colGridSell)]
		energyAboveFloor := x[primary(h, colEnergyAboveFloor)]

		rows[h] = model.DispatchRow{
			Timestamp:      site.Index[h],
			BatteryPowerKW: dischargeKW - chargeKW,
			GridPowerKW:    gridBuyKW - gridSellKW,
			EnergyKWh:      batt.MinEnergyKWh() + energyAboveFloor,
		}
	}
	return model.Schedule{Rows: rows}, nil
}

// bigGridBound picks an upper bound for grid import/export that never
// binds: no single hour can need more than its own imbalance plus the
// battery's full power rating.
func bigGridBound(site model.SiteSeries, batt model.BatteryParams) float64 {
	maxImbalance := 0.0
	for i := range site.LoadKWh {
		imbalance := site.LoadKWh[i] - site.SolarKWh[i]
		if imbalance < 0 {
			imbalance = -imbalance
		}
		if imbalance > maxImbalance {
			maxImbalance = imbalance
		}
	}
	return maxImbalance + batt.PowerCapacityKW + 1
}

func classifyLPError(err error) error {
	switch {
	case errors.Is(err, lp.ErrInfeasible), errors.Is(err, lp.ErrUnbounded):
		return fmt.Errorf("%w: %v", model.ErrInfeasibleProblem, err)
	default:
		return fmt.Errorf("%w: %v", model.ErrNumericFailure, err)
	}
}
