package dispatch

import (
	"fmt"

	"solar-dispatch/internal/model"
)

// DailyCost computes §4.6's per-day grid cost from a net-grid power series
// (positive = import) and a matching tariff: import is priced at buy,
// export (negative power) earns sell, and the total is normalized by the
// number of days the index spans.
func DailyCost(gridPowerKW []float64, tariff model.TariffTable) (float64, error) {
	if err := tariff.Validate(); err != nil {
		return 0, err
	}
	if len(gridPowerKW) != tariff.Len() {
		return 0, fmt.Errorf("%w: grid power series and tariff have mismatched lengths", model.ErrInputMisalignment)
	}
	if tariff.Len() == 0 {
		return 0, fmt.Errorf("%w: cost accounting requires a non-empty index", model.ErrInvalidParameters)
	}

	total := 0.0
	for i, p := range gridPowerKW {
		if p > 0 {
			total += p * tariff.Buy[i]
		} else {
			total += p * tariff.Sell[i]
		}
	}

	// Each sample is energy consumed during the hour ending at its
	// timestamp (§3), so N hourly samples span N hours, not N-1.
	daysSpanned := float64(tariff.Len()) / 24.0

	return total / daysSpanned, nil
}

// DailyCostFromSchedule is a convenience wrapper over DailyCost for a
// solved Schedule.
func DailyCostFromSchedule(s model.Schedule, tariff model.TariffTable) (float64, error) {
	return DailyCost(s.GridPowerKW(), tariff)
}
