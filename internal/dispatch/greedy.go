package dispatch

import (
	"solar-dispatch/internal/model"
)

// Greedy computes the non-optimizing self-consumption baseline (§4.5): a
// single causal pass that charges from surplus solar and discharges to
// cover load, with no awareness of the tariff schedule. Unlike SolveLP it
// does not honor the reserve floor; state of charge ranges over the full
// [0, E_max] (§9).
func Greedy(site model.SiteSeries, batt model.BatteryParams) (model.Schedule, error) {
	if err := site.Validate(); err != nil {
		return model.Schedule{}, err
	}
	if err := batt.Validate(); err != nil {
		return model.Schedule{}, err
	}

	n := site.Len()
	eta := batt.OneWayEfficiency()
	eMax := batt.MaxEnergyKWh()

	eBatt := 0.0
	rows := make([]model.DispatchRow, n)

	for i := 0; i < n; i++ {
		net := site.LoadKWh[i] - site.SolarKWh[i]
		var battPowerKW, gridPowerKW float64

		if net < 0 {
			surplus := -net
			headroomKWh := (eMax - eBatt) / (eta * dtHours)
			charge := min3(surplus, batt.PowerCapacityKW, headroomKWh)
			if charge < 0 {
				charge = 0
			}
			battPowerKW = -charge
			eBatt += charge * eta * dtHours
			gridPowerKW = net + charge
		} else {
			availableKWh := eBatt * eta * dtHours
			discharge := min3(net, batt.PowerCapacityKW, availableKWh)
			if discharge < 0 {
				discharge = 0
			}
			battPowerKW = discharge
			eBatt -= discharge / eta * dtHours
			gridPowerKW = net - discharge
		}

		rows[i] = model.DispatchRow{
			Timestamp:      site.Index[i],
			BatteryPowerKW: battPowerKW,
			GridPowerKW:    gridPowerKW,
			EnergyKWh:      eBatt,
		}
	}
	return model.Schedule{Rows: rows}, nil
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
