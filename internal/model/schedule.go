package model

import "time"

// DispatchRow is one hour of a dispatch schedule D[t] = (P_batt, P_grid, E)
// per §3. Sign convention: battery discharge and grid import are positive;
// battery charge and grid export are negative.
type DispatchRow struct {
	Timestamp      time.Time
	BatteryPowerKW float64 // P_batt[t]
	GridPowerKW    float64 // P_grid[t]
	EnergyKWh      float64 // E[t], stored energy at end of hour t
}

// Action derives the human-readable operating mode for this row.
func (r DispatchRow) Action() Action {
	return ActionFromBatteryPowerKW(r.BatteryPowerKW)
}

// Schedule is the full dispatch result for a horizon.
type Schedule struct {
	Rows []DispatchRow
}

func (s Schedule) Len() int { return len(s.Rows) }

// BatteryPowerKW returns the per-hour battery power series.
func (s Schedule) BatteryPowerKW() []float64 {
	out := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.BatteryPowerKW
	}
	return out
}

// GridPowerKW returns the per-hour grid power series.
func (s Schedule) GridPowerKW() []float64 {
	out := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.GridPowerKW
	}
	return out
}

// EnergyKWh returns the per-hour end-of-hour stored energy series.
func (s Schedule) EnergyKWh() []float64 {
	out := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.EnergyKWh
	}
	return out
}
