package model

import (
	"fmt"
	"time"
)

// LoadSeries is the hourly energy consumed during the hour ending at each
// timestamp (§3's L[t]), in kWh.
type LoadSeries struct {
	Index     []time.Time
	ValuesKWh []float64
}

func (s LoadSeries) Len() int { return len(s.Index) }

// Validate checks non-negative load and a strictly increasing index.
func (s LoadSeries) Validate() error {
	n := len(s.Index)
	if len(s.ValuesKWh) != n {
		return fmt.Errorf("%w: load series columns have mismatched lengths", ErrInputMisalignment)
	}
	if n == 0 {
		return fmt.Errorf("%w: load series is empty", ErrInvalidParameters)
	}
	for i, v := range s.ValuesKWh {
		if v < 0 {
			return fmt.Errorf("%w: load at %s is negative", ErrInvalidParameters, s.Index[i])
		}
	}
	for i := 1; i < n; i++ {
		if !s.Index[i].After(s.Index[i-1]) {
			return fmt.Errorf("%w: index is not strictly increasing at position %d", ErrInvalidParameters, i)
		}
	}
	return nil
}

// SiteSeries is the aligned (load, solar) table produced by site series
// assembly (§4.1). Index is strictly increasing except for gaps permitted
// by spring/fall DST transitions.
type SiteSeries struct {
	Index    []time.Time
	LoadKWh  []float64
	SolarKWh []float64
}

// Len returns the number of hours in the series.
func (s SiteSeries) Len() int { return len(s.Index) }

// Validate checks the invariants of §3: matching lengths, non-negative
// load and solar, and a strictly increasing index.
func (s SiteSeries) Validate() error {
	n := len(s.Index)
	if len(s.LoadKWh) != n || len(s.SolarKWh) != n {
		return fmt.Errorf("%w: site series columns have mismatched lengths", ErrInputMisalignment)
	}
	if n == 0 {
		return fmt.Errorf("%w: site series is empty", ErrInvalidParameters)
	}
	for i, l := range s.LoadKWh {
		if l < 0 {
			return fmt.Errorf("%w: load at %s is negative", ErrInvalidParameters, s.Index[i])
		}
	}
	for i, sv := range s.SolarKWh {
		if sv < 0 {
			return fmt.Errorf("%w: solar at %s is negative", ErrInvalidParameters, s.Index[i])
		}
	}
	for i := 1; i < n; i++ {
		if !s.Index[i].After(s.Index[i-1]) {
			return fmt.Errorf("%w: index is not strictly increasing at position %d", ErrInvalidParameters, i)
		}
	}
	return nil
}

// TariffTable holds per-hour import/export prices over the same index as
// a SiteSeries (§4.2).
type TariffTable struct {
	Index []time.Time
	Buy   []float64
	Sell  []float64
}

func (t TariffTable) Len() int { return len(t.Index) }

// Validate checks the tariff invariant sell[t] <= buy[t] and non-negative
// prices (§3, §8 property 8).
func (t TariffTable) Validate() error {
	n := len(t.Index)
	if len(t.Buy) != n || len(t.Sell) != n {
		return fmt.Errorf("%w: tariff columns have mismatched lengths", ErrInputMisalignment)
	}
	for i := range t.Index {
		if t.Buy[i] < 0 || t.Sell[i] < 0 {
			return fmt.Errorf("%w: tariff prices must be non-negative", ErrInvalidParameters)
		}
		if t.Sell[i] > t.Buy[i] {
			return fmt.Errorf("%w: sell price exceeds buy price at %s", ErrInvalidParameters, t.Index[i])
		}
	}
	return nil
}

// SameIndex reports whether two indices have identical length and values,
// the precondition for the LP solver (§4.3).
func SameIndex(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
