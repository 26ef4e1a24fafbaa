package model

import (
	"fmt"
	"math"
)

// BatteryParams defines the physical parameters of a stationary battery.
// Units:
//   - EnergyCapacityKWh: kWh
//   - PowerCapacityKW: kW, symmetric charge/discharge rating
//   - RoundTripEfficiency: fraction in (0, 1]
//   - BackupReserveFraction: fraction in [0, 1)
type BatteryParams struct {
	EnergyCapacityKWh     float64
	PowerCapacityKW       float64
	RoundTripEfficiency   float64
	BackupReserveFraction float64
}

// Validate checks the battery parameters against the invariants of §3.
func (p BatteryParams) Validate() error {
	if p.EnergyCapacityKWh <= 0 {
		return fmt.Errorf("%w: energy capacity must be > 0", ErrInvalidParameters)
	}
	if p.PowerCapacityKW <= 0 {
		return fmt.Errorf("%w: power capacity must be > 0", ErrInvalidParameters)
	}
	if p.RoundTripEfficiency <= 0 || p.RoundTripEfficiency > 1 {
		return fmt.Errorf("%w: round-trip efficiency must be in (0, 1]", ErrInvalidParameters)
	}
	if p.BackupReserveFraction < 0 || p.BackupReserveFraction >= 1 {
		return fmt.Errorf("%w: backup reserve fraction must be in [0, 1)", ErrInvalidParameters)
	}
	return nil
}

// MinEnergyKWh is the reserve floor E_min = r_backup * E_max.
func (p BatteryParams) MinEnergyKWh() float64 {
	return p.BackupReserveFraction * p.EnergyCapacityKWh
}

// MaxEnergyKWh is E_max.
func (p BatteryParams) MaxEnergyKWh() float64 {
	return p.EnergyCapacityKWh
}

// OneWayEfficiency is eta = sqrt(eta_rt), applied symmetrically on charge
// and discharge so a full charge-then-discharge cycle recovers eta_rt of
// the energy put in.
func (p BatteryParams) OneWayEfficiency() float64 {
	return math.Sqrt(p.RoundTripEfficiency)
}
