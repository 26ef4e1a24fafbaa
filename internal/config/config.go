// Package config loads the on-disk YAML configuration for a dispatch run:
// battery parameters, the tariff schedule, and solar sizing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"solar-dispatch/internal/model"
	"solar-dispatch/internal/tariff"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load battery parameters from a separate YAML file (e.g.
	// examples/batteries/*.yaml). If both BatteryFile and Battery are
	// provided, Battery's non-zero fields override BatteryFile.
	BatteryFile string        `yaml:"battery_file"`
	Battery     BatteryConfig `yaml:"battery"`
	Tariff      TariffConfig  `yaml:"tariff"`
	Solar       SolarConfig   `yaml:"solar"`
	TimeZone    string        `yaml:"time_zone"`
}

// BatteryConfig is the YAML shape of model.BatteryParams.
type BatteryConfig struct {
	Name                  string  `yaml:"name"`
	EnergyCapacityKWh     float64 `yaml:"energy_capacity_kwh"`
	PowerCapacityKW       float64 `yaml:"power_capacity_kw"`
	RoundTripEfficiency   float64 `yaml:"round_trip_efficiency"`
	BackupReserveFraction float64 `yaml:"backup_reserve_fraction"`
}

// TariffConfig describes a two-tier time-of-use schedule (§4.2). Leaving a
// field at its zero value falls back to the domain default for that side
// (buy or sell) via buildSchedule.
type TariffConfig struct {
	BuyBase         float64 `yaml:"buy_base"`
	BuyPeak         float64 `yaml:"buy_peak"`
	BuyWindowStart  string  `yaml:"buy_window_start"` // "HH:MM", local time
	BuyWindowEnd    string  `yaml:"buy_window_end"`
	SellBase        float64 `yaml:"sell_base"`
	SellPeak        float64 `yaml:"sell_peak"`
	SellWindowStart string  `yaml:"sell_window_start"`
	SellWindowEnd   string  `yaml:"sell_window_end"`
}

// SolarConfig names the installed solar size and the reference series to
// scale (acquisition of the reference series itself is out of scope;
// see spec §1).
type SolarConfig struct {
	SizeKW        float64 `yaml:"size_kw"`
	ReferenceFile string  `yaml:"reference_file"`
}

// Load reads, merges, and validates a config file.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it. Useful
// for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.BatteryFile != "" {
		batteryPath := c.BatteryFile
		if !filepath.IsAbs(batteryPath) {
			// Prefer interpreting relative paths as relative to the config
			// file directory, falling back to cwd-relative if that doesn't
			// exist.
			cand := filepath.Join(filepath.Dir(path), batteryPath)
			if _, err := os.Stat(cand); err == nil {
				batteryPath = cand
			}
		}
		loaded, err := loadBatteryFile(batteryPath)
		if err != nil {
			return nil, err
		}
		c.Battery = MergeBattery(loaded, c.Battery)
	}
	return &c, nil
}

// Validate checks the merged config against the core's parameter
// invariants: the battery section (via model.BatteryParams.Validate) and a
// non-negative solar size. Tariff fields are not checked here; malformed
// window times surface from BuySchedule/SellSchedule.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Battery.ToModelParams().Validate(); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}
	if c.Solar.SizeKW < 0 {
		return fmt.Errorf("%w: solar.size_kw must be >= 0", model.ErrInvalidParameters)
	}
	return nil
}

// ToModelParams converts BatteryConfig into model.BatteryParams.
func (b BatteryConfig) ToModelParams() model.BatteryParams {
	return model.BatteryParams{
		EnergyCapacityKWh:     b.EnergyCapacityKWh,
		PowerCapacityKW:       b.PowerCapacityKW,
		RoundTripEfficiency:   b.RoundTripEfficiency,
		BackupReserveFraction: b.BackupReserveFraction,
	}
}

// BuySchedule converts the buy side of TariffConfig into a tariff.Schedule,
// falling back to the domain default for any unset field.
func (t TariffConfig) BuySchedule() (tariff.Schedule, error) {
	def := tariff.DefaultBuySchedule()
	return buildSchedule(t.BuyBase, t.BuyPeak, t.BuyWindowStart, t.BuyWindowEnd, def)
}

// SellSchedule converts the sell side of TariffConfig into a
// tariff.Schedule, falling back to the domain default for any unset
// field.
func (t TariffConfig) SellSchedule() (tariff.Schedule, error) {
	def := tariff.DefaultSellSchedule()
	return buildSchedule(t.SellBase, t.SellPeak, t.SellWindowStart, t.SellWindowEnd, def)
}

func buildSchedule(base, peak float64, windowStart, windowEnd string, def tariff.Schedule) (tariff.Schedule, error) {
	if base == 0 && peak == 0 && windowStart == "" && windowEnd == "" {
		return def, nil
	}
	if base == 0 {
		base = def.BasePrice
	}
	startMin, endMin := def.Windows[0].Window.StartMinute, def.Windows[0].Window.EndMinute
	var err error
	if windowStart != "" {
		startMin, err = parseHHMM(windowStart)
		if err != nil {
			return tariff.Schedule{}, err
		}
	}
	if windowEnd != "" {
		endMin, err = parseHHMM(windowEnd)
		if err != nil {
			return tariff.Schedule{}, err
		}
	}
	if peak == 0 {
		peak = def.Windows[0].Price
	}
	return tariff.Schedule{
		BasePrice: base,
		Windows: []tariff.PricedWindow{
			{Window: tariff.TimeWindow{StartMinute: startMin, EndMinute: endMin}, Price: peak},
		},
	}, nil
}

func parseHHMM(s string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return 0, fmt.Errorf("%w: invalid HH:MM time %q", model.ErrInvalidParameters, s)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("%w: time %q out of range", model.ErrInvalidParameters, s)
	}
	return hh*60 + mm, nil
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

func loadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, err
	}
	return w.Battery, nil
}

// MergeBattery overlays non-zero fields from override onto base. Used
// when loading a battery file and then applying overrides from the main
// config.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.EnergyCapacityKWh != 0 {
		out.EnergyCapacityKWh = override.EnergyCapacityKWh
	}
	if override.PowerCapacityKW != 0 {
		out.PowerCapacityKW = override.PowerCapacityKW
	}
	if override.RoundTripEfficiency != 0 {
		out.RoundTripEfficiency = override.RoundTripEfficiency
	}
	if override.BackupReserveFraction != 0 {
		out.BackupReserveFraction = override.BackupReserveFraction
	}
	return out
}
