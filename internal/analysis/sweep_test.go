package analysis

import (
	"testing"
	"time"

	"solar-dispatch/internal/model"
	"solar-dispatch/internal/tariff"
)

func TestRankBySizingSweep_OrdersCheapestFirst(t *testing.T) {
	n := 24
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	index := make([]time.Time, n)
	load := make([]float64, n)
	solarRef := make([]float64, n)
	for i := range index {
		index[i] = start.Add(time.Duration(i) * time.Hour)
		load[i] = 1.0
		if i >= 10 && i <= 14 {
			solarRef[i] = 1.0
		}
	}
	tt := tariff.BuildDefault(index)

	noTech := model.BatteryParams{EnergyCapacityKWh: 1e-6, PowerCapacityKW: 1e-6, RoundTripEfficiency: 0.85, BackupReserveFraction: 0}
	withSolar := noTech
	withSolarAndBattery := model.BatteryParams{EnergyCapacityKWh: 13.5, PowerCapacityKW: 5, RoundTripEfficiency: 0.85, BackupReserveFraction: 0.2}

	options := []SizeOption{
		{Label: "no-tech", SolarSizeKW: 0, Battery: noTech},
		{Label: "solar-only", SolarSizeKW: 3, Battery: withSolar},
		{Label: "solar-and-battery", SolarSizeKW: 3, Battery: withSolarAndBattery},
	}

	ranked, err := RankBySizingSweep(index, load, solarRef, tt, options)
	if err != nil {
		t.Fatalf("RankBySizingSweep: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("got %d ranked options, want 3", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].DailyCost < ranked[i-1].DailyCost-1e-9 {
			t.Errorf("ranked[%d].DailyCost %v < ranked[%d].DailyCost %v: not sorted ascending",
				i, ranked[i].DailyCost, i-1, ranked[i-1].DailyCost)
		}
	}
	if ranked[len(ranked)-1].Label != "no-tech" {
		t.Errorf("most expensive option = %q, want %q", ranked[len(ranked)-1].Label, "no-tech")
	}
}
