package sizing

import (
	"testing"
	"time"

	"solar-dispatch/internal/model"
	"solar-dispatch/internal/tariff"
)

func TestSweep_ZeroBlocksForcesNoBattery(t *testing.T) {
	n := 24
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	index := make([]time.Time, n)
	load := make([]float64, n)
	solarRef := make([]float64, n)
	for i := range index {
		index[i] = start.Add(time.Duration(i) * time.Hour)
		load[i] = 1.0
	}
	tt := tariff.BuildDefault(index)

	block := BlockSpec{EnergyKWh: 13.5, PowerKW: 5}
	equip := EquipmentCost{PerBatteryBlock: 1.0, PerSolarKW: 0.5}

	candidates, err := Sweep(index, load, solarRef, tt, 0.85, 0.2, block, 0, 10, equip)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.BatteryBlocks != 0 {
		t.Errorf("BatteryBlocks = %d, want 0", c.BatteryBlocks)
	}
	for i, row := range c.Schedule.Rows {
		if row.BatteryPowerKW != 0 {
			t.Errorf("hour %d: battery power = %v, want 0 with zero blocks", i, row.BatteryPowerKW)
		}
	}
}

func TestSweep_MoreBlocksNeverRaisesDispatchCost(t *testing.T) {
	n := 24
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	index := make([]time.Time, n)
	load := make([]float64, n)
	solarRef := make([]float64, n)
	for i := range index {
		index[i] = start.Add(time.Duration(i) * time.Hour)
		load[i] = 1.0
	}
	tt := tariff.BuildDefault(index)

	block := BlockSpec{EnergyKWh: 13.5, PowerKW: 5}
	equip := EquipmentCost{PerBatteryBlock: 0, PerSolarKW: 0}

	candidates, err := Sweep(index, load, solarRef, tt, 0.85, 0.2, block, 2, 0, equip)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(candidates))
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].DispatchCost > candidates[i-1].DispatchCost+1e-6 {
			t.Errorf("dispatch cost increased from %d to %d blocks: %v -> %v",
				i-1, i, candidates[i-1].DispatchCost, candidates[i].DispatchCost)
		}
	}
}

func TestSweep_MismatchedLengthsError(t *testing.T) {
	index := []time.Time{time.Now()}
	_, err := Sweep(index, []float64{1, 2}, []float64{1}, model.TariffTable{Index: index, Buy: []float64{0.4}, Sell: []float64{0.05}},
		0.85, 0.2, BlockSpec{EnergyKWh: 1, PowerKW: 1}, 1, 10, EquipmentCost{})
	if err == nil {
		t.Fatal("expected error for mismatched input lengths")
	}
}
