package dispatch

import (
	"errors"
	"math"
	"testing"
	"time"

	"solar-dispatch/internal/model"
	"solar-dispatch/internal/tariff"
)

func hourlyIndexN(start time.Time, n int) []time.Time {
	idx := make([]time.Time, n)
	for i := range idx {
		idx[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return idx
}

func flatTariff(n int, buy, sell float64) model.TariffTable {
	t := model.TariffTable{
		Index: hourlyIndexN(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), n),
		Buy:   make([]float64, n),
		Sell:  make([]float64, n),
	}
	for i := range t.Buy {
		t.Buy[i] = buy
		t.Sell[i] = sell
	}
	return t
}

func scenarioABattery() model.BatteryParams {
	return model.BatteryParams{
		EnergyCapacityKWh:     13.5,
		PowerCapacityKW:       5,
		RoundTripEfficiency:   0.85,
		BackupReserveFraction: 0.2,
	}
}

func TestSolveLP_ScenarioA_FlatDayNoArbitrage(t *testing.T) {
	n := 24
	idx := hourlyIndexN(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), n)
	site := model.SiteSeries{Index: idx, LoadKWh: make([]float64, n), SolarKWh: make([]float64, n)}
	for i := range site.LoadKWh {
		site.LoadKWh[i] = 1.0
	}
	tt := flatTariff(n, 0.40, 0.05)
	batt := scenarioABattery()

	sched, err := SolveLP(site, tt, batt)
	if err != nil {
		t.Fatalf("SolveLP: %v", err)
	}

	const tol = 1e-5
	for i, row := range sched.Rows {
		if math.Abs(row.GridPowerKW-1.0) > tol {
			t.Errorf("hour %d: grid power = %v, want 1.0", i, row.GridPowerKW)
		}
		if math.Abs(row.BatteryPowerKW) > tol {
			t.Errorf("hour %d: battery power = %v, want 0", i, row.BatteryPowerKW)
		}
		if math.Abs(row.EnergyKWh-batt.MinEnergyKWh()) > tol {
			t.Errorf("hour %d: energy = %v, want %v", i, row.EnergyKWh, batt.MinEnergyKWh())
		}
	}

	cost, err := DailyCostFromSchedule(sched, tt)
	if err != nil {
		t.Fatalf("DailyCostFromSchedule: %v", err)
	}
	if math.Abs(cost-9.60) > 1e-3 {
		t.Errorf("daily cost = %v, want 9.60", cost)
	}
}

func TestSolveLP_ScenarioB_PeakArbitrageBeatsFlat(t *testing.T) {
	n := 24
	idx := hourlyIndexN(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), n)
	site := model.SiteSeries{Index: idx, LoadKWh: make([]float64, n), SolarKWh: make([]float64, n)}
	for i := range site.LoadKWh {
		site.LoadKWh[i] = 1.0
	}
	sellZero := tariff.Schedule{BasePrice: 0}
	tt := tariff.Build(idx, tariff.DefaultBuySchedule(), sellZero)
	batt := scenarioABattery()

	sched, err := SolveLP(site, tt, batt)
	if err != nil {
		t.Fatalf("SolveLP: %v", err)
	}
	cost, err := DailyCostFromSchedule(sched, tt)
	if err != nil {
		t.Fatalf("DailyCostFromSchedule: %v", err)
	}
	if cost >= 9.60-1e-6 {
		t.Errorf("peak-arbitrage daily cost = %v, want strictly less than 9.60", cost)
	}

	for i, row := range sched.Rows {
		hour := idx[i].Hour()
		if hour >= 16 && hour <= 21 && row.GridPowerKW > 1.0+1e-6 {
			t.Errorf("hour %d (peak): grid power = %v, want <= baseline 1.0", hour, row.GridPowerKW)
		}
	}
}

func TestSolveLP_ScenarioC_SurplusExport(t *testing.T) {
	n := 24
	idx := hourlyIndexN(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), n)
	site := model.SiteSeries{Index: idx, LoadKWh: make([]float64, n), SolarKWh: make([]float64, n)}
	for h := 10; h <= 14; h++ {
		site.SolarKWh[h] = 3
	}
	tt := flatTariff(n, 0.40, 0.05)

	tinyBatt := model.BatteryParams{
		EnergyCapacityKWh:     1e-6,
		PowerCapacityKW:       1e-6,
		RoundTripEfficiency:   0.85,
		BackupReserveFraction: 0,
	}
	noBattSched, err := SolveLP(site, tt, tinyBatt)
	if err != nil {
		t.Fatalf("SolveLP (no battery): %v", err)
	}
	noBattCost, err := DailyCostFromSchedule(noBattSched, tt)
	if err != nil {
		t.Fatalf("DailyCostFromSchedule: %v", err)
	}
	if math.Abs(noBattCost-(-0.75)) > 1e-3 {
		t.Errorf("no-battery daily cost = %v, want -0.75", noBattCost)
	}

	withBatt := model.BatteryParams{
		EnergyCapacityKWh:     10,
		PowerCapacityKW:       5,
		RoundTripEfficiency:   0.85,
		BackupReserveFraction: 0,
	}
	withBattSched, err := SolveLP(site, tt, withBatt)
	if err != nil {
		t.Fatalf("SolveLP (with battery): %v", err)
	}
	withBattCost, err := DailyCostFromSchedule(withBattSched, tt)
	if err != nil {
		t.Fatalf("DailyCostFromSchedule: %v", err)
	}
	if withBattCost > noBattCost+1e-3 {
		t.Errorf("with-battery daily cost = %v, want <= no-battery cost %v", withBattCost, noBattCost)
	}
}

func TestSolveLP_Invariants(t *testing.T) {
	n := 24
	idx := hourlyIndexN(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), n)
	site := model.SiteSeries{Index: idx, LoadKWh: make([]float64, n), SolarKWh: make([]float64, n)}
	for i := range site.LoadKWh {
		site.LoadKWh[i] = 1.0 + 0.5*float64(i%7)
		site.SolarKWh[i] = 0.3 * float64((i+3)%6)
	}
	tt := tariff.BuildDefault(idx)
	batt := scenarioABattery()

	sched, err := SolveLP(site, tt, batt)
	if err != nil {
		t.Fatalf("SolveLP: %v", err)
	}

	const tol = 1e-5
	for i, row := range sched.Rows {
		if math.Abs(row.BatteryPowerKW+row.GridPowerKW-(site.LoadKWh[i]-site.SolarKWh[i])) > tol {
			t.Errorf("hour %d: power balance violated", i)
		}
		if row.EnergyKWh < batt.MinEnergyKWh()-tol || row.EnergyKWh > batt.MaxEnergyKWh()+tol {
			t.Errorf("hour %d: energy %v out of [%v, %v]", i, row.EnergyKWh, batt.MinEnergyKWh(), batt.MaxEnergyKWh())
		}
		if math.Abs(row.BatteryPowerKW) > batt.PowerCapacityKW+tol {
			t.Errorf("hour %d: |battery power| %v exceeds rating %v", i, row.BatteryPowerKW, batt.PowerCapacityKW)
		}
	}

	eta := batt.OneWayEfficiency()
	expectedDelta := 0.0
	for _, row := range sched.Rows {
		p := row.BatteryPowerKW
		if p < 0 {
			expectedDelta += -p * eta
		} else {
			expectedDelta -= p / eta
		}
	}
	finalEnergy := sched.Rows[len(sched.Rows)-1].EnergyKWh
	if math.Abs((finalEnergy-batt.MinEnergyKWh())-expectedDelta) > 1e-3 {
		t.Errorf("energy identity violated: E[N]-E[0] = %v, want %v", finalEnergy-batt.MinEnergyKWh(), expectedDelta)
	}
}

func TestSolveLP_InputMisalignment(t *testing.T) {
	n := 24
	idx := hourlyIndexN(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), n)
	site := model.SiteSeries{Index: idx, LoadKWh: make([]float64, n), SolarKWh: make([]float64, n)}
	tt := flatTariff(n-1, 0.4, 0.05)
	batt := scenarioABattery()

	_, err := SolveLP(site, tt, batt)
	if err == nil {
		t.Fatal("expected input misalignment error, got nil")
	}
	if !errors.Is(err, model.ErrInputMisalignment) {
		t.Errorf("got error %v, want ErrInputMisalignment", err)
	}
}
