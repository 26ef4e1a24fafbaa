// Package sizing implements the endogenous sizing extension (§4.4): an
// integer battery block count and a continuous solar size are chosen
// jointly with the dispatch to minimize total annualized cost. The
// integer dimension (small range in practice — dozens of candidate block
// counts, not thousands) is enumerated; for each fixed count the
// continuous remainder — solar size plus the dispatch variables — is a
// single ordinary LP, reusing the split-variable construction of
// internal/dispatch.
package sizing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"solar-dispatch/internal/model"
)

const dtHours = 1.0

const hourVarsPerHour = 5

const (
	colCharge = iota
	colDischarge
	colGridBuy
	colGridSell
	colEnergyAboveFloor
)

// BlockSpec describes one battery "block" unit: n_batt of these are
// chosen as a non-negative integer count (§4.4).
type BlockSpec struct {
	EnergyKWh float64
	PowerKW   float64
}

// EquipmentCost holds the capital costs the sizing objective trades off
// against dispatch cost. Both fields must already be scaled to the same
// horizon as the rest of the objective (e.g. an annual $/kW rate scaled
// by horizon_days/365).
type EquipmentCost struct {
	PerBatteryBlock float64
	PerSolarKW      float64
}

// Candidate is one evaluated (n_batt, k_solar) point of the sizing sweep.
type Candidate struct {
	BatteryBlocks int
	SolarSizeKW   float64
	Schedule      model.Schedule
	DispatchCost  float64
	EquipmentCost float64
	TotalCost     float64
}

// Sweep enumerates n_batt from 0 to maxBlocks inclusive. For each value it
// solves the continuous remainder (dispatch plus continuous solar size)
// as a single LP and records the resulting candidate, in n_batt order.
// The caller selects the minimum TotalCost (invariant 7 of §8 implies
// TotalCost is non-increasing in neither n_batt nor k_solar individually,
// only in the jointly optimized pair, so callers should not assume
// monotonicity across the returned slice).
func Sweep(
	index []time.Time,
	loadKWh []float64,
	solarRefPerKW []float64,
	tariffTable model.TariffTable,
	rtEfficiency float64,
	backupReserveFraction float64,
	block BlockSpec,
	maxBlocks int,
	solarUpperBoundKW float64,
	cost EquipmentCost,
) ([]Candidate, error) {
	n := len(index)
	if len(loadKWh) != n || len(solarRefPerKW) != n || tariffTable.Len() != n {
		return nil, fmt.Errorf("%w: sizing inputs have mismatched lengths", model.ErrInputMisalignment)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: sizing requires a non-empty horizon", model.ErrInvalidParameters)
	}
	if maxBlocks < 0 {
		return nil, fmt.Errorf("%w: maxBlocks must be >= 0", model.ErrInvalidParameters)
	}
	if rtEfficiency <= 0 || rtEfficiency > 1 {
		return nil, fmt.Errorf("%w: round-trip efficiency must be in (0, 1]", model.ErrInvalidParameters)
	}
	if backupReserveFraction < 0 || backupReserveFraction >= 1 {
		return nil, fmt.Errorf("%w: backup reserve fraction must be in [0, 1)", model.ErrInvalidParameters)
	}
	if block.EnergyKWh <= 0 || block.PowerKW <= 0 {
		return nil, fmt.Errorf("%w: block energy and power must be > 0", model.ErrInvalidParameters)
	}

	candidates := make([]Candidate, 0, maxBlocks+1)
	for nBatt := 0; nBatt <= maxBlocks; nBatt++ {
		c, err := solveOneSize(index, loadKWh, solarRefPerKW, tariffTable, rtEfficiency, backupReserveFraction, block, nBatt, solarUpperBoundKW, cost)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func solveOneSize(
	index []time.Time,
	loadKWh []float64,
	solarRefPerKW []float64,
	tariffTable model.TariffTable,
	rtEfficiency float64,
	backupReserveFraction float64,
	block BlockSpec,
	nBatt int,
	solarUpperBoundKW float64,
	equipCost EquipmentCost,
) (Candidate, error) {
	n := len(index)
	eta := math.Sqrt(rtEfficiency)

	eMax := float64(nBatt) * block.EnergyKWh
	eMin := backupReserveFraction * eMax
	headroom := eMax - eMin
	pMax := float64(nBatt) * block.PowerKW

	nHourVars := hourVarsPerHour * n
	kSolarIdx := nHourVars
	nPrimary := nHourVars + 1
	nVars := 2 * nPrimary
	nRows := nHourVars + 1 + 2*n

	c := make([]float64, nVars)
	bVec := make([]float64, nRows)
	a := mat.NewDense(nRows, nVars, nil)

	primary := func(hour, col int) int { return hour*hourVarsPerHour + col }
	slack := func(varIdx int) int { return nPrimary + varIdx }

	upperBound := func(col int) float64 {
		switch col {
		case colCharge, colDischarge:
			return pMax
		case colGridBuy, colGridSell:
			return bigGridBound(loadKWh, solarRefPerKW, solarUpperBoundKW, pMax)
		case colEnergyAboveFloor:
			return headroom
		}
		panic("unreachable")
	}

	row := 0
	for h := 0; h < n; h++ {
		for col := 0; col < hourVarsPerHour; col++ {
			v := primary(h, col)
			a.Set(row, v, 1)
			a.Set(row, slack(v), 1)
			bVec[row] = upperBound(col)
			row++
		}
	}

	a.Set(row, kSolarIdx, 1)
	a.Set(row, slack(kSolarIdx), 1)
	bVec[row] = solarUpperBoundKW
	row++

	for h := 0; h < n; h++ {
		a.Set(row, primary(h, colCharge), -1)
		a.Set(row, primary(h, colDischarge), 1)
		a.Set(row, primary(h, colGridBuy), 1)
		a.Set(row, primary(h, colGridSell), -1)
		a.Set(row, kSolarIdx, solarRefPerKW[h])
		bVec[row] = loadKWh[h]
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
		c[primary(h, colGridBuy)] = tariffTable.Buy[h]
		c[primary(h, colGridSell)] = -tariffTable.Sell[h]
	}
	c[kSolarIdx] = equipCost.PerSolarKW

	_, x, err := lp.Simplex(c, a, bVec, 1e-8, nil)
	if err != nil {
		return Candidate{}, classifyLPError(err)
	}

	rows := make([]model.DispatchRow, n)
	for h := 0; h < n; h++ {
		chargeKW := x[primary(h, colCharge)]
		dischargeKW := x[primary(h, colDischarge)]
		gridBuyKW := x[primary(h, colGridBuy)]
		gridSellKW := x[primary(h, colGridSell)]
		energyAboveFloor := x[primary(h, colEnergyAboveFloor)]

		rows[h] = model.DispatchRow{
			Timestamp:      index[h],
			BatteryPowerKW: dischargeKW - chargeKW,
			GridPowerKW:    gridBuyKW - gridSellKW,
			EnergyKWh:      eMin + energyAboveFloor,
		}
	}
	sched := model.Schedule{Rows: rows}

	dispatchCost := 0.0
	for h := 0; h < n; h++ {
		g := sched.Rows[h].GridPowerKW
		if g > 0 {
			dispatchCost += g * tariffTable.Buy[h]
		} else {
			dispatchCost += g * tariffTable.Sell[h]
		}
	}

	solarSizeKW := x[kSolarIdx]
	equipmentCost := float64(nBatt)*equipCost.PerBatteryBlock + solarSizeKW*equipCost.PerSolarKW

	return Candidate{
		BatteryBlocks: nBatt,
		SolarSizeKW:   solarSizeKW,
		Schedule:      sched,
		DispatchCost:  dispatchCost,
		EquipmentCost: equipmentCost,
		TotalCost:     dispatchCost + equipmentCost,
	}, nil
}

// bigGridBound picks an upper bound for grid import/export that never
// binds, across the full range of solar sizes the sweep can choose.
func bigGridBound(loadKWh, solarRefPerKW []float64, solarUpperBoundKW, pMax float64) float64 {
	maxImbalance := 0.0
	for i := range loadKWh {
		imbalance := loadKWh[i] - solarUpperBoundKW*solarRefPerKW[i]
		if imbalance < 0 {
			imbalance = -imbalance
		}
		if imbalance > maxImbalance {
			maxImbalance = imbalance
		}
		if loadKWh[i] > maxImbalance {
			maxImbalance = loadKWh[i]
		}
	}
	return maxImbalance + pMax + 1
}

func classifyLPError(err error) error {
	switch {
	case errors.Is(err, lp.ErrInfeasible), errors.Is(err, lp.ErrUnbounded):
		return fmt.Errorf("%w: %v", model.ErrInfeasibleProblem, err)
	default:
		return fmt.Errorf("%w: %v", model.ErrNumericFailure, err)
	}
}
