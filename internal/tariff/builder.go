// Package tariff builds the per-hour (buy, sell) price table a dispatch
// run is optimized against (§4.2).
package tariff

import (
	"time"

	"solar-dispatch/internal/model"
)

// TimeWindow is an inclusive local time-of-day window [Start, End], both
// given as minutes since midnight. Inclusive at both ends matches the
// source behavior on minute-aligned hours (§4.2).
type TimeWindow struct {
	StartMinute int
	EndMinute   int
}

func (w TimeWindow) contains(minuteOfDay int) bool {
	return minuteOfDay >= w.StartMinute && minuteOfDay <= w.EndMinute
}

// Schedule is a parameterizable time-of-use schedule: a base price plus a
// list of windows that override it. Windows are evaluated in order; the
// first matching window wins. This lets callers substitute an arbitrary
// curve while the package default implements §4.2's two-tier contract.
type Schedule struct {
	BasePrice float64
	Windows   []PricedWindow
}

// PricedWindow pairs a time-of-day window with the price that applies
// inside it.
type PricedWindow struct {
	Window TimeWindow
	Price  float64
}

func (s Schedule) priceAt(t time.Time) float64 {
	minuteOfDay := t.Hour()*60 + t.Minute()
	for _, pw := range s.Windows {
		if pw.Window.contains(minuteOfDay) {
			return pw.Price
		}
	}
	return s.BasePrice
}

// DefaultBuySchedule is the domain-default two-tier buy price: $0.52/kWh
// in [16:00, 21:00] local time, else $0.40/kWh.
func DefaultBuySchedule() Schedule {
	return Schedule{
		BasePrice: 0.40,
		Windows: []PricedWindow{
			{Window: TimeWindow{StartMinute: 16 * 60, EndMinute: 21 * 60}, Price: 0.52},
		},
	}
}

// DefaultSellSchedule is the domain-default two-tier sell price:
// $0.08/kWh in [15:00, 20:00] local time, else $0.05/kWh.
func DefaultSellSchedule() Schedule {
	return Schedule{
		BasePrice: 0.05,
		Windows: []PricedWindow{
			{Window: TimeWindow{StartMinute: 15 * 60, EndMinute: 20 * 60}, Price: 0.08},
		},
	}
}

// Build produces a TariffTable over index using buy and sell schedules.
// The zero Schedule{} prices every hour at 0; callers wanting the domain
// default should use DefaultBuySchedule/DefaultSellSchedule.
func Build(index []time.Time, buy, sell Schedule) model.TariffTable {
	table := model.TariffTable{
		Index: index,
		Buy:   make([]float64, len(index)),
		Sell:  make([]float64, len(index)),
	}
	for i, t := range index {
		table.Buy[i] = buy.priceAt(t)
		table.Sell[i] = sell.priceAt(t)
	}
	return table
}

// BuildDefault produces the domain-default two-tier tariff table over
// index.
func BuildDefault(index []time.Time) model.TariffTable {
	return Build(index, DefaultBuySchedule(), DefaultSellSchedule())
}
