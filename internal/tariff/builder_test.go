package tariff

import (
	"testing"
	"time"
)

func TestBuildDefault_BoundaryHours(t *testing.T) {
	loc := time.UTC
	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, loc)

	cases := []struct {
		hh, mm   int
		wantBuy  float64
		wantSell float64
	}{
		{16, 0, 0.52, 0.08},
		{15, 59, 0.40, 0.08},
		{21, 0, 0.52, 0.05},
		{22, 0, 0.40, 0.05},
		{15, 0, 0.40, 0.08},
		{20, 0, 0.52, 0.08},
		{20, 1, 0.52, 0.05},
	}

	index := make([]time.Time, len(cases))
	for i, c := range cases {
		index[i] = day.Add(time.Duration(c.hh)*time.Hour + time.Duration(c.mm)*time.Minute)
	}

	table := BuildDefault(index)
	for i, c := range cases {
		if table.Buy[i] != c.wantBuy {
			t.Errorf("%02d:%02d buy = %v, want %v", c.hh, c.mm, table.Buy[i], c.wantBuy)
		}
		if table.Sell[i] != c.wantSell {
			t.Errorf("%02d:%02d sell = %v, want %v", c.hh, c.mm, table.Sell[i], c.wantSell)
		}
	}
}

func TestBuildDefault_SellNeverExceedsBuy(t *testing.T) {
	loc := time.UTC
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, loc)
	idx := make([]time.Time, 24)
	for i := range idx {
		idx[i] = start.Add(time.Duration(i) * time.Hour)
	}
	table := BuildDefault(idx)
	if err := table.Validate(); err != nil {
		t.Fatalf("tariff invariant violated: %v", err)
	}
}
