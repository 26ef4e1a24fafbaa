package meterdata

import (
	"strings"
	"testing"
	"time"
)

func TestParse_BasicUsageColumn(t *testing.T) {
	csv := `This is your electricity usage export.
Generated 2024-01-05.

TYPE,DATE,START TIME,END TIME,USAGE (kWh),COST,NOTES
Electric usage,01/01/2024,00:00,01:00,1.200,$0.48,
Electric usage,01/01/2024,01:00,02:00,1.100,$0.44,
`
	series, err := Parse(strings.NewReader(csv), Options{TimeZone: time.UTC})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("got %d rows, want 2", series.Len())
	}
	if series.ValuesKWh[0] != 1.2 || series.ValuesKWh[1] != 1.1 {
		t.Errorf("values = %v, want [1.2 1.1]", series.ValuesKWh)
	}
	want0 := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !series.Index[0].Equal(want0) {
		t.Errorf("index[0] = %v, want %v", series.Index[0], want0)
	}
}

func TestParse_AlternateColumnWithCurrencyStripping(t *testing.T) {
	csv := `TYPE,DATE,START TIME,END TIME,USAGE (kWh),COST,NOTES
Electric usage,01/01/2024,00:00,01:00,1.200,"$0.48",
Electric usage,01/01/2024,01:00,02:00,1.100,"$1,234.56",
`
	series, err := Parse(strings.NewReader(csv), Options{TimeZone: time.UTC, ValueColumn: "COST"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if series.ValuesKWh[0] != 0.48 {
		t.Errorf("cost[0] = %v, want 0.48", series.ValuesKWh[0])
	}
	if series.ValuesKWh[1] != 1234.56 {
		t.Errorf("cost[1] = %v, want 1234.56", series.ValuesKWh[1])
	}
}

func TestParse_MissingHeaderErrors(t *testing.T) {
	csv := "not,a,valid,header\n1,2,3,4\n"
	_, err := Parse(strings.NewReader(csv), Options{TimeZone: time.UTC})
	if err == nil {
		t.Fatal("expected error for missing header")
	}
}

func TestParse_TrimsToTrailingYear(t *testing.T) {
	var b strings.Builder
	b.WriteString("TYPE,DATE,START TIME,END TIME,USAGE (kWh),COST,NOTES\n")
	b.WriteString("Electric usage,01/01/2022,00:00,01:00,1.0,$0.40,\n")
	b.WriteString("Electric usage,06/01/2024,00:00,01:00,2.0,$0.80,\n")
	b.WriteString("Electric usage,06/02/2024,00:00,01:00,3.0,$1.20,\n")

	series, err := Parse(strings.NewReader(b.String()), Options{TimeZone: time.UTC})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("got %d rows, want 2 (2022 row trimmed)", series.Len())
	}
	if series.ValuesKWh[0] != 2.0 {
		t.Errorf("first retained value = %v, want 2.0", series.ValuesKWh[0])
	}
}

func TestParse_SpringForwardGapDropped(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	csv := `TYPE,DATE,START TIME,END TIME,USAGE (kWh),COST,NOTES
Electric usage,03/10/2024,01:00,02:00,1.0,$0.40,
Electric usage,03/10/2024,02:30,03:30,1.0,$0.40,
Electric usage,03/10/2024,03:00,04:00,1.0,$0.40,
`
	series, err := Parse(strings.NewReader(csv), Options{TimeZone: loc})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, ts := range series.Index {
		if ts.Hour() == 2 && ts.Minute() == 30 {
			t.Errorf("nonexistent wall clock 02:30 on spring-forward day was not dropped")
		}
	}
}
