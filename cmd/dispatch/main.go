// Command dispatch is the CLI front of §6: it takes a meter CSV, a solar
// size, and a battery size, and writes a dispatch schedule CSV.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"solar-dispatch/internal/config"
	"solar-dispatch/internal/dispatch"
	"solar-dispatch/internal/meterdata"
	"solar-dispatch/internal/model"
	"solar-dispatch/internal/tariff"
	"solar-dispatch/internal/timeseries"
)

func main() {
	fs := flag.NewFlagSet("dispatch", flag.ExitOnError)
	meterPath := fs.String("meter", "", "Path to a utility meter CSV export")
	solarRefPath := fs.String("solar-ref", "", "Path to a solar reference CSV (timestamp,kwh_per_kw)")
	solarSizeKW := fs.Float64("solar-kw", 0, "Installed solar size in kW")
	cfgPath := fs.String("config", "", "Path to YAML battery/tariff config")
	mode := fs.String("mode", "lp", "Dispatch mode: lp or greedy")
	timeZone := fs.String("tz", "", "IANA time zone for meter timestamps (default: local)")
	outPath := fs.String("out", "results/dispatch.csv", "Output CSV path")
	_ = fs.Parse(os.Args[1:])

	if *meterPath == "" {
		fmt.Println("--meter is required")
		os.Exit(2)
	}
	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	loc, err := resolveTimeZone(*timeZone)
	if err != nil {
		panic(err)
	}

	load, err := meterdata.LoadCSV(*meterPath, meterdata.Options{TimeZone: loc})
	if err != nil {
		fmt.Fprintf(os.Stderr, "meter ingestion failed: %v\n", err)
		os.Exit(1)
	}

	site := model.SiteSeries{Index: load.Index, LoadKWh: load.ValuesKWh, SolarKWh: make([]float64, load.Len())}
	if *solarRefPath != "" && *solarSizeKW > 0 {
		ref, err := meterdata.LoadSolarReferenceCSV(*solarRefPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "solar reference ingestion failed: %v\n", err)
			os.Exit(1)
		}
		site, err = timeseries.BuildSiteSeries(load, ref, *solarSizeKW)
		if err != nil {
			fmt.Fprintf(os.Stderr, "site series assembly failed: %v\n", err)
			os.Exit(1)
		}
	}

	buy, err := cfg.Tariff.BuySchedule()
	if err != nil {
		panic(err)
	}
	sell, err := cfg.Tariff.SellSchedule()
	if err != nil {
		panic(err)
	}
	tariffTable := tariff.Build(site.Index, buy, sell)

	batt := cfg.Battery.ToModelParams()

	var sched model.Schedule
	switch *mode {
	case "lp":
		sched, err = dispatch.SolveLP(site, tariffTable, batt)
	case "greedy":
		sched, err = dispatch.Greedy(site, batt)
	default:
		fmt.Fprintf(os.Stderr, "unsupported mode: %q\n", *mode)
		os.Exit(2)
	}
	if err != nil {
		exitForDispatchError(err)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := writeScheduleCSV(*outPath, sched); err != nil {
		panic(err)
	}

	cost, err := dispatch.DailyCostFromSchedule(sched, tariffTable)
	if err != nil {
		exitForDispatchError(err)
	}

	fmt.Printf("Wrote %d rows to %s\n", len(sched.Rows), *outPath)
	fmt.Printf("Daily cost=$%.2f\n", cost)
}

// exitForDispatchError maps the core's sentinel error kinds onto §6's
// exit-code contract: 0 on success, nonzero on infeasibility or
// input-parse failure.
func exitForDispatchError(err error) {
	switch {
	case errors.Is(err, model.ErrInfeasibleProblem):
		fmt.Fprintf(os.Stderr, "dispatch infeasible: %v\n", err)
	case errors.Is(err, model.ErrInputMisalignment), errors.Is(err, model.ErrInvalidParameters):
		fmt.Fprintf(os.Stderr, "invalid input: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "dispatch failed: %v\n", err)
	}
	os.Exit(1)
}

func resolveTimeZone(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// writeScheduleCSV writes the §6 output contract: P_batt, P_grid, E
// indexed by timestamp.
func writeScheduleCSV(path string, sched model.Schedule) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "P_batt", "P_grid", "E"}); err != nil {
		return err
	}
	for _, r := range sched.Rows {
		row := []string{
			r.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(r.BatteryPowerKW, 'f', 6, 64),
			strconv.FormatFloat(r.GridPowerKW, 'f', 6, 64),
			strconv.FormatFloat(r.EnergyKWh, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
