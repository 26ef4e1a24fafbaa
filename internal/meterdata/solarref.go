package meterdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"solar-dispatch/internal/model"
	"solar-dispatch/internal/timeseries"
)

// LoadSolarReferenceCSV reads a per-kW-installed AC solar output reference
// series: two columns, an RFC3339 timestamp and a kWh/kW value, no header.
// Acquiring this file (e.g. from a PVWatts-style API) is out of scope; this
// only parses one already on disk.
func LoadSolarReferenceCSV(path string) (timeseries.SolarReference, error) {
	f, err := os.Open(path)
	if err != nil {
		return timeseries.SolarReference{}, fmt.Errorf("%w: %v", model.ErrIngestion, err)
	}
	defer f.Close()
	return ParseSolarReference(f)
}

// ParseSolarReference reads a solar reference series from r.
func ParseSolarReference(r io.Reader) (timeseries.SolarReference, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var idx []time.Time
	var vals []float64
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return timeseries.SolarReference{}, fmt.Errorf("%w: %v", model.ErrIngestion, err)
		}
		if len(rec) < 2 {
			continue
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			continue // skip header/comment lines
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return timeseries.SolarReference{}, fmt.Errorf("%w: %v", model.ErrIngestion, err)
		}
		idx = append(idx, ts)
		vals = append(vals, v)
	}
	if len(idx) == 0 {
		return timeseries.SolarReference{}, fmt.Errorf("%w: no usable rows parsed", model.ErrIngestion)
	}
	return timeseries.SolarReference{Index: idx, PerKWOutput: vals}, nil
}
