// Package meterdata ingests utility meter CSV exports into a
// model.LoadSeries (§6's meter CSV ingestion contract). It is an external
// collaborator to the dispatch core: the core never imports this package
// directly, only the CLI and HTTP fronts wire them together.
package meterdata

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"solar-dispatch/internal/model"
)

const headerPrefix = "TYPE,DATE,START TIME,END TIME,USAGE (kWh),COST,NOTES"

const defaultValueColumn = "USAGE (kWh)"

// Options configures LoadCSV.
type Options struct {
	// TimeZone is the deployment time zone the DATE/START TIME columns are
	// localized to. time.Local is used if nil.
	TimeZone *time.Location

	// ValueColumn selects which numeric column becomes the load series'
	// values, e.g. "USAGE (therms)" or "COST". Defaults to "USAGE (kWh)".
	ValueColumn string
}

// LoadCSV reads a utility meter export from path and returns its load
// series, trimmed to the trailing one year of data (§6).
func LoadCSV(path string, opts Options) (model.LoadSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.LoadSeries{}, fmt.Errorf("%w: %v", model.ErrIngestion, err)
	}
	defer f.Close()
	return Parse(f, opts)
}

// Parse reads a utility meter export from r. The leading lines may be
// informational metadata; parsing begins at the line starting with
// headerPrefix.
func Parse(r io.Reader, opts Options) (model.LoadSeries, error) {
	loc := opts.TimeZone
	if loc == nil {
		loc = time.Local
	}
	valueCol := opts.ValueColumn
	if valueCol == "" {
		valueCol = defaultValueColumn
	}

	header, dataLines, err := splitHeaderAndData(r)
	if err != nil {
		return model.LoadSeries{}, err
	}

	dateIdx, startIdx, valueIdx := -1, -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "DATE":
			dateIdx = i
		case "START TIME":
			startIdx = i
		case valueCol:
			valueIdx = i
		}
	}
	if dateIdx < 0 || startIdx < 0 || valueIdx < 0 {
		return model.LoadSeries{}, fmt.Errorf("%w: required column missing from header (need DATE, START TIME, %s)", model.ErrIngestion, valueCol)
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(dataLines, "\n")))
	reader.FieldsPerRecord = -1

	var idx []time.Time
	var vals []float64
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.LoadSeries{}, fmt.Errorf("%w: %v", model.ErrIngestion, err)
		}
		if len(rec) <= dateIdx || len(rec) <= startIdx || len(rec) <= valueIdx {
			continue
		}
		ts, ok := parseLocalInstant(rec[dateIdx], rec[startIdx], loc)
		if !ok {
			continue // DST-ambiguous or nonexistent instant, dropped per §6
		}
		v, err := parseNumeric(rec[valueIdx])
		if err != nil {
			return model.LoadSeries{}, fmt.Errorf("%w: %v", model.ErrIngestion, err)
		}
		idx = append(idx, ts)
		vals = append(vals, v)
	}
	if len(idx) == 0 {
		return model.LoadSeries{}, fmt.Errorf("%w: no usable rows parsed", model.ErrIngestion)
	}

	idx, vals = sortByIndex(idx, vals)
	idx, vals = trimToTrailingYear(idx, vals)

	series := model.LoadSeries{Index: idx, ValuesKWh: vals}
	if err := series.Validate(); err != nil {
		return model.LoadSeries{}, fmt.Errorf("%w: %v", model.ErrIngestion, err)
	}
	return series, nil
}

func splitHeaderAndData(r io.Reader) ([]string, []string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var header []string
	var dataLines []string
	found := false
	for scanner.Scan() {
		line := scanner.Text()
		if !found {
			if strings.HasPrefix(line, headerPrefix) {
				header = strings.Split(line, ",")
				found = true
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		dataLines = append(dataLines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", model.ErrIngestion, err)
	}
	if !found {
		return nil, nil, fmt.Errorf("%w: header line %q not found", model.ErrIngestion, headerPrefix)
	}
	return header, dataLines, nil
}

var dateLayouts = []string{"01/02/2006", "2006-01-02"}
var timeLayouts = []string{"15:04", "3:04 PM", "03:04 PM"}

// parseLocalInstant combines a DATE and START TIME field into a
// timezone-aware instant, dropping wall clocks that don't exist (spring
// DST gap) or that this resolution detects as a repeated wall clock
// (fall DST fold).
func parseLocalInstant(dateField, timeField string, loc *time.Location) (time.Time, bool) {
	dateField = strings.TrimSpace(dateField)
	timeField = strings.TrimSpace(timeField)

	var y, mo, d int
	dateOK := false
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateField); err == nil {
			y, mo, d = t.Year(), int(t.Month()), t.Day()
			dateOK = true
			break
		}
	}
	if !dateOK {
		return time.Time{}, false
	}

	var hh, mm int
	timeOK := false
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, timeField); err == nil {
			hh, mm = t.Hour(), t.Minute()
			timeOK = true
			break
		}
	}
	if !timeOK {
		return time.Time{}, false
	}

	t := time.Date(y, time.Month(mo), d, hh, mm, 0, 0, loc)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d || t.Hour() != hh || t.Minute() != mm {
		return time.Time{}, false // nonexistent wall clock: spring-forward gap
	}
	priorHour := t.Add(-time.Hour)
	if priorHour.Hour() == hh && priorHour.Minute() == mm && priorHour.Day() == d {
		return time.Time{}, false // repeated wall clock: fall-back fold
	}
	return t, true
}

func parseNumeric(field string) (float64, error) {
	field = strings.TrimSpace(field)
	field = strings.TrimPrefix(field, "$")
	field = strings.ReplaceAll(field, ",", "")
	if field == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value %q", field)
	}
	return v, nil
}

func sortByIndex(idx []time.Time, vals []float64) ([]time.Time, []float64) {
	order := make([]int, len(idx))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return idx[order[a]].Before(idx[order[b]]) })

	sortedIdx := make([]time.Time, len(order))
	sortedVals := make([]float64, len(order))
	for i, o := range order {
		sortedIdx[i] = idx[o]
		sortedVals[i] = vals[o]
	}
	return sortedIdx, sortedVals
}

// trimToTrailingYear keeps only the trailing one year of data relative to
// the series' last timestamp (§6).
func trimToTrailingYear(idx []time.Time, vals []float64) ([]time.Time, []float64) {
	if len(idx) == 0 {
		return idx, vals
	}
	cutoff := idx[len(idx)-1].AddDate(-1, 0, 0)
	start := 0
	for start < len(idx) && idx[start].Before(cutoff) {
		start++
	}
	return idx[start:], vals[start:]
}
