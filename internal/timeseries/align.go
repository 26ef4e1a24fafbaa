// Package timeseries aligns a solar generation reference series onto a
// load series' hourly index (§4.1 of the dispatch specification).
package timeseries

import (
	"fmt"
	"sort"
	"time"

	"solar-dispatch/internal/model"
)

// referenceLeapYear is the leap year the solar reference series is
// canonically anchored to. A load index containing Feb 29 is shifted so
// that date lands on this year, so it reads the reference's actual
// recorded leap-day generation rather than a forward-filled neighbor.
const referenceLeapYear = 2020

// referenceLateYear is used when the load index has no Feb 29 and its
// last sample falls after February; it anchors the shift without ever
// requiring the reference's leap day to be dropped or duplicated.
const referenceLateYear = 2021

// referenceEarlyYear is used when the load index has no Feb 29 and its
// last sample falls on Dec 31 or in January/February; both cases read
// from the reference's non-leap year immediately before referenceLeapYear.
const referenceEarlyYear = 2019

// SolarReference is the per-kW-installed AC solar output reference series
// (§3's S_ref), keyed by its own timestamp index. Its index must span at
// least one full non-leap-year and cover referenceLeapYear's Feb 29.
type SolarReference struct {
	Index       []time.Time
	PerKWOutput []float64 // kWh/kW per hour
}

// BuildSiteSeries aligns ref onto load.Index and scales it by solarSizeKW,
// returning the (load, solar) table the dispatch solver consumes.
func BuildSiteSeries(load model.LoadSeries, ref SolarReference, solarSizeKW float64) (model.SiteSeries, error) {
	if err := load.Validate(); err != nil {
		return model.SiteSeries{}, err
	}
	if len(ref.Index) == 0 || len(ref.Index) != len(ref.PerKWOutput) {
		return model.SiteSeries{}, fmt.Errorf("%w: solar reference is empty or malformed", model.ErrInvalidParameters)
	}
	if solarSizeKW < 0 {
		return model.SiteSeries{}, fmt.Errorf("%w: solar size must be >= 0", model.ErrInvalidParameters)
	}

	shiftYears := determineShiftYears(load.Index)

	shiftedIndex := make([]time.Time, len(ref.Index))
	for i, t := range ref.Index {
		shiftedIndex[i] = shiftYearsUTC(t, shiftYears)
	}

	order := make([]int, len(shiftedIndex))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return shiftedIndex[order[a]].Before(shiftedIndex[order[b]]) })

	sortedIndex := make([]time.Time, len(order))
	sortedValues := make([]float64, len(order))
	for i, idx := range order {
		sortedIndex[i] = shiftedIndex[idx]
		sortedValues[i] = ref.PerKWOutput[idx]
	}

	aligned := resampleRightClosedLastSample(sortedIndex, sortedValues, load.Index)

	solar := make([]float64, len(load.Index))
	for i, v := range aligned {
		s := solarSizeKW * v
		if s < 0 {
			s = 0
		}
		solar[i] = s
	}

	site := model.SiteSeries{
		Index:    load.Index,
		LoadKWh:  load.ValuesKWh,
		SolarKWh: solar,
	}
	return site, site.Validate()
}

// determineShiftYears picks the number of years to translate the solar
// reference's index by so that it lines up with load's calendar, with
// leap-day semantics preserved (§4.1 step 1). The shift is applied to
// the *reference*, so a load year y_L that should read from the
// reference's year y_ref needs shift = y_L - y_ref.
//
// If load contains a Feb 29, the reference's referenceLeapYear is shifted
// onto that year, so the load's leap day reads the reference's real
// recorded leap-day generation. Otherwise the choice of reference year
// is keyed off the load's last timestamp: a window ending Dec 31 or in
// January/February reads referenceEarlyYear, and a window ending later
// in the year reads referenceLateYear, so the reference's own leap day
// never has to be collapsed into Feb 28 or Mar 1.
func determineShiftYears(loadIndex []time.Time) int {
	for _, t := range loadIndex {
		if t.Month() == time.February && t.Day() == 29 {
			return t.Year() - referenceLeapYear
		}
	}

	end := loadIndex[len(loadIndex)-1]
	switch {
	case end.Month() == time.December && end.Day() == 31:
		return end.Year() - referenceEarlyYear
	case end.Month() > time.February:
		return end.Year() - referenceLateYear
	default:
		return end.Year() - referenceEarlyYear
	}
}

// shiftYearsUTC translates t by shiftYears calendar years, performing the
// arithmetic in UTC to avoid DST-induced ambiguous or nonexistent local
// instants, then converts back to t's original time zone.
func shiftYearsUTC(t time.Time, shiftYears int) time.Time {
	loc := t.Location()
	shifted := t.UTC().AddDate(shiftYears, 0, 0)
	return shifted.In(loc)
}

// resampleRightClosedLastSample resamples (srcIndex, srcValues) — assumed
// sorted ascending by srcIndex — onto targetIndex using right-closed
// last-sample semantics: each target timestamp takes the value of the
// latest source sample at or before it. Target timestamps preceding the
// first source sample default to 0, matching the left-join-with-zero
// contract of §4.1 step 4.
func resampleRightClosedLastSample(srcIndex []time.Time, srcValues []float64, targetIndex []time.Time) []float64 {
	out := make([]float64, len(targetIndex))
	j := 0
	last := 0.0
	for i, t := range targetIndex {
		for j < len(srcIndex) && !srcIndex[j].After(t) {
			last = srcValues[j]
			j++
		}
		out[i] = last
	}
	return out
}
