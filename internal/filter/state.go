// Package filter holds the dashboard filter state and turns it into API query strings.
package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"taxidash/internal/format"
)

// Slider bounds and steps.
const (
	FareMin      = 0.0
	FareMax      = 250.0
	FareStep     = 1.0
	DistanceMin  = 0.0
	DistanceMax  = 50.0
	DistanceStep = 0.5
)

// Supported date window of the dataset.
const (
	FirstDate = "2019-01-01"
	LastDate  = "2019-01-31"
)

// State is the filter record read by the query builder.
type State struct {
	Boroughs    BoroughSet
	MinFare     float64
	MaxFare     float64
	MinDistance float64
	MaxDistance float64
	Date        *string
	Hour        *int
}

// Defaults returns the unfiltered state.
func Defaults() State {
	return State{
		Boroughs:    FullBoroughSet,
		MinFare:     FareMin,
		MaxFare:     FareMax,
		MinDistance: DistanceMin,
		MaxDistance: DistanceMax,
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	if s.Date != nil {
		d := *s.Date
		c.Date = &d
	}
	if s.Hour != nil {
		h := *s.Hour
		c.Hour = &h
	}
	return c
}

// IsDefault reports whether the state narrows nothing.
func (s State) IsDefault() bool {
	return s.Encode() == ""
}

// FareNarrowed reports whether the fare range differs from the full range.
func (s State) FareNarrowed() bool {
	return s.MinFare > FareMin || s.MaxFare < FareMax
}

// Encode builds the query string for the filtered endpoints.
// Parameters at their default value are omitted; the order is fixed.
func (s State) Encode() string {
	var parts []string
	add := func(key, value string) {
		parts = append(parts, key+"="+url.QueryEscape(value))
	}

	if s.Date != nil {
		add("date", *s.Date)
	}
	if s.Hour != nil {
		add("hour", strconv.Itoa(*s.Hour))
	}
	if s.MinFare > FareMin {
		add("min_fare", format.Number(s.MinFare))
	}
	if s.MaxFare < FareMax {
		add("max_fare", format.Number(s.MaxFare))
	}
	if s.MinDistance > DistanceMin {
		add("min_distance", format.Number(s.MinDistance))
	}
	if s.MaxDistance < DistanceMax {
		add("max_distance", format.Number(s.MaxDistance))
	}
	if s.Boroughs.Partial() {
		for _, b := range s.Boroughs.List() {
			add("borough", string(b))
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

// Query is Encode as a free function.
func Query(s State) string {
	return s.Encode()
}

// TrendsQuery keeps only the borough selection; the daily series always spans the month.
func TrendsQuery(s State) string {
	return State{
		Boroughs:    s.Boroughs,
		MinFare:     FareMin,
		MaxFare:     FareMax,
		MinDistance: DistanceMin,
		MaxDistance: DistanceMax,
	}.Encode()
}

// DateQuery keeps only the date; the hourly histogram is drawn per day.
func DateQuery(s State) string {
	if s.Date == nil {
		return ""
	}
	return "?date=" + url.QueryEscape(*s.Date)
}

// ValidateDate checks that iso is a calendar date inside the dataset month.
func ValidateDate(iso string) error {
	if _, err := time.Parse(time.DateOnly, iso); err != nil {
		return fmt.Errorf("invalid date %q: %w", iso, err)
	}
	if iso < FirstDate || iso > LastDate {
		return fmt.Errorf("date %s outside %s..%s", iso, FirstDate, LastDate)
	}
	return nil
}

// normalizeRange clamps lo/hi into [lower,upper] and keeps lo < hi by at least one step.
func normalizeRange(lo, hi, lower, upper, step float64) (float64, float64) {
	lo = clamp(lo, lower, upper)
	hi = clamp(hi, lower, upper)
	if lo >= hi {
		if hi-step >= lower {
			lo = hi - step
		} else {
			lo = lower
			hi = lower + step
		}
	}
	return lo, hi
}

func clamp(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}
