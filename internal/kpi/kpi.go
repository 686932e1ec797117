// Package kpi computes the summary cards, the header badge and the average-stats panel.
package kpi

import (
	"fmt"
	"math"
	"strings"

	"taxidash/internal/api"
	"taxidash/internal/filter"
	"taxidash/internal/format"
)

// Trend is the direction arrow of a card.
type Trend string

const (
	Up      Trend = "up"
	Down    Trend = "down"
	Neutral Trend = "neutral"
)

// Card is one KPI tile.
type Card struct {
	Title  string  `json:"title"`
	Value  string  `json:"value"`
	Change string  `json:"change"`
	Trend  Trend   `json:"trend"`
	Sub    string  `json:"sub,omitempty"`
	Delta  float64 `json:"delta_pct"`
}

// PercentChange returns (current-baseline)/baseline*100, or 0 when the baseline
// is zero or either value is not finite.
func PercentChange(current, baseline float64) float64 {
	if baseline == 0 || !finite(current) || !finite(baseline) {
		return 0
	}
	pct := (current - baseline) / baseline * 100
	if !finite(pct) {
		return 0
	}
	return pct
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Round1 rounds to one decimal, the precision cards display.
func Round1(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0 // normalise -0
	}
	return r
}

// TrendOf derives the direction from the sign of the displayed change.
func TrendOf(pct float64) Trend {
	switch r := Round1(pct); {
	case r > 0:
		return Up
	case r < 0:
		return Down
	default:
		return Neutral
	}
}

// ContextLabel describes the active time filter: the date, else the hour, else the full period.
func ContextLabel(st filter.State) string {
	switch {
	case st.Date != nil:
		return format.Date(*st.Date)
	case st.Hour != nil:
		return format.Hour(*st.Hour) + " filter"
	default:
		return format.PeriodLabel
	}
}

// Cards builds the four KPI tiles for current against the baseline snapshot.
func Cards(current, baseline api.Stats, st filter.State) []Card {
	tripChg := Round1(PercentChange(float64(current.TotalTrips), float64(baseline.TotalTrips)))
	fareChg := Round1(PercentChange(current.AvgFare, baseline.AvgFare))
	distChg := Round1(PercentChange(current.AvgDistance, baseline.AvgDistance))

	trips := Card{
		Title: "Total Trips",
		Value: format.Thousands(current.TotalTrips),
		Trend: TrendOf(tripChg),
		Sub:   "pickup count",
		Delta: tripChg,
	}
	if tripChg == 0 {
		trips.Change = ContextLabel(st)
	} else {
		trips.Change = format.Signed(tripChg) + " vs baseline"
	}

	revenue := Card{
		Title:  "Total Revenue",
		Value:  format.Millions(current.TotalRevenue),
		Change: "—",
		Trend:  Up,
	}
	if current.TotalTrips > 0 {
		revenue.Change = fmt.Sprintf("$%.2f/trip", current.TotalRevenue/float64(current.TotalTrips))
	}

	fare := Card{
		Title: "Avg. Fare",
		Value: fmt.Sprintf("$%.2f", current.AvgFare),
		Trend: TrendOf(fareChg),
		Delta: fareChg,
	}
	if fareChg == 0 {
		fare.Change = fmt.Sprintf("$%.2f avg tip", current.AvgTip)
	} else {
		fare.Change = format.Signed(fareChg) + " vs Jan avg"
	}

	dist := Card{
		Title:  "Avg. Distance",
		Value:  fmt.Sprintf("%.1f mi", current.AvgDistance),
		Change: fmt.Sprintf("%.1f mph · %d min", current.AvgSpeedMPH, int(math.Round(current.AvgDurationMinutes))),
		Trend:  TrendOf(distChg),
		Delta:  distChg,
	}
	if distChg != 0 {
		dist.Sub = format.Signed(distChg) + " vs Jan avg"
	}

	return []Card{trips, revenue, fare, dist}
}

// Badge is the header summary: trip count, period, hour and a partial borough selection.
func Badge(current api.Stats, st filter.State) string {
	parts := []string{format.Thousands(current.TotalTrips) + " trips"}
	if st.Date != nil {
		parts = append(parts, format.Date(*st.Date))
	} else {
		parts = append(parts, format.PeriodLabel)
	}
	if st.Hour != nil {
		parts = append(parts, format.Hour(*st.Hour))
	}
	if st.Boroughs.Partial() {
		parts = append(parts, st.Boroughs.Names())
	}
	return strings.Join(parts, " · ")
}

// AvgStats is the side panel under the map.
type AvgStats struct {
	Distance string `json:"distance"`
	Speed    string `json:"speed"`
	Duration string `json:"duration"`
}

// Averages formats the side panel values.
func Averages(s api.Stats) AvgStats {
	return AvgStats{
		Distance: fmt.Sprintf("%.1f miles", s.AvgDistance),
		Speed:    fmt.Sprintf("%.1f mph", s.AvgSpeedMPH),
		Duration: fmt.Sprintf("%d min", int(math.Round(s.AvgDurationMinutes))),
	}
}
