package charts

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"taxidash/internal/api"
	"taxidash/internal/filter"
	"taxidash/internal/format"
)

// Palette.
const (
	Gold         = "#FFD700"
	MutedBorough = "rgba(255,255,255,0.15)"
	MutedFare    = "rgba(255,215,0,0.3)"
)

var boroughColors = []string{"#FFD700", "#FFC300", "#FFB300", "#FFA000", "#FF8F00", "#FF6F00"}

// FareBuckets is the fixed x-axis order of the fare histogram.
var FareBuckets = []string{"$0-10", "$10-20", "$20-30", "$30-40", "$40-50", "$50+"}

var ignoredBoroughs = map[string]bool{"": true, "Unknown": true, "N/A": true, "EWR": true}

// RenderTrends draws the daily series in chronological order.
func RenderTrends(r *Registry, rows []api.TrendPoint, st filter.State) error {
	sorted := slices.Clone(rows)
	slices.SortFunc(sorted, func(a, b api.TrendPoint) int { return strings.Compare(a.Date, b.Date) })

	points := make([]Point, 0, len(sorted))
	for _, row := range sorted {
		points = append(points, Point{
			Label:   format.ShortDate(row.Date),
			Value:   float64(row.Trips),
			Color:   Gold,
			Key:     row.Date,
			Tooltip: fmt.Sprintf("%s, 2019: %s trips", format.ShortDate(row.Date), format.Thousands(row.Trips)),
		})
	}

	period := "Jan 1–31, 2019"
	if st.Date != nil {
		period = format.Date(*st.Date)
	}
	return r.Redraw(SlotTrends, Spec{Kind: Line, Title: "Daily Trips", Period: period, YLabel: "Trips", Points: points})
}

// RenderBorough draws boroughs by descending count; excluded boroughs stay in the chart, muted.
func RenderBorough(r *Registry, rows []api.BoroughCount, st filter.State) error {
	valid := make([]api.BoroughCount, 0, len(rows))
	for _, b := range rows {
		if !ignoredBoroughs[strings.TrimSpace(b.Borough)] {
			valid = append(valid, b)
		}
	}
	slices.SortStableFunc(valid, func(a, b api.BoroughCount) int { return b.TripCount - a.TripCount })

	points := make([]Point, 0, len(valid))
	for i, b := range valid {
		color := "#555"
		if i < len(boroughColors) {
			color = boroughColors[i]
		}
		muted := !st.Boroughs.HasName(b.Borough)
		if muted {
			color = MutedBorough
		}
		points = append(points, Point{
			Label:   b.Borough,
			Value:   float64(b.TripCount),
			Color:   color,
			Muted:   muted,
			Key:     b.Borough,
			Tooltip: fmt.Sprintf("%s trips · Revenue: %s", format.Thousands(b.TripCount), format.Millions(b.TotalRevenue)),
		})
	}
	return r.Redraw(SlotBorough, Spec{Kind: HorizontalBar, Title: "Trips by Borough", YLabel: "Trips", Points: points})
}

// bucketRange returns the fare interval of a bucket label.
func bucketRange(label string) (lo, hi float64, ok bool) {
	for i, b := range FareBuckets {
		if b == label {
			lo = float64(i * 10)
			if i == len(FareBuckets)-1 {
				return lo, math.Inf(1), true
			}
			return lo, lo + 10, true
		}
	}
	return 0, 0, false
}

func bucketOrder(label string) int {
	if i := slices.Index(FareBuckets, label); i >= 0 {
		return i
	}
	return len(FareBuckets)
}

// RenderFare draws the fare histogram in bucket order, muting buckets outside the fare filter.
func RenderFare(r *Registry, rows []api.FareBucket, st filter.State) error {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b api.FareBucket) int { return bucketOrder(a.Range) - bucketOrder(b.Range) })

	points := make([]Point, 0, len(sorted))
	for _, b := range sorted {
		muted := false
		if lo, hi, ok := bucketRange(b.Range); ok && st.FareNarrowed() {
			muted = hi <= st.MinFare || lo >= st.MaxFare
		}
		color := Gold
		if muted {
			color = MutedFare
		}
		points = append(points, Point{
			Label:   b.Range,
			Value:   float64(b.Count),
			Color:   color,
			Muted:   muted,
			Key:     b.Range,
			Tooltip: format.Thousands(b.Count) + " trips",
		})
	}
	return r.Redraw(SlotFare, Spec{Kind: Bar, Title: "Fare Distribution", YLabel: "Trips", Points: points})
}

// RenderPeakHours draws the top five hours with bar widths relative to the busiest.
func RenderPeakHours(r *Registry, rows []api.PeakHour, st filter.State) error {
	top := rows
	if len(top) > 5 {
		top = top[:5]
	}
	maxCnt := 1
	for _, row := range top {
		maxCnt = max(maxCnt, row.TripCount)
	}

	points := make([]Point, 0, len(top))
	for _, row := range top {
		label := row.Label
		if label == "" {
			label = format.Hour(int(row.Hour))
		}
		points = append(points, Point{
			Label:    label,
			Value:    float64(row.TripCount),
			Percent:  int(math.Round(float64(row.TripCount) / float64(maxCnt) * 100)),
			Color:    Gold,
			Selected: st.Hour != nil && *st.Hour == int(row.Hour),
			Key:      fmt.Sprint(int(row.Hour)),
			Tooltip:  format.K(float64(row.TripCount)),
		})
	}
	return r.Redraw(SlotPeakHours, Spec{Kind: List, Title: "Peak Hours", Points: points})
}

// IsRushHour flags the morning and evening peaks.
func IsRushHour(h int) bool {
	return (h >= 7 && h <= 9) || (h >= 16 && h <= 18)
}

// FlatHours is the placeholder distribution used when the hourly fetch fails.
func FlatHours() []api.HourCount {
	out := make([]api.HourCount, 24)
	for i := range out {
		out[i] = api.HourCount{Hour: api.HourOfDay(i), TripCount: 100}
	}
	return out
}

// RenderHistogram draws all 24 hours; bars never drop below 4% so they stay clickable.
func RenderHistogram(r *Registry, rows []api.HourCount, st filter.State) error {
	byHour := make([]int, 24)
	for _, row := range rows {
		if h := int(row.Hour); h >= 0 && h < 24 {
			byHour[h] = row.TripCount
		}
	}
	maxCnt := 1
	for _, c := range byHour {
		maxCnt = max(maxCnt, c)
	}

	points := make([]Point, 0, 24)
	for h, cnt := range byHour {
		points = append(points, Point{
			Label:    format.Hour(h),
			Value:    float64(cnt),
			Percent:  max(4, int(math.Round(float64(cnt)/float64(maxCnt)*100))),
			Color:    Gold,
			Peak:     IsRushHour(h),
			Selected: st.Hour != nil && *st.Hour == h,
			Key:      fmt.Sprint(h),
			Tooltip:  fmt.Sprintf("%s: %s trips", format.Hour(h), format.Thousands(cnt)),
		})
	}

	period := format.PeriodLabel
	if st.Date != nil {
		period = format.Date(*st.Date)
	}
	return r.Redraw(SlotHistogram, Spec{Kind: Histogram, Title: "Pickups by Hour", Period: period, YLabel: "% of peak", Points: points})
}
