package kpi

import (
	"math"
	"strings"
	"testing"

	"taxidash/internal/api"
	"taxidash/internal/filter"
)

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name     string
		cur      float64
		base     float64
		expected float64
	}{
		{"Increase", 110, 100, 10},
		{"Decrease", 50, 100, -50},
		{"Same", 100, 100, 0},
		{"ZeroBaseline", 10, 0, 0},
		{"BothZero", 0, 0, 0},
		{"NaNCurrent", math.NaN(), 100, 0},
		{"InfBaseline", 10, math.Inf(1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentChange(tt.cur, tt.base)
			if got != tt.expected || math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("PercentChange(%v, %v) = %v, want %v", tt.cur, tt.base, got, tt.expected)
			}
		})
	}
}

func TestTrendOf(t *testing.T) {
	if TrendOf(0.04) != Neutral || TrendOf(-0.04) != Neutral {
		t.Error("changes rounding to 0.0 must be neutral")
	}
	if TrendOf(0.06) != Up || TrendOf(-3) != Down {
		t.Error("sign not respected")
	}
}

func TestCards_AgainstBaseline(t *testing.T) {
	base := api.Stats{TotalTrips: 7_500_000, AvgFare: 15, AvgDistance: 3}
	cur := api.Stats{TotalTrips: 3_000_000, AvgFare: 18, AvgDistance: 3, TotalRevenue: 54_000_000}
	st := filter.Defaults()
	st.Boroughs = filter.NewBoroughSet(filter.Manhattan)
	st.MinFare = 10

	cards := Cards(cur, base, st)
	if cards[0].Title != "Total Trips" || cards[0].Change != "-60.0% vs baseline" || cards[0].Trend != Down {
		t.Errorf("trips card = %+v", cards[0])
	}
	if cards[1].Change != "$18.00/trip" {
		t.Errorf("revenue card = %+v", cards[1])
	}
	if cards[2].Change != "+20.0% vs Jan avg" || cards[2].Trend != Up {
		t.Errorf("fare card = %+v", cards[2])
	}
	if cards[3].Sub != "" || cards[3].Trend != Neutral {
		t.Errorf("distance card = %+v", cards[3])
	}
}

func TestCards_ZeroChangeFallsBackToContext(t *testing.T) {
	s := api.Stats{TotalTrips: 100, AvgFare: 10}
	tests := []struct {
		name  string
		state func() filter.State
		want  string
	}{
		{"FullPeriod", filter.Defaults, "January 2019"},
		{"Date", func() filter.State {
			st := filter.Defaults()
			d := "2019-01-15"
			st.Date = &d
			return st
		}, "Jan 15, 2019"},
		{"Hour", func() filter.State {
			st := filter.Defaults()
			h := 8
			st.Hour = &h
			return st
		}, "8 AM filter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cards(s, s, tt.state())[0].Change; got != tt.want {
				t.Errorf("change = %q, want %q", got, tt.want)
			}
		})
	}

	zeroBase := Cards(s, api.Stats{}, filter.Defaults())
	for _, c := range zeroBase {
		if strings.Contains(c.Change, "NaN") || strings.Contains(c.Change, "Inf") {
			t.Errorf("card %q renders %q", c.Title, c.Change)
		}
	}
}

func TestBadge(t *testing.T) {
	s := api.Stats{TotalTrips: 1234}
	st := filter.Defaults()
	if got := Badge(s, st); got != "1,234 trips · January 2019" {
		t.Errorf("Badge = %q", got)
	}

	h := 8
	st.Hour = &h
	st.Boroughs = filter.NewBoroughSet(filter.Queens, filter.Bronx)
	if got := Badge(s, st); got != "1,234 trips · January 2019 · 8 AM · Queens, Bronx" {
		t.Errorf("Badge = %q", got)
	}
}
