package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Stats is the aggregate returned by /statistics.
type Stats struct {
	TotalTrips         int     `json:"total_trips"`
	TotalRevenue       float64 `json:"total_revenue"`
	AvgFare            float64 `json:"avg_fare"`
	AvgTip             float64 `json:"avg_tip"`
	AvgDistance        float64 `json:"avg_distance"`
	AvgPassengers      float64 `json:"avg_passengers"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
	AvgSpeedMPH        float64 `json:"avg_speed_mph"`
	AvgFarePerMile     float64 `json:"avg_fare_per_mile"`
}

// HourOfDay accepts both 8 and "08" on the wire.
type HourOfDay int

func (h *HourOfDay) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*h = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid hour %s: %w", data, err)
	}
	*h = HourOfDay(n)
	return nil
}

// PeakHour is one row of /statistics/peak-hours, ordered busiest first.
type PeakHour struct {
	Hour      HourOfDay `json:"hour"`
	Label     string    `json:"label"`
	TripCount int       `json:"trip_count"`
}

// HourCount is one row of /statistics/pickup-time-distribution.
type HourCount struct {
	Hour      HourOfDay `json:"hour"`
	TripCount int       `json:"trip_count"`
}

// ZoneCounts maps zone id to pickup count.
type ZoneCounts map[string]int

// BoroughCount is one row of /statistics/by-borough.
type BoroughCount struct {
	Borough      string  `json:"borough"`
	TripCount    int     `json:"trip_count"`
	AvgDistance  float64 `json:"avg_distance"`
	AvgFare      float64 `json:"avg_fare"`
	AvgDuration  float64 `json:"avg_duration"`
	AvgSpeed     float64 `json:"avg_speed"`
	TotalRevenue float64 `json:"total_revenue"`
}

// boroughList decodes either a bare array or the {"by_borough": [...]} envelope.
type boroughList []BoroughCount

func (l *boroughList) UnmarshalJSON(data []byte) error {
	var rows []BoroughCount
	if err := json.Unmarshal(data, &rows); err == nil {
		*l = rows
		return nil
	}
	var env struct {
		ByBorough []BoroughCount `json:"by_borough"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*l = env.ByBorough
	return nil
}

// FareBucket is one row of /statistics/fare-distribution.
type FareBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// TrendPoint is one day of /statistics/trends.
type TrendPoint struct {
	Date  string `json:"date"`
	Trips int    `json:"trips"`
}
