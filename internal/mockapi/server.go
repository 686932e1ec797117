package mockapi

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"taxidash/internal/api"
	"taxidash/internal/format"
	"taxidash/internal/geo"

	"github.com/rs/zerolog/log"
)

// Prefix is the path the API is mounted under.
const Prefix = "/api"

// Server serves the statistics API over a Dataset and records every request.
type Server struct {
	data *Dataset
	mux  *http.ServeMux

	mu       sync.Mutex
	requests []string
	failures map[string]int
	gates    map[string]chan struct{}
}

// NewServer creates the handler for ds.
func NewServer(ds *Dataset) *Server {
	s := &Server{
		data:     ds,
		mux:      http.NewServeMux(),
		failures: map[string]int{},
		gates:    map[string]chan struct{}{},
	}
	s.mux.HandleFunc("GET "+Prefix+"/statistics", s.handleStatistics)
	s.mux.HandleFunc("GET "+Prefix+"/statistics/peak-hours", s.handlePeakHours)
	s.mux.HandleFunc("GET "+Prefix+"/statistics/by-zone", s.handleByZone)
	s.mux.HandleFunc("GET "+Prefix+"/statistics/by-borough", s.handleByBorough)
	s.mux.HandleFunc("GET "+Prefix+"/statistics/fare-distribution", s.handleFareDistribution)
	s.mux.HandleFunc("GET "+Prefix+"/statistics/trends", s.handleTrends)
	s.mux.HandleFunc("GET "+Prefix+"/statistics/pickup-time-distribution", s.handlePickupTimes)
	s.mux.HandleFunc("GET "+Prefix+"/zones/geojson", s.handleGeoJSON)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, Prefix)
	req := path
	if r.URL.RawQuery != "" {
		req += "?" + r.URL.RawQuery
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	status := s.failures[path]
	gate := s.gates[path]
	s.mu.Unlock()

	log.Debug().Str("request", req).Msg("Mock API request")

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// Requests returns every request seen so far as path plus raw query, relative to Prefix.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// RequestsFor returns the recorded requests for one path.
func (s *Server) RequestsFor(path string) []string {
	var out []string
	for _, r := range s.Requests() {
		if p, _, _ := strings.Cut(r, "?"); p == path {
			out = append(out, r)
		}
	}
	return out
}

// ClearRequests forgets the recorded requests.
func (s *Server) ClearRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Fail makes path answer with status until Heal is called.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Heal removes every injected failure.
func (s *Server) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.failures)
}

// Hold blocks requests for path until the returned release func is called.
func (s *Server) Hold(path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[path] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[path] == ch {
				delete(s.gates, path)
			}
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Criteria is a parsed filter query.
type Criteria struct {
	Day                      int
	Hour                     int
	MinFare, MaxFare         float64
	MinDistance, MaxDistance float64
	Boroughs                 []string
}

// ParseCriteria reads the query parameters the dashboard sends.
func ParseCriteria(q url.Values) (Criteria, error) {
	c := Criteria{Hour: -1, MaxFare: math.Inf(1), MaxDistance: math.Inf(1)}
	if v := q.Get("date"); v != "" {
		var y, m, d int
		if _, err := fmt.Sscanf(v, "%d-%d-%d", &y, &m, &d); err != nil || y != 2019 || m != 1 {
			return c, fmt.Errorf("invalid date %q", v)
		}
		c.Day = d
	}
	if v := q.Get("hour"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h < 0 || h > 23 {
			return c, fmt.Errorf("invalid hour %q", v)
		}
		c.Hour = h
	}
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"min_fare", &c.MinFare},
		{"max_fare", &c.MaxFare},
		{"min_distance", &c.MinDistance},
		{"max_distance", &c.MaxDistance},
	} {
		if v := q.Get(p.name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return c, fmt.Errorf("invalid %s %q", p.name, v)
			}
			*p.dst = f
		}
	}
	c.Boroughs = q["borough"]
	return c, nil
}

// Select returns the trips matching c.
func (d *Dataset) Select(c Criteria) []Trip {
	var out []Trip
	for _, t := range d.Trips {
		if c.Day != 0 && t.Day != c.Day {
			continue
		}
		if c.Hour >= 0 && t.Hour != c.Hour {
			continue
		}
		if t.Fare < c.MinFare || t.Fare > c.MaxFare || t.Distance < c.MinDistance || t.Distance > c.MaxDistance {
			continue
		}
		if len(c.Boroughs) > 0 && !slices.Contains(c.Boroughs, d.zones[t.Zone].Borough) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Stats aggregates trips the way /statistics does.
func (d *Dataset) Stats(trips []Trip) api.Stats {
	scale := d.Config.Scale
	st := api.Stats{TotalTrips: len(trips) * scale}
	if len(trips) == 0 {
		return st
	}
	var fare, tip, dist, pax, dur float64
	for _, t := range trips {
		fare += t.Fare
		tip += t.Tip
		dist += t.Distance
		pax += float64(t.Passengers)
		dur += t.Duration
	}
	n := float64(len(trips))
	st.TotalRevenue = round((fare+tip)*float64(scale), 2)
	st.AvgFare = round(fare/n, 2)
	st.AvgTip = round(tip/n, 2)
	st.AvgDistance = round(dist/n, 2)
	st.AvgPassengers = round(pax/n, 2)
	st.AvgDurationMinutes = round(dur/n, 2)
	if dur > 0 {
		st.AvgSpeedMPH = round(dist/(dur/60), 2)
	}
	if dist > 0 {
		st.AvgFarePerMile = round(fare/dist, 2)
	}
	return st
}

func (s *Server) selected(w http.ResponseWriter, r *http.Request) ([]Trip, bool) {
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return s.data.Select(c), true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode mock response")
	}
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	trips, ok := s.selected(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.data.Stats(trips))
}

type peakRow struct {
	Hour      string `json:"hour"`
	Label     string `json:"label"`
	TripCount int    `json:"trip_count"`
}

func (s *Server) hourCounts(trips []Trip) []int {
	counts := make([]int, 24)
	for _, t := range trips {
		counts[t.Hour] += s.data.Config.Scale
	}
	return counts
}

func (s *Server) handlePeakHours(w http.ResponseWriter, r *http.Request) {
	trips, ok := s.selected(w, r)
	if !ok {
		return
	}
	counts := s.hourCounts(trips)
	rows := make([]peakRow, 0, 24)
	for h, c := range counts {
		if c > 0 {
			rows = append(rows, peakRow{Hour: fmt.Sprintf("%02d", h), Label: format.Hour(h), TripCount: c})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TripCount > rows[j].TripCount })
	if len(rows) > 5 {
		rows = rows[:5]
	}
	writeJSON(w, rows)
}

func (s *Server) handleByZone(w http.ResponseWriter, r *http.Request) {
	trips, ok := s.selected(w, r)
	if !ok {
		return
	}
	counts := map[string]int{}
	for _, t := range trips {
		counts[strconv.Itoa(t.Zone)] += s.data.Config.Scale
	}
	writeJSON(w, counts)
}

func (s *Server) handleByBorough(w http.ResponseWriter, r *http.Request) {
	trips, ok := s.selected(w, r)
	if !ok {
		return
	}
	groups := map[string][]Trip{}
	for _, t := range trips {
		b := s.data.zones[t.Zone].Borough
		groups[b] = append(groups[b], t)
	}
	rows := make([]api.BoroughCount, 0, len(groups))
	for b, ts := range groups {
		st := s.data.Stats(ts)
		rows = append(rows, api.BoroughCount{
			Borough:      b,
			TripCount:    st.TotalTrips,
			AvgDistance:  st.AvgDistance,
			AvgFare:      st.AvgFare,
			AvgDuration:  st.AvgDurationMinutes,
			AvgSpeed:     st.AvgSpeedMPH,
			TotalRevenue: st.TotalRevenue,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Borough < rows[j].Borough })
	writeJSON(w, map[string]any{"by_borough": rows})
}

var fareBuckets = []struct {
	label  string
	lo, hi float64
}{
	{"$0-10", 0, 10},
	{"$10-20", 10, 20},
	{"$20-30", 20, 30},
	{"$30-40", 30, 40},
	{"$40-50", 40, 50},
	{"$50+", 50, math.Inf(1)},
}

func (s *Server) handleFareDistribution(w http.ResponseWriter, r *http.Request) {
	trips, ok := s.selected(w, r)
	if !ok {
		return
	}
	counts := make([]int, len(fareBuckets))
	for _, t := range trips {
		for i, b := range fareBuckets {
			if t.Fare >= b.lo && t.Fare < b.hi {
				counts[i] += s.data.Config.Scale
				break
			}
		}
	}
	rows := make([]api.FareBucket, 0, len(fareBuckets))
	for i, b := range fareBuckets {
		rows = append(rows, api.FareBucket{Range: b.label, Count: counts[i]})
	}
	// The real API answers busiest bucket first.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	writeJSON(w, rows)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	trips, ok := s.selected(w, r)
	if !ok {
		return
	}
	counts := make([]int, 32)
	for _, t := range trips {
		counts[t.Day] += s.data.Config.Scale
	}
	rows := make([]api.TrendPoint, 0, 31)
	for day := 31; day >= 1; day-- {
		rows = append(rows, api.TrendPoint{Date: Date(day), Trips: counts[day]})
	}
	writeJSON(w, rows)
}

func (s *Server) handlePickupTimes(w http.ResponseWriter, r *http.Request) {
	trips, ok := s.selected(w, r)
	if !ok {
		return
	}
	counts := s.hourCounts(trips)
	rows := make([]api.HourCount, 24)
	for h, c := range counts {
		rows[h] = api.HourCount{Hour: api.HourOfDay(h), TripCount: c}
	}
	writeJSON(w, rows)
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, Boundaries())
}

// Boundaries builds the zone boundary document: one square polygon per zone.
func Boundaries() *geo.FeatureCollection {
	fc := &geo.FeatureCollection{Type: "FeatureCollection"}
	for _, z := range Zones {
		ring := [][2]float64{
			{z.Lon, z.Lat},
			{z.Lon + zoneSize, z.Lat},
			{z.Lon + zoneSize, z.Lat + zoneSize},
			{z.Lon, z.Lat + zoneSize},
			{z.Lon, z.Lat},
		}
		coords, _ := json.Marshal([][][2]float64{ring})
		fc.Features = append(fc.Features, geo.Feature{
			Type: "Feature",
			Properties: geo.Properties{
				LocationID: geo.ZoneID(strconv.Itoa(z.ID)),
				Zone:       z.Name,
				Borough:    z.Borough,
			},
			Geometry: geo.Geometry{Type: "Polygon", Coordinates: coords},
		})
	}
	return fc
}
