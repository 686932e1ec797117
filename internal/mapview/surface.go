// Package mapview renders zone pickup counts as a choropleth over the zone boundaries.
package mapview

import (
	"encoding/json"
	"fmt"
	"sync"

	"taxidash/internal/geo"
)

// Surface is the mapping-library side of the map: one polygon layer addressed by zone id.
type Surface interface {
	AddLayer(features []geo.Feature) error
	RemoveLayer()
	SetStyle(zoneID string, st Style)
	SetTooltip(zoneID, text string)
	BringToFront(zoneID string)
	FitBounds(b geo.Bounds)
}

// GeoJSONSurface paints the layer into a styled GeoJSON document using
// simplestyle property names, so any GeoJSON viewer can display it.
type GeoJSONSurface struct {
	mu       sync.Mutex
	features []geo.Feature
	styles   map[string]Style
	tooltips map[string]string
	order    []string
	viewport geo.Bounds
}

// NewGeoJSONSurface creates an empty surface.
func NewGeoJSONSurface() *GeoJSONSurface {
	return &GeoJSONSurface{
		styles:   make(map[string]Style),
		tooltips: make(map[string]string),
		viewport: geo.Empty(),
	}
}

func (s *GeoJSONSurface) AddLayer(features []geo.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.features != nil {
		return fmt.Errorf("layer already present")
	}
	s.features = features
	s.order = s.order[:0]
	for _, f := range features {
		s.order = append(s.order, string(f.Properties.LocationID))
	}
	return nil
}

func (s *GeoJSONSurface) RemoveLayer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = nil
	s.order = nil
	s.styles = make(map[string]Style)
	s.tooltips = make(map[string]string)
}

func (s *GeoJSONSurface) SetStyle(zoneID string, st Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.styles[zoneID] = st
}

func (s *GeoJSONSurface) SetTooltip(zoneID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tooltips[zoneID] = text
}

// BringToFront moves the zone to the end of the paint order.
func (s *GeoJSONSurface) BringToFront(zoneID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range s.order {
		if id == zoneID {
			s.order = append(append(s.order[:i:i], s.order[i+1:]...), id)
			return
		}
	}
}

func (s *GeoJSONSurface) FitBounds(b geo.Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = b
}

// Style returns the current style of a zone.
func (s *GeoJSONSurface) Style(zoneID string) (Style, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.styles[zoneID]
	return st, ok
}

// Tooltip returns the current tooltip of a zone.
func (s *GeoJSONSurface) Tooltip(zoneID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tooltips[zoneID]
}

// Viewport returns the last fitted bounds.
func (s *GeoJSONSurface) Viewport() geo.Bounds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// Front returns the zone painted last.
func (s *GeoJSONSurface) Front() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return ""
	}
	return s.order[len(s.order)-1]
}

type styledFeature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   geo.Geometry   `json:"geometry"`
}

// Render serialises the layer in paint order with styles and tooltips as properties.
func (s *GeoJSONSurface) Render() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]geo.Feature, len(s.features))
	for _, f := range s.features {
		byID[string(f.Properties.LocationID)] = f
	}

	out := struct {
		Type     string          `json:"type"`
		BBox     []float64       `json:"bbox,omitempty"`
		Features []styledFeature `json:"features"`
	}{Type: "FeatureCollection", Features: []styledFeature{}}

	if s.viewport.Valid() {
		out.BBox = []float64{s.viewport.MinLon, s.viewport.MinLat, s.viewport.MaxLon, s.viewport.MaxLat}
	}

	for _, id := range s.order {
		f, ok := byID[id]
		if !ok {
			continue
		}
		st := s.styles[id]
		out.Features = append(out.Features, styledFeature{
			Type: "Feature",
			Properties: map[string]any{
				"location_id":  id,
				"zone":         f.Properties.Zone,
				"borough":      f.Properties.Borough,
				"fill":         st.FillColor,
				"fill-opacity": st.FillOpacity,
				"stroke":       st.Color,
				"stroke-width": st.Weight,
				"description":  s.tooltips[id],
			},
			Geometry: f.Geometry,
		})
	}

	return json.MarshalIndent(out, "", "  ")
}
