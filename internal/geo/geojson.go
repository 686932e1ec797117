// Package geo models the zone boundary document and the zone index derived from it.
package geo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ZoneID accepts numeric and string location ids and normalises them to a string.
type ZoneID string

func (id *ZoneID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ZoneID(strings.TrimSpace(s))
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid location id %s: %w", raw, err)
	}
	*id = ZoneID(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// Properties are the zone attributes carried by each feature.
type Properties struct {
	LocationID ZoneID `json:"location_id"`
	Zone       string `json:"zone"`
	Borough    string `json:"borough"`
}

// Geometry keeps coordinates raw; Bounds decodes them on demand.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature is one zone polygon.
type Feature struct {
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
	Geometry   Geometry   `json:"geometry"`
}

// FeatureCollection is the zone boundary document.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Bounds is a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Valid reports whether the box encloses at least one point.
func (b Bounds) Valid() bool {
	return b.MinLat <= b.MaxLat && b.MinLon <= b.MaxLon
}

// Extend grows b to enclose o.
func (b Bounds) Extend(o Bounds) Bounds {
	if !o.Valid() {
		return b
	}
	if !b.Valid() {
		return o
	}
	return Bounds{
		MinLat: min(b.MinLat, o.MinLat),
		MinLon: min(b.MinLon, o.MinLon),
		MaxLat: max(b.MaxLat, o.MaxLat),
		MaxLon: max(b.MaxLon, o.MaxLon),
	}
}

// Pad grows the box by the given fraction of its span on each side.
func (b Bounds) Pad(frac float64) Bounds {
	if !b.Valid() {
		return b
	}
	dLat := (b.MaxLat - b.MinLat) * frac
	dLon := (b.MaxLon - b.MinLon) * frac
	return Bounds{MinLat: b.MinLat - dLat, MinLon: b.MinLon - dLon, MaxLat: b.MaxLat + dLat, MaxLon: b.MaxLon + dLon}
}

// Empty returns an invalid box that any Extend replaces.
func Empty() Bounds {
	return Bounds{MinLat: 1, MaxLat: -1, MinLon: 1, MaxLon: -1}
}

// Bounds computes the bounding box of a Polygon or MultiPolygon geometry.
func (g Geometry) Bounds() (Bounds, error) {
	b := Empty()
	add := func(ring [][]float64) {
		for _, pt := range ring {
			if len(pt) < 2 {
				continue
			}
			b = b.Extend(Bounds{MinLon: pt[0], MaxLon: pt[0], MinLat: pt[1], MaxLat: pt[1]})
		}
	}

	switch g.Type {
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return b, fmt.Errorf("invalid polygon coordinates: %w", err)
		}
		for _, r := range rings {
			add(r)
		}
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return b, fmt.Errorf("invalid multipolygon coordinates: %w", err)
		}
		for _, p := range polys {
			for _, r := range p {
				add(r)
			}
		}
	default:
		return b, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
	return b, nil
}
