package geo

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleDoc = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"location_id": 74, "zone": " Central Harlem ", "borough": "Manhattan"},
     "geometry": {"type": "Polygon", "coordinates": [[[-73.95, 40.80], [-73.93, 40.80], [-73.93, 40.82], [-73.95, 40.80]]]}},
    {"type": "Feature", "properties": {"location_id": "61", "zone": "Crown Heights North", "borough": "Brooklyn"},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[-73.96, 40.66], [-73.92, 40.68], [-73.94, 40.67]]]]}}
  ]
}`

func TestNewIndex(t *testing.T) {
	var fc FeatureCollection
	if err := json.Unmarshal([]byte(sampleDoc), &fc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	idx := NewIndex(&fc)
	want := []Zone{
		{ID: "74", Name: "Central Harlem", Borough: "Manhattan"},
		{ID: "61", Name: "Crown Heights North", Borough: "Brooklyn"},
	}
	if diff := cmp.Diff(want, idx.Zones()); diff != "" {
		t.Errorf("Zones() mismatch (-want +got):\n%s", diff)
	}

	z, ok := idx.Lookup("61")
	if !ok || z.Name != "Crown Heights North" {
		t.Errorf("Lookup(61) = %+v, %v", z, ok)
	}
	if _, ok := idx.Lookup("999"); ok {
		t.Error("Lookup of unknown id should fail")
	}
}

func TestGeometryBounds(t *testing.T) {
	var fc FeatureCollection
	if err := json.Unmarshal([]byte(sampleDoc), &fc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	b, err := fc.Features[0].Geometry.Bounds()
	if err != nil {
		t.Fatal(err)
	}
	want := Bounds{MinLat: 40.80, MinLon: -73.95, MaxLat: 40.82, MaxLon: -73.93}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("polygon bounds mismatch (-want +got):\n%s", diff)
	}

	mb, err := fc.Features[1].Geometry.Bounds()
	if err != nil {
		t.Fatal(err)
	}
	all := b.Extend(mb)
	if all.MinLat != 40.66 || all.MaxLat != 40.82 || all.MinLon != -73.96 || all.MaxLon != -73.92 {
		t.Errorf("extended bounds = %+v", all)
	}
}

func TestGeometryBounds_Unsupported(t *testing.T) {
	g := Geometry{Type: "Point", Coordinates: json.RawMessage(`[1,2]`)}
	if _, err := g.Bounds(); err == nil {
		t.Error("expected error for point geometry")
	}
}

func TestEmptyBounds(t *testing.T) {
	if Empty().Valid() {
		t.Error("Empty() must be invalid")
	}
	b := Bounds{MinLat: 1, MaxLat: 2, MinLon: 3, MaxLon: 4}
	if got := Empty().Extend(b); got != b {
		t.Errorf("Empty().Extend(b) = %+v", got)
	}
}
