package mapview

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"taxidash/internal/filter"
	"taxidash/internal/geo"
)

const testDoc = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"location_id": 74, "zone": "Central Harlem", "borough": "Manhattan"},
     "geometry": {"type": "Polygon", "coordinates": [[[-73.95, 40.80], [-73.93, 40.80], [-73.93, 40.82], [-73.95, 40.80]]]}},
    {"type": "Feature", "properties": {"location_id": 61, "zone": "Crown Heights North", "borough": "Brooklyn"},
     "geometry": {"type": "Polygon", "coordinates": [[[-73.96, 40.66], [-73.92, 40.68], [-73.94, 40.67], [-73.96, 40.66]]]}}
  ]
}`

type countingLoader struct {
	calls int
	err   error
}

func (l *countingLoader) load(ctx context.Context) (*geo.FeatureCollection, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	var fc geo.FeatureCollection
	if err := json.Unmarshal([]byte(testDoc), &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

func newTestMap(t *testing.T) (*Map, *GeoJSONSurface, *countingLoader, *int) {
	t.Helper()
	surface := NewGeoJSONSurface()
	created := 0
	loader := &countingLoader{}
	m := New(func() Surface {
		created++
		return surface
	}, loader.load)
	return m, surface, loader, &created
}

func TestColorFor_InclusiveThresholds(t *testing.T) {
	for i, b := range Bands {
		if got := ColorFor(b.Min); got != b.Color {
			t.Errorf("ColorFor(%d) = %s, want %s", b.Min, got, b.Color)
		}
		if i+1 < len(Bands) && b.Min > 0 {
			if got := ColorFor(b.Min - 1); got != Bands[i+1].Color {
				t.Errorf("ColorFor(%d) = %s, want next band %s", b.Min-1, got, Bands[i+1].Color)
			}
		}
	}
}

func TestInitialize_LoadsBoundariesOnce(t *testing.T) {
	m, surface, loader, created := newTestMap(t)
	ctx := context.Background()

	if err := m.Initialize(ctx, map[string]int{"74": 150000, "61": 50}, filter.FullBoroughSet); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := m.Initialize(ctx, map[string]int{"74": 2000}, filter.FullBoroughSet); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if err := m.RefreshColors(map[string]int{"74": 12000}, filter.FullBoroughSet); err != nil {
		t.Fatalf("RefreshColors: %v", err)
	}

	if loader.calls != 1 {
		t.Errorf("boundary fetches = %d, want 1", loader.calls)
	}
	if *created != 1 {
		t.Errorf("surfaces created = %d, want 1", *created)
	}

	st, _ := surface.Style("74")
	if st.FillColor != "#ef3b2c" {
		t.Errorf("fill after refresh = %s, want #ef3b2c", st.FillColor)
	}
	if tip := surface.Tooltip("74"); !strings.Contains(tip, "Pickups: 12,000") {
		t.Errorf("tooltip not refreshed: %q", tip)
	}
	if st, _ := surface.Style("61"); st.FillOpacity != 0.2 {
		t.Errorf("zero-count zone opacity = %v, want 0.2", st.FillOpacity)
	}
}

func TestRefreshColors_MutesExcludedBoroughs(t *testing.T) {
	m, surface, _, _ := newTestMap(t)
	if err := m.Initialize(context.Background(), map[string]int{"74": 500, "61": 500}, filter.FullBoroughSet); err != nil {
		t.Fatal(err)
	}
	if err := m.RefreshColors(map[string]int{"74": 500, "61": 500000}, filter.NewBoroughSet(filter.Manhattan)); err != nil {
		t.Fatal(err)
	}

	st, _ := surface.Style("61")
	if st.FillColor != InactiveFill || st.FillOpacity != 0.08 {
		t.Errorf("excluded zone style = %+v", st)
	}
	st, _ = surface.Style("74")
	if st.FillColor != "#fcbba1" {
		t.Errorf("active zone fill = %s", st.FillColor)
	}
}

func TestRefreshColors_BeforeInitialize(t *testing.T) {
	m, _, _, _ := newTestMap(t)
	if err := m.RefreshColors(nil, filter.FullBoroughSet); !errors.Is(err, ErrNoLayer) {
		t.Errorf("err = %v, want ErrNoLayer", err)
	}
}

func TestInitialize_BoundaryFailureDegrades(t *testing.T) {
	m, _, loader, _ := newTestMap(t)
	loader.err = errors.New("HTTP 500")
	if err := m.Initialize(context.Background(), nil, filter.FullBoroughSet); err == nil {
		t.Fatal("expected error")
	}
	if m.Ready() {
		t.Error("map must not be ready without boundaries")
	}
	if _, err := m.Click("74"); !errors.Is(err, ErrNoLayer) {
		t.Errorf("Click err = %v", err)
	}
}

func TestHoverClickHighlight(t *testing.T) {
	m, surface, _, _ := newTestMap(t)
	if err := m.Initialize(context.Background(), map[string]int{"74": 10}, filter.FullBoroughSet); err != nil {
		t.Fatal(err)
	}

	if err := m.Hover("74"); err != nil {
		t.Fatal(err)
	}
	if st, _ := surface.Style("74"); st.Weight != 2 || st.Color != HighlightLine {
		t.Errorf("hover style = %+v", st)
	}
	if surface.Front() != "74" {
		t.Errorf("hovered zone not in front")
	}
	_ = m.Unhover("74")
	if st, _ := surface.Style("74"); st.Weight != 0.7 {
		t.Errorf("unhover style = %+v", st)
	}

	name, err := m.Click("61")
	if err != nil || name != "Crown Heights North" {
		t.Errorf("Click = %q, %v", name, err)
	}

	if err := m.Highlight("61"); err != nil {
		t.Fatal(err)
	}
	zb, _ := m.ZoneBounds("61")
	if vp := surface.Viewport(); vp != zb.Pad(0.1) {
		t.Errorf("viewport = %+v, want %+v", vp, zb.Pad(0.1))
	}
	if st, _ := surface.Style("61"); st.Weight != 3 {
		t.Errorf("selected style = %+v", st)
	}

	m.ResetHighlight()
	if vp := surface.Viewport(); vp != m.Extent() {
		t.Errorf("viewport after reset = %+v, want extent %+v", vp, m.Extent())
	}
	if st, _ := surface.Style("61"); st.Weight != 0.7 {
		t.Errorf("style after reset = %+v", st)
	}
}

func TestGeoJSONSurface_Render(t *testing.T) {
	m, surface, _, _ := newTestMap(t)
	if err := m.Initialize(context.Background(), map[string]int{"74": 60000}, filter.FullBoroughSet); err != nil {
		t.Fatal(err)
	}
	raw, err := surface.Render()
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		BBox     []float64 `json:"bbox"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Features) != 2 || len(doc.BBox) != 4 {
		t.Fatalf("rendered %d features, bbox %v", len(doc.Features), doc.BBox)
	}
	if fill := doc.Features[0].Properties["fill"]; fill != "#a50f15" {
		t.Errorf("fill = %v", fill)
	}
}
