package mapview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"taxidash/internal/filter"
	"taxidash/internal/format"
	"taxidash/internal/geo"

	"github.com/rs/zerolog/log"
)

// ErrNoLayer is returned by operations that need the polygon layer before it exists.
var ErrNoLayer = errors.New("map layer not initialised")

// BoundaryLoader fetches the zone boundary document.
type BoundaryLoader func(ctx context.Context) (*geo.FeatureCollection, error)

// Map owns the single surface and its one polygon layer.
type Map struct {
	mu         sync.Mutex
	newSurface func() Surface
	load       BoundaryLoader

	surface Surface
	doc     *geo.FeatureCollection
	index   *geo.Index
	bounds  map[string]geo.Bounds
	extent  geo.Bounds
	fitted  bool

	counts   map[string]int
	active   filter.BoroughSet
	selected string
}

// New creates a map that builds its surface lazily on the first Initialize.
func New(newSurface func() Surface, load BoundaryLoader) *Map {
	return &Map{
		newSurface: newSurface,
		load:       load,
		counts:     map[string]int{},
		active:     filter.FullBoroughSet,
	}
}

// Initialize creates the surface and layer on first call; later calls only recolor.
// The boundary document is fetched at most once and cached for the map's lifetime.
func (m *Map) Initialize(ctx context.Context, counts map[string]int, active filter.BoroughSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.surface == nil {
		m.surface = m.newSurface()
	}

	if m.doc == nil {
		doc, err := m.load(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Zone boundaries failed to load; map disabled")
			return fmt.Errorf("failed to load zone boundaries: %w", err)
		}
		m.setDocument(doc)
	}

	m.counts = copyCounts(counts)
	m.active = active

	if m.index.Len() > 0 && !m.fitted {
		if err := m.surface.AddLayer(m.doc.Features); err != nil {
			return fmt.Errorf("failed to add zone layer: %w", err)
		}
		if m.extent.Valid() {
			m.surface.FitBounds(m.extent)
		}
		m.fitted = true
		log.Debug().Int("zones", m.index.Len()).Msg("Zone layer built")
	}

	m.paintAll()
	return nil
}

func (m *Map) setDocument(doc *geo.FeatureCollection) {
	m.doc = doc
	m.index = geo.NewIndex(doc)
	m.bounds = make(map[string]geo.Bounds, len(doc.Features))
	m.extent = geo.Empty()
	for _, f := range doc.Features {
		b, err := f.Geometry.Bounds()
		if err != nil {
			log.Warn().Err(err).Str("zone", string(f.Properties.LocationID)).Msg("Skipping zone bounds")
			continue
		}
		id := string(f.Properties.LocationID)
		if prev, ok := m.bounds[id]; ok {
			b = prev.Extend(b)
		}
		m.bounds[id] = b
		m.extent = m.extent.Extend(b)
	}
}

// RefreshColors recolors the existing polygons and refreshes their tooltips.
// It never refetches boundaries or recreates the layer.
func (m *Map) RefreshColors(counts map[string]int, active filter.BoroughSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.fitted {
		return ErrNoLayer
	}
	m.counts = copyCounts(counts)
	m.active = active
	m.paintAll()
	return nil
}

// Ready reports whether the polygon layer exists.
func (m *Map) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fitted
}

// Index returns the zone index, or nil before the boundaries loaded.
func (m *Map) Index() *geo.Index {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

func (m *Map) inFilter(borough string) bool {
	return m.active == filter.FullBoroughSet || m.active.HasName(borough)
}

func (m *Map) baseStyle(z geo.Zone) Style {
	return BaseStyle(m.counts[z.ID], m.inFilter(z.Borough))
}

func (m *Map) paintAll() {
	if !m.fitted {
		return
	}
	for _, z := range m.index.Zones() {
		st := m.baseStyle(z)
		if z.ID == m.selected {
			st = SelectedStyle(st)
		}
		m.surface.SetStyle(z.ID, st)
		m.surface.SetTooltip(z.ID, tooltip(z, m.counts[z.ID]))
	}
}

func tooltip(z geo.Zone, count int) string {
	name := z.Name
	if name == "" {
		name = "Unknown"
	}
	return strings.Join([]string{name, z.Borough, "Pickups: " + format.Thousands(count)}, "\n")
}

// Count returns the current count for a zone.
func (m *Map) Count(zoneID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[zoneID]
}

// Hover raises the zone and highlights its border.
func (m *Map) Hover(zoneID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, err := m.zone(zoneID)
	if err != nil {
		return err
	}
	m.surface.SetStyle(z.ID, HoverStyle(m.baseStyle(z)))
	m.surface.BringToFront(z.ID)
	return nil
}

// Unhover restores the zone's resting style.
func (m *Map) Unhover(zoneID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, err := m.zone(zoneID)
	if err != nil {
		return err
	}
	st := m.baseStyle(z)
	if z.ID == m.selected {
		st = SelectedStyle(st)
	}
	m.surface.SetStyle(z.ID, st)
	return nil
}

// Click returns the zone name that populates the search field.
func (m *Map) Click(zoneID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, err := m.zone(zoneID)
	if err != nil {
		return "", err
	}
	return z.Name, nil
}

// Highlight marks one zone, resets every other zone and fits the view to it.
func (m *Map) Highlight(zoneID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, err := m.zone(zoneID)
	if err != nil {
		return err
	}
	m.selected = z.ID
	m.paintAll()
	m.surface.BringToFront(z.ID)
	if b, ok := m.bounds[z.ID]; ok && b.Valid() {
		m.surface.FitBounds(b.Pad(0.1))
	}
	return nil
}

// ResetHighlight restores default styling and fits the full extent.
func (m *Map) ResetHighlight() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = ""
	if !m.fitted {
		return
	}
	m.paintAll()
	if m.extent.Valid() {
		m.surface.FitBounds(m.extent)
	}
}

// Extent returns the bounds of every zone.
func (m *Map) Extent() geo.Bounds {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extent
}

// ZoneBounds returns the bounds of one zone.
func (m *Map) ZoneBounds(zoneID string) (geo.Bounds, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bounds[zoneID]
	return b, ok
}

func (m *Map) zone(zoneID string) (geo.Zone, error) {
	if !m.fitted {
		return geo.Zone{}, ErrNoLayer
	}
	z, ok := m.index.Lookup(zoneID)
	if !ok {
		return geo.Zone{}, fmt.Errorf("unknown zone %q", zoneID)
	}
	return z, nil
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
