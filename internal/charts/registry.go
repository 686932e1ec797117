// Package charts turns API result arrays into chart specs and keeps one live
// handle per visual slot.
package charts

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Slots of the dashboard visuals.
const (
	SlotTrends    = "trends-chart"
	SlotBorough   = "borough-chart"
	SlotFare      = "fare-chart"
	SlotPeakHours = "peak-list"
	SlotHistogram = "histogram"
)

// Kind selects the chart type.
type Kind string

const (
	Line          Kind = "line"
	Bar           Kind = "bar"
	HorizontalBar Kind = "hbar"
	List          Kind = "list"
	Histogram     Kind = "histogram"
)

// Point is one label/value pair of a chart.
type Point struct {
	Label string
	Value float64
	// Percent is the bar length relative to the largest value, for lists and histograms.
	Percent  int
	Color    string
	Muted    bool
	Peak     bool
	Selected bool
	Tooltip  string
	// Key carries the category the point stands for (hour, borough, bucket).
	Key string
}

// Spec fully describes one rendered visual.
type Spec struct {
	Kind   Kind
	Title  string
	Period string
	YLabel string
	Points []Point
}

// Handle is a live chart instance owned by a backend.
type Handle interface {
	Destroy()
}

// Backend is the charting library.
type Backend interface {
	Draw(slot string, spec Spec) (Handle, error)
}

// Registry maps slots to live handles. The previous handle of a slot is
// destroyed and removed before the slot is redrawn.
type Registry struct {
	mu      sync.Mutex
	backend Backend
	live    map[string]Handle
	specs   map[string]Spec
}

// NewRegistry creates an empty registry drawing through backend.
func NewRegistry(backend Backend) *Registry {
	return &Registry{
		backend: backend,
		live:    make(map[string]Handle),
		specs:   make(map[string]Spec),
	}
}

// Redraw replaces the slot's visual with spec.
func (r *Registry) Redraw(slot string, spec Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.destroyLocked(slot)

	h, err := r.backend.Draw(slot, spec)
	if err != nil {
		return fmt.Errorf("failed to draw %s: %w", slot, err)
	}
	r.live[slot] = h
	r.specs[slot] = spec
	log.Trace().Str("slot", slot).Int("points", len(spec.Points)).Msg("Chart drawn")
	return nil
}

// Destroy removes the slot's visual if present.
func (r *Registry) Destroy(slot string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyLocked(slot)
}

func (r *Registry) destroyLocked(slot string) {
	if h, ok := r.live[slot]; ok {
		h.Destroy()
		delete(r.live, slot)
		delete(r.specs, slot)
	}
}

// Spec returns the spec currently shown in slot.
func (r *Registry) Spec(slot string) (Spec, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.specs[slot]
	return s, ok
}

// Live returns the number of live handles.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
