// Package dashboard wires the filter store to the API and the renderers and
// runs the boot and apply cycles.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"taxidash/internal/api"
	"taxidash/internal/charts"
	"taxidash/internal/filter"
	"taxidash/internal/format"
	"taxidash/internal/geo"
	"taxidash/internal/kpi"
	"taxidash/internal/mapview"
	"taxidash/internal/search"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrCycleInFlight is returned when an apply is dropped because another is running.
	ErrCycleInFlight = errors.New("a filter cycle is already in flight")
	// ErrNotReady is returned before the first successful boot.
	ErrNotReady = errors.New("dashboard not loaded")
)

// State of the orchestrator.
type State string

const (
	Idle      State = "idle"
	Loading   State = "loading"
	Filtering State = "filtering"
)

// Options tune the orchestrator.
type Options struct {
	Debounce time.Duration
}

// BoroughItem is one row of the borough checklist.
type BoroughItem struct {
	Name    string `json:"name"`
	Count   string `json:"count"`
	Checked bool   `json:"checked"`
}

// Dashboard is the application state: filter store, chart registry, map, search and
// the baseline snapshot, plus the cycle bookkeeping.
type Dashboard struct {
	client    api.Client
	store     *filter.Store
	registry  *charts.Registry
	mapView   *mapview.Map
	overlay   *Overlay
	debouncer *Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// renderMu orders the generation check and the render that follows it.
	renderMu sync.Mutex

	mu            sync.Mutex
	loading       bool
	filtering     bool
	busy          bool
	generation    uint64
	inFlightQuery string
	trailing      bool
	baseline      *api.Stats
	current       *api.Stats
	boroughRows   []api.BoroughCount
	hourRows      []api.HourCount
	hourQuery     string
	searcher      *search.Searcher
	lastErr       error
}

// New assembles a dashboard. Nothing is fetched until Boot.
func New(client api.Client, backend charts.Backend, surface func() mapview.Surface, opts Options) *Dashboard {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		client:   client,
		store:    filter.NewStore(),
		registry: charts.NewRegistry(backend),
		overlay:  NewOverlay(),
		ctx:      ctx,
		cancel:   cancel,
	}
	d.mapView = mapview.New(surface, client.ZonesGeoJSON)
	d.debouncer = NewDebouncer(opts.Debounce, d.launch)
	d.store.OnCommit(d.Trigger)
	return d
}

// Close stops pending work and waits for background cycles.
func (d *Dashboard) Close() {
	d.debouncer.Stop()
	d.cancel()
	d.wg.Wait()
}

// Store exposes the filter store the controls mutate.
func (d *Dashboard) Store() *filter.Store { return d.store }

// Map exposes the map renderer.
func (d *Dashboard) Map() *mapview.Map { return d.mapView }

// Registry exposes the chart registry.
func (d *Dashboard) Registry() *charts.Registry { return d.registry }

// Overlay exposes the overlay controller.
func (d *Dashboard) Overlay() *Overlay { return d.overlay }

// State reports the orchestrator state.
func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

func (d *Dashboard) stateLocked() State {
	switch {
	case d.loading:
		return Loading
	case d.filtering:
		return Filtering
	default:
		return Idle
	}
}

// Trigger schedules an apply cycle: immediately for explicit actions,
// debounced for slider releases.
func (d *Dashboard) Trigger(immediate bool) {
	if immediate {
		d.debouncer.Cancel()
		d.launch()
		return
	}
	d.debouncer.Trigger()
}

func (d *Dashboard) launch() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := d.Apply(d.ctx)
		switch {
		case err == nil, errors.Is(err, ErrCycleInFlight), errors.Is(err, ErrNotReady):
		case errors.Is(err, context.Canceled):
		default:
			log.Warn().Err(err).Msg("Filter cycle failed")
		}
	}()
}

// Wait flushes a pending debounced trigger and blocks until background cycles finish.
func (d *Dashboard) Wait() {
	d.debouncer.Flush()
	d.wg.Wait()
}

func (d *Dashboard) nextGeneration() uint64 {
	d.generation++
	return d.generation
}

// commit runs render if gen is still the latest cycle and reports whether it ran.
func (d *Dashboard) commit(gen uint64, render func()) bool {
	d.renderMu.Lock()
	defer d.renderMu.Unlock()
	d.mu.Lock()
	latest := gen == d.generation
	d.mu.Unlock()
	if !latest {
		log.Debug().Uint64("generation", gen).Msg("Discarding stale results")
		return false
	}
	render()
	return true
}

// Boot runs the blocking, phased initial load and captures the baseline.
func (d *Dashboard) Boot(ctx context.Context) error {
	d.overlay.ShowLoading("Connecting to API…")
	d.overlay.Advance(PhaseStarting)
	return d.load(ctx)
}

// Refresh restores the default filters and reloads everything with the overlay up.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.debouncer.Cancel()
	d.store.Restore()
	d.client.Invalidate()
	d.overlay.ShowLoading("Refreshing data…")
	d.overlay.Advance(Phase{5, "Refreshing…"})
	return d.load(ctx)
}

func (d *Dashboard) load(ctx context.Context) (err error) {
	d.mu.Lock()
	d.loading = true
	gen := d.nextGeneration()
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.loading = false
		d.lastErr = err
		d.mu.Unlock()
		if err != nil {
			d.overlay.ShowError("Could not connect to the API server.")
		}
	}()

	d.overlay.Advance(PhaseConnecting)
	log.Info().Msg("Loading dashboard")

	var (
		stats    *api.Stats
		peaks    []api.PeakHour
		zones    api.ZoneCounts
		boroughs []api.BoroughCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { stats, err = d.client.Statistics(gctx, ""); return })
	g.Go(func() (err error) { peaks, err = d.client.PeakHours(gctx, ""); return })
	g.Go(func() (err error) { zones, err = d.client.ZoneCounts(gctx, ""); return })
	g.Go(func() (err error) { boroughs, err = d.client.Boroughs(gctx, ""); return })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}

	st := d.store.State()

	d.overlay.Advance(PhaseKPIs)
	d.mu.Lock()
	d.baseline = stats
	if d.current == nil {
		d.current = stats
	}
	d.mu.Unlock()
	d.commit(gen, func() {
		d.mu.Lock()
		d.current = stats
		d.boroughRows = boroughs
		d.mu.Unlock()
		d.renderAll(charts.RenderPeakHours(d.registry, peaks, st))
	})

	d.overlay.Advance(PhaseMap)
	d.commit(gen, func() {
		if err := d.mapView.Initialize(ctx, zones, st.Boroughs); err != nil {
			log.Warn().Err(err).Msg("Map unavailable")
			return
		}
		d.mu.Lock()
		d.searcher = search.New(d.mapView.Index(), d.mapView)
		d.mu.Unlock()
	})

	d.overlay.Advance(PhaseMapReady)
	d.overlay.Hide()
	defer d.overlay.ClearProgress()

	// The dashboard is usable from here; the remaining charts are best effort.
	var (
		trends []api.TrendPoint
		fares  []api.FareBucket
		hours  []api.HourCount
	)
	g2, gctx2 := errgroup.WithContext(ctx)
	g2.Go(func() (err error) { trends, err = d.client.Trends(gctx2, ""); return })
	g2.Go(func() (err error) { fares, err = d.client.FareDistribution(gctx2, ""); return })
	g2.Go(func() (err error) { hours, err = d.client.PickupTimes(gctx2, ""); return })
	if err := g2.Wait(); err != nil {
		log.Warn().Err(err).Msg("Background load error")
		return nil
	}

	d.overlay.Advance(PhaseCharts)
	d.commit(gen, func() {
		d.renderAll(
			charts.RenderTrends(d.registry, trends, st),
			charts.RenderBorough(d.registry, boroughs, st),
			charts.RenderFare(d.registry, fares, st),
		)
	})

	d.overlay.Advance(PhaseHistogram)
	d.commit(gen, func() {
		d.mu.Lock()
		d.hourRows = hours
		d.hourQuery = ""
		d.mu.Unlock()
		d.renderAll(charts.RenderHistogram(d.registry, hours, st))
	})

	d.overlay.Advance(PhaseReady)
	log.Info().Int("trips", stats.TotalTrips).Msg("Dashboard ready")
	return nil
}

func (d *Dashboard) renderAll(errs ...error) {
	for _, err := range errs {
		if err != nil {
			log.Warn().Err(err).Msg("Render failed")
		}
	}
}

// Apply runs one filtering cycle for the current filter state. A concurrent call
// is dropped with ErrCycleInFlight; when its filters differ from the running
// cycle's, one trailing cycle runs after the current one.
func (d *Dashboard) Apply(ctx context.Context) error {
	st := d.store.State()
	q := st.Encode()

	d.mu.Lock()
	if d.baseline == nil {
		d.mu.Unlock()
		return ErrNotReady
	}
	if d.filtering {
		if q != d.inFlightQuery {
			d.trailing = true
		}
		d.mu.Unlock()
		log.Debug().Str("query", q).Msg("Apply dropped, cycle in flight")
		return ErrCycleInFlight
	}
	d.filtering = true
	d.busy = true
	d.inFlightQuery = q
	gen := d.nextGeneration()
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.filtering = false
		d.busy = false
		rerun := d.trailing
		d.trailing = false
		d.mu.Unlock()
		if rerun && ctx.Err() == nil {
			d.launch()
		}
	}()

	log.Debug().Str("query", q).Uint64("generation", gen).Msg("Applying filters")

	d.mu.Lock()
	needHours := filter.DateQuery(st) != d.hourQuery || d.hourRows == nil
	d.mu.Unlock()

	var (
		stats    *api.Stats
		peaks    []api.PeakHour
		zones    api.ZoneCounts
		boroughs []api.BoroughCount
		fares    []api.FareBucket
		trends   []api.TrendPoint
		hours    []api.HourCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { stats, err = d.client.Statistics(gctx, q); return })
	g.Go(func() (err error) { peaks, err = d.client.PeakHours(gctx, q); return })
	g.Go(func() (err error) { zones, err = d.client.ZoneCounts(gctx, q); return })
	g.Go(func() (err error) { boroughs, err = d.client.Boroughs(gctx, q); return })
	g.Go(func() (err error) { fares, err = d.client.FareDistribution(gctx, q); return })
	g.Go(func() (err error) { trends, err = d.client.Trends(gctx, filter.TrendsQuery(st)); return })
	if needHours {
		g.Go(func() error {
			rows, err := d.client.PickupTimes(gctx, filter.DateQuery(st))
			if err != nil {
				log.Warn().Err(err).Msg("Hourly distribution unavailable, using flat series")
				rows = charts.FlatHours()
			}
			hours = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("filter cycle failed: %w", err)
	}

	d.commit(gen, func() {
		d.mu.Lock()
		d.current = stats
		if needHours {
			d.hourRows = hours
			d.hourQuery = filter.DateQuery(st)
		}
		hourRows := d.hourRows
		d.mu.Unlock()

		d.renderAll(
			charts.RenderPeakHours(d.registry, peaks, st),
			charts.RenderBorough(d.registry, boroughs, st),
			charts.RenderFare(d.registry, fares, st),
			charts.RenderTrends(d.registry, trends, st),
			charts.RenderHistogram(d.registry, hourRows, st),
		)

		if err := d.mapView.RefreshColors(zones, st.Boroughs); err != nil {
			log.Debug().Err(err).Msg("Map colors not refreshed")
		}
	})
	return nil
}

// Busy reports whether the filter indicator is showing.
func (d *Dashboard) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

// Baseline returns the unfiltered snapshot captured at boot.
func (d *Dashboard) Baseline() (api.Stats, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.baseline == nil {
		return api.Stats{}, false
	}
	return *d.baseline, true
}

// LastError returns the error of the most recent load, if any.
func (d *Dashboard) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// Searcher returns the zone search once the boundaries have loaded.
func (d *Dashboard) Searcher() (*search.Searcher, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.searcher == nil {
		return nil, ErrNotReady
	}
	return d.searcher, nil
}

// ZoneIndex returns the zone index, or nil before the boundaries loaded.
func (d *Dashboard) ZoneIndex() *geo.Index {
	return d.mapView.Index()
}

// HourBadge is the label shown next to the histogram while an hour is selected.
func HourBadge(st filter.State) string {
	if st.Hour == nil {
		return ""
	}
	return format.Hour(*st.Hour)
}

// View is a snapshot of everything the dashboard shows.
type View struct {
	State      State                  `json:"state"`
	Badge      string                 `json:"badge"`
	HourBadge  string                 `json:"hour_badge,omitempty"`
	Cards      []kpi.Card             `json:"cards"`
	Averages   kpi.AvgStats           `json:"averages"`
	Boroughs   []BoroughItem          `json:"boroughs"`
	Query      string                 `json:"query"`
	Pending    bool                   `json:"pending"`
	Busy       bool                   `json:"busy"`
	Overlay    OverlayState           `json:"overlay"`
	Charts     map[string]charts.Spec `json:"-"`
	Legend     []mapview.Band         `json:"legend"`
	MapReady   bool                   `json:"map_ready"`
	SearchText string                 `json:"search_text,omitempty"`
}

// Snapshot renders the KPI cards, badge and side panels for the current data.
func (d *Dashboard) Snapshot() (View, error) {
	st := d.store.State()

	d.mu.Lock()
	if d.baseline == nil {
		d.mu.Unlock()
		return View{State: d.State(), Overlay: d.overlay.State()}, ErrNotReady
	}
	base, cur := *d.baseline, *d.current
	rows := d.boroughRows
	v := View{
		State: d.stateLocked(),
		Busy:  d.busy,
	}
	searcher := d.searcher
	d.mu.Unlock()

	v.Badge = kpi.Badge(cur, st)
	v.HourBadge = HourBadge(st)
	v.Cards = kpi.Cards(cur, base, st)
	v.Averages = kpi.Averages(cur)
	v.Query = st.Encode()
	v.Pending = d.store.Pending()
	v.Overlay = d.overlay.State()
	v.Legend = mapview.Bands
	v.MapReady = d.mapView.Ready()
	if searcher != nil {
		v.SearchText = searcher.Text()
	}

	for _, r := range rows {
		if b, err := filter.ParseBorough(r.Borough); err == nil {
			v.Boroughs = append(v.Boroughs, BoroughItem{
				Name:    string(b),
				Count:   format.K(float64(r.TripCount)),
				Checked: st.Boroughs.Has(b),
			})
		}
	}

	v.Charts = make(map[string]charts.Spec)
	for _, slot := range []string{charts.SlotTrends, charts.SlotBorough, charts.SlotFare, charts.SlotPeakHours, charts.SlotHistogram} {
		if spec, ok := d.registry.Spec(slot); ok {
			v.Charts[slot] = spec
		}
	}
	return v, nil
}
