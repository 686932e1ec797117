package dashboard

import (
	"fmt"
	"strconv"

	"taxidash/internal/charts"
	"taxidash/internal/filter"
	"taxidash/internal/geo"
	"taxidash/internal/search"
)

// ToggleBorough flips one borough checkbox. Unknown names are rejected.
func (d *Dashboard) ToggleBorough(name string) (bool, error) {
	b, err := filter.ParseBorough(name)
	if err != nil {
		return false, err
	}
	return d.store.ToggleBorough(b), nil
}

// SetFareRange applies a released fare slider.
func (d *Dashboard) SetFareRange(lo, hi float64) bool { return d.store.SetFareRange(lo, hi) }

// SetDistanceRange applies a released distance slider.
func (d *Dashboard) SetDistanceRange(lo, hi float64) bool { return d.store.SetDistanceRange(lo, hi) }

// SetDate applies the date picker.
func (d *Dashboard) SetDate(iso string) error {
	if iso == "" {
		d.store.ClearDate()
		return nil
	}
	return d.store.SetDate(iso)
}

// SelectHour toggles the hour filter, as a histogram bar click does.
func (d *Dashboard) SelectHour(h int) error { return d.store.SetHour(h) }

// ClearHour drops the hour filter.
func (d *Dashboard) ClearHour() bool { return d.store.ClearHour() }

// SelectPeak toggles the hour of the i-th peak-hour row.
func (d *Dashboard) SelectPeak(i int) error {
	spec, ok := d.registry.Spec(charts.SlotPeakHours)
	if !ok || i < 0 || i >= len(spec.Points) {
		return fmt.Errorf("no peak-hour row %d", i)
	}
	h, err := strconv.Atoi(spec.Points[i].Key)
	if err != nil {
		return fmt.Errorf("peak-hour row %d: %w", i, err)
	}
	return d.store.SetHour(h)
}

// ResetFilters restores every default and refreshes immediately.
func (d *Dashboard) ResetFilters() bool {
	d.debouncer.Cancel()
	return d.store.Reset()
}

// Search updates the search box.
func (d *Dashboard) Search(q string) ([]search.Suggestion, error) {
	s, err := d.Searcher()
	if err != nil {
		return nil, err
	}
	return s.Query(q)
}

// SelectZone picks a suggestion: the polygon is highlighted and the map zoomed to it.
func (d *Dashboard) SelectZone(zoneID string) (geo.Zone, error) {
	s, err := d.Searcher()
	if err != nil {
		return geo.Zone{}, err
	}
	return s.Select(zoneID)
}

// ClearSearch empties the search box and restores the full map extent.
func (d *Dashboard) ClearSearch() error {
	s, err := d.Searcher()
	if err != nil {
		return err
	}
	s.Clear()
	return nil
}

// HoverZone raises and outlines a polygon.
func (d *Dashboard) HoverZone(zoneID string) error {
	return d.mapView.Hover(zoneID)
}

// UnhoverZone restores the base style of a hovered polygon.
func (d *Dashboard) UnhoverZone(zoneID string) error {
	return d.mapView.Unhover(zoneID)
}

// ClickZone copies the clicked zone's name into the search box.
func (d *Dashboard) ClickZone(zoneID string) (string, error) {
	name, err := d.mapView.Click(zoneID)
	if err != nil {
		return "", err
	}
	if s, err := d.Searcher(); err == nil {
		s.SetText(name)
	}
	return name, nil
}
