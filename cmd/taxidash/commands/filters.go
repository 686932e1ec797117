package commands

import (
	"fmt"

	"taxidash/internal/dashboard"
	"taxidash/internal/filter"

	"github.com/spf13/cobra"
)

// filterFlags mirror the dashboard controls.
type filterFlags struct {
	boroughs     []string
	minFare      float64
	maxFare      float64
	minDistance  float64
	maxDistance  float64
	date         string
	hour         int
	search       string
	selectResult bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringSliceVarP(&f.boroughs, "borough", "b", nil, "boroughs to keep (repeatable); default all")
	fl.Float64Var(&f.minFare, "min-fare", filter.FareMin, "minimum fare in dollars")
	fl.Float64Var(&f.maxFare, "max-fare", filter.FareMax, "maximum fare in dollars")
	fl.Float64Var(&f.minDistance, "min-distance", filter.DistanceMin, "minimum distance in miles")
	fl.Float64Var(&f.maxDistance, "max-distance", filter.DistanceMax, "maximum distance in miles")
	fl.StringVar(&f.date, "date", "", "single day of January 2019 (YYYY-MM-DD)")
	fl.IntVar(&f.hour, "hour", -1, "hour of day 0-23")
	fl.StringVar(&f.search, "search", "", "zone search query")
	fl.BoolVar(&f.selectResult, "select", false, "highlight the first search result on the map")
}

// apply pushes the flags into the dashboard and waits for the resulting cycle.
func (f *filterFlags) apply(d *dashboard.Dashboard) error {
	if len(f.boroughs) > 0 {
		var bs []filter.Borough
		for _, name := range f.boroughs {
			b, err := filter.ParseBorough(name)
			if err != nil {
				return err
			}
			bs = append(bs, b)
		}
		if err := d.Store().SetBoroughs(bs...); err != nil {
			return err
		}
	}
	d.SetFareRange(f.minFare, f.maxFare)
	d.SetDistanceRange(f.minDistance, f.maxDistance)
	if f.date != "" {
		if err := d.SetDate(f.date); err != nil {
			return err
		}
	}
	if f.hour >= 0 {
		if err := d.SelectHour(f.hour); err != nil {
			return err
		}
	}
	d.Wait()

	if f.search != "" {
		res, err := d.Search(f.search)
		if err != nil {
			return fmt.Errorf("search unavailable: %w", err)
		}
		if f.selectResult && len(res) > 0 {
			if _, err := d.SelectZone(res[0].Zone.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
