package mcp

import (
	"fmt"

	"taxidash/internal/filter"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type SnapshotInput struct{}

type BoroughInput struct {
	Borough string `json:"borough" jsonschema:"Borough to toggle: Manhattan, Brooklyn, Queens, Bronx or Staten Island"`
}

type RangeInput struct {
	Min float64 `json:"min" jsonschema:"Lower bound"`
	Max float64 `json:"max" jsonschema:"Upper bound"`
}

type DateInput struct {
	Date string `json:"date,omitempty" jsonschema:"Day of January 2019 as YYYY-MM-DD; empty clears the date filter"`
}

type HourInput struct {
	Hour  int  `json:"hour,omitempty" jsonschema:"Hour of day 0-23; selecting the active hour clears it"`
	Clear bool `json:"clear,omitempty" jsonschema:"Clear the hour filter instead of selecting"`
}

type PeakInput struct {
	Row int `json:"row" jsonschema:"Zero-based row of the peak-hours list"`
}

type SearchInput struct {
	Query string `json:"query" jsonschema:"Case-insensitive substring of a zone or borough name"`
}

type ZoneInput struct {
	ZoneID string `json:"zone_id" jsonschema:"Location id of the zone"`
}

type ExportInput struct {
	Dir  string `json:"dir,omitempty" jsonschema:"Output directory; defaults to the configured export directory"`
	Open bool   `json:"open,omitempty" jsonschema:"Open the page in the default browser"`
}

// schemaFor infers the input schema of T and adds numeric bounds per property.
func schemaFor[T any](bounds map[string][2]float64) (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, err
	}
	for name, b := range bounds {
		prop, ok := schema.Properties[name]
		if !ok {
			return nil, fmt.Errorf("schema has no property %q", name)
		}
		lo, hi := b[0], b[1]
		prop.Minimum = &lo
		prop.Maximum = &hi
	}
	return schema, nil
}

func (s *Server) registerTools(server *sdk.Server) error {
	var errs []error
	schema := func(sc *jsonschema.Schema, err error) *jsonschema.Schema {
		if err != nil {
			errs = append(errs, err)
		}
		return sc
	}

	sdk.AddTool(server, &sdk.Tool{
		Name:        "dashboard_snapshot",
		Description: "Return the current dashboard: KPI cards, badge, borough list, charts and active filters.",
		InputSchema: schema(schemaFor[SnapshotInput](nil)),
	}, s.handleSnapshot)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "filter_borough",
		Description: "Toggle one borough checkbox. The last selected borough cannot be removed.",
		InputSchema: schema(schemaFor[BoroughInput](nil)),
	}, s.handleToggleBorough)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "filter_fare",
		Description: "Set the fare range in dollars (0-250, step 1).",
		InputSchema: schema(schemaFor[RangeInput](map[string][2]float64{
			"min": {filter.FareMin, filter.FareMax},
			"max": {filter.FareMin, filter.FareMax},
		})),
	}, s.handleFareRange)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "filter_distance",
		Description: "Set the trip distance range in miles (0-50, step 0.5).",
		InputSchema: schema(schemaFor[RangeInput](map[string][2]float64{
			"min": {filter.DistanceMin, filter.DistanceMax},
			"max": {filter.DistanceMin, filter.DistanceMax},
		})),
	}, s.handleDistanceRange)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "filter_date",
		Description: "Restrict the dashboard to one day of January 2019. The hourly histogram is rebuilt for that day.",
		InputSchema: schema(schemaFor[DateInput](nil)),
	}, s.handleDate)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "filter_hour",
		Description: "Select an hour of day, as clicking a histogram bar does.",
		InputSchema: schema(schemaFor[HourInput](map[string][2]float64{"hour": {0, 23}})),
	}, s.handleHour)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "select_peak_hour",
		Description: "Toggle the hour of a row of the peak-hours list.",
		InputSchema: schema(schemaFor[PeakInput](map[string][2]float64{"row": {0, 4}})),
	}, s.handlePeak)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "reset_filters",
		Description: "Restore every filter to its default.",
		InputSchema: schema(schemaFor[SnapshotInput](nil)),
	}, s.handleReset)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "search_zones",
		Description: "Autocomplete zone names. Returns at most 10 matches in map order; an empty query clears the highlight.",
		InputSchema: schema(schemaFor[SearchInput](nil)),
	}, s.handleSearch)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "select_zone",
		Description: "Highlight a zone on the map and zoom to it. Pass an empty zone_id to clear the selection.",
		InputSchema: schema(schemaFor[ZoneInput](nil)),
	}, s.handleSelectZone)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "refresh",
		Description: "Reload every dataset from the API and restore the default filters.",
		InputSchema: schema(schemaFor[SnapshotInput](nil)),
	}, s.handleRefresh)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "export_html",
		Description: "Write a static HTML snapshot of the dashboard plus the styled zone GeoJSON.",
		InputSchema: schema(schemaFor[ExportInput](nil)),
	}, s.handleExport)

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
