package mcp

import (
	"taxidash/internal/charts"
	"taxidash/internal/dashboard"
	"taxidash/internal/kpi"
	"taxidash/internal/search"
)

// PointOutput is one chart point as the tools report it.
type PointOutput struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Muted    bool    `json:"muted,omitempty"`
	Selected bool    `json:"selected,omitempty"`
	Peak     bool    `json:"peak,omitempty"`
}

// ChartOutput summarises one chart slot.
type ChartOutput struct {
	Title  string        `json:"title"`
	Period string        `json:"period,omitempty"`
	Points []PointOutput `json:"points"`
}

// SnapshotOutput is the dashboard as returned by every filter tool.
type SnapshotOutput struct {
	State     string                  `json:"state"`
	Badge     string                  `json:"badge"`
	HourBadge string                  `json:"hour_badge,omitempty"`
	Query     string                  `json:"query"`
	Cards     []kpi.Card              `json:"cards"`
	Averages  kpi.AvgStats            `json:"averages"`
	Boroughs  []dashboard.BoroughItem `json:"boroughs"`
	Charts    map[string]ChartOutput  `json:"charts"`
	MapReady  bool                    `json:"map_ready"`
	// Visuals carries the Mermaid source per slot when charts are enabled.
	Visuals  map[string]string `json:"visuals,omitempty"`
	Guidance []string          `json:"_guidance,omitempty"`
}

// SuggestionOutput is one autocomplete row.
type SuggestionOutput struct {
	ZoneID  string `json:"zone_id"`
	Zone    string `json:"zone"`
	Borough string `json:"borough"`
	Marked  string `json:"marked"`
}

// SearchOutput lists the autocomplete rows.
type SearchOutput struct {
	Query       string             `json:"query"`
	Suggestions []SuggestionOutput `json:"suggestions"`
}

// ZoneOutput reports a selected zone and the map viewport.
type ZoneOutput struct {
	ZoneID   string     `json:"zone_id,omitempty"`
	Zone     string     `json:"zone,omitempty"`
	Borough  string     `json:"borough,omitempty"`
	Pickups  int        `json:"pickups"`
	Viewport [4]float64 `json:"viewport"`
}

// ExportOutput is where the page was written.
type ExportOutput struct {
	Path string `json:"path"`
}

func (s *Server) snapshot() (SnapshotOutput, error) {
	v, err := s.dash.Snapshot()
	if err != nil {
		return SnapshotOutput{State: string(v.State)}, err
	}

	out := SnapshotOutput{
		State:     string(v.State),
		Badge:     v.Badge,
		HourBadge: v.HourBadge,
		Query:     v.Query,
		Cards:     v.Cards,
		Averages:  v.Averages,
		Boroughs:  v.Boroughs,
		Charts:    make(map[string]ChartOutput, len(v.Charts)),
		MapReady:  v.MapReady,
	}
	for slot, spec := range v.Charts {
		out.Charts[slot] = chartOutput(spec)
	}

	if s.enableMermaidCharts && s.backend != nil {
		out.Visuals = map[string]string{}
		for _, slot := range s.backend.Slots() {
			if src, ok := s.backend.Rendered(slot); ok {
				out.Visuals[slot] = src
			}
		}
	}

	if !v.MapReady {
		out.Guidance = append(out.Guidance, "Zone boundaries are unavailable; search_zones and select_zone will fail until refresh succeeds.")
	}
	if v.Query != "" {
		out.Guidance = append(out.Guidance, "Percent changes on the cards compare against the unfiltered January 2019 baseline.")
	}
	return out, nil
}

func chartOutput(spec charts.Spec) ChartOutput {
	c := ChartOutput{Title: spec.Title, Period: spec.Period, Points: make([]PointOutput, 0, len(spec.Points))}
	for _, p := range spec.Points {
		c.Points = append(c.Points, PointOutput{
			Label:    p.Label,
			Value:    p.Value,
			Muted:    p.Muted,
			Selected: p.Selected,
			Peak:     p.Peak,
		})
	}
	return c
}

func suggestionOutputs(in []search.Suggestion) []SuggestionOutput {
	out := make([]SuggestionOutput, 0, len(in))
	for _, sg := range in {
		out = append(out, SuggestionOutput{
			ZoneID:  sg.Zone.ID,
			Zone:    sg.Zone.Name,
			Borough: sg.Zone.Borough,
			Marked:  sg.Text(),
		})
	}
	return out
}
