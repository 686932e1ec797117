package mcp

import (
	"context"
	"fmt"

	"taxidash/internal/export"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
)

// settle waits for the cycle a filter change scheduled, then reports the dashboard.
func (s *Server) settle() (*sdk.CallToolResult, SnapshotOutput, error) {
	s.dash.Wait()
	out, err := s.snapshot()
	return nil, out, err
}

func (s *Server) handleSnapshot(ctx context.Context, _ *sdk.CallToolRequest, _ SnapshotInput) (*sdk.CallToolResult, SnapshotOutput, error) {
	out, err := s.snapshot()
	return nil, out, err
}

func (s *Server) handleToggleBorough(ctx context.Context, _ *sdk.CallToolRequest, in BoroughInput) (*sdk.CallToolResult, SnapshotOutput, error) {
	changed, err := s.dash.ToggleBorough(in.Borough)
	if err != nil {
		return nil, SnapshotOutput{}, err
	}
	if !changed {
		log.Debug().Str("borough", in.Borough).Msg("Borough toggle ignored")
	}
	return s.settle()
}

func (s *Server) handleFareRange(ctx context.Context, _ *sdk.CallToolRequest, in RangeInput) (*sdk.CallToolResult, SnapshotOutput, error) {
	s.dash.SetFareRange(in.Min, in.Max)
	return s.settle()
}

func (s *Server) handleDistanceRange(ctx context.Context, _ *sdk.CallToolRequest, in RangeInput) (*sdk.CallToolResult, SnapshotOutput, error) {
	s.dash.SetDistanceRange(in.Min, in.Max)
	return s.settle()
}

func (s *Server) handleDate(ctx context.Context, _ *sdk.CallToolRequest, in DateInput) (*sdk.CallToolResult, SnapshotOutput, error) {
	if err := s.dash.SetDate(in.Date); err != nil {
		return nil, SnapshotOutput{}, err
	}
	return s.settle()
}

func (s *Server) handleHour(ctx context.Context, _ *sdk.CallToolRequest, in HourInput) (*sdk.CallToolResult, SnapshotOutput, error) {
	if in.Clear {
		s.dash.ClearHour()
	} else if err := s.dash.SelectHour(in.Hour); err != nil {
		return nil, SnapshotOutput{}, err
	}
	return s.settle()
}

func (s *Server) handlePeak(ctx context.Context, _ *sdk.CallToolRequest, in PeakInput) (*sdk.CallToolResult, SnapshotOutput, error) {
	if err := s.dash.SelectPeak(in.Row); err != nil {
		return nil, SnapshotOutput{}, err
	}
	return s.settle()
}

func (s *Server) handleReset(ctx context.Context, _ *sdk.CallToolRequest, _ SnapshotInput) (*sdk.CallToolResult, SnapshotOutput, error) {
	s.dash.ResetFilters()
	return s.settle()
}

func (s *Server) handleRefresh(ctx context.Context, _ *sdk.CallToolRequest, _ SnapshotInput) (*sdk.CallToolResult, SnapshotOutput, error) {
	if err := s.dash.Refresh(ctx); err != nil {
		return nil, SnapshotOutput{}, fmt.Errorf("refresh failed: %w", err)
	}
	return s.settle()
}

func (s *Server) handleSearch(ctx context.Context, _ *sdk.CallToolRequest, in SearchInput) (*sdk.CallToolResult, SearchOutput, error) {
	res, err := s.dash.Search(in.Query)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Query: in.Query, Suggestions: suggestionOutputs(res)}, nil
}

func (s *Server) handleSelectZone(ctx context.Context, _ *sdk.CallToolRequest, in ZoneInput) (*sdk.CallToolResult, ZoneOutput, error) {
	if in.ZoneID == "" {
		if err := s.dash.ClearSearch(); err != nil {
			return nil, ZoneOutput{}, err
		}
		return nil, s.zoneOutput(""), nil
	}
	z, err := s.dash.SelectZone(in.ZoneID)
	if err != nil {
		return nil, ZoneOutput{}, err
	}
	out := s.zoneOutput(z.ID)
	out.Zone, out.Borough = z.Name, z.Borough
	return nil, out, nil
}

func (s *Server) zoneOutput(zoneID string) ZoneOutput {
	out := ZoneOutput{ZoneID: zoneID}
	if zoneID != "" {
		out.Pickups = s.dash.Map().Count(zoneID)
	}
	if s.surface != nil {
		vp := s.surface.Viewport()
		out.Viewport = [4]float64{vp.MinLat, vp.MinLon, vp.MaxLat, vp.MaxLon}
	}
	return out
}

func (s *Server) handleExport(ctx context.Context, _ *sdk.CallToolRequest, in ExportInput) (*sdk.CallToolResult, ExportOutput, error) {
	dir := in.Dir
	if dir == "" {
		dir = s.exportDir
	}
	path, err := export.Write(dir, s.dash, s.backend, s.surface, export.Options{Mermaid: s.enableMermaidCharts, Minify: true})
	if err != nil {
		return nil, ExportOutput{}, err
	}
	if in.Open {
		if err := browser.OpenFile(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to open browser")
		}
	}
	return nil, ExportOutput{Path: path}, nil
}
