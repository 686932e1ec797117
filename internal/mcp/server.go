// Package mcp exposes the dashboard as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"

	"taxidash/internal/charts"
	"taxidash/internal/dashboard"
	"taxidash/internal/mapview"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Options configure the tool surface.
type Options struct {
	Version             string
	EnableMermaidCharts bool
	// ExportDir is where export_html writes when the call names no directory.
	ExportDir string
}

// Server holds the dashboard the tools drive.
type Server struct {
	dash    *dashboard.Dashboard
	backend *charts.MermaidBackend
	surface *mapview.GeoJSONSurface

	enableMermaidCharts bool
	exportDir           string
	version             string
}

// NewServer creates a new MCP server around a booted (or bootable) dashboard.
func NewServer(d *dashboard.Dashboard, backend *charts.MermaidBackend, surface *mapview.GeoJSONSurface, opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "export"
	}
	return &Server{
		dash:                d,
		backend:             backend,
		surface:             surface,
		enableMermaidCharts: opts.EnableMermaidCharts,
		exportDir:           opts.ExportDir,
		version:             opts.Version,
	}
}

// Build registers every tool on a new SDK server.
func (s *Server) Build() (*sdk.Server, error) {
	server := sdk.NewServer(&sdk.Implementation{Name: "taxidash", Version: s.version}, &sdk.ServerOptions{
		Instructions: "NYC taxi trip dashboard for January 2019. Call dashboard_snapshot first, then narrow the data with the filter_* tools; every filter tool returns the refreshed dashboard.",
	})
	if err := s.registerTools(server); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	return server, nil
}

// Serve runs the stdio loop until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	server, err := s.Build()
	if err != nil {
		return err
	}
	log.Info().Msg("MCP server listening on stdio")
	return server.Run(ctx, &sdk.StdioTransport{})
}
