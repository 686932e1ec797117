package commands

import (
	"context"

	"taxidash/internal/mcp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard as an MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.dash.Close()

	// The refresh tool retries once the API is reachable.
	if err := s.dash.Boot(ctx); err != nil {
		log.Error().Err(err).Msg("Initial load failed")
	}

	server := mcp.NewServer(s.dash, s.backend, s.surface, mcp.Options{
		Version:             Version,
		EnableMermaidCharts: cfg.EnableMermaidCharts,
		ExportDir:           cfg.ExportDir,
	})
	return server.Serve(ctx)
}
