package commands

import (
	"context"
	"fmt"

	"taxidash/internal/api"
	"taxidash/internal/charts"
	"taxidash/internal/config"
	"taxidash/internal/dashboard"
	"taxidash/internal/logging"
	"taxidash/internal/mapview"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "taxidash",
	Short: "taxidash is a headless NYC taxi trip dashboard",
	Long: `A dashboard engine for the January 2019 NYC yellow taxi statistics API: filters, KPI cards,
charts and a zone choropleth, driven from the command line or as an MCP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("api", cfg.API.BaseURL).
			Msg("taxidash starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(reportCmd, exportCmd, serveCmd)
}

type session struct {
	dash    *dashboard.Dashboard
	backend *charts.MermaidBackend
	surface *mapview.GeoJSONSurface
}

func newSession() (*session, error) {
	client, err := api.NewClient(cfg.API)
	if err != nil {
		return nil, err
	}
	s := &session{
		backend: charts.NewMermaidBackend(),
		surface: mapview.NewGeoJSONSurface(),
	}
	s.dash = dashboard.New(client, s.backend, func() mapview.Surface { return s.surface }, dashboard.Options{Debounce: cfg.Debounce})
	return s, nil
}

// boot connects to the API and runs the initial load.
func boot(ctx context.Context) (*session, error) {
	s, err := newSession()
	if err != nil {
		return nil, err
	}
	if err := s.dash.Boot(ctx); err != nil {
		s.dash.Close()
		return nil, err
	}
	return s, nil
}
