package commands

import (
	"fmt"

	"taxidash/internal/export"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	exportFilters filterFlags
	exportDir     string
	exportOpen    bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a static HTML snapshot of the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer s.dash.Close()

		if err := exportFilters.apply(s.dash); err != nil {
			return err
		}

		dir := exportDir
		if dir == "" {
			dir = cfg.ExportDir
		}
		path, err := export.Write(dir, s.dash, s.backend, s.surface, export.Options{
			Mermaid: cfg.EnableMermaidCharts,
			Minify:  true,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)

		if exportOpen {
			return browser.OpenFile(path)
		}
		return nil
	},
}

func init() {
	exportFilters.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", "", "output directory (default DATA_PATH/export)")
	exportCmd.Flags().BoolVar(&exportOpen, "open", false, "open the page in the default browser")
}
