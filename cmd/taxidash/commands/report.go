package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"taxidash/internal/charts"
	"taxidash/internal/dashboard"
	"taxidash/internal/search"

	"github.com/spf13/cobra"
)

var (
	reportFilters filterFlags
	reportJSON    bool
	reportCharts  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Load the dashboard, apply filters and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer s.dash.Close()

		if err := reportFilters.apply(s.dash); err != nil {
			return err
		}
		v, err := s.dash.Snapshot()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if reportJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}

		var suggestions []search.Suggestion
		if searcher, err := s.dash.Searcher(); err == nil && reportFilters.search != "" {
			suggestions = searcher.Suggestions()
		}
		printReport(out, v, suggestions)

		if reportCharts && cfg.EnableMermaidCharts {
			for _, slot := range s.backend.Slots() {
				src, _ := s.backend.Rendered(slot)
				fmt.Fprintf(out, "\n%s\n%s\n", slot, src)
			}
		}
		return nil
	},
}

func init() {
	reportFilters.register(reportCmd)
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the dashboard as JSON")
	reportCmd.Flags().BoolVar(&reportCharts, "charts", false, "append the Mermaid source of every chart")
}

func printReport(w io.Writer, v dashboard.View, suggestions []search.Suggestion) {
	fmt.Fprintf(w, "NYC Taxi Trips · %s\n\n", v.Badge)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range v.Cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Title, c.Value, c.Change, c.Sub)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nAvg distance %s · speed %s · duration %s\n", v.Averages.Distance, v.Averages.Speed, v.Averages.Duration)

	fmt.Fprintln(w, "\nBoroughs")
	for _, b := range v.Boroughs {
		mark := " "
		if b.Checked {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %-14s %s\n", mark, b.Name, b.Count)
	}

	if spec, ok := v.Charts[charts.SlotPeakHours]; ok {
		fmt.Fprintln(w, "\nPeak Hours")
		for _, p := range spec.Points {
			active := ""
			if p.Selected {
				active = " *"
			}
			fmt.Fprintf(w, "  %-6s %-20s %s%s\n", p.Label, strings.Repeat("█", p.Percent/5), p.Tooltip, active)
		}
	}

	if len(suggestions) > 0 {
		fmt.Fprintln(w, "\nZones")
		for _, s := range suggestions {
			fmt.Fprintf(w, "  %s\n", s.Text())
		}
	}
}
