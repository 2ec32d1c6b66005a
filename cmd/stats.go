package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ca-srg/researchpanel/internal/metrics"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show submission counts per front end and outcome",
	Long: `
Show how many searches were submitted from the web UI and the query
command, split by outcome. Counts are read from METRICS_DB_PATH.
Queries and results are never stored.
`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVarP(&statsJSON, "json", "j", false, "Output stats in JSON format")
}

// StatsRow is one line of the stats output
type StatsRow struct {
	Mode      metrics.Mode `json:"mode"`
	Succeeded int64        `json:"succeeded"`
	Failed    int64        `json:"failed"`
	Total     int64        `json:"total"`
}

func runStats(cmd *cobra.Command, args []string) error {
	if appConfig != nil && !appConfig.MetricsEnabled {
		fmt.Fprintln(cmd.OutOrStdout(), "Submission metrics are disabled (METRICS_ENABLED=false).")
		return nil
	}

	stats := metrics.GetStats()
	if stats == nil {
		return fmt.Errorf("submission metrics are unavailable")
	}

	rows := buildStatsRows(stats)
	if statsJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	}
	printStats(cmd.OutOrStdout(), rows)
	return nil
}

func buildStatsRows(stats map[metrics.Key]int64) []StatsRow {
	rows := make([]StatsRow, 0, len(metrics.Modes))
	for _, mode := range metrics.Modes {
		row := StatsRow{
			Mode:      mode,
			Succeeded: stats[metrics.Key{Mode: mode, Outcome: metrics.OutcomeSucceeded}],
			Failed:    stats[metrics.Key{Mode: mode, Outcome: metrics.OutcomeFailed}],
		}
		row.Total = row.Succeeded + row.Failed
		rows = append(rows, row)
	}
	return rows
}

func printStats(w io.Writer, rows []StatsRow) {
	fmt.Fprintln(w, "=== Submission Stats ===")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODE\tSUCCEEDED\tFAILED\tTOTAL")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", row.Mode, row.Succeeded, row.Failed, row.Total)
	}
	_ = tw.Flush()
}
