package cli

import (
	"fmt"
	"strings"

	"github.com/patchgate/patchgate/internal/db"
	"github.com/patchgate/patchgate/internal/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent validation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		d, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		runs, err := history.RecentRuns(d, limit)
		if err != nil {
			return fmt.Errorf("get run history: %w", err)
		}

		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-27s %-20s %-12s %-8s %-8s %s\n",
			"RUN", "SOURCE", "MODE", "VERDICT", "EXIT", "TIMESTAMP")
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", 90))
		for _, r := range runs {
			fmt.Fprintf(w, "%-27s %-20s %-12s %-8s %-8d %s\n",
				r.Run.ID, r.Run.Source, r.Run.Mode, strings.ToUpper(r.Run.Verdict), r.Run.ExitCode, r.Run.Timestamp)
		}
		return nil
	},
}

var historyGatesCmd = &cobra.Command{
	Use:   "gates",
	Short: "Show per-gate pass rates across all recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		summaries, err := history.GateSummaries(d)
		if err != nil {
			return fmt.Errorf("get gate summaries: %w", err)
		}

		if len(summaries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No gate results recorded.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-22s %-6s %-7s %-6s %-7s %s\n",
			"GATE", "RUNS", "PASSES", "FAILS", "FATALS", "PASS%")
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", 60))
		for _, s := range summaries {
			fmt.Fprintf(w, "%-22s %-6d %-7d %-6d %-7d %.1f\n",
				s.Gate, s.Runs, s.Passes, s.Fails, s.Fatals, s.PassRate)
		}
		return nil
	},
}

// openDB opens and migrates the run-history DB, returning it with a
// cleanup func.
func openDB() (*db.DB, func(), error) {
	dbPath, err := db.DefaultDBPath()
	if err != nil {
		return nil, nil, err
	}
	d, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Migrate(); err != nil {
		d.Close()
		return nil, nil, err
	}
	return d, func() { d.Close() }, nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	historyCmd.AddCommand(historyGatesCmd)
}
