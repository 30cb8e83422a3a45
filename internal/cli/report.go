package cli

import (
	"fmt"

	"github.com/patchgate/patchgate/internal/gates"
	"github.com/patchgate/patchgate/internal/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Re-render the report of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := args[0]

		d, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		run, err := d.GetRun(runID)
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		if run == nil {
			return fmt.Errorf("run %q not found", runID)
		}

		rows, err := d.GetGateResults(runID)
		if err != nil {
			return fmt.Errorf("get gate results: %w", err)
		}

		rep := report.New(report.Interactive, run.Source, "")
		for _, row := range rows {
			verdict, err := gates.ParseVerdict(row.Verdict)
			if err != nil {
				return fmt.Errorf("gate %q: %w", row.Gate, err)
			}
			rep.Add(gates.Result{
				Gate:      row.Gate,
				Verdict:   verdict,
				Message:   row.Message,
				Before:    row.BeforeCount,
				After:     row.AfterCount,
				HasCounts: row.HasCounts,
			})
		}

		fmt.Fprintln(cmd.OutOrStdout(), rep.Render())
		return nil
	},
}
