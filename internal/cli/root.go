package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "patchgate",
	Short: "Pre-commit patch validation for tracker-driven projects",
	Long: `patchgate downloads a patch (local file, tracker attachment, pull request,
or review-board diff), applies it to a working copy, and runs a fixed pipeline
of quality gates: cleanliness, dry-run, author tags, baseline build, test
presence, application, patched build, warning deltas, static analysis, and
the unit test suite. The aggregate report is printed and, in automated mode,
posted back to the issue tracker.

Run history is stored in ~/.patchgate/patchgate.db; scratch logs for
automated runs are archived under the base directory.`,
}

func Execute() error {
	return rootCmd.Execute()
}

// ExitCodeError carries a non-standard process exit code (e.g. 100 for an
// unrecoverable checkout failure) from a command to main.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}
