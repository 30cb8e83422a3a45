package gates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patchgate/patchgate/internal/workspace"
)

// Gate names for the two patch gates.
const (
	GateDryRun = "patch-dry-run"
	GateApply  = "patch-apply"
)

// NewDryRunGate checks that the patch applies cleanly without touching the
// working copy. Fatal on failure: nothing downstream makes sense if the
// patch does not fit the tree.
func NewDryRunGate(r CommandRunner, gitCmd string, timeout time.Duration) Gate {
	return Gate{
		Name: GateDryRun,
		Run: func(ctx context.Context, ws *workspace.State) Result {
			cmd := fmt.Sprintf("%s apply --check -p0 %q || %s apply --check -p1 %q", gitCmd, ws.PatchPath, gitCmd, ws.PatchPath)
			inv, err := invoke(ctx, r, ws.RepoDir, cmd, timeout)
			if err != nil {
				return fatal(GateDryRun, "dry-run invocation: %v", err)
			}
			ws.SaveInvocation(GateDryRun, inv.Stdout, inv.Stderr)

			if inv.ExitCode != 0 {
				return fatal(GateDryRun, "patch does not apply to the current tree: %s", firstLine(inv.Stderr))
			}
			return pass(GateDryRun, "patch applies cleanly")
		},
	}
}

// NewApplyGate applies the patch for real. Runs after the baseline has been
// captured; Fatal on failure.
func NewApplyGate(r CommandRunner, gitCmd string, timeout time.Duration) Gate {
	return Gate{
		Name: GateApply,
		Run: func(ctx context.Context, ws *workspace.State) Result {
			cmd := fmt.Sprintf("%s apply -p0 %q || %s apply -p1 %q", gitCmd, ws.PatchPath, gitCmd, ws.PatchPath)
			inv, err := invoke(ctx, r, ws.RepoDir, cmd, timeout)
			if err != nil {
				return fatal(GateApply, "apply invocation: %v", err)
			}
			ws.SaveInvocation(GateApply, inv.Stdout, inv.Stderr)

			if inv.ExitCode != 0 {
				return fatal(GateApply, "patch application failed: %s", firstLine(inv.Stderr))
			}
			return pass(GateApply, "patch applied")
		},
	}
}

// firstLine trims tool output down to its first non-empty line for report
// messages; the full output lives in the run directory.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return "(no output)"
}
