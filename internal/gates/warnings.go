package gates

import (
	"context"
	"fmt"
	"time"

	"github.com/patchgate/patchgate/internal/workspace"
)

// WarningCheck is one regression-only warning metric: the same command is
// run before and after patch application, counts are compared, and only an
// increase is penalized.
type WarningCheck struct {
	Name    string
	Command string
	Counter Counter
	Timeout time.Duration
}

// NewWarningDeltaGate grades one warning check after the patched build. It
// requires that the matching baseline was captured by the baseline gate.
func NewWarningDeltaGate(r CommandRunner, check WarningCheck) Gate {
	name := check.Name + "-warnings"
	return Gate{
		Name: name,
		Run: func(ctx context.Context, ws *workspace.State) Result {
			before, ok := ws.Baseline(check.Name)
			if !ok {
				return fatal(name, "no %s baseline captured before patch application", check.Name)
			}

			inv, err := invoke(ctx, r, ws.RepoDir, check.Command, check.Timeout)
			if err != nil {
				return fatal(name, "%s invocation: %v", check.Name, err)
			}
			ws.SaveInvocation(name, inv.Stdout, inv.Stderr)
			if inv.TimedOut {
				return fail(name, "%s timed out after %s, warning count not comparable", check.Name, check.Timeout)
			}
			// A killed tool leaves truncated output; counting it would
			// understate the patched total and could mask a regression.
			if inv.ExitCode < 0 {
				return fail(name, "%s was killed before completing, warning count not comparable", check.Name)
			}

			after := check.Counter.Count(inv.Stdout + "\n" + inv.Stderr)
			res := Result{Gate: name, Before: before, After: after, HasCounts: true}
			if after > before {
				res.Verdict = Fail
				res.Message = formatDelta(check.Name, before, after)
				return res
			}
			res.Verdict = Pass
			res.Message = formatDelta(check.Name, before, after)
			return res
		},
	}
}

func formatDelta(check string, before, after int) string {
	if after > before {
		return fmt.Sprintf("the patch introduces %d new %s warning(s) (baseline %d, patched %d)", after-before, check, before, after)
	}
	return fmt.Sprintf("the patch does not introduce any new %s warnings (baseline %d, patched %d)", check, before, after)
}
