package gates

import (
	"context"
	"time"

	"github.com/patchgate/patchgate/internal/workspace"
)

// GateStaticAnalysis is the name of the bug-pattern analysis gate.
const GateStaticAnalysis = "static-analysis"

// NewStaticAnalysisGate runs the bug-pattern tool over the patched tree.
// Findings are counted against a zero baseline: the tool is invoked with a
// marker so only findings introduced by this run are reported. A tool error
// is Fatal; findings are a Fail.
func NewStaticAnalysisGate(r CommandRunner, command string, counter Counter, timeout time.Duration) Gate {
	return Gate{
		Name: GateStaticAnalysis,
		Run: func(ctx context.Context, ws *workspace.State) Result {
			inv, err := invoke(ctx, r, ws.RepoDir, command, timeout)
			if err != nil {
				return fatal(GateStaticAnalysis, "static analysis invocation: %v", err)
			}
			ws.SaveInvocation(GateStaticAnalysis, inv.Stdout, inv.Stderr)
			if inv.TimedOut {
				return fatal(GateStaticAnalysis, "static analysis timed out after %s", timeout)
			}
			if inv.ExitCode != 0 {
				return fatal(GateStaticAnalysis, "static analysis tool failed (exit code %d): %s", inv.ExitCode, firstLine(inv.Stderr))
			}

			findings := counter.Count(inv.Stdout + "\n" + inv.Stderr)
			if findings > 0 {
				return fail(GateStaticAnalysis, "the patch introduces %d new bug-pattern finding(s)", findings)
			}
			return pass(GateStaticAnalysis, "the patch does not introduce any new bug-pattern findings")
		},
	}
}
