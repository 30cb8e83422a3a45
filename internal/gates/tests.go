package gates

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/patchgate/patchgate/internal/workspace"
)

// GateTests is the name of the test-execution gate.
const GateTests = "unit-tests"

var (
	failedTestRe   = regexp.MustCompile(`(?m)^.*(FAILED|Failures: [1-9]\d*|Errors: [1-9]\d*).*$`)
	timedOutTestRe = regexp.MustCompile(`(?mi)^.*test.*timed? ?-?out.*$`)
	brokenBuildRe  = regexp.MustCompile(`(?m)^.*(BUILD FAILURE|COMPILATION ERROR).*$`)
)

// NewTestsGate runs the full suite and aggregates the three failure classes
// (failing tests, reported timeouts, broken test builds) into a single
// result. Never Fatal: the report is still worth posting with everything
// the suite revealed.
func NewTestsGate(r CommandRunner, command string, timeout time.Duration) Gate {
	return Gate{
		Name: GateTests,
		Run: func(ctx context.Context, ws *workspace.State) Result {
			inv, err := invoke(ctx, r, ws.RepoDir, command, timeout)
			if err != nil {
				return fail(GateTests, "test invocation: %v", err)
			}
			ws.SaveInvocation(GateTests, inv.Stdout, inv.Stderr)
			if inv.TimedOut {
				return fail(GateTests, "test run exceeded the %s invocation timeout", timeout)
			}

			out := inv.Stdout + "\n" + inv.Stderr
			failed := len(failedTestRe.FindAllString(out, -1))
			timedOut := len(timedOutTestRe.FindAllString(out, -1))
			broken := len(brokenBuildRe.FindAllString(out, -1))

			if inv.ExitCode == 0 && failed == 0 && timedOut == 0 && broken == 0 {
				return pass(GateTests, "all unit tests passed")
			}

			var parts []string
			if failed > 0 {
				parts = append(parts, fmt.Sprintf("%d failing test indication(s)", failed))
			}
			if timedOut > 0 {
				parts = append(parts, fmt.Sprintf("%d timed-out test module(s)", timedOut))
			}
			if broken > 0 {
				parts = append(parts, fmt.Sprintf("%d broken test build(s)", broken))
			}
			if len(parts) == 0 {
				parts = append(parts, "non-zero exit with no recognized failure output")
			}
			return fail(GateTests, "test run failed: %s", strings.Join(parts, ", "))
		},
	}
}
