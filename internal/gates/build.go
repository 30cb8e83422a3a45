package gates

import (
	"context"
	"time"

	"github.com/patchgate/patchgate/internal/workspace"
)

// Gate names for the two build gates.
const (
	GateBaselineBuild = "baseline-build"
	GatePatchedBuild  = "patched-build"
)

// NewBaselineBuildGate compiles the unpatched tree and captures the
// pre-patch warning count for every configured check. A tree that does not
// compile before the patch cannot grade the patch, so failure is Fatal.
func NewBaselineBuildGate(r CommandRunner, buildCmd string, timeout time.Duration, checks []WarningCheck) Gate {
	return Gate{
		Name: GateBaselineBuild,
		Run: func(ctx context.Context, ws *workspace.State) Result {
			inv, err := invoke(ctx, r, ws.RepoDir, buildCmd, timeout)
			if err != nil {
				return fatal(GateBaselineBuild, "baseline build invocation: %v", err)
			}
			ws.SaveInvocation(GateBaselineBuild, inv.Stdout, inv.Stderr)
			if inv.TimedOut {
				return fatal(GateBaselineBuild, "baseline build timed out after %s", timeout)
			}
			if inv.ExitCode != 0 {
				return fatal(GateBaselineBuild, "the unpatched tree does not compile (exit code %d)", inv.ExitCode)
			}

			for _, check := range checks {
				cinv, err := invoke(ctx, r, ws.RepoDir, check.Command, check.Timeout)
				if err != nil {
					return fatal(GateBaselineBuild, "baseline %s invocation: %v", check.Name, err)
				}
				ws.SaveInvocation("baseline-"+check.Name, cinv.Stdout, cinv.Stderr)
				if cinv.TimedOut {
					return fatal(GateBaselineBuild, "baseline %s capture timed out after %s", check.Name, check.Timeout)
				}
				if cinv.ExitCode < 0 {
					return fatal(GateBaselineBuild, "baseline %s capture was killed before completing", check.Name)
				}
				ws.SetBaseline(check.Name, check.Counter.Count(cinv.Stdout+"\n"+cinv.Stderr))
			}

			return pass(GateBaselineBuild, "unpatched tree compiles, %d warning baseline(s) captured", len(checks))
		},
	}
}

// NewPatchedBuildGate compiles and installs the tree after patch
// application. Fatal on failure: the delta gates need built artifacts.
func NewPatchedBuildGate(r CommandRunner, buildCmd string, timeout time.Duration) Gate {
	return Gate{
		Name: GatePatchedBuild,
		Run: func(ctx context.Context, ws *workspace.State) Result {
			inv, err := invoke(ctx, r, ws.RepoDir, buildCmd, timeout)
			if err != nil {
				return fatal(GatePatchedBuild, "patched build invocation: %v", err)
			}
			ws.SaveInvocation(GatePatchedBuild, inv.Stdout, inv.Stderr)
			if inv.TimedOut {
				return fatal(GatePatchedBuild, "patched build timed out after %s", timeout)
			}
			if inv.ExitCode != 0 {
				return fatal(GatePatchedBuild, "the patched tree does not compile (exit code %d)", inv.ExitCode)
			}
			return pass(GatePatchedBuild, "patched tree compiles and installs")
		},
	}
}
