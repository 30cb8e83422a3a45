package gates

import (
	"context"

	"github.com/go-git/go-git/v5"
	"github.com/patchgate/patchgate/internal/workspace"
)

// GateCleanliness is the name of the workspace cleanliness gate.
const GateCleanliness = "cleanliness"

// NewCleanlinessGate verifies the working copy has no uncommitted changes
// before anything touches it. allowDirty permits a dirty tree for local
// developer runs where the patch is tested in place.
func NewCleanlinessGate(allowDirty bool) Gate {
	return Gate{
		Name: GateCleanliness,
		Run: func(ctx context.Context, ws *workspace.State) Result {
			if allowDirty {
				return pass(GateCleanliness, "dirty workspace permitted by run options")
			}

			repo, err := git.PlainOpen(ws.RepoDir)
			if err != nil {
				return fatal(GateCleanliness, "open repository %s: %v", ws.RepoDir, err)
			}
			wt, err := repo.Worktree()
			if err != nil {
				return fatal(GateCleanliness, "resolve worktree: %v", err)
			}
			status, err := wt.Status()
			if err != nil {
				return fatal(GateCleanliness, "read worktree status: %v", err)
			}
			if !status.IsClean() {
				return fatal(GateCleanliness, "workspace has %d uncommitted change(s), refusing to test a patch on top of them", len(status))
			}
			return pass(GateCleanliness, "workspace is clean")
		},
	}
}
