package gates

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/patchgate/patchgate/internal/workspace"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatalf("init repo: %v", err)
	}
	return dir
}

func TestCleanlinessGate_CleanRepo(t *testing.T) {
	repoDir := initRepo(t)
	ws, err := workspace.New(t.TempDir(), t.TempDir(), repoDir, workspace.ModeInteractive)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}

	res := NewCleanlinessGate(false).Run(context.Background(), ws)
	if res.Verdict != Pass {
		t.Fatalf("expected pass, got %s: %s", res.Verdict, res.Message)
	}
}

func TestCleanlinessGate_DirtyRepoIsFatal(t *testing.T) {
	repoDir := initRepo(t)
	if err := os.WriteFile(filepath.Join(repoDir, "untracked.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	ws, err := workspace.New(t.TempDir(), t.TempDir(), repoDir, workspace.ModeInteractive)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}

	res := NewCleanlinessGate(false).Run(context.Background(), ws)
	if res.Verdict != Fatal {
		t.Fatalf("expected fatal, got %s", res.Verdict)
	}
}

func TestCleanlinessGate_AllowDirtyBypasses(t *testing.T) {
	repoDir := initRepo(t)
	if err := os.WriteFile(filepath.Join(repoDir, "untracked.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	ws, err := workspace.New(t.TempDir(), t.TempDir(), repoDir, workspace.ModeInteractive)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}

	res := NewCleanlinessGate(true).Run(context.Background(), ws)
	if res.Verdict != Pass {
		t.Fatalf("expected pass with allow-dirty, got %s", res.Verdict)
	}
}

func TestCleanlinessGate_MissingRepoIsFatal(t *testing.T) {
	ws, err := workspace.New(t.TempDir(), t.TempDir(), t.TempDir(), workspace.ModeInteractive)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}

	res := NewCleanlinessGate(false).Run(context.Background(), ws)
	if res.Verdict != Fatal {
		t.Fatalf("expected fatal for a non-repo dir, got %s", res.Verdict)
	}
}
