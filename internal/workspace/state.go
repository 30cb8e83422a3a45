package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Mode selects how a run behaves at the edges: interactive runs keep
// output local and discard scratch files, automated runs archive scratch
// files and post the report to the tracker.
type Mode string

const (
	ModeInteractive Mode = "interactive"
	ModeAutomated   Mode = "automated"
)

// State holds everything a run accumulates on disk and in memory: the
// scratch directory, the resolved patch file, and baseline warning counts
// captured before the patch is applied. One State per invocation.
type State struct {
	RunID   string
	BaseDir string // where scratch is archived in automated mode
	RunDir  string // scratch directory for this run
	RepoDir string // git working copy under test
	Mode    Mode

	// PatchPath is set once by the acquirer.
	PatchPath string

	// DocumentationOnly is set from tracker metadata at acquisition time
	// and exempts the patch from the test-presence gate.
	DocumentationOnly bool

	mu        sync.Mutex
	baselines map[string]int
	cleanup   sync.Once
}

// New creates the scratch directory for a run under workDir.
func New(baseDir, workDir, repoDir string, mode Mode) (*State, error) {
	runID := ulid.Make().String()
	runDir := filepath.Join(workDir, "patchgate-"+runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir run dir %s: %w", runDir, err)
	}

	return &State{
		RunID:     runID,
		BaseDir:   baseDir,
		RunDir:    runDir,
		RepoDir:   repoDir,
		Mode:      mode,
		PatchPath: filepath.Join(runDir, "patch"),
		baselines: make(map[string]int),
	}, nil
}

// LogPath returns the path of a named scratch file under the run directory.
func (s *State) LogPath(name string) string {
	return filepath.Join(s.RunDir, name)
}

// WriteLog persists captured tool output under the run directory.
func (s *State) WriteLog(name string, data []byte) error {
	return WriteAtomic(s.LogPath(name), data)
}

// SaveInvocation writes a gate's raw stdout/stderr to disk for post-hoc
// inspection. Best effort: raw logs are diagnostics, not run state.
func (s *State) SaveInvocation(gate string, stdout, stderr string) {
	_ = s.WriteLog(gate+"-stdout.txt", []byte(stdout))
	_ = s.WriteLog(gate+"-stderr.txt", []byte(stderr))
}

// SetBaseline records a pre-patch warning count for a named check.
func (s *State) SetBaseline(check string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baselines[check] = count
}

// Baseline returns the pre-patch warning count for a named check, if captured.
func (s *State) Baseline(check string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.baselines[check]
	return n, ok
}

// Cleanup tears down the scratch directory. In automated mode the run
// directory is relocated into the base directory so logs survive the run;
// otherwise it is removed. Runs at most once regardless of how many exit
// paths reach it.
func (s *State) Cleanup() error {
	var err error
	s.cleanup.Do(func() {
		if s.Mode == ModeAutomated {
			dest := filepath.Join(s.BaseDir, "patchgate-"+s.RunID)
			if mkErr := os.MkdirAll(s.BaseDir, 0o755); mkErr != nil {
				err = fmt.Errorf("mkdir base dir: %w", mkErr)
				return
			}
			if mvErr := moveDir(s.RunDir, dest); mvErr != nil {
				err = fmt.Errorf("archive run dir: %w", mvErr)
			}
			return
		}
		if rmErr := os.RemoveAll(s.RunDir); rmErr != nil {
			err = fmt.Errorf("remove run dir: %w", rmErr)
		}
	})
	return err
}

// moveDir relocates a directory tree. The scratch dir usually lives on
// tmpfs while the archive lives under the home directory, so a plain
// rename fails with EXDEV; fall back to copying and removing the source.
func moveDir(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	if err := copyTree(src, dest); err != nil {
		return fmt.Errorf("copy %s -> %s: %w", src, dest, err)
	}
	return os.RemoveAll(src)
}

func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
