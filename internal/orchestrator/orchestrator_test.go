package orchestrator

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/patchgate/patchgate/internal/acquire"
	"github.com/patchgate/patchgate/internal/config"
	"github.com/patchgate/patchgate/internal/db"
	"github.com/patchgate/patchgate/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// okRunner succeeds every invocation with empty output.
type okRunner struct {
	calls []string
}

func (r *okRunner) Run(ctx context.Context, dir string, command string) (string, string, int, error) {
	r.calls = append(r.calls, command)
	return "", "", 0, nil
}

type fakeTracker struct {
	issue    *tracker.Issue
	comments []string
}

func (f *fakeTracker) Issue(ctx context.Context, key string) (*tracker.Issue, error) {
	return f.issue, nil
}

func (f *fakeTracker) PostComment(ctx context.Context, key string, body string) error {
	f.comments = append(f.comments, body)
	return nil
}

const testPatch = `diff --git a/src/test/java/FooTest.java b/src/test/java/FooTest.java
--- a/src/test/java/FooTest.java
+++ b/src/test/java/FooTest.java
@@ -1 +1,2 @@
 public class FooTest {}
+// new assertion
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		BaseDir:    filepath.Join(t.TempDir(), "archive"),
		WorkDir:    t.TempDir(),
		Repo:       t.TempDir(),
		Mode:       "interactive",
		AllowDirty: true,
		Tools: config.ToolsConfig{
			Git:         "git",
			Build:       "mvn clean install -DskipTests",
			Tests:       "mvn test",
			Timeout:     "1m",
			TestTimeout: "1m",
		},
		Warnings: map[string]config.WarningConfig{
			"javadoc": {Command: "mvn javadoc:javadoc", Pattern: `\[WARNING\]`},
		},
		StaticAnalysis: config.StaticAnalysisConfig{
			Command: "mvn findbugs:findbugs",
			Pattern: `(?i)bug`,
		},
	}
}

func writeLocalPatch(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fix.patch")
	require.NoError(t, os.WriteFile(path, []byte(testPatch), 0o644))
	return path
}

func TestRun_CleanPatchPasses(t *testing.T) {
	cfg := testConfig(t)
	runner := &okRunner{}
	var out bytes.Buffer

	o := New(cfg, nil, acquire.New(acquire.Options{}), nil, nil, runner, &out)
	code, err := o.Run(context.Background(), writeLocalPatch(t))
	require.NoError(t, err)
	assert.Equal(t, ExitPass, code)
	assert.Contains(t, out.String(), "+1 overall")

	// dry-run, baseline build, javadoc baseline, apply, patched build,
	// javadoc delta, static analysis, tests
	assert.Len(t, runner.calls, 8)
}

func TestRun_SkipFlagsDropGates(t *testing.T) {
	cfg := testConfig(t)
	cfg.Skip.Tests = true
	cfg.Skip.StaticAnalysis = true
	runner := &okRunner{}
	var out bytes.Buffer

	o := New(cfg, nil, acquire.New(acquire.Options{}), nil, nil, runner, &out)
	code, err := o.Run(context.Background(), writeLocalPatch(t))
	require.NoError(t, err)
	assert.Equal(t, ExitPass, code)
	assert.Len(t, runner.calls, 6)
	for _, c := range runner.calls {
		assert.NotContains(t, c, "mvn test")
		assert.NotContains(t, c, "findbugs")
	}
}

func TestRun_AcquisitionFailureSkipsGates(t *testing.T) {
	cfg := testConfig(t)
	runner := &okRunner{}
	var out bytes.Buffer

	trk := &fakeTracker{issue: &tracker.Issue{Key: "HADOOP-1", Status: "Open"}}
	acq := acquire.New(acquire.Options{Tracker: trk})

	o := New(cfg, nil, acq, trk, nil, runner, &out)
	code, err := o.Run(context.Background(), "HADOOP-1")
	require.NoError(t, err)
	assert.Equal(t, ExitFail, code)
	assert.Empty(t, runner.calls, "no gate may run when acquisition fails")
	assert.Contains(t, out.String(), GateAcquire)
	assert.Contains(t, out.String(), "-1 overall")
}

func TestRun_UnresolvableSourceErrors(t *testing.T) {
	cfg := testConfig(t)
	o := New(cfg, nil, acquire.New(acquire.Options{}), nil, nil, &okRunner{}, &bytes.Buffer{})
	code, err := o.Run(context.Background(), "definitely not a source")
	require.Error(t, err)
	assert.Equal(t, ExitFail, code)
}

func TestRun_DirtyWorkspaceAutomatedExits100(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mode = "automated"
	cfg.AllowDirty = false // repo dir is not a git repository, so cleanliness is fatal
	runner := &okRunner{}
	var out bytes.Buffer

	o := New(cfg, nil, acquire.New(acquire.Options{}), nil, nil, runner, &out)
	code, err := o.Run(context.Background(), writeLocalPatch(t))
	require.NoError(t, err)
	assert.Equal(t, ExitCheckoutFailure, code)
	assert.Empty(t, runner.calls, "fatal cleanliness must stop the pipeline")
}

func TestRun_DirtyWorkspaceInteractiveExits1(t *testing.T) {
	cfg := testConfig(t)
	cfg.AllowDirty = false
	var out bytes.Buffer

	o := New(cfg, nil, acquire.New(acquire.Options{}), nil, nil, &okRunner{}, &out)
	code, err := o.Run(context.Background(), writeLocalPatch(t))
	require.NoError(t, err)
	assert.Equal(t, ExitFail, code)
}

func TestRun_AutomatedPostsReportToTracker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPatch))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Mode = "automated"
	cfg.LogURL = "https://ci.example.org/run"

	trk := &fakeTracker{issue: &tracker.Issue{
		Key:         "HADOOP-1",
		Status:      "Patch Available",
		Attachments: []string{srv.URL + "/HADOOP-1.patch"},
	}}
	acq := acquire.New(acquire.Options{Tracker: trk})
	runner := &okRunner{}
	var out bytes.Buffer

	o := New(cfg, nil, acq, trk, nil, runner, &out)
	code, err := o.Run(context.Background(), "HADOOP-1")
	require.NoError(t, err)
	assert.Equal(t, ExitPass, code)

	require.Len(t, trk.comments, 1)
	assert.Contains(t, trk.comments[0], "+1 overall")
	assert.Contains(t, trk.comments[0], "Raw test-run logs: https://ci.example.org/run")
}

func TestRun_InteractiveNeverPostsToTracker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPatch))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	trk := &fakeTracker{issue: &tracker.Issue{
		Key:         "HADOOP-1",
		Status:      "Patch Available",
		Attachments: []string{srv.URL + "/HADOOP-1.patch"},
	}}
	acq := acquire.New(acquire.Options{Tracker: trk})
	var out bytes.Buffer

	o := New(cfg, nil, acq, trk, nil, &okRunner{}, &out)
	_, err := o.Run(context.Background(), "HADOOP-1")
	require.NoError(t, err)
	assert.Empty(t, trk.comments)
}

func TestRun_RecordsHistory(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "patchgate.db"))
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.Migrate())

	cfg := testConfig(t)
	var out bytes.Buffer

	o := New(cfg, nil, acquire.New(acquire.Options{}), nil, d, &okRunner{}, &out)
	code, err := o.Run(context.Background(), writeLocalPatch(t))
	require.NoError(t, err)
	assert.Equal(t, ExitPass, code)

	runs, err := d.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "pass", runs[0].Verdict)
	assert.Equal(t, string(acquire.KindLocalFile), runs[0].SourceKind)

	rows, err := d.GetGateResults(runs[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, rows)
	for i, row := range rows {
		assert.Equal(t, i, row.Position)
	}
}

func TestRun_InteractiveCleansScratchDir(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	o := New(cfg, nil, acquire.New(acquire.Options{}), nil, nil, &okRunner{}, &out)
	_, err := o.Run(context.Background(), writeLocalPatch(t))
	require.NoError(t, err)

	entries, err := os.ReadDir(cfg.WorkDir)
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "patchgate-") {
			t.Errorf("scratch dir %s not cleaned up", e.Name())
		}
	}
}

func TestRun_AutomatedArchivesScratchDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mode = "automated"
	var out bytes.Buffer

	o := New(cfg, nil, acquire.New(acquire.Options{}), nil, nil, &okRunner{}, &out)
	code, err := o.Run(context.Background(), writeLocalPatch(t))
	require.NoError(t, err)
	assert.Equal(t, ExitPass, code)

	entries, err := os.ReadDir(cfg.BaseDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	report, err := os.ReadFile(filepath.Join(cfg.BaseDir, entries[0].Name(), "report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "+1 overall")
}
