package report

import (
	"strings"
	"testing"

	"github.com/patchgate/patchgate/internal/gates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_AllPassing(t *testing.T) {
	rep := New(Interactive, "HADOOP-1234", "")
	rep.AddAll([]gates.Result{
		{Gate: "author-tags", Verdict: gates.Pass, Message: "the patch does not introduce any @author tags"},
		{Gate: "unit-tests", Verdict: gates.Pass, Message: "all unit tests passed"},
	})

	out := rep.Render()
	assert.True(t, strings.HasPrefix(out, "+1 overall. Patch HADOOP-1234 looks good."), out)
	assert.Contains(t, out, "    +1 author-tags. the patch does not introduce any @author tags")
	assert.Contains(t, out, "    +1 unit-tests. all unit tests passed")
	assert.NotContains(t, out, "Raw test-run logs")
}

func TestRender_FailureFlipsBanner(t *testing.T) {
	rep := New(Interactive, "HADOOP-1234", "")
	rep.Add(gates.Result{Gate: "unit-tests", Verdict: gates.Fail, Message: "test run failed: 3 failing test indication(s)"})

	out := rep.Render()
	assert.True(t, strings.HasPrefix(out, "-1 overall. Patch HADOOP-1234 needs work."), out)
	assert.Contains(t, out, "    -1 unit-tests.")
}

func TestRender_AutomatedFooter(t *testing.T) {
	rep := New(Automated, "HADOOP-1234", "https://ci.example.org/run/42")
	rep.Add(gates.Result{Gate: "unit-tests", Verdict: gates.Pass, Message: "all unit tests passed"})

	out := rep.Render()
	assert.Contains(t, out, "Raw test-run logs: https://ci.example.org/run/42")
}

func TestRender_AutomatedWithoutURLOmitsFooter(t *testing.T) {
	rep := New(Automated, "HADOOP-1234", "")
	rep.Add(gates.Result{Gate: "unit-tests", Verdict: gates.Pass, Message: "all unit tests passed"})

	out := rep.Render()
	assert.NotContains(t, out, "Raw test-run logs")
}

func TestRender_PreservesExecutionOrder(t *testing.T) {
	rep := New(Interactive, "HADOOP-1234", "")
	names := []string{"cleanliness", "patch-dry-run", "author-tags", "unit-tests"}
	for _, n := range names {
		rep.Add(gates.Result{Gate: n, Verdict: gates.Pass, Message: "ok"})
	}

	out := rep.Render()
	last := -1
	for _, n := range names {
		idx := strings.Index(out, n+".")
		require.GreaterOrEqual(t, idx, 0, "gate %s missing from report", n)
		assert.Greater(t, idx, last, "gate %s rendered out of order", n)
		last = idx
	}
}

func TestOverall_FatalDominates(t *testing.T) {
	rep := New(Interactive, "x", "")
	rep.Add(gates.Result{Gate: "a", Verdict: gates.Fail})
	rep.Add(gates.Result{Gate: "b", Verdict: gates.Fatal})
	assert.Equal(t, gates.Fatal, rep.Overall())
}
