package gates

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestTestsGate_AllPassing(t *testing.T) {
	ws := newTestWorkspace(t)
	mock := &mockCmd{results: []mockResult{{
		ExitCode: 0,
		Stdout:   "Tests run: 120, Failures: 0, Errors: 0, Skipped: 2\nBUILD SUCCESS\n",
	}}}

	res := NewTestsGate(mock, "mvn test", time.Minute).Run(context.Background(), ws)
	if res.Verdict != Pass {
		t.Fatalf("expected pass, got %s: %s", res.Verdict, res.Message)
	}
}

func TestTestsGate_AggregatesFailureClasses(t *testing.T) {
	ws := newTestWorkspace(t)
	mock := &mockCmd{results: []mockResult{{
		ExitCode: 1,
		Stdout: strings.Join([]string{
			"Tests run: 120, Failures: 3, Errors: 0, Skipped: 2",
			"[ERROR] module foo-core test timed out",
			"[ERROR] COMPILATION ERROR in bar-server",
		}, "\n"),
	}}}

	res := NewTestsGate(mock, "mvn test", time.Minute).Run(context.Background(), ws)
	if res.Verdict != Fail {
		t.Fatalf("expected fail, got %s", res.Verdict)
	}
	for _, want := range []string{"failing test", "timed-out test", "broken test build"} {
		if !strings.Contains(res.Message, want) {
			t.Errorf("expected %q in aggregated message, got %q", want, res.Message)
		}
	}
}

func TestTestsGate_TimeoutIsFailNotFatal(t *testing.T) {
	ws := newTestWorkspace(t)
	mock := &mockCmd{results: []mockResult{{Block: true}}}

	res := NewTestsGate(mock, "mvn test", 10*time.Millisecond).Run(context.Background(), ws)
	if res.Verdict != Fail {
		t.Fatalf("expected fail on timeout, got %s", res.Verdict)
	}
	if !strings.Contains(res.Message, "timeout") {
		t.Errorf("expected timeout mention, got %q", res.Message)
	}
}

func TestTestsGate_NonZeroExitWithoutRecognizedOutput(t *testing.T) {
	ws := newTestWorkspace(t)
	mock := &mockCmd{results: []mockResult{{ExitCode: 2, Stdout: "something odd happened"}}}

	res := NewTestsGate(mock, "mvn test", time.Minute).Run(context.Background(), ws)
	if res.Verdict != Fail {
		t.Fatalf("expected fail, got %s", res.Verdict)
	}
	if !strings.Contains(res.Message, "no recognized failure output") {
		t.Errorf("got %q", res.Message)
	}
}
