package gates

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Invocation holds the captured output of one external tool run.
type Invocation struct {
	Command    string
	Stdout     string
	Stderr     string
	ExitCode   int
	DurationMs int
	TimedOut   bool
}

// CommandRunner abstracts command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, dir string, command string) (stdout string, stderr string, exitCode int, err error)
}

// ExecRunner implements CommandRunner by shelling out.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, dir string, command string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	// Children of the shell inherit the output pipes; without a wait
	// delay they keep Wait blocked long after the deadline killed sh.
	cmd.WaitDelay = 2 * time.Second

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return stdoutBuf.String(), stderrBuf.String(), -1, fmt.Errorf("exec: %w", err)
		}
	}
	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// invoke runs a command with a timeout and captures its output. A context
// deadline hit is reported as TimedOut rather than an error so gates can
// grade it instead of crashing the pipeline.
func invoke(ctx context.Context, r CommandRunner, dir, command string, timeout time.Duration) (*Invocation, error) {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, exitCode, err := r.Run(ctx, dir, command)
	durationMs := int(time.Since(start).Milliseconds())

	inv := &Invocation{
		Command:    command,
		Stdout:     stdout,
		Stderr:     stderr,
		ExitCode:   exitCode,
		DurationMs: durationMs,
	}

	// A deadline kill can surface as an ExitError (non-nil err), a wait
	// error, or a plain non-zero exit, depending on how the shell died.
	// The context is the source of truth.
	if ctx.Err() == context.DeadlineExceeded {
		inv.ExitCode = -1
		inv.TimedOut = true
		return inv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run %q: %w", command, err)
	}
	return inv, nil
}
