package gates

import (
	"context"
	"fmt"

	"github.com/patchgate/patchgate/internal/workspace"
)

// Verdict is the outcome of a single gate.
type Verdict int

const (
	// Pass means the gate found nothing wrong.
	Pass Verdict = iota
	// Fail records a problem but lets the remaining gates run.
	Fail
	// Fatal aborts all remaining gates.
	Fatal
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// ParseVerdict converts a stored verdict string back into a Verdict.
func ParseVerdict(s string) (Verdict, error) {
	switch s {
	case "pass":
		return Pass, nil
	case "fail":
		return Fail, nil
	case "fatal":
		return Fatal, nil
	default:
		return Pass, fmt.Errorf("unknown verdict %q", s)
	}
}

// Result is the immutable outcome of one gate run.
type Result struct {
	Gate    string  `json:"gate"`
	Verdict Verdict `json:"verdict"`
	Message string  `json:"message"`

	// Before/After hold warning counts for delta gates. HasCounts
	// distinguishes a real 0/0 pair from a gate with no counts at all.
	Before    int  `json:"before,omitempty"`
	After     int  `json:"after,omitempty"`
	HasCounts bool `json:"has_counts,omitempty"`
}

// Gate is one named validation step. Run may invoke external tools and
// write artifacts under the run directory, nothing else.
type Gate struct {
	Name string
	Run  func(ctx context.Context, ws *workspace.State) Result
}

func pass(name, format string, args ...interface{}) Result {
	return Result{Gate: name, Verdict: Pass, Message: fmt.Sprintf(format, args...)}
}

func fail(name, format string, args ...interface{}) Result {
	return Result{Gate: name, Verdict: Fail, Message: fmt.Sprintf(format, args...)}
}

func fatal(name, format string, args ...interface{}) Result {
	return Result{Gate: name, Verdict: Fatal, Message: fmt.Sprintf(format, args...)}
}
