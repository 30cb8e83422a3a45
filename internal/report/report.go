package report

import (
	"fmt"
	"strings"

	"github.com/patchgate/patchgate/internal/gates"
)

// Accumulator collects gate results in execution order and renders the
// final tracker comment. The render mode is fixed at construction and
// never changes for the life of a run.
type Accumulator struct {
	mode    Mode
	subject string
	results []gates.Result
	logURL  string
}

// Mode selects the rendering variant.
type Mode int

const (
	// Interactive omits the footer with raw log links.
	Interactive Mode = iota
	// Automated appends the footer linking to archived logs.
	Automated
)

// New creates an Accumulator for the given subject line (issue key, PR id,
// or patch file name). logURL points readers at the archived raw logs;
// the footer is rendered only in Automated mode and only when set.
func New(mode Mode, subject, logURL string) *Accumulator {
	return &Accumulator{mode: mode, subject: subject, logURL: logURL}
}

// Add appends one gate result. Results are never reordered or mutated.
func (a *Accumulator) Add(r gates.Result) {
	a.results = append(a.results, r)
}

// AddAll appends a batch of gate results in order.
func (a *Accumulator) AddAll(rs []gates.Result) {
	a.results = append(a.results, rs...)
}

// Results returns the accumulated gate results in execution order.
func (a *Accumulator) Results() []gates.Result {
	return a.results
}

// Overall returns the folded verdict across every recorded gate.
func (a *Accumulator) Overall() gates.Verdict {
	return gates.Overall(a.results)
}

// Render produces the formatted report. One banner, one line per gate in
// execution order, and in automated mode a footer pointing at raw logs.
func (a *Accumulator) Render() string {
	var b strings.Builder

	overall := a.Overall()
	if overall == gates.Pass {
		fmt.Fprintf(&b, "+1 overall. Patch %s looks good.\n", a.subject)
	} else {
		fmt.Fprintf(&b, "-1 overall. Patch %s needs work.\n", a.subject)
	}
	b.WriteString("\n")

	for _, r := range a.results {
		marker := "+1"
		if r.Verdict != gates.Pass {
			marker = "-1"
		}
		fmt.Fprintf(&b, "    %s %s. %s\n", marker, r.Gate, r.Message)
	}

	if a.mode == Automated && a.logURL != "" {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Raw test-run logs: %s\n", a.logURL)
	}

	return b.String()
}
