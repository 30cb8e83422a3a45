package orchestrator

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/patchgate/patchgate/internal/acquire"
	"github.com/patchgate/patchgate/internal/config"
	"github.com/patchgate/patchgate/internal/db"
	"github.com/patchgate/patchgate/internal/gates"
	"github.com/patchgate/patchgate/internal/report"
	"github.com/patchgate/patchgate/internal/tracker"
	"github.com/patchgate/patchgate/internal/workspace"
	"go.uber.org/zap"
)

// Exit codes for a completed run.
const (
	ExitPass = 0
	ExitFail = 1
	// ExitCheckoutFailure signals an unrecoverable dirty-workspace failure
	// in automated mode so the CI wrapper can recycle the checkout.
	ExitCheckoutFailure = 100
)

// GateAcquire names the pseudo-gate under which acquisition failures are
// reported. Acquisition runs before the pipeline but its failure still
// appears in the report as the sole cause.
const GateAcquire = "acquire-patch"

// preferredWarningOrder pins the canonical report order for the standard
// warning checks; any extra configured checks follow alphabetically.
var preferredWarningOrder = []string{"javadoc", "javac", "release-audit", "checkstyle"}

// Orchestrator drives one validation run end to end: acquisition, gates,
// report rendering, tracker submission, history recording, and cleanup.
type Orchestrator struct {
	cfg    *config.Config
	log    *zap.Logger
	acq    *acquire.Acquirer
	trk    tracker.Client
	hist   *db.DB
	runner gates.CommandRunner
	out    io.Writer
}

// New creates an Orchestrator. trk and hist may be nil: tracker submission
// and history recording are then skipped.
func New(cfg *config.Config, log *zap.Logger, acq *acquire.Acquirer, trk tracker.Client, hist *db.DB, runner gates.CommandRunner, out io.Writer) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		cfg:    cfg,
		log:    log,
		acq:    acq,
		trk:    trk,
		hist:   hist,
		runner: runner,
		out:    out,
	}
}

// Run validates one patch source and returns the process exit code.
// Cleanup of the scratch directory happens on every path out of here.
func (o *Orchestrator) Run(ctx context.Context, rawSource string) (int, error) {
	src, err := acquire.ParseSource(rawSource)
	if err != nil {
		return ExitFail, err
	}

	mode := workspace.ModeInteractive
	repMode := report.Interactive
	if o.cfg.Mode == "automated" {
		mode = workspace.ModeAutomated
		repMode = report.Automated
	}

	ws, err := workspace.New(o.cfg.BaseDir, o.cfg.WorkDir, o.cfg.Repo, mode)
	if err != nil {
		return ExitFail, fmt.Errorf("create workspace: %w", err)
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			o.log.Warn("workspace cleanup failed", zap.Error(err))
		}
	}()

	rep := report.New(repMode, rawSource, o.cfg.LogURL)
	start := time.Now()

	if err := o.acq.Acquire(ctx, src, ws); err != nil {
		o.log.Error("patch acquisition failed", zap.String("source", rawSource), zap.Error(err))
		rep.Add(gates.Result{Gate: GateAcquire, Verdict: gates.Fatal, Message: err.Error()})
		o.finish(ctx, src, rep, ws, time.Since(start))
		return ExitFail, nil
	}

	gs, err := o.buildGates()
	if err != nil {
		return ExitFail, fmt.Errorf("assemble gates: %w", err)
	}

	results := gates.NewPipeline(o.log, gs...).Run(ctx, ws)
	rep.AddAll(results)

	o.finish(ctx, src, rep, ws, time.Since(start))
	return o.exitCode(rep), nil
}

// finish renders the report, submits it, and records the run. None of
// these steps can fail the run; they log and move on.
func (o *Orchestrator) finish(ctx context.Context, src acquire.Source, rep *report.Accumulator, ws *workspace.State, elapsed time.Duration) {
	rendered := rep.Render()
	fmt.Fprintln(o.out, rendered)
	_ = ws.WriteLog("report.txt", []byte(rendered))

	if o.cfg.Mode == "automated" && src.Kind == acquire.KindTrackerAttachment && o.trk != nil {
		if err := o.trk.PostComment(ctx, src.Value, rendered); err != nil {
			o.log.Warn("posting report to tracker failed", zap.String("issue", src.Value), zap.Error(err))
		}
	}

	o.record(src, rep, ws, elapsed)
}

// record persists the run and its gate results to the history database.
func (o *Orchestrator) record(src acquire.Source, rep *report.Accumulator, ws *workspace.State, elapsed time.Duration) {
	if o.hist == nil {
		return
	}

	run := db.Run{
		ID:         ws.RunID,
		Source:     src.Value,
		SourceKind: string(src.Kind),
		Mode:       o.cfg.Mode,
		Verdict:    rep.Overall().String(),
		ExitCode:   o.exitCode(rep),
		DurationMs: int(elapsed.Milliseconds()),
		RunDir:     ws.RunDir,
	}
	if err := o.hist.RecordRun(run); err != nil {
		o.log.Warn("recording run failed", zap.Error(err))
		return
	}
	for i, r := range rep.Results() {
		if err := o.hist.RecordGateResult(ws.RunID, i, r.Gate, r.Verdict.String(), r.Message, r.Before, r.After, r.HasCounts); err != nil {
			o.log.Warn("recording gate result failed", zap.String("gate", r.Gate), zap.Error(err))
		}
	}
}

// exitCode maps the accumulated report onto the process exit code.
func (o *Orchestrator) exitCode(rep *report.Accumulator) int {
	if rep.Overall() == gates.Pass {
		return ExitPass
	}
	if o.cfg.Mode == "automated" {
		for _, r := range rep.Results() {
			if r.Gate == gates.GateCleanliness && r.Verdict == gates.Fatal {
				return ExitCheckoutFailure
			}
		}
	}
	return ExitFail
}

// buildGates assembles the fixed pipeline from config.
func (o *Orchestrator) buildGates() ([]gates.Gate, error) {
	timeout, err := time.ParseDuration(o.cfg.Tools.Timeout)
	if err != nil {
		return nil, fmt.Errorf("tools.timeout: %w", err)
	}
	testTimeout, err := time.ParseDuration(o.cfg.Tools.TestTimeout)
	if err != nil {
		return nil, fmt.Errorf("tools.test_timeout: %w", err)
	}

	checks, err := o.warningChecks(timeout)
	if err != nil {
		return nil, err
	}

	gs := []gates.Gate{
		gates.NewCleanlinessGate(o.cfg.AllowDirty),
		gates.NewDryRunGate(o.runner, o.cfg.Tools.Git, timeout),
		gates.NewAuthorTagGate(),
		gates.NewBaselineBuildGate(o.runner, o.cfg.Tools.Build, timeout, checks),
		gates.NewTestPresenceGate(),
		gates.NewApplyGate(o.runner, o.cfg.Tools.Git, timeout),
		gates.NewPatchedBuildGate(o.runner, o.cfg.Tools.Build, timeout),
	}

	for _, check := range checks {
		gs = append(gs, gates.NewWarningDeltaGate(o.runner, check))
	}

	if !o.cfg.Skip.StaticAnalysis {
		counter, err := gates.NewPatternCounter(o.cfg.StaticAnalysis.Pattern)
		if err != nil {
			return nil, fmt.Errorf("static_analysis.pattern: %w", err)
		}
		saTimeout := timeout
		if o.cfg.StaticAnalysis.Timeout != "" {
			if d, err := time.ParseDuration(o.cfg.StaticAnalysis.Timeout); err == nil {
				saTimeout = d
			}
		}
		gs = append(gs, gates.NewStaticAnalysisGate(o.runner, o.cfg.StaticAnalysis.Command, counter, saTimeout))
	}

	if !o.cfg.Skip.Tests {
		gs = append(gs, gates.NewTestsGate(o.runner, o.cfg.Tools.Tests, testTimeout))
	}

	return gs, nil
}

// warningChecks compiles configured warning checks in canonical order.
func (o *Orchestrator) warningChecks(defaultTimeout time.Duration) ([]gates.WarningCheck, error) {
	var names []string
	seen := make(map[string]bool)
	for _, name := range preferredWarningOrder {
		if _, ok := o.cfg.Warnings[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var extras []string
	for name := range o.cfg.Warnings {
		if !seen[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	names = append(names, extras...)

	var checks []gates.WarningCheck
	for _, name := range names {
		wc := o.cfg.Warnings[name]
		counter, err := gates.NewPatternCounter(wc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("warnings.%s.pattern: %w", name, err)
		}
		t := defaultTimeout
		if wc.Timeout != "" {
			if d, err := time.ParseDuration(wc.Timeout); err == nil {
				t = d
			}
		}
		checks = append(checks, gates.WarningCheck{
			Name:    name,
			Command: wc.Command,
			Counter: counter,
			Timeout: t,
		})
	}
	return checks, nil
}
