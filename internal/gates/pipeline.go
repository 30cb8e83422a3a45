package gates

import (
	"context"

	"github.com/patchgate/patchgate/internal/workspace"
	"go.uber.org/zap"
)

// Pipeline runs gates strictly in order. A Fatal verdict aborts the rest;
// Fail verdicts are recorded and the remaining gates still run, so the
// final report reflects every gate that could complete.
type Pipeline struct {
	gates []Gate
	log   *zap.Logger
}

// NewPipeline creates a Pipeline over the given gates.
func NewPipeline(log *zap.Logger, gs ...Gate) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{gates: gs, log: log}
}

// Run executes the pipeline against the workspace and returns the results
// of every gate that ran, in execution order.
func (p *Pipeline) Run(ctx context.Context, ws *workspace.State) []Result {
	var results []Result
	for _, g := range p.gates {
		p.log.Info("running gate", zap.String("gate", g.Name))
		res := g.Run(ctx, ws)
		results = append(results, res)

		p.log.Info("gate finished",
			zap.String("gate", g.Name),
			zap.String("verdict", res.Verdict.String()),
			zap.String("message", res.Message))

		if res.Verdict == Fatal {
			p.log.Warn("fatal gate, aborting remaining gates", zap.String("gate", g.Name))
			break
		}
	}
	return results
}

// Overall folds gate results into one verdict: Fatal wins over Fail wins
// over Pass.
func Overall(results []Result) Verdict {
	overall := Pass
	for _, r := range results {
		if r.Verdict == Fatal {
			return Fatal
		}
		if r.Verdict == Fail {
			overall = Fail
		}
	}
	return overall
}
