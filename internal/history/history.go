package history

import (
	"fmt"

	"github.com/patchgate/patchgate/internal/db"
)

// GateSummary is the pass-rate view of one gate across recorded runs.
type GateSummary struct {
	Gate     string  `json:"gate"`
	Runs     int     `json:"runs"`
	Passes   int     `json:"passes"`
	Fails    int     `json:"fails"`
	Fatals   int     `json:"fatals"`
	PassRate float64 `json:"pass_rate_pct"`
}

// RunSummary is one run plus its per-gate verdicts.
type RunSummary struct {
	Run   db.Run
	Gates []db.GateRow
}

// GateSummaries computes per-gate pass rates from the run history.
func GateSummaries(database *db.DB) ([]GateSummary, error) {
	stats, err := database.GateStats()
	if err != nil {
		return nil, fmt.Errorf("gate stats: %w", err)
	}

	var summaries []GateSummary
	for _, s := range stats {
		gs := GateSummary{
			Gate:   s.Gate,
			Runs:   s.Runs,
			Passes: s.Passes,
			Fails:  s.Fails,
			Fatals: s.Fatals,
		}
		if s.Runs > 0 {
			gs.PassRate = 100 * float64(s.Passes) / float64(s.Runs)
		}
		summaries = append(summaries, gs)
	}
	return summaries, nil
}

// RecentRuns returns the newest runs with their gate verdicts attached.
func RecentRuns(database *db.DB, limit int) ([]RunSummary, error) {
	runs, err := database.ListRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	var summaries []RunSummary
	for _, r := range runs {
		rows, err := database.GetGateResults(r.ID)
		if err != nil {
			return nil, fmt.Errorf("gate results for %s: %w", r.ID, err)
		}
		summaries = append(summaries, RunSummary{Run: r, Gates: rows})
	}
	return summaries, nil
}
