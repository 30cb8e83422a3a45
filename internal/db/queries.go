package db

import (
	"database/sql"
	"fmt"
)

// Run is one recorded validation run.
type Run struct {
	ID         string
	Source     string
	SourceKind string
	Mode       string
	Verdict    string
	ExitCode   int
	DurationMs int
	RunDir     string
	Timestamp  string
}

// GateRow is one recorded gate result within a run.
type GateRow struct {
	ID          int
	RunID       string
	Position    int
	Gate        string
	Verdict     string
	Message     string
	BeforeCount int
	AfterCount  int
	HasCounts   bool
	Timestamp   string
}

// RecordRun inserts a completed run.
func (d *DB) RecordRun(r Run) error {
	_, err := d.conn.Exec(`
		INSERT INTO runs (id, source, source_kind, mode, verdict, exit_code, duration_ms, run_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, r.SourceKind, r.Mode, r.Verdict, r.ExitCode, r.DurationMs, r.RunDir)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordGateResult inserts one gate result for a run.
func (d *DB) RecordGateResult(runID string, position int, gate, verdict, message string, before, after int, hasCounts bool) error {
	_, err := d.conn.Exec(`
		INSERT INTO gate_results (run_id, position, gate, verdict, message, before_count, after_count, has_counts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, position, gate, verdict, message, before, after, hasCounts)
	if err != nil {
		return fmt.Errorf("insert gate result: %w", err)
	}
	return nil
}

// GetRun fetches one run by id, or nil if not found.
func (d *DB) GetRun(id string) (*Run, error) {
	row := d.conn.QueryRow(`
		SELECT id, source, source_kind, mode, verdict, exit_code,
		       COALESCE(duration_ms, 0), COALESCE(run_dir, ''), timestamp
		FROM runs WHERE id = ?`, id)

	var r Run
	err := row.Scan(&r.ID, &r.Source, &r.SourceKind, &r.Mode, &r.Verdict,
		&r.ExitCode, &r.DurationMs, &r.RunDir, &r.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &r, nil
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
		SELECT id, source, source_kind, mode, verdict, exit_code,
		       COALESCE(duration_ms, 0), COALESCE(run_dir, ''), timestamp
		FROM runs ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.SourceKind, &r.Mode, &r.Verdict,
			&r.ExitCode, &r.DurationMs, &r.RunDir, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetGateResults returns the gate results for a run in execution order.
func (d *DB) GetGateResults(runID string) ([]GateRow, error) {
	rows, err := d.conn.Query(`
		SELECT id, run_id, position, gate, verdict, COALESCE(message, ''),
		       COALESCE(before_count, 0), COALESCE(after_count, 0), has_counts, timestamp
		FROM gate_results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query gate results: %w", err)
	}
	defer rows.Close()

	var results []GateRow
	for rows.Next() {
		var g GateRow
		if err := rows.Scan(&g.ID, &g.RunID, &g.Position, &g.Gate, &g.Verdict,
			&g.Message, &g.BeforeCount, &g.AfterCount, &g.HasCounts, &g.Timestamp); err != nil {
			return nil, fmt.Errorf("scan gate result: %w", err)
		}
		results = append(results, g)
	}
	return results, rows.Err()
}

// GateStat is the aggregate outcome distribution for one gate.
type GateStat struct {
	Gate   string
	Runs   int
	Passes int
	Fails  int
	Fatals int
}

// GateStats aggregates verdicts per gate across all recorded runs.
func (d *DB) GateStats() ([]GateStat, error) {
	rows, err := d.conn.Query(`
		SELECT gate,
		       COUNT(*),
		       SUM(CASE WHEN verdict = 'pass' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN verdict = 'fail' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN verdict = 'fatal' THEN 1 ELSE 0 END)
		FROM gate_results GROUP BY gate ORDER BY gate`)
	if err != nil {
		return nil, fmt.Errorf("query gate stats: %w", err)
	}
	defer rows.Close()

	var stats []GateStat
	for rows.Next() {
		var s GateStat
		if err := rows.Scan(&s.Gate, &s.Runs, &s.Passes, &s.Fails, &s.Fatals); err != nil {
			return nil, fmt.Errorf("scan gate stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
