package trace

import (
	"fmt"
	"slices"
	"time"
)

// GhostTotals are one ghost's summed reports over a run.
type GhostTotals struct {
	Ghost    int
	Reports  int64
	Consumed int64
	Produced int64
	Internal int64
}

// Audit sums every ghost's reports for run.
func (s *Store) Audit(run string) ([]GhostTotals, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT ghost, COUNT(*), SUM(consumed), SUM(produced), SUM(internal_delta)
		FROM ghost_progress
		WHERE run_id = ?
		GROUP BY ghost
		ORDER BY ghost`, run)
	if err != nil {
		return nil, fmt.Errorf("trace: audit: %w", err)
	}
	defer rows.Close()

	var out []GhostTotals
	for rows.Next() {
		var g GhostTotals
		if err := rows.Scan(&g.Ghost, &g.Reports, &g.Consumed, &g.Produced, &g.Internal); err != nil {
			return nil, fmt.Errorf("trace: audit scan: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Rounds is the number of rounds recorded for run.
func (s *Store) Rounds(run string) (int64, error) {
	if err := s.Flush(); err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM rounds WHERE run_id = ?`, run).Scan(&n); err != nil {
		return 0, fmt.Errorf("trace: rounds: %w", err)
	}
	return n, nil
}

// Latencies returns the sorted exchange latencies of run's data rounds.
func (s *Store) Latencies(run string) ([]time.Duration, error) {
	return s.durations(`SELECT latency_ns FROM rounds WHERE run_id = ? AND has_data = 1`, run)
}

// EpochLatencies returns the sorted epoch latencies of run.
func (s *Store) EpochLatencies(run string) ([]time.Duration, error) {
	return s.durations(`SELECT latency_ns FROM epochs WHERE run_id = ?`, run)
}

func (s *Store) durations(query, run string) ([]time.Duration, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(query, run)
	if err != nil {
		return nil, fmt.Errorf("trace: latencies: %w", err)
	}
	defer rows.Close()
	var out []time.Duration
	for rows.Next() {
		var ns int64
		if err := rows.Scan(&ns); err != nil {
			return nil, fmt.Errorf("trace: latencies scan: %w", err)
		}
		out = append(out, time.Duration(ns))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Sort(out)
	return out, nil
}

// Percentile returns the p-th percentile (0..100) of sorted durations.
func Percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := (len(sorted) - 1) * p / 100
	return sorted[i]
}
