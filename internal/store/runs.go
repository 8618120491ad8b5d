package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pmpayout/internal/payout"
	"pmpayout/internal/report"
	"pmpayout/internal/video"
)

// RunSummary is one row of run history.
type RunSummary struct {
	ID             string
	Start          time.Time
	End            time.Time
	StartedAt      time.Time
	FinishedAt     time.Time
	TotalPayout    int64
	UnitCount      int
	ExceptionCount int
}

// Write implements report.Sink. Writing a run whose id already exists
// replaces the earlier copy.
func (s *Store) Write(ctx context.Context, run *report.Run) error {
	if run == nil {
		return errors.New("write run: nil run")
	}
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", run.RunID); err != nil {
		return fmt.Errorf("replace run: %w", err)
	}
	start, end := run.Range()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, start_date, end_date, started_at, finished_at,
            total_payout, unit_count, exception_count, stats_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		start,
		end,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Stats.TotalPayout,
		len(run.Units),
		len(run.Exceptions),
		string(stats),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, agg := range run.Aggregates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO creator_aggregates (
                run_id, creator, total_payout, qualified_units, paired_units, unpaired_units, exceptions
            ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, agg.Creator, agg.TotalPayout, agg.QualifiedUnits, agg.PairedUnits, agg.UnpairedUnits, agg.Exceptions,
		); err != nil {
			return fmt.Errorf("insert aggregate %s: %w", agg.Creator, err)
		}
	}

	for i, unit := range run.Units {
		payload, err := json.Marshal(unit)
		if err != nil {
			return fmt.Errorf("marshal unit: %w", err)
		}
		var secondary any
		if unit.Secondary != nil {
			secondary = unit.Secondary.Link
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payout_units (
                run_id, position, creator, kind, primary_link, secondary_link, payout, status, unit_json
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, i, unit.Creator, unit.Kind, unit.Primary.Link, secondary, unit.Payout, unit.Status, string(payload),
		); err != nil {
			return fmt.Errorf("insert unit: %w", err)
		}
	}

	for i, exc := range run.Exceptions {
		payload, err := json.Marshal(exc)
		if err != nil {
			return fmt.Errorf("marshal exception: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO exception_records (
                run_id, position, creator, platform, link, reason, record_json
            ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, i, nullableString(exc.Creator), exc.Platform, nullableString(exc.Link), exc.Reason, string(payload),
		); err != nil {
			return fmt.Errorf("insert exception: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT id, start_date, end_date, started_at, finished_at, total_payout, unit_count, exception_count
        FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *summary)
	}
	return out, rows.Err()
}

// GetRun loads a full run. It returns nil, nil when id is unknown.
func (s *Store) GetRun(ctx context.Context, id string) (*report.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, start_date, end_date, started_at, finished_at, total_payout, unit_count, exception_count
        FROM runs WHERE id = ?`, id)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var statsJSON string
	if err := s.db.QueryRowContext(ctx, "SELECT stats_json FROM runs WHERE id = ?", id).Scan(&statsJSON); err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}
	run := &report.Run{
		RunID:      summary.ID,
		Start:      summary.Start,
		End:        summary.End,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Aggregates: []payout.CreatorAggregate{},
		Units:      []payout.Unit{},
		Exceptions: []video.Exception{},
	}
	if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}

	if err := s.loadAggregates(ctx, run); err != nil {
		return nil, err
	}
	if err := loadJSONRows(ctx, s.db, "SELECT unit_json FROM payout_units WHERE run_id = ? ORDER BY position", id, &run.Units); err != nil {
		return nil, fmt.Errorf("load units: %w", err)
	}
	if err := loadJSONRows(ctx, s.db, "SELECT record_json FROM exception_records WHERE run_id = ? ORDER BY position", id, &run.Exceptions); err != nil {
		return nil, fmt.Errorf("load exceptions: %w", err)
	}
	return run, nil
}

func (s *Store) loadAggregates(ctx context.Context, run *report.Run) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT creator, total_payout, qualified_units, paired_units, unpaired_units, exceptions
        FROM creator_aggregates WHERE run_id = ? ORDER BY creator`, run.RunID)
	if err != nil {
		return fmt.Errorf("load aggregates: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var agg payout.CreatorAggregate
		if err := rows.Scan(&agg.Creator, &agg.TotalPayout, &agg.QualifiedUnits, &agg.PairedUnits, &agg.UnpairedUnits, &agg.Exceptions); err != nil {
			return fmt.Errorf("scan aggregate: %w", err)
		}
		run.Aggregates = append(run.Aggregates, agg)
	}
	return rows.Err()
}

func loadJSONRows[T any](ctx context.Context, db *sql.DB, query, id string, dst *[]T) error {
	rows, err := db.QueryContext(ctx, query, id)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		var value T
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return err
		}
		*dst = append(*dst, value)
	}
	return rows.Err()
}

func scanSummary(scanner interface{ Scan(dest ...any) error }) (*RunSummary, error) {
	var (
		summary                 RunSummary
		startRaw, endRaw        string
		startedRaw, finishedRaw string
	)
	if err := scanner.Scan(
		&summary.ID,
		&startRaw,
		&endRaw,
		&startedRaw,
		&finishedRaw,
		&summary.TotalPayout,
		&summary.UnitCount,
		&summary.ExceptionCount,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	summary.Start = parseDate(startRaw)
	summary.End = parseDate(endRaw)
	summary.StartedAt = parseTime(startedRaw)
	summary.FinishedAt = parseTime(finishedRaw)
	return &summary, nil
}

func parseDate(value string) time.Time {
	t, err := time.Parse(report.DateLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
