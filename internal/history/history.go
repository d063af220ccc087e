// Package history keeps a per-turn record of every run in a SQLite
// database: located positions, the jump made, the score, and the
// calibration outcome.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"jumpbot/internal/jump"
	"jumpbot/internal/logging"
	"jumpbot/internal/model"
	"jumpbot/pkg/geometry"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

var histLog zerolog.Logger = logging.Module("history")

//go:embed schema.sql
var schemaSQL string

// DB wraps the history database.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; sqlite serializes anyway and :memory: is per-connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	histLog.Debug().Str("path", path).Msg("History database ready")
	return &DB{db}, nil
}

// Run describes one play session.
type Run struct {
	ID         string
	StartedAt  time.Time
	EndedAt    time.Time
	Resolution geometry.Resolution
	Model      string
	Turns      int
	FinalScore sql.NullInt64
	StopReason string
}

// StartRun inserts a run row.
func (db *DB) StartRun(ctx context.Context, r Run) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, width, height, model)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.StartedAt.UnixMilli(), r.Resolution.Width, r.Resolution.Height, r.Model)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// EndRun closes a run. score < 0 means unknown.
func (db *DB) EndRun(ctx context.Context, id string, turns, score int, reason string) error {
	var s sql.NullInt64
	if score >= 0 {
		s = sql.NullInt64{Int64: int64(score), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		UPDATE runs SET ended_at = ?, turns = ?, final_score = ?, stop_reason = ?
		WHERE id = ?
	`, time.Now().UnixMilli(), turns, s, reason, id)
	if err != nil {
		return fmt.Errorf("failed to end run: %w", err)
	}
	return nil
}

func nullXY(p geometry.OptPoint) (sql.NullInt64, sql.NullInt64) {
	v, ok := p.Get()
	if !ok {
		return sql.NullInt64{}, sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v.X), Valid: true}, sql.NullInt64{Int64: int64(v.Y), Valid: true}
}

// RecordTurn stores a turn, including failed ones. score < 0 means unknown.
func (db *DB) RecordTurn(ctx context.Context, runID string, s *jump.TurnState, score int) error {
	px, py := nullXY(s.Piece)
	tx, ty := nullXY(s.Target)
	ax, ay := nullXY(s.Apex)
	ox, oy := nullXY(s.Origin)

	var distance sql.NullFloat64
	var duration sql.NullInt64
	if s.Computed {
		distance = sql.NullFloat64{Float64: s.Distance, Valid: true}
		duration = sql.NullInt64{Int64: int64(s.Duration), Valid: true}
	}
	var sc sql.NullInt64
	if score >= 0 {
		sc = sql.NullInt64{Int64: int64(score), Valid: true}
	}
	var actual sql.NullFloat64
	var lastDuration sql.NullInt64
	if s.Review.Outcome != jump.ReviewSkipped {
		actual = sql.NullFloat64{Float64: s.Review.Calibration.ActualDistance, Valid: true}
		lastDuration = sql.NullInt64{Int64: int64(s.Review.Calibration.Duration), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO turns (
			run_id, turn, created_at,
			piece_x, piece_y, target_x, target_y, apex_x, apex_y, origin_x, origin_y,
			on_center, jump_right, distance, duration_ms, score,
			review, actual_distance, last_duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID, s.Turn, time.Now().UnixMilli(),
		px, py, tx, ty, ax, ay, ox, oy,
		s.OnCenter, s.JumpRight, distance, duration, sc,
		s.Review.Outcome.String(), actual, lastDuration,
	)
	if err != nil {
		return fmt.Errorf("failed to record turn %d: %w", s.Turn, err)
	}
	return nil
}

// TurnRow is a stored turn.
type TurnRow struct {
	Turn     int
	Piece    geometry.OptPoint
	Target   geometry.OptPoint
	Origin   geometry.OptPoint
	OnCenter bool
	Distance sql.NullFloat64
	Duration sql.NullInt64
	Score    sql.NullInt64
	Review   string
}

func optXY(x, y sql.NullInt64) geometry.OptPoint {
	if !x.Valid || !y.Valid {
		return geometry.NotFound
	}
	return geometry.Found(int(x.Int64), int(y.Int64))
}

// Turns lists a run's turns in order.
func (db *DB) Turns(ctx context.Context, runID string) ([]TurnRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT turn, piece_x, piece_y, target_x, target_y, origin_x, origin_y,
			on_center, distance, duration_ms, score, review
		FROM turns WHERE run_id = ? ORDER BY turn
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var out []TurnRow
	for rows.Next() {
		var r TurnRow
		var px, py, tx, ty, ox, oy sql.NullInt64
		if err := rows.Scan(&r.Turn, &px, &py, &tx, &ty, &ox, &oy,
			&r.OnCenter, &r.Distance, &r.Duration, &r.Score, &r.Review); err != nil {
			return nil, err
		}
		r.Piece = optXY(px, py)
		r.Target = optXY(tx, ty)
		r.Origin = optXY(ox, oy)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun loads a run row.
func (db *DB) GetRun(ctx context.Context, id string) (Run, error) {
	var r Run
	var started int64
	var ended sql.NullInt64
	var reason sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, started_at, ended_at, width, height, model, turns, final_score, stop_reason
		FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &started, &ended, &r.Resolution.Width, &r.Resolution.Height,
		&r.Model, &r.Turns, &r.FinalScore, &reason)
	if err != nil {
		return Run{}, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	r.StartedAt = time.UnixMilli(started)
	if ended.Valid {
		r.EndedAt = time.UnixMilli(ended.Int64)
	}
	r.StopReason = reason.String
	return r, nil
}

// Samples returns every recorded calibration across all runs, oldest
// first, in training-sample form.
func (db *DB) Samples(ctx context.Context) ([]model.Sample, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT actual_distance, last_duration_ms, on_center
		FROM turns WHERE review = ? ORDER BY created_at, turn
	`, jump.ReviewRecorded.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []model.Sample
	for rows.Next() {
		var s model.Sample
		if err := rows.Scan(&s.Distance, &s.Duration, &s.HitCenter); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
