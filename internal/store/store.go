// Package store persists compiled measurement tables in SQLite, one run per
// pipeline invocation.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ironsheep/morph2d-output/internal/measure"
	"github.com/ironsheep/morph2d-output/internal/monitoring"
	"github.com/ironsheep/morph2d-output/internal/settings"
)

// schema.sql defines the runs and measurements tables.
//
//go:embed schema.sql
var schemaSQL string

// ErrUnknownRun is returned for a run ID that BeginRun never issued.
var ErrUnknownRun = errors.New("unknown run")

// Store wraps the measurement database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema. Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open measurement store: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	monitoring.Logf("opened measurement store %s", path)
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun records a new run with its settings and table schema and returns
// the run ID.
func (s *Store) BeginRun(ctx context.Context, cfg settings.Settings, columns []string) (string, error) {
	cols, err := json.Marshal(columns)
	if err != nil {
		return "", fmt.Errorf("failed to encode columns: %w", err)
	}

	runID := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, out_directory, sample_id, save_intermediates, columns) VALUES (?, ?, ?, ?, ?)`,
		runID, cfg.OutDirectory, cfg.SampleID, cfg.SaveIntermediates, string(cols))
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return runID, nil
}

// SaveTable replaces the stored rows of runID with the rows of t.
func (s *Store) SaveTable(ctx context.Context, runID string, t measure.Table) error {
	if _, err := s.columns(ctx, runID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM measurements WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear run %s: %w", runID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO measurements (
			run_id, row_index, sample_id, object_id, area, eccentricity, perimeter,
			major_axis_length, minor_axis_length, rugosity, height, width, aspect_ratio
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range t.Records() {
		_, err := stmt.ExecContext(ctx, runID, i, r.SampleID, r.ObjectID, r.Area, r.Eccentricity,
			r.Perimeter, r.MajorAxisLength, r.MinorAxisLength, r.Rugosity, r.Height, r.Width, r.AspectRatio)
		if err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", runID, err)
	}
	monitoring.Logf("stored %d measurements for run %s", t.Len(), runID)
	return nil
}

// LoadTable returns the table stored for runID, rows in append order.
func (s *Store) LoadTable(ctx context.Context, runID string) (measure.Table, error) {
	columns, err := s.columns(ctx, runID)
	if err != nil {
		return measure.Table{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sample_id, object_id, area, eccentricity, perimeter, major_axis_length,
			minor_axis_length, rugosity, height, width, aspect_ratio
		FROM measurements WHERE run_id = ? ORDER BY row_index`, runID)
	if err != nil {
		return measure.Table{}, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []measure.Record
	for rows.Next() {
		var r measure.Record
		if err := rows.Scan(&r.SampleID, &r.ObjectID, &r.Area, &r.Eccentricity, &r.Perimeter,
			&r.MajorAxisLength, &r.MinorAxisLength, &r.Rugosity, &r.Height, &r.Width, &r.AspectRatio); err != nil {
			return measure.Table{}, fmt.Errorf("failed to scan measurement: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return measure.Table{}, fmt.Errorf("failed to read run %s: %w", runID, err)
	}

	return measure.FromRecords(columns, records)
}

// columns returns the schema recorded for runID.
func (s *Store) columns(ctx context.Context, runID string) ([]string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT columns FROM runs WHERE run_id = ?`, runID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up run %s: %w", runID, err)
	}

	var columns []string
	if err := json.Unmarshal([]byte(raw), &columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns of run %s: %w", runID, err)
	}
	return columns, nil
}
