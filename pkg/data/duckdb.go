package data

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb/v2"
)

// ShortIDLength is how many leading characters of a run ID are displayed.
const ShortIDLength = 8

// ErrAmbiguousRunID is returned when an ID prefix matches several runs.
var ErrAmbiguousRunID = errors.New("run id prefix matches more than one run")

// ShortID returns the displayed prefix of a run ID.
func ShortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id VARCHAR PRIMARY KEY,
	title VARCHAR,
	mode VARCHAR,
	formats VARCHAR,
	output_dir VARCHAR,
	selected INTEGER,
	fetched INTEGER,
	skipped INTEGER,
	started_at TIMESTAMP,
	finished_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS artifacts (
	run_id VARCHAR,
	path VARCHAR,
	format VARCHAR
);
CREATE TABLE IF NOT EXISTS skips (
	run_id VARCHAR,
	position INTEGER,
	target VARCHAR,
	reason VARCHAR
);
`

// InitDuckDB opens the history database at path and creates its schema.
func InitDuckDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// RunRecord summarizes one completed export run.
type RunRecord struct {
	ID         string
	Title      string
	Mode       AggregationMode
	Formats    []Format
	OutputDir  string
	Selected   int
	Fetched    int
	Skipped    int
	StartedAt  time.Time
	FinishedAt time.Time
	Artifacts  []ArtifactRecord
	Skips      []SkipEntry
}

type ArtifactRecord struct {
	Path   string
	Format Format
}

// Repository stores run history.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// OpenRepository initializes the database at path and wraps it.
func OpenRepository(path string) (*Repository, error) {
	db, err := InitDuckDB(path)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveRun persists a run with its artifacts and skips. A missing ID is
// assigned before insertion.
func (r *Repository) SaveRun(run *RunRecord) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, title, mode, formats, output_dir, selected, fetched, skipped, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Title, string(run.Mode), joinFormats(run.Formats), run.OutputDir,
		run.Selected, run.Fetched, run.Skipped, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, a := range run.Artifacts {
		if _, err := tx.Exec(`INSERT INTO artifacts (run_id, path, format) VALUES (?, ?, ?)`,
			run.ID, a.Path, string(a.Format)); err != nil {
			return fmt.Errorf("failed to insert artifact: %w", err)
		}
	}

	for i, s := range run.Skips {
		if _, err := tx.Exec(`INSERT INTO skips (run_id, position, target, reason) VALUES (?, ?, ?, ?)`,
			run.ID, i, s.Target, s.Reason); err != nil {
			return fmt.Errorf("failed to insert skip: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs first, without artifacts or skips.
func (r *Repository) ListRuns(limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, title, mode, formats, output_dir, selected, fetched, skipped, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a run with its artifacts and skips, or nil when unknown.
// id may be the full run ID or a prefix of it, such as ShortID, as long as
// the prefix matches a single run.
func (r *Repository) GetRun(id string) (*RunRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	rows, err := r.db.Query(`
		SELECT id, title, mode, formats, output_dir, selected, fetched, skipped, started_at, finished_at
		FROM runs WHERE starts_with(id, ?)
		LIMIT 2`, id)
	if err != nil {
		return nil, err
	}
	var matches []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		matches = append(matches, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousRunID, id)
	}
	run := matches[0]
	id = run.ID

	artifacts, err := r.db.Query(`SELECT path, format FROM artifacts WHERE run_id = ? ORDER BY path`, id)
	if err != nil {
		return nil, err
	}
	defer artifacts.Close()
	for artifacts.Next() {
		var a ArtifactRecord
		var format string
		if err := artifacts.Scan(&a.Path, &format); err != nil {
			return nil, err
		}
		a.Format = Format(format)
		run.Artifacts = append(run.Artifacts, a)
	}
	if err := artifacts.Err(); err != nil {
		return nil, err
	}

	skips, err := r.RunSkips(id)
	if err != nil {
		return nil, err
	}
	run.Skips = skips
	return run, nil
}

// RunSkips returns the skip entries of a run in the order they were logged.
func (r *Repository) RunSkips(id string) ([]SkipEntry, error) {
	rows, err := r.db.Query(`SELECT target, reason FROM skips WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SkipEntry
	for rows.Next() {
		var e SkipEntry
		var reason sql.NullString
		if err := rows.Scan(&e.Target, &reason); err != nil {
			return nil, err
		}
		e.Reason = reason.String
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunRecord, error) {
	var run RunRecord
	var mode, formats string
	if err := s.Scan(&run.ID, &run.Title, &mode, &formats, &run.OutputDir,
		&run.Selected, &run.Fetched, &run.Skipped, &run.StartedAt, &run.FinishedAt); err != nil {
		return nil, err
	}
	run.Mode = AggregationMode(mode)
	run.Formats = splitFormats(formats)
	return &run, nil
}

func joinFormats(formats []Format) string {
	parts := make([]string, len(formats))
	for i, f := range formats {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

func splitFormats(s string) []Format {
	if s == "" {
		return nil
	}
	var out []Format
	for _, part := range strings.Split(s, ",") {
		out = append(out, Format(part))
	}
	return out
}
