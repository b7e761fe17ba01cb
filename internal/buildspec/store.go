package buildspec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	vmcperrors "vmcp/internal/errors"
)

// runTimeLayout is fixed-width so that created_at sorts as text.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z"

// Store persists build specs and emission runs in a SQLite database.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// SpecSummary is one row of ListSpecs.
type SpecSummary struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Enabled    int       `json:"enabled" yaml:"enabled"`
	Total      int       `json:"total" yaml:"total"`
	ImportedAt time.Time `json:"importedAt" yaml:"importedAt"`
}

// Run records one table emission.
type Run struct {
	ID        string    `json:"id" yaml:"id"`
	SpecID    string    `json:"specId,omitempty" yaml:"specId,omitempty"`
	Version   int       `json:"version" yaml:"version"`
	Flags     string    `json:"flags" yaml:"flags"`
	Slots     int       `json:"slots" yaml:"slots"`
	Bytes     int       `json:"bytes" yaml:"bytes"`
	Digest    string    `json:"digest" yaml:"digest"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// Open opens or creates the store at dbPath.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open build spec store: %w", err)
	}
	// One writer; the CLI is single-threaded.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{conn: conn, logger: logger, dbPath: dbPath}
	if err := s.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize build spec schema: %w", err)
	}
	logger.Debug("Opened build spec store", "path", dbPath)
	return s, nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS specs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			imported_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS spec_flags (
			spec_id TEXT NOT NULL REFERENCES specs(id) ON DELETE CASCADE,
			flag TEXT NOT NULL,
			enabled INTEGER NOT NULL,
			PRIMARY KEY (spec_id, flag)
		);

		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			spec_id TEXT,
			version INTEGER NOT NULL,
			flags TEXT NOT NULL,
			slots INTEGER NOT NULL,
			bytes INTEGER NOT NULL,
			digest TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_runs_spec ON runs(spec_id);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction", "error", err, "rollbackError", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ImportSpec stores spec, replacing any spec with the same id.
func (s *Store) ImportSpec(ctx context.Context, spec *Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO specs (id, name, description, imported_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				description = excluded.description, imported_at = excluded.imported_at
		`, spec.ID, spec.Name, spec.Description, now); err != nil {
			return fmt.Errorf("failed to store spec %s: %w", spec.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM spec_flags WHERE spec_id = ?`, spec.ID); err != nil {
			return fmt.Errorf("failed to clear flags of %s: %w", spec.ID, err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO spec_flags (spec_id, flag, enabled) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for flag, on := range spec.Flags {
			if _, err := stmt.ExecContext(ctx, spec.ID, flag, on); err != nil {
				return fmt.Errorf("failed to store flag %s of %s: %w", flag, spec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Imported build spec", "id", spec.ID, "flags", len(spec.Flags))
	return nil
}

// ListSpecs returns every stored spec ordered by id.
func (s *Store) ListSpecs(ctx context.Context) ([]SpecSummary, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT s.id, s.name, s.imported_at,
			COALESCE(SUM(f.enabled), 0), COUNT(f.flag)
		FROM specs s LEFT JOIN spec_flags f ON f.spec_id = s.id
		GROUP BY s.id ORDER BY s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list specs: %w", err)
	}
	defer rows.Close()

	var out []SpecSummary
	for rows.Next() {
		var sum SpecSummary
		var imported string
		if err := rows.Scan(&sum.ID, &sum.Name, &imported, &sum.Enabled, &sum.Total); err != nil {
			return nil, err
		}
		sum.ImportedAt, _ = time.Parse(time.RFC3339, imported)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetSpec loads a stored spec.
func (s *Store) GetSpec(ctx context.Context, id string) (*Spec, error) {
	spec := &Spec{ID: id}
	err := s.conn.QueryRowContext(ctx, `SELECT name, description FROM specs WHERE id = ?`, id).
		Scan(&spec.Name, &spec.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vmcperrors.Newf(vmcperrors.SpecNotFound, "build spec %q is not in the store", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read spec %s: %w", id, err)
	}

	flags, err := s.flags(ctx, id)
	if err != nil {
		return nil, err
	}
	spec.Flags = flags
	return spec, nil
}

// Flags returns every flag of spec id with its value.
func (s *Store) Flags(ctx context.Context, id string) (map[string]bool, error) {
	spec, err := s.GetSpec(ctx, id)
	if err != nil {
		return nil, err
	}
	return spec.Flags, nil
}

func (s *Store) flags(ctx context.Context, id string) (map[string]bool, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT flag, enabled FROM spec_flags WHERE spec_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read flags of %s: %w", id, err)
	}
	defer rows.Close()

	flags := make(map[string]bool)
	for rows.Next() {
		var flag string
		var on bool
		if err := rows.Scan(&flag, &on); err != nil {
			return nil, err
		}
		flags[flag] = on
	}
	return flags, rows.Err()
}

// RecordRun stores run under a new id and returns it.
func (s *Store) RecordRun(ctx context.Context, run Run) (*Run, error) {
	run.ID = uuid.New().String()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO runs (id, spec_id, version, flags, slots, bytes, digest, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, nullString(run.SpecID), run.Version, run.Flags, run.Slots, run.Bytes, run.Digest,
		run.CreatedAt.UTC().Format(runTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	s.logger.Debug("Recorded run", "runId", run.ID, "digest", run.Digest)
	return &run, nil
}

// ListRuns returns the most recent runs first. An empty specID lists runs of
// every spec; limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, specID string, limit int) ([]Run, error) {
	query := `SELECT id, spec_id, version, flags, slots, bytes, digest, created_at FROM runs`
	var args []interface{}
	if specID != "" {
		query += ` WHERE spec_id = ?`
		args = append(args, specID)
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var spec sql.NullString
		var created string
		if err := rows.Scan(&run.ID, &spec, &run.Version, &run.Flags, &run.Slots,
			&run.Bytes, &run.Digest, &created); err != nil {
			return nil, err
		}
		run.SpecID = spec.String
		run.CreatedAt, _ = time.Parse(runTimeLayout, created)
		out = append(out, run)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
