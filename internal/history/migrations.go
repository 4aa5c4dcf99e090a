package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/KaramelBytes/datalens-cli/internal/logging"
)

// SchemaVersion is the version Migrate brings a database to.
const SchemaVersion = 2

type migration struct {
	Version     int
	Description string
	Statements  []string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "runs table",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS runs (
				id TEXT PRIMARY KEY,
				file TEXT NOT NULL,
				row_count INTEGER NOT NULL DEFAULT 0,
				column_count INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				markdown TEXT NOT NULL DEFAULT ''
			)`,
		},
	},
	{
		Version:     2,
		Description: "model and insight columns",
		Statements: []string{
			`ALTER TABLE runs ADD COLUMN model TEXT NOT NULL DEFAULT ''`,
			`ALTER TABLE runs ADD COLUMN insight TEXT NOT NULL DEFAULT ''`,
			`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		},
	},
}

// Migrate applies pending migrations, one transaction each, tracking the
// version in PRAGMA user_version.
func (s *Store) Migrate(ctx context.Context) error {
	current, err := s.version(ctx)
	if err != nil {
		return err
	}
	if current > SchemaVersion {
		return fmt.Errorf("history database schema version %d is newer than supported %d", current, SchemaVersion)
	}
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return err
		}
		logging.Debug("applied history migration", logging.Fields{"version": m.Version, "description": m.Description})
	}
	final, err := s.version(ctx)
	if err != nil {
		return err
	}
	if final != SchemaVersion {
		return fmt.Errorf("history schema version mismatch: expected %d, got %d", SchemaVersion, final)
	}
	return nil
}

func (s *Store) version(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	if err := execAll(tx, m.Statements); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %d failed: %w", m.Version, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("set schema version %d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}
	return nil
}

func execAll(tx *sql.Tx, stmts []string) error {
	for _, q := range stmts {
		if _, err := tx.Exec(q); err != nil {
			return err
		}
	}
	return nil
}
