package migration

import (
	"context"
	"fmt"

	"equivproof/internal"
	"equivproof/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	logger  *internal.Logger
}

// NewRunner creates a new migration runner
func NewRunner(logger *internal.Logger) *MigrationRunner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MigrationRunner{
		version: "1.0.0",
		logger:  logger.With("Migration"),
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Statements returns the schema statements in execution order.
func Statements() []string {
	return []string{
		// 001: verification sessions
		`CREATE TABLE IF NOT EXISTS verification_sessions (
			id UUID PRIMARY KEY,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		// 002: append-only attempt history
		`CREATE TABLE IF NOT EXISTS verification_attempts (
			id BIGSERIAL PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES verification_sessions(id) ON DELETE CASCADE,
			target TEXT NOT NULL,
			level SMALLINT NOT NULL CHECK (level BETWEEN 0 AND 4),
			challenger TEXT NOT NULL,
			passed BOOLEAN NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			recorded_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`,
	}
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_attempts_session ON verification_attempts(session_id)",
	"CREATE INDEX IF NOT EXISTS idx_attempts_target ON verification_attempts(target, id)",
	"CREATE INDEX IF NOT EXISTS idx_attempts_recorded_at ON verification_attempts(recorded_at DESC)",
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range Statements() {
		num := i + 1
		r.logger.Debug("running migration %03d", num)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.DatabaseError(fmt.Sprintf("failed to run migration %03d", num), err)
		}
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			r.logger.Warn("failed to create index: %v", err)
		}
	}

	r.logger.Info("schema %s ready", r.version)
	return nil
}

var _ Migrator = (*MigrationRunner)(nil)
