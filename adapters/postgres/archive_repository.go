package postgres

import (
	"context"
	"time"

	"equivproof/domain/core"
	"equivproof/domain/verdict"
	"equivproof/internal/errors"
	"equivproof/ports"

	"github.com/jmoiron/sqlx"
)

// attemptRow is one row of verification_attempts.
type attemptRow struct {
	Target     string    `db:"target"`
	Level      int       `db:"level"`
	Challenger string    `db:"challenger"`
	Passed     bool      `db:"passed"`
	Details    string    `db:"details"`
	RecordedAt time.Time `db:"recorded_at"`
}

// ArchiveRepositoryImpl implements LedgerArchivePort for PostgreSQL
type ArchiveRepositoryImpl struct {
	db *sqlx.DB
}

// NewArchiveRepository creates a new PostgreSQL ledger archive
func NewArchiveRepository(db *sqlx.DB) ports.LedgerArchivePort {
	return &ArchiveRepositoryImpl{db: db}
}

// AppendAttempt inserts one attempt, creating the session row on first use
func (r *ArchiveRepositoryImpl) AppendAttempt(ctx context.Context, sessionID core.SessionID, target core.TargetID, attempt verdict.Attempt) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin archive transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO verification_sessions (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`, sessionID.String()); err != nil {
		return errors.DatabaseError("failed to register session", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO verification_attempts (session_id, target, level, challenger, passed, details, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sessionID.String(), target.String(), int(attempt.Level), attempt.Challenger, attempt.Passed, attempt.Details, attempt.Timestamp.Time().UTC()); err != nil {
		return errors.DatabaseError("failed to insert attempt", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit attempt", err)
	}
	return nil
}

// LoadSession returns a session's attempts per target in insertion order
func (r *ArchiveRepositoryImpl) LoadSession(ctx context.Context, sessionID core.SessionID) (map[core.TargetID][]verdict.Attempt, error) {
	var rows []attemptRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT target, level, challenger, passed, details, recorded_at
		FROM verification_attempts
		WHERE session_id = $1
		ORDER BY id
	`, sessionID.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to load session", err)
	}

	out := make(map[core.TargetID][]verdict.Attempt)
	for _, row := range rows {
		target := core.TargetID(row.Target)
		out[target] = append(out[target], verdict.Attempt{
			Level:      verdict.Level(row.Level),
			Challenger: row.Challenger,
			Passed:     row.Passed,
			Details:    row.Details,
			Timestamp:  core.NewTimestamp(row.RecordedAt.UTC()),
		})
	}
	return out, nil
}
