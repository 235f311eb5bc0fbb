package ports

import (
	"context"

	"equivproof/domain/core"
	"equivproof/domain/verdict"
)

// LedgerWriterPort appends verification attempts. History is never rewritten.
type LedgerWriterPort interface {
	Record(target core.TargetID, level verdict.Level, challenger string, passed bool, details string) (verdict.Attempt, error)
}

// LedgerReaderPort provides read-only access to verification records
// Use this for reports, export and the audit viewer
type LedgerReaderPort interface {
	GetLevel(target core.TargetID) verdict.Level
	HighestLevel(target core.TargetID) verdict.Level
	History(target core.TargetID) []verdict.Attempt
	Targets() []core.TargetID
	Snapshot() map[core.TargetID]verdict.Record
}

// LedgerPort combines read and write access
type LedgerPort interface {
	LedgerWriterPort
	LedgerReaderPort
}

// LedgerArchivePort persists attempts outside the process (optional).
type LedgerArchivePort interface {
	AppendAttempt(ctx context.Context, sessionID core.SessionID, target core.TargetID, attempt verdict.Attempt) error
	LoadSession(ctx context.Context, sessionID core.SessionID) (map[core.TargetID][]verdict.Attempt, error)
}
