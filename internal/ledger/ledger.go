// Package ledger records why each target is trusted: an append-only history
// of verification attempts per target and the trust level they earned.
//
// The current level of a target is the level of its most recent passing
// attempt. A later pass at a lower level therefore lowers the current level;
// HighestLevel reports the historical maximum for callers that want that
// instead. A Ledger is not safe for concurrent use.
package ledger

import (
	"context"
	"fmt"
	"slices"

	"equivproof/domain/core"
	"equivproof/domain/verdict"
	"equivproof/internal"
	"equivproof/internal/errors"
	"equivproof/ports"
)

// Ledger is the in-memory verification ledger of one session.
type Ledger struct {
	id     core.SessionID
	clock  ports.ClockPort
	logger *internal.Logger

	history  map[core.TargetID][]verdict.Attempt
	current  map[core.TargetID]verdict.Level
	archived map[core.TargetID]int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock injects the timestamp source.
func WithClock(clock ports.ClockPort) Option {
	return func(l *Ledger) { l.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *internal.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithSessionID fixes the session identifier.
func WithSessionID(id core.SessionID) Option {
	return func(l *Ledger) { l.id = id }
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		id:       core.NewSessionID(),
		clock:    ports.SystemClock{},
		logger:   internal.DefaultLogger,
		history:  make(map[core.TargetID][]verdict.Attempt),
		current:  make(map[core.TargetID]verdict.Level),
		archived: make(map[core.TargetID]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("Ledger")
	return l
}

// SessionID returns the ledger's session identifier.
func (l *Ledger) SessionID() core.SessionID { return l.id }

// Record appends an attempt to target's history, creating the target if
// needed. A passing attempt sets the current level to its level, even when
// that is lower than the previous current level.
func (l *Ledger) Record(target core.TargetID, level verdict.Level, challenger string, passed bool, details string) (verdict.Attempt, error) {
	if target == "" {
		return verdict.Attempt{}, errors.WithCode(errors.CodeInvalidInput, core.ErrEmptyTarget)
	}
	if !level.Valid() {
		return verdict.Attempt{}, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("%w: %d", core.ErrUnknownLevel, int(level)))
	}

	attempt := verdict.Attempt{
		Level:      level,
		Challenger: challenger,
		Passed:     passed,
		Details:    details,
		Timestamp:  l.clock.Now(),
	}
	l.history[target] = append(l.history[target], attempt)

	if passed {
		if prev, ok := l.current[target]; ok && prev > level {
			l.logger.Warn("%s: pass at %s by %s lowers current level from %s", target, level.Tag(), challenger, prev.Tag())
		}
		l.current[target] = level
	}
	l.logger.Debug("%s: %s by %s passed=%t", target, level.Tag(), challenger, passed)
	return attempt, nil
}

// GetLevel returns the level of the most recent passing attempt, or L0.
func (l *Ledger) GetLevel(target core.TargetID) verdict.Level {
	if level, ok := l.current[target]; ok {
		return level
	}
	return verdict.L0
}

// HighestLevel returns the highest level ever passed, or L0.
func (l *Ledger) HighestLevel(target core.TargetID) verdict.Level {
	highest := verdict.L0
	for _, a := range l.history[target] {
		if a.Passed && a.Level > highest {
			highest = a.Level
		}
	}
	return highest
}

// CanPromote reports whether an attempt at level to would be a legal next
// step: re-verifying at or below the current level, or climbing one rung.
func (l *Ledger) CanPromote(target core.TargetID, to verdict.Level) bool {
	return to.Valid() && to <= l.GetLevel(target)+1
}

// History returns a copy of target's attempts in recording order.
func (l *Ledger) History(target core.TargetID) []verdict.Attempt {
	return slices.Clone(l.history[target])
}

// Targets returns every target with at least one attempt, sorted.
func (l *Ledger) Targets() []core.TargetID {
	targets := make([]core.TargetID, 0, len(l.history))
	for t := range l.history {
		targets = append(targets, t)
	}
	slices.Sort(targets)
	return targets
}

// Snapshot returns a deep copy of every target's record.
func (l *Ledger) Snapshot() map[core.TargetID]verdict.Record {
	out := make(map[core.TargetID]verdict.Record, len(l.history))
	for t, h := range l.history {
		out[t] = verdict.Record{History: slices.Clone(h), CurrentLevel: l.GetLevel(t)}
	}
	return out
}

// Archive writes every attempt not yet archived to archive. Calling it again
// only sends attempts recorded since the previous successful call.
func (l *Ledger) Archive(ctx context.Context, archive ports.LedgerArchivePort) error {
	for _, target := range l.Targets() {
		pending := l.history[target][l.archived[target]:]
		for _, attempt := range pending {
			if err := archive.AppendAttempt(ctx, l.id, target, attempt); err != nil {
				return errors.Wrapf(err, "failed to archive %s", target)
			}
			l.archived[target]++
		}
	}
	return nil
}

var _ ports.LedgerPort = (*Ledger)(nil)
