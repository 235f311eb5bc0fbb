package ports

import "equivproof/domain/core"

// ClockPort supplies timestamps to the verification ledger.
type ClockPort interface {
	Now() core.Timestamp
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() core.Timestamp { return core.Now() }
