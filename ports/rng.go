package ports

import (
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for reproducible sessions
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation.
	// The same (name, seed) pair must always yield the same sequence.
	SeededStream(name string, seed uint64) *rand.Rand
}
