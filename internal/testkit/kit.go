// Package testkit provides deterministic fixtures shared by the verification
// packages' tests: seeded RNG streams, a fixed clock, an in-memory ledger
// archive and generators for structured complex matrices.
package testkit

import (
	"context"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"sync"
	"time"

	"equivproof/domain/core"
	"equivproof/domain/tensor"
	"equivproof/domain/verdict"
	"equivproof/ports"
)

// RNGAdapter implements ports.RNGPort. Streams are derived from the stream
// name and seed so two named streams with one seed never coincide.
type RNGAdapter struct{}

func (RNGAdapter) SeededStream(name string, seed uint64) *rand.Rand {
	h := uint64(hashString(name))
	return rand.New(rand.NewPCG(seed, seed^(h<<32|h)))
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2
	}
	return hash
}

// FixedClock returns a timestamp that advances by Step on every call.
type FixedClock struct {
	mu   sync.Mutex
	next time.Time
	Step time.Duration
}

// NewFixedClock starts at start (converted to UTC) and ticks by one second.
func NewFixedClock(start time.Time) *FixedClock {
	return &FixedClock{next: start.UTC(), Step: time.Second}
}

func (c *FixedClock) Now() core.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.Step)
	return core.NewTimestamp(now)
}

// Epoch is the start time used by most ledger tests.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// ArchivedAttempt is one row held by InMemoryArchive.
type ArchivedAttempt struct {
	Session core.SessionID
	Target  core.TargetID
	Attempt verdict.Attempt
}

// InMemoryArchive implements ports.LedgerArchivePort with in-memory storage.
type InMemoryArchive struct {
	mu   sync.RWMutex
	rows []ArchivedAttempt
}

func NewInMemoryArchive() *InMemoryArchive {
	return &InMemoryArchive{}
}

func (a *InMemoryArchive) AppendAttempt(ctx context.Context, sessionID core.SessionID, target core.TargetID, attempt verdict.Attempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, ArchivedAttempt{Session: sessionID, Target: target, Attempt: attempt})
	return nil
}

func (a *InMemoryArchive) LoadSession(ctx context.Context, sessionID core.SessionID) (map[core.TargetID][]verdict.Attempt, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[core.TargetID][]verdict.Attempt)
	for _, r := range a.rows {
		if r.Session == sessionID {
			out[r.Target] = append(out[r.Target], r.Attempt)
		}
	}
	return out, nil
}

// Rows returns a copy of everything archived so far.
func (a *InMemoryArchive) Rows() []ArchivedAttempt {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]ArchivedAttempt(nil), a.rows...)
}

var (
	_ ports.RNGPort           = RNGAdapter{}
	_ ports.ClockPort         = (*FixedClock)(nil)
	_ ports.LedgerArchivePort = (*InMemoryArchive)(nil)
)

func complexNormal(rng *rand.Rand) complex128 {
	return complex(rng.NormFloat64(), rng.NormFloat64())
}

// RandomComplex returns a rows x cols matrix of standard complex normals.
func RandomComplex(rng *rand.Rand, rows, cols int) *tensor.Artifact {
	data := make([]complex128, rows*cols)
	for i := range data {
		data[i] = complexNormal(rng)
	}
	return &tensor.Artifact{Shape: []int{rows, cols}, Data: data, Device: tensor.DeviceLocal}
}

// RandomHermitian returns (B + B†)/2 for a random complex B.
func RandomHermitian(rng *rand.Rand, n int) *tensor.Artifact {
	b := RandomComplex(rng, n, n)
	h := &tensor.Artifact{Shape: []int{n, n}, Data: make([]complex128, n*n), Device: tensor.DeviceLocal}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			h.Set(i, j, (b.At(i, j)+cmplx.Conj(b.At(j, i)))/2)
		}
	}
	return h
}

// RandomUnitary orthonormalises the columns of a random complex matrix with
// modified Gram-Schmidt.
func RandomUnitary(rng *rand.Rand, n int) *tensor.Artifact {
	a := RandomComplex(rng, n, n)
	for j := 0; j < n; j++ {
		for k := 0; k < j; k++ {
			var dot complex128
			for i := 0; i < n; i++ {
				dot += cmplx.Conj(a.At(i, k)) * a.At(i, j)
			}
			for i := 0; i < n; i++ {
				a.Set(i, j, a.At(i, j)-dot*a.At(i, k))
			}
		}
		var norm float64
		for i := 0; i < n; i++ {
			v := a.At(i, j)
			norm += real(v)*real(v) + imag(v)*imag(v)
		}
		norm = math.Sqrt(norm)
		for i := 0; i < n; i++ {
			a.Set(i, j, a.At(i, j)/complex(norm, 0))
		}
	}
	return a
}

// RandomVector returns a length-n vector of standard complex normals.
func RandomVector(rng *rand.Rand, n int) *tensor.Artifact {
	data := make([]complex128, n)
	for i := range data {
		data[i] = complexNormal(rng)
	}
	return &tensor.Artifact{Shape: []int{n}, Data: data, Device: tensor.DeviceLocal}
}
