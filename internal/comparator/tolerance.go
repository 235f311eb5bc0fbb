// Package comparator decides whether two numerical artifacts are the same
// within tolerance, optionally modulo a gauge freedom, and checks structural
// properties (Hermitian, unitary, canonical diagonal) of single matrices.
//
// Every function is pure. A failed check returns a *Failure carrying the
// numbers a human needs to triage it; errors.Is matches the failure kind
// against the sentinels in domain/core.
package comparator

import "fmt"

// Tolerance is the element-wise bound |a-b| <= ATol + RTol*|b|.
type Tolerance struct {
	RTol float64 `json:"rtol"`
	ATol float64 `json:"atol"`
}

// DefaultTolerance is used for general closeness.
func DefaultTolerance() Tolerance {
	return Tolerance{RTol: 1e-10, ATol: 1e-12}
}

// GradientTolerance is looser and used for derivative comparisons.
func GradientTolerance() Tolerance {
	return Tolerance{RTol: 1e-8, ATol: 1e-10}
}

// DefaultPropertyATol bounds the Frobenius residual in property checks.
const DefaultPropertyATol = 1e-10

// Validate rejects negative bounds.
func (t Tolerance) Validate() error {
	if t.RTol < 0 || t.ATol < 0 {
		return fmt.Errorf("tolerance must be non-negative: rtol=%g atol=%g", t.RTol, t.ATol)
	}
	return nil
}

// Bound returns the allowed deviation from an expected element of modulus absB.
func (t Tolerance) Bound(absB float64) float64 {
	return t.ATol + t.RTol*absB
}

func (t Tolerance) String() string {
	return fmt.Sprintf("rtol=%g, atol=%g", t.RTol, t.ATol)
}
