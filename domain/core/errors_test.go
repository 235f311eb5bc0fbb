package core

import (
	"fmt"
	"testing"
)

func TestFailureClass(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not square", fmt.Errorf("eigh input: %w", ErrNotSquare), "shape"},
		{"invalid shape", NewInvalidShapeError("ill_conditioned", []int{3, 4}), "shape"},
		{"hermitian", fmt.Errorf("check: %w", ErrNotHermitian), "property"},
		{"diagonal", ErrDiagonalNotPositive, "property"},
		{"values", fmt.Errorf("max diff 1e-3: %w", ErrValueMismatch), "equivalence"},
		{"zero norm", ErrZeroNorm, "equivalence"},
		{"plain", fmt.Errorf("candidate panicked"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FailureClass(tt.err); got != tt.want {
				t.Errorf("FailureClass(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorFamiliesAreDisjointForProperties(t *testing.T) {
	if IsShapeError(ErrNotUnitary) || IsEquivalenceError(ErrNotUnitary) {
		t.Error("property error classified outside its family")
	}
	if !IsEquivalenceError(ErrShapeMismatch) {
		t.Error("shape mismatch between outputs should count as non-equivalence")
	}
}
