package core

import (
	"errors"
	"fmt"
)

// Failure kinds. Every comparator or generator error wraps exactly one of these.
var (
	// Shape errors
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrNotSquare     = fmt.Errorf("%w: matrix is not square", ErrShapeMismatch)
	ErrInvalidShape  = errors.New("invalid shape for strategy")

	// Value errors
	ErrValueMismatch = errors.New("values not close")
	ErrZeroNorm      = errors.New("cannot normalize zero vector")

	// Property errors
	ErrNotHermitian        = errors.New("matrix is not Hermitian")
	ErrNotUnitary          = errors.New("matrix is not unitary")
	ErrDiagonalNotReal     = errors.New("diagonal is not real")
	ErrDiagonalNotPositive = errors.New("diagonal is not positive")

	// Ledger errors
	ErrUnknownLevel = errors.New("unknown verification level")
	ErrEmptyTarget  = errors.New("target name cannot be empty")
)

// NewInvalidShapeError reports a strategy that cannot produce the requested shape.
func NewInvalidShapeError(strategy string, shape []int) error {
	return fmt.Errorf("%w: %s requires a square 2D shape, got %v", ErrInvalidShape, strategy, shape)
}

// Error checking helpers
func IsShapeError(err error) bool {
	return errors.Is(err, ErrShapeMismatch) || errors.Is(err, ErrInvalidShape)
}

func IsPropertyError(err error) bool {
	return errors.Is(err, ErrNotHermitian) ||
		errors.Is(err, ErrNotUnitary) ||
		errors.Is(err, ErrDiagonalNotReal) ||
		errors.Is(err, ErrDiagonalNotPositive)
}

func IsEquivalenceError(err error) bool {
	return errors.Is(err, ErrValueMismatch) ||
		errors.Is(err, ErrZeroNorm) ||
		errors.Is(err, ErrShapeMismatch)
}

// FailureClass names the family a check error belongs to: "shape",
// "property", "equivalence" or "other".
func FailureClass(err error) string {
	switch {
	case IsShapeError(err):
		return "shape"
	case IsPropertyError(err):
		return "property"
	case IsEquivalenceError(err):
		return "equivalence"
	default:
		return "other"
	}
}
