package comparator

import (
	"errors"
	"fmt"

	"equivproof/domain/core"
	"equivproof/domain/verdict"
)

// Failure is the error returned by every comparator check.
type Failure struct {
	Kind  error         // one of the core.Err* sentinels
	Gauge verdict.Gauge // set when the failure came from a gauge comparison

	// closeness failures
	MaxDiff   float64
	Tolerance Tolerance

	// property failures
	Measured float64
	Bound    float64

	ActualShape   []int
	ExpectedShape []int
}

func (f *Failure) Error() string {
	var msg string
	switch {
	case errors.Is(f.Kind, core.ErrNotSquare):
		msg = fmt.Sprintf("%v: shape %v", f.Kind, f.ActualShape)
	case errors.Is(f.Kind, core.ErrShapeMismatch):
		msg = fmt.Sprintf("%v: actual %v, expected %v", f.Kind, f.ActualShape, f.ExpectedShape)
	case errors.Is(f.Kind, core.ErrValueMismatch):
		msg = fmt.Sprintf("tensors not close: max diff %.2e, %s", f.MaxDiff, f.Tolerance)
	case errors.Is(f.Kind, core.ErrZeroNorm):
		msg = fmt.Sprintf("%v: norm %.2e", f.Kind, f.Measured)
	case errors.Is(f.Kind, core.ErrNotHermitian):
		msg = fmt.Sprintf("not Hermitian: ||A - A†|| = %.2e (atol %.2e)", f.Measured, f.Bound)
	case errors.Is(f.Kind, core.ErrNotUnitary):
		msg = fmt.Sprintf("not unitary: ||U†U - I|| = %.2e (atol %.2e)", f.Measured, f.Bound)
	case errors.Is(f.Kind, core.ErrDiagonalNotReal):
		msg = fmt.Sprintf("diagonal not real: ||Im(diag)|| = %.2e (atol %.2e)", f.Measured, f.Bound)
	case errors.Is(f.Kind, core.ErrDiagonalNotPositive):
		msg = fmt.Sprintf("diagonal not positive: min = %.2e (atol %.2e)", f.Measured, f.Bound)
	default:
		msg = fmt.Sprintf("%v", f.Kind)
	}
	if f.Gauge != "" {
		return fmt.Sprintf("%s (gauge %s)", msg, f.Gauge)
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Kind }

// AsFailure extracts the *Failure from err, if any.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	ok := errors.As(err, &f)
	return f, ok
}

func shapeFailure(actual, expected []int) *Failure {
	return &Failure{Kind: core.ErrShapeMismatch, ActualShape: actual, ExpectedShape: expected}
}

func notSquare(shape []int) *Failure {
	return &Failure{Kind: core.ErrNotSquare, ActualShape: shape}
}
