package comparator

import (
	"math"
	"math/cmplx"

	"equivproof/domain/core"
	"equivproof/domain/tensor"
)

// Close checks |actual-expected| <= atol + rtol*|expected| element-wise.
//
// The bound scales with the expected value only, so Close(a, b) and
// Close(b, a) can disagree near the boundary. Identical elements always
// pass, including matching infinities; NaN never does.
func Close(actual, expected *tensor.Artifact, tol Tolerance) error {
	if !actual.SameShape(expected) {
		return shapeFailure(actual.Shape, expected.Shape)
	}
	maxDiff, ok := scan(actual.Data, expected.Data, tol)
	if ok {
		return nil
	}
	return &Failure{
		Kind:          core.ErrValueMismatch,
		MaxDiff:       maxDiff,
		Tolerance:     tol,
		ActualShape:   actual.Shape,
		ExpectedShape: expected.Shape,
	}
}

// scan returns the largest element-wise difference and whether every
// element is within bound.
func scan(actual, expected []complex128, tol Tolerance) (float64, bool) {
	maxDiff := 0.0
	ok := true
	for i, a := range actual {
		b := expected[i]
		if a == b {
			continue
		}
		diff := cmplx.Abs(a - b)
		if math.IsNaN(diff) || diff > maxDiff {
			maxDiff = diff
		}
		if !(diff <= tol.Bound(cmplx.Abs(b))) {
			ok = false
		}
	}
	return maxDiff, ok
}

// Distance returns the maximum absolute element-wise difference.
func Distance(actual, expected *tensor.Artifact) (float64, error) {
	if !actual.SameShape(expected) {
		return 0, shapeFailure(actual.Shape, expected.Shape)
	}
	maxDiff, _ := scan(actual.Data, expected.Data, Tolerance{})
	return maxDiff, nil
}

// Margin reports the smallest remaining slack over all elements as a
// fraction of each element's bound: 1 means identical, 0 means on the
// boundary and a negative value means Close would fail.
func Margin(actual, expected *tensor.Artifact, tol Tolerance) (float64, error) {
	if !actual.SameShape(expected) {
		return 0, shapeFailure(actual.Shape, expected.Shape)
	}
	margin := 1.0
	for i, a := range actual.Data {
		b := expected.Data[i]
		if a == b {
			continue
		}
		diff := cmplx.Abs(a - b)
		bound := tol.Bound(cmplx.Abs(b))
		var slack float64
		switch {
		case math.IsNaN(diff) || math.IsNaN(bound):
			slack = math.Inf(-1)
		case bound == 0 || math.IsInf(bound, 1):
			if diff == 0 || (math.IsInf(bound, 1) && !math.IsInf(diff, 1)) {
				slack = 1
			} else {
				slack = math.Inf(-1)
			}
		default:
			slack = (bound - diff) / bound
		}
		margin = math.Min(margin, slack)
	}
	return margin, nil
}
