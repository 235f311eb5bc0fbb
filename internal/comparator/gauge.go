package comparator

import (
	"fmt"
	"math"

	"equivproof/domain/core"
	"equivproof/domain/tensor"
	"equivproof/domain/verdict"
)

// EquivalentUnderGauge compares a and b after removing the named gauge freedom.
//
//   - Exact: plain Close.
//   - PhaseInvariant: both are flattened, normalized to unit norm and compared
//     through their projectors v⊗conj(v); the two norms must also agree. A
//     unit-modulus factor is therefore invisible while any other scale is not.
//     The projector products round, so a phase-rotated copy can miss by a
//     few ulps; with a zero tolerance the check is not guaranteed to pass.
//   - ConjugateInvariant: a is compared against conj(b), for gradients
//     produced under the opposite Wirtinger convention.
func EquivalentUnderGauge(a, b *tensor.Artifact, gauge verdict.Gauge, tol Tolerance) error {
	pair, err := gaugeFix(a, b, gauge)
	if err != nil {
		return err
	}
	if err := Close(pair.x, pair.y, tol); err != nil {
		return pair.tag(err, a, b)
	}
	if pair.checkNorm {
		if err := Close(tensor.Vector(complex(pair.normA, 0)), tensor.Vector(complex(pair.normB, 0)), tol); err != nil {
			return pair.tag(err, a, b)
		}
	}
	return nil
}

// GaugeMargin is Margin applied after gauge fixing.
func GaugeMargin(a, b *tensor.Artifact, gauge verdict.Gauge, tol Tolerance) (float64, error) {
	pair, err := gaugeFix(a, b, gauge)
	if err != nil {
		return 0, err
	}
	margin, err := Margin(pair.x, pair.y, tol)
	if err != nil || !pair.checkNorm {
		return margin, err
	}
	normMargin, err := Margin(tensor.Vector(complex(pair.normA, 0)), tensor.Vector(complex(pair.normB, 0)), tol)
	return math.Min(margin, normMargin), err
}

// EigenvectorsEquivalent compares eigenvector directions only: both vectors
// are normalized, so any nonzero scale (phase or magnitude) is ignored.
// Eigensolvers are free to return eigenvectors at any normalization.
func EigenvectorsEquivalent(actual, expected *tensor.Artifact, tol Tolerance) error {
	pair, err := gaugeFix(actual, expected, verdict.GaugePhaseInvariant)
	if err != nil {
		return err
	}
	if err := Close(pair.x, pair.y, tol); err != nil {
		return pair.tag(err, actual, expected)
	}
	return nil
}

// GradientsEquivalent compares a gradient against a reference. With
// wirtinger set the reference is assumed to use the conjugate convention.
func GradientsEquivalent(actual, reference *tensor.Artifact, tol Tolerance, wirtinger bool) error {
	gauge := verdict.GaugeExact
	if wirtinger {
		gauge = verdict.GaugeConjugateInvariant
	}
	return EquivalentUnderGauge(actual, reference, gauge, tol)
}

// fixedPair is what Close sees once the gauge has been removed.
type fixedPair struct {
	gauge        verdict.Gauge
	x, y         *tensor.Artifact
	normA, normB float64
	checkNorm    bool
}

// tag stamps a comparison failure with the gauge and the caller's shapes.
func (p fixedPair) tag(err error, a, b *tensor.Artifact) error {
	if f, ok := AsFailure(err); ok {
		f.Gauge = p.gauge
		f.ActualShape, f.ExpectedShape = a.Shape, b.Shape
	}
	return err
}

func gaugeFix(a, b *tensor.Artifact, gauge verdict.Gauge) (fixedPair, error) {
	switch gauge {
	case verdict.GaugeExact:
		return fixedPair{gauge: gauge, x: a, y: b}, nil
	case verdict.GaugePhaseInvariant:
		if !a.SameShape(b) {
			f := shapeFailure(a.Shape, b.Shape)
			f.Gauge = gauge
			return fixedPair{}, f
		}
		ua, normA := normalize(a.Flatten())
		if normA == 0 {
			return fixedPair{}, &Failure{Kind: core.ErrZeroNorm, Gauge: gauge, ActualShape: a.Shape}
		}
		ub, normB := normalize(b.Flatten())
		if normB == 0 {
			return fixedPair{}, &Failure{Kind: core.ErrZeroNorm, Gauge: gauge, ActualShape: b.Shape}
		}
		return fixedPair{
			gauge:     gauge,
			x:         projector(ua),
			y:         projector(ub),
			normA:     normA,
			normB:     normB,
			checkNorm: true,
		}, nil
	case verdict.GaugeConjugateInvariant:
		return fixedPair{gauge: gauge, x: a, y: conj(b)}, nil
	default:
		return fixedPair{}, fmt.Errorf("unknown gauge %q", gauge)
	}
}
