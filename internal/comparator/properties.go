package comparator

import (
	"math"
	"math/cmplx"

	"equivproof/domain/core"
	"equivproof/domain/tensor"

	"gonum.org/v1/gonum/floats"
)

// IsHermitian checks ||A - A†||_F < atol.
func IsHermitian(a *tensor.Artifact, atol float64) error {
	if !a.IsSquare() {
		return notSquare(a.Shape)
	}
	diff := frobeniusDistance(a.Data, adjoint(a).Data)
	if diff < atol {
		return nil
	}
	return &Failure{Kind: core.ErrNotHermitian, Measured: diff, Bound: atol, ActualShape: a.Shape}
}

// IsUnitary checks ||U†U - I||_F < atol.
func IsUnitary(u *tensor.Artifact, atol float64) error {
	if !u.IsSquare() {
		return notSquare(u.Shape)
	}
	gram := matmul(adjoint(u), u)
	diff := frobeniusDistance(gram.Data, tensor.Identity(u.Shape[0]).Data)
	if diff < atol {
		return nil
	}
	return &Failure{Kind: core.ErrNotUnitary, Measured: diff, Bound: atol, ActualShape: u.Shape}
}

// HasPositiveRealDiagonal checks the sign convention of a triangular factor:
// ||Im(diag R)|| < atol and min(Re(diag R)) > -atol. R may be rectangular.
func HasPositiveRealDiagonal(r *tensor.Artifact, atol float64) error {
	if r.Dims() != 2 {
		return notSquare(r.Shape)
	}
	diag := r.Diagonal()
	if len(diag) == 0 {
		return nil
	}
	re := make([]float64, len(diag))
	im := make([]float64, len(diag))
	for i, v := range diag {
		re[i], im[i] = real(v), imag(v)
	}

	imagNorm := floats.Norm(im, 2)
	if !(imagNorm < atol) {
		return &Failure{Kind: core.ErrDiagonalNotReal, Measured: imagNorm, Bound: atol, ActualShape: r.Shape}
	}
	minDiag := floats.Min(re)
	if !(minDiag > -atol) || math.IsNaN(floats.Sum(re)) {
		return &Failure{Kind: core.ErrDiagonalNotPositive, Measured: minDiag, Bound: atol, ActualShape: r.Shape}
	}
	return nil
}

// HermitianPart returns (A + A†)/2.
func HermitianPart(a *tensor.Artifact) (*tensor.Artifact, error) {
	if !a.IsSquare() {
		return nil, notSquare(a.Shape)
	}
	h := adjoint(a)
	for i, v := range a.Data {
		h.Data[i] = (v + h.Data[i]) / 2
	}
	return h, nil
}

// Adjoint exposes the conjugate transpose for callers building fixtures.
func Adjoint(a *tensor.Artifact) (*tensor.Artifact, error) {
	if a.Dims() != 2 {
		return nil, notSquare(a.Shape)
	}
	return adjoint(a), nil
}

// Conj exposes the element-wise conjugate.
func Conj(a *tensor.Artifact) *tensor.Artifact { return conj(a) }

// MatMul exposes the dense product of two 2D artifacts.
func MatMul(a, b *tensor.Artifact) (*tensor.Artifact, error) {
	if a.Dims() != 2 || b.Dims() != 2 || a.Shape[1] != b.Shape[0] {
		return nil, shapeFailure(a.Shape, b.Shape)
	}
	return matmul(a, b), nil
}

// Scale returns c·a.
func Scale(a *tensor.Artifact, c complex128) *tensor.Artifact {
	s := a.Clone()
	for i := range s.Data {
		s.Data[i] *= c
	}
	return s
}

// Phase returns e^{iθ}.
func Phase(theta float64) complex128 { return cmplx.Rect(1, theta) }
