package comparator

import (
	"math/cmplx"

	"equivproof/domain/tensor"

	"gonum.org/v1/gonum/cmplxs"
)

// conj returns the element-wise conjugate, keeping the shape.
func conj(a *tensor.Artifact) *tensor.Artifact {
	c := a.Clone()
	for i, v := range c.Data {
		c.Data[i] = cmplx.Conj(v)
	}
	return c
}

// adjoint returns the conjugate transpose of a 2D artifact.
func adjoint(a *tensor.Artifact) *tensor.Artifact {
	rows, cols := a.Shape[0], a.Shape[1]
	h := &tensor.Artifact{Shape: []int{cols, rows}, Data: make([]complex128, rows*cols), Device: a.Device}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			h.Data[j*rows+i] = cmplx.Conj(a.Data[i*cols+j])
		}
	}
	return h
}

// matmul multiplies two 2D artifacts with compatible inner dimensions.
func matmul(a, b *tensor.Artifact) *tensor.Artifact {
	m, k, n := a.Shape[0], a.Shape[1], b.Shape[1]
	c := &tensor.Artifact{Shape: []int{m, n}, Data: make([]complex128, m*n), Device: a.Device}
	for i := 0; i < m; i++ {
		for p := 0; p < k; p++ {
			aip := a.Data[i*k+p]
			if aip == 0 {
				continue
			}
			row := c.Data[i*n : (i+1)*n]
			for j, bpj := range b.Data[p*n : (p+1)*n] {
				row[j] += aip * bpj
			}
		}
	}
	return c
}

// frobeniusDistance is ||a - b||_F over the flat data.
func frobeniusDistance(a, b []complex128) float64 {
	diff := cmplxs.SubTo(make([]complex128, len(a)), a, b)
	return cmplxs.Norm(diff, 2)
}

// normalize scales v to unit 2-norm. It returns the original norm.
func normalize(v *tensor.Artifact) (*tensor.Artifact, float64) {
	norm := cmplxs.Norm(v.Data, 2)
	if norm == 0 {
		return v, 0
	}
	u := v.Clone()
	cmplxs.Scale(complex(1/norm, 0), u.Data)
	return u, norm
}

// projector forms P = v ⊗ conj(v) for a flat vector v.
func projector(v *tensor.Artifact) *tensor.Artifact {
	n := v.Size()
	p := &tensor.Artifact{Shape: []int{n, n}, Data: make([]complex128, n*n), Device: v.Device}
	for i, vi := range v.Data {
		for j, vj := range v.Data {
			p.Data[i*n+j] = vi * cmplx.Conj(vj)
		}
	}
	return p
}
