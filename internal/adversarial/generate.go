package adversarial

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// draw returns one N(0, 1) sample by inverting the normal CDF at a uniform
// point strictly inside (0, 1).
func (s *Session) draw() float64 {
	u := (float64(s.rng.Uint64()>>11) + 0.5) / (1 << 53)
	return s.unitGen.Quantile(u)
}

func (s *Session) fillNormal(dst []complex128) {
	for i := range dst {
		re := s.draw()
		dst[i] = complex(re, s.draw())
	}
}

func (s *Session) fillBoundary(dst []complex128, values []float64) {
	for i := range dst {
		re := values[s.rng.IntN(len(values))]
		dst[i] = complex(re, values[s.rng.IntN(len(values))])
	}
}

// sparseCount is max(1, round(density*size)) capped at size.
func sparseCount(size int, density float64) int {
	return min(size, max(1, int(math.Round(density*float64(size)))))
}

func (s *Session) fillSparse(dst []complex128, density float64) {
	if len(dst) == 0 {
		return
	}
	positions := s.rng.Perm(len(dst))[:sparseCount(len(dst), density)]
	for _, p := range positions {
		re := s.draw()
		dst[p] = complex(re, s.draw())
	}
}

func (s *Session) fillIllConditioned(dst []complex128, n int, lo, hi float64) {
	if n == 0 {
		return
	}
	g := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			g.Set(i, j, s.draw())
		}
	}

	var qr mat.QR
	qr.Factorize(g)
	var q mat.Dense
	qr.QTo(&q)

	sv := []float64{hi}
	if n > 1 {
		sv = floats.LogSpan(make([]float64, n), lo, hi)
	}

	var qs, a mat.Dense
	qs.Mul(&q, mat.NewDiagDense(n, sv))
	a.Mul(&qs, q.T())

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dst[i*n+j] = complex(a.At(i, j), 0)
		}
	}
}
