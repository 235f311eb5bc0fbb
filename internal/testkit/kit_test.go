package testkit

import (
	"context"
	"math/cmplx"
	"math/rand/v2"
	"testing"
	"time"

	"equivproof/domain/core"
	"equivproof/domain/verdict"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNGAdapter_Deterministic(t *testing.T) {
	a := RNGAdapter{}.SeededStream("adversarial", 7)
	b := RNGAdapter{}.SeededStream("adversarial", 7)
	c := RNGAdapter{}.SeededStream("other", 7)

	x, y, z := a.Float64(), b.Float64(), c.Float64()
	assert.Equal(t, x, y)
	assert.NotEqual(t, x, z)
}

func TestFixedClock_Ticks(t *testing.T) {
	clock := NewFixedClock(Epoch)
	first := clock.Now()
	second := clock.Now()

	assert.Equal(t, Epoch, first.Time())
	assert.Equal(t, time.Second, second.Time().Sub(first.Time()))
}

func TestRandomHermitian(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	h := RandomHermitian(rng, 4)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.Equal(t, h.At(i, j), cmplx.Conj(h.At(j, i)))
		}
	}
}

func TestRandomUnitary_Orthonormal(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	u := RandomUnitary(rng, 5)
	for j := 0; j < 5; j++ {
		for k := 0; k < 5; k++ {
			var dot complex128
			for i := 0; i < 5; i++ {
				dot += cmplx.Conj(u.At(i, j)) * u.At(i, k)
			}
			want := complex(0, 0)
			if j == k {
				want = 1
			}
			assert.InDelta(t, 0, cmplx.Abs(dot-want), 1e-12, "column %d vs %d", j, k)
		}
	}
}

func TestInMemoryArchive_LoadSession(t *testing.T) {
	ctx := context.Background()
	archive := NewInMemoryArchive()
	s1, s2 := core.NewSessionID(), core.NewSessionID()

	require.NoError(t, archive.AppendAttempt(ctx, s1, "qr", verdict.Attempt{Level: verdict.L1, Passed: true}))
	require.NoError(t, archive.AppendAttempt(ctx, s2, "svd", verdict.Attempt{Level: verdict.L2}))

	got, err := archive.LoadSession(ctx, s1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, verdict.L1, got["qr"][0].Level)
	assert.Len(t, archive.Rows(), 2)
}
