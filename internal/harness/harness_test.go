package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"equivproof/domain/core"
	"equivproof/domain/tensor"
	"equivproof/domain/verdict"
	"equivproof/internal"
	"equivproof/internal/adversarial"
	"equivproof/internal/comparator"
	"equivproof/internal/config"
	"equivproof/internal/ledger"
	"equivproof/internal/testkit"
	"equivproof/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHarness(tol comparator.Tolerance) (*Harness, *ledger.Ledger) {
	l := ledger.New(ledger.WithClock(testkit.NewFixedClock(testkit.Epoch)), ledger.WithLogger(internal.Discard()))
	return &Harness{Ledger: l, Tolerance: tol, NearMissMargin: 0.1, Logger: internal.Discard()}, l
}

func newSession(seed uint64) *adversarial.Session {
	return adversarial.NewSession(adversarial.SessionOptions{Seed: seed, Logger: internal.Discard()})
}

func identity(a *tensor.Artifact) (*tensor.Artifact, error) { return a, nil }

func shift(delta complex128) Implementation {
	return func(a *tensor.Artifact) (*tensor.Artifact, error) {
		out := a.Clone()
		for i := range out.Data {
			out.Data[i] += delta
		}
		return out, nil
	}
}

func TestNew_FromConfig(t *testing.T) {
	cfg := config.Default()
	h := New(ledger.New(ledger.WithLogger(internal.Discard())), cfg, internal.Discard())
	assert.Equal(t, cfg.Tolerance.RTol, h.Tolerance.RTol)
	assert.Equal(t, cfg.Tolerance.ATol, h.Tolerance.ATol)
	assert.Equal(t, cfg.Adversarial.NearMissMargin, h.NearMissMargin)
	assert.Equal(t, comparator.GradientTolerance(), h.GradientTolerance)
}

func gradientPair(t *testing.T, rel float64) (*tensor.Artifact, *tensor.Artifact) {
	t.Helper()
	ref := []complex128{1 + 1i, -2 + 0.5i, 0.25 - 3i}
	got := make([]complex128, len(ref))
	for i, v := range ref {
		got[i] = v * complex(1+rel, 0)
	}
	a, err := tensor.New([]int{3}, got)
	require.NoError(t, err)
	b, err := tensor.New([]int{3}, ref)
	require.NoError(t, err)
	return a, b
}

func TestCompareGradients_UsesConfiguredTolerance(t *testing.T) {
	actual, reference := gradientPair(t, 1e-5)

	t.Setenv("EQUIV_GRAD_RTOL", "")
	cfg, err := config.Load()
	require.NoError(t, err)
	l := ledger.New(ledger.WithLogger(internal.Discard()))
	a, err := New(l, cfg, internal.Discard()).CompareGradients("grad", verdict.L2, "autodiff", actual, reference, false)
	require.NoError(t, err)
	assert.False(t, a.Passed)
	assert.Contains(t, a.Details, "tensors not close")

	t.Setenv("EQUIV_GRAD_RTOL", "1e-3")
	cfg, err = config.Load()
	require.NoError(t, err)
	a, err = New(l, cfg, internal.Discard()).CompareGradients("grad", verdict.L2, "autodiff", actual, reference, false)
	require.NoError(t, err)
	assert.True(t, a.Passed)
	assert.Equal(t, verdict.L2, l.GetLevel("grad"))
}

func TestCompareGradients_Wirtinger(t *testing.T) {
	h, l := newHarness(comparator.DefaultTolerance())
	actual, reference := gradientPair(t, 0)
	actual = comparator.Conj(actual)

	a, err := h.CompareGradients("grad", verdict.L2, "autodiff", actual, reference, true)
	require.NoError(t, err)
	assert.True(t, a.Passed)

	a, err = h.CompareGradients("grad", verdict.L2, "autodiff", actual, reference, false)
	require.NoError(t, err)
	assert.False(t, a.Passed)
	assert.Len(t, l.History("grad"), 2)
}

func TestCheck_RecordsOutcome(t *testing.T) {
	h, l := newHarness(comparator.DefaultTolerance())

	a, err := h.Check("eigh", verdict.L2, "hermitian", func() error { return nil })
	require.NoError(t, err)
	assert.True(t, a.Passed)
	assert.Equal(t, verdict.L2, l.GetLevel("eigh"))

	a, err = h.Check("eigh", verdict.L3, "unitary", func() error { return fmt.Errorf("not unitary") })
	require.NoError(t, err)
	assert.False(t, a.Passed)
	assert.Equal(t, "not unitary", a.Details)
	assert.Equal(t, verdict.L2, l.GetLevel("eigh"))
}

func TestCompareImplementations_Pass(t *testing.T) {
	h, l := newHarness(comparator.DefaultTolerance())
	session := newSession(42)

	summary, err := h.CompareImplementations(context.Background(), Trial{
		Target:     "matmul",
		Challenger: "self",
		Session:    session,
		Shapes:     [][]int{{3, 3}, {5}},
		Strategy:   adversarial.Normal{},
		Trials:     10,
		Reference:  identity,
		Candidate:  identity,
	})
	require.NoError(t, err)

	assert.Equal(t, 20, summary.Attempts)
	assert.Zero(t, summary.Failures)
	assert.Equal(t, verdict.ConclusionPass, summary.Conclusion)
	assert.Equal(t, verdict.L3, l.GetLevel("matmul"))
	assert.Equal(t, 20, session.Report().Attempts)
}

func TestCompareImplementations_Failure(t *testing.T) {
	h, l := newHarness(comparator.DefaultTolerance())
	session := newSession(1)

	summary, err := h.CompareImplementations(context.Background(), Trial{
		Target:     "matmul",
		Challenger: "broken",
		Session:    session,
		Shapes:     [][]int{{4, 4}},
		Strategy:   adversarial.Normal{},
		Trials:     5,
		Reference:  identity,
		Candidate:  shift(1e-3),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Failures)
	assert.Equal(t, verdict.ConclusionFail, summary.Conclusion)
	assert.Equal(t, verdict.L0, l.GetLevel("matmul"))

	history := l.History("matmul")
	require.Len(t, history, 1)
	assert.False(t, history[0].Passed)
	assert.Contains(t, history[0].Details, "failures=5")

	findings := session.Findings()
	require.Len(t, findings, 5)
	assert.InDelta(t, 1e-3, findings[0].Distance, 1e-12)
}

func TestCompareImplementations_CandidateError(t *testing.T) {
	h, _ := newHarness(comparator.DefaultTolerance())
	summary, err := h.CompareImplementations(context.Background(), Trial{
		Target:    "qr",
		Session:   newSession(2),
		Shapes:    [][]int{{2, 2}},
		Strategy:  adversarial.Normal{},
		Trials:    3,
		Reference: identity,
		Candidate: func(*tensor.Artifact) (*tensor.Artifact, error) { return nil, fmt.Errorf("singular") },
	})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Failures)
}

func TestCompareImplementations_PhaseGauge(t *testing.T) {
	h, l := newHarness(comparator.DefaultTolerance())
	rotate := func(a *tensor.Artifact) (*tensor.Artifact, error) {
		return comparator.Scale(a, comparator.Phase(0.7)), nil
	}

	summary, err := h.CompareImplementations(context.Background(), Trial{
		Target:    "eigvec",
		Session:   newSession(3),
		Shapes:    [][]int{{6}},
		Strategy:  adversarial.Normal{},
		Trials:    10,
		Reference: identity,
		Candidate: rotate,
		Gauge:     verdict.GaugePhaseInvariant,
	})
	require.NoError(t, err)
	assert.Zero(t, summary.Failures)
	assert.Equal(t, verdict.L3, l.GetLevel("eigvec"))
}

func TestCompareImplementations_NearMiss(t *testing.T) {
	h, _ := newHarness(comparator.Tolerance{ATol: 1e-3})
	session := newSession(4)

	summary, err := h.CompareImplementations(context.Background(), Trial{
		Target:    "sum",
		Session:   session,
		Shapes:    [][]int{{3}},
		Strategy:  adversarial.Normal{},
		Trials:    4,
		Reference: identity,
		Candidate: shift(0.95e-3),
	})
	require.NoError(t, err)
	assert.Zero(t, summary.Failures)
	assert.Equal(t, 4, summary.NearMisses)

	report := session.Report()
	require.NotNil(t, report.NearMiss)
	assert.Equal(t, 4, report.NearMiss.Count)
}

func TestCompareImplementations_InvalidTrial(t *testing.T) {
	h, l := newHarness(comparator.DefaultTolerance())

	_, err := h.CompareImplementations(context.Background(), Trial{Target: "x", Session: newSession(1)})
	require.Error(t, err)

	_, err = h.CompareImplementations(context.Background(), Trial{
		Target: "x", Session: newSession(1), Shapes: [][]int{{2}}, Trials: 1,
		Strategy: adversarial.Sparse{Density: 2}, Reference: identity, Candidate: identity,
	})
	require.Error(t, err)
	assert.Empty(t, l.Targets())
}

func TestCompareImplementations_Cancelled(t *testing.T) {
	h, l := newHarness(comparator.DefaultTolerance())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.CompareImplementations(ctx, Trial{
		Target: "x", Session: newSession(1), Shapes: [][]int{{2}}, Trials: 1,
		Strategy: adversarial.Normal{}, Reference: identity, Candidate: identity,
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, l.History("x"))
}

func groundTruth() ports.GroundTruth {
	return ports.GroundTruth{
		"linalg": {
			"q": tensor.Identity(2),
			"r": tensor.MustFromRows([][]complex128{{2, 1}, {0, 3}}),
		},
	}
}

func TestCompareGroundTruth(t *testing.T) {
	h, l := newHarness(comparator.DefaultTolerance())
	gt := groundTruth()

	outputs := map[string]*tensor.Artifact{
		"q": tensor.Identity(2),
		"r": tensor.MustFromRows([][]complex128{{2, 1}, {0, 3}}),
	}
	a, err := h.CompareGroundTruth("qr", "linalg", gt, outputs, verdict.GaugeExact)
	require.NoError(t, err)
	assert.True(t, a.Passed)
	assert.Equal(t, verdict.L1, l.GetLevel("qr"))
	assert.Equal(t, "ground_truth:linalg", a.Challenger)
}

func TestCompareGroundTruth_Mismatch(t *testing.T) {
	h, l := newHarness(comparator.DefaultTolerance())
	gt := groundTruth()

	outputs := map[string]*tensor.Artifact{
		"q":     tensor.Identity(2),
		"r":     tensor.MustFromRows([][]complex128{{2, 1}, {0, 3.5}}),
		"extra": tensor.Identity(1),
	}
	a, err := h.CompareGroundTruth("qr", "linalg", gt, outputs, "")
	require.NoError(t, err)
	assert.False(t, a.Passed)
	assert.True(t, strings.Contains(a.Details, "r: "))
	assert.True(t, strings.Contains(a.Details, "extra: no ground truth"))
	assert.Equal(t, verdict.L0, l.GetLevel(core.TargetID("qr")))
}

func TestCompareGroundTruth_UnknownModule(t *testing.T) {
	h, _ := newHarness(comparator.DefaultTolerance())
	a, err := h.CompareGroundTruth("qr", "missing", groundTruth(), nil, "")
	require.NoError(t, err)
	assert.False(t, a.Passed)
	assert.Contains(t, a.Details, "not found")
}

func TestSelfCheck(t *testing.T) {
	h, l := newHarness(comparator.DefaultTolerance())
	session := newSession(9)

	err := h.SelfCheck(context.Background(), session, SelfCheckConfig{
		Shapes:       [][]int{{4, 4}, {6}},
		Strategies:   []adversarial.Strategy{adversarial.Normal{}, adversarial.Sparse{Density: 0.5}},
		Trials:       5,
		Theta:        1.1,
		PropertyATol: comparator.DefaultPropertyATol,
	})
	require.NoError(t, err)

	assert.Equal(t, verdict.L3, l.GetLevel(TargetPhaseGauge))
	assert.Equal(t, verdict.L3, l.GetLevel(TargetConjugateGauge))
	assert.Equal(t, verdict.L2, l.GetLevel(TargetHermitianPart))
	assert.Len(t, l.History(TargetPhaseGauge), 2)

	report := session.Report()
	assert.Zero(t, report.Failures)
	// two trials per strategy over two shapes, plus Hermitian draws on the square shape
	assert.Equal(t, 2*(2*2*5+5), report.Attempts)
}
