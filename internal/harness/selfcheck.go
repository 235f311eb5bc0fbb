package harness

import (
	"context"
	"fmt"

	"equivproof/domain/core"
	"equivproof/domain/tensor"
	"equivproof/domain/verdict"
	"equivproof/internal/adversarial"
	"equivproof/internal/comparator"
)

// Targets recorded by SelfCheck.
const (
	TargetPhaseGauge     core.TargetID = "comparator/phase_invariant"
	TargetConjugateGauge core.TargetID = "comparator/conjugate_invariant"
	TargetHermitianPart  core.TargetID = "comparator/hermitian_part"
)

// SelfCheckConfig controls one worker's self-consistency run.
type SelfCheckConfig struct {
	Shapes     [][]int
	Strategies []adversarial.Strategy
	Trials     int
	// Theta is the global phase applied to every phase-gauge candidate.
	Theta        float64
	PropertyATol float64
}

// SelfCheck runs the comparator against transformations it must accept:
// a global phase under the phase gauge, conjugation under the conjugate
// gauge, and Hermitian symmetrization under IsHermitian.
func (h *Harness) SelfCheck(ctx context.Context, session *adversarial.Session, cfg SelfCheckConfig) error {
	identity := func(a *tensor.Artifact) (*tensor.Artifact, error) { return a, nil }
	phase := comparator.Phase(cfg.Theta)

	for _, strategy := range cfg.Strategies {
		challenger := "selfcheck:" + strategy.Name()
		trials := []Trial{
			{
				Target:    TargetPhaseGauge,
				Reference: identity,
				Candidate: func(a *tensor.Artifact) (*tensor.Artifact, error) { return comparator.Scale(a, phase), nil },
				Gauge:     verdict.GaugePhaseInvariant,
			},
			{
				Target:    TargetConjugateGauge,
				Reference: identity,
				Candidate: func(a *tensor.Artifact) (*tensor.Artifact, error) { return comparator.Conj(a), nil },
				Gauge:     verdict.GaugeConjugateInvariant,
			},
		}
		for _, t := range trials {
			t.Challenger = challenger
			t.Session = session
			t.Shapes = cfg.Shapes
			t.Strategy = strategy
			t.Trials = cfg.Trials
			if _, err := h.CompareImplementations(ctx, t); err != nil {
				return err
			}
		}

		if _, err := h.Check(TargetHermitianPart, verdict.L2, challenger, func() error {
			return h.hermitianPartHolds(session, cfg, strategy)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) hermitianPartHolds(session *adversarial.Session, cfg SelfCheckConfig, strategy adversarial.Strategy) error {
	for _, shape := range cfg.Shapes {
		if len(shape) != 2 || shape[0] != shape[1] {
			continue
		}
		for i := 0; i < cfg.Trials; i++ {
			a, err := session.Generate(shape, strategy)
			if err != nil {
				return err
			}
			herm, err := comparator.HermitianPart(a)
			if err != nil {
				return err
			}
			if err := comparator.IsHermitian(herm, cfg.PropertyATol); err != nil {
				session.RecordFailure(err.Error())
				return fmt.Errorf("trial %d on %v: %w", i, shape, err)
			}
		}
	}
	return nil
}
