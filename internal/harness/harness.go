// Package harness drives equivalence checks and records their outcome in the
// verification ledger.
package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"equivproof/domain/core"
	"equivproof/domain/tensor"
	"equivproof/domain/verdict"
	"equivproof/internal"
	"equivproof/internal/adversarial"
	"equivproof/internal/comparator"
	"equivproof/internal/config"
	"equivproof/internal/errors"
	"equivproof/ports"
)

// Harness records check results to a ledger. It is safe for concurrent use;
// ledger writes are serialized.
type Harness struct {
	Ledger         ports.LedgerWriterPort
	Tolerance      comparator.Tolerance
	// GradientTolerance applies to CompareGradients. Zero means
	// comparator.GradientTolerance().
	GradientTolerance comparator.Tolerance
	NearMissMargin    float64
	Logger         *internal.Logger

	mu sync.Mutex
}

// New builds a harness from configuration.
func New(ledger ports.LedgerWriterPort, cfg *config.Config, logger *internal.Logger) *Harness {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Harness{
		Ledger:         ledger,
		Tolerance:         comparator.Tolerance{RTol: cfg.Tolerance.RTol, ATol: cfg.Tolerance.ATol},
		GradientTolerance: comparator.Tolerance{RTol: cfg.Tolerance.GradRTol, ATol: cfg.Tolerance.GradATol},
		NearMissMargin:    cfg.Adversarial.NearMissMargin,
		Logger:            logger.With("Harness"),
	}
}

func (h *Harness) logger() *internal.Logger {
	if h.Logger == nil {
		return internal.DefaultLogger
	}
	return h.Logger
}

func (h *Harness) record(target core.TargetID, level verdict.Level, challenger string, passed bool, details string) (verdict.Attempt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Ledger.Record(target, level, challenger, passed, details)
}

// Check runs fn and records a pass when it returns nil. The check's own error
// becomes the attempt details; it is not returned.
func (h *Harness) Check(target core.TargetID, level verdict.Level, challenger string, fn func() error) (verdict.Attempt, error) {
	details := ""
	err := fn()
	if err != nil {
		details = err.Error()
		h.logger().Info("%s failed %s check by %s (%s): %v", target, level.Tag(), challenger, core.FailureClass(err), err)
	}
	return h.record(target, level, challenger, err == nil, details)
}

// CompareGradients checks a gradient against a reference gradient under the
// gradient tolerance and records the outcome. With wirtinger set the
// reference uses the conjugate convention.
func (h *Harness) CompareGradients(target core.TargetID, level verdict.Level, challenger string, actual, reference *tensor.Artifact, wirtinger bool) (verdict.Attempt, error) {
	tol := h.GradientTolerance
	if tol == (comparator.Tolerance{}) {
		tol = comparator.GradientTolerance()
	}
	return h.Check(target, level, challenger, func() error {
		return comparator.GradientsEquivalent(actual, reference, tol, wirtinger)
	})
}

// Implementation maps one input to one output.
type Implementation func(*tensor.Artifact) (*tensor.Artifact, error)

// Trial pits a candidate implementation against a reference on generated
// inputs.
type Trial struct {
	Target     core.TargetID
	Challenger string
	Session    *adversarial.Session
	Shapes     [][]int
	Strategy   adversarial.Strategy
	// Trials is the number of inputs drawn per shape.
	Trials    int
	Reference Implementation
	Candidate Implementation
	Gauge     verdict.Gauge
}

func (t Trial) validate() error {
	switch {
	case t.Target == "":
		return errors.WithCode(errors.CodeInvalidInput, core.ErrEmptyTarget)
	case t.Session == nil:
		return errors.InvalidInput("trial needs a session")
	case t.Reference == nil || t.Candidate == nil:
		return errors.InvalidInput("trial needs both a reference and a candidate")
	case len(t.Shapes) == 0 || t.Trials < 1:
		return errors.InvalidInput(fmt.Sprintf("trial needs shapes and a positive trial count, got %d shapes x %d", len(t.Shapes), t.Trials))
	}
	if t.Strategy == nil {
		return errors.InvalidInput("trial needs a strategy")
	}
	return adversarial.Validate(t.Strategy)
}

// CompareImplementations runs the trial and records one L3 attempt that
// passes iff no generated input broke equivalence. Errors from either
// implementation count as failures; only generator and ledger errors abort.
func (h *Harness) CompareImplementations(ctx context.Context, t Trial) (verdict.Summary, error) {
	if err := t.validate(); err != nil {
		return verdict.Summary{}, err
	}
	gauge := t.Gauge
	if gauge == "" {
		gauge = verdict.GaugeExact
	}

	var attempts, failures, nearMisses int
	for _, shape := range t.Shapes {
		for i := 0; i < t.Trials; i++ {
			if err := ctx.Err(); err != nil {
				return verdict.Summary{}, err
			}
			input, err := t.Session.Generate(shape, t.Strategy)
			if err != nil {
				return verdict.Summary{}, errors.Wrapf(err, "failed to generate %s input %v", t.Strategy.Name(), shape)
			}
			attempts++

			switch f := h.compareOne(t, gauge, input); f.Kind {
			case adversarial.FindingFailure:
				failures++
				t.Session.RecordFinding(f)
			case adversarial.FindingNearMiss:
				nearMisses++
				t.Session.RecordFinding(f)
			}
		}
	}

	summary := verdict.NewSummary(attempts, failures, nearMisses)
	summary.SessionID = t.Session.ID()
	details := fmt.Sprintf("strategy=%s gauge=%s seed=%d %s", t.Strategy.Name(), gauge, t.Session.Seed(), summary)
	if _, err := h.record(t.Target, verdict.L3, t.Challenger, failures == 0, details); err != nil {
		return summary, err
	}
	h.logger().Info("%s vs %s: %s", t.Target, t.Challenger, summary)
	return summary, nil
}

// compareOne returns a finding with an empty Kind when the input is
// unremarkable.
func (h *Harness) compareOne(t Trial, gauge verdict.Gauge, input *tensor.Artifact) adversarial.Finding {
	want, err := t.Reference(input.Clone())
	if err != nil {
		return adversarial.Finding{Kind: adversarial.FindingFailure, Details: fmt.Sprintf("reference: %v", err)}
	}
	got, err := t.Candidate(input.Clone())
	if err != nil {
		return adversarial.Finding{Kind: adversarial.FindingFailure, Details: fmt.Sprintf("candidate: %v", err)}
	}

	if err := comparator.EquivalentUnderGauge(got, want, gauge, h.Tolerance); err != nil {
		f := adversarial.Finding{Kind: adversarial.FindingFailure, Details: err.Error()}
		if d, derr := comparator.Distance(got, want); derr == nil {
			f.Distance = d
		}
		return f
	}

	margin, err := comparator.GaugeMargin(got, want, gauge, h.Tolerance)
	if err == nil && margin < h.NearMissMargin {
		d, _ := comparator.Distance(got, want)
		return adversarial.Finding{
			Kind:     adversarial.FindingNearMiss,
			Details:  fmt.Sprintf("passed with margin %.3f on %s", margin, input),
			Distance: d,
		}
	}
	return adversarial.Finding{}
}

// CompareGroundTruth compares outputs against the arrays of one ground-truth
// module and records an L1 attempt. Arrays missing on either side fail the
// attempt.
func (h *Harness) CompareGroundTruth(target core.TargetID, module string, gt ports.GroundTruth, outputs map[string]*tensor.Artifact, gauge verdict.Gauge) (verdict.Attempt, error) {
	return h.Check(target, verdict.L1, "ground_truth:"+module, func() error {
		expected, ok := gt[module]
		if !ok {
			return errors.NotFound(fmt.Sprintf("ground-truth module %q", module))
		}
		if gauge == "" {
			gauge = verdict.GaugeExact
		}

		names := make([]string, 0, len(expected))
		for name := range expected {
			names = append(names, name)
		}
		sort.Strings(names)

		var problems []string
		for _, name := range names {
			got, ok := outputs[name]
			if !ok {
				problems = append(problems, fmt.Sprintf("%s: missing output", name))
				continue
			}
			if err := comparator.EquivalentUnderGauge(got, expected[name], gauge, h.Tolerance); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			}
		}
		for name := range outputs {
			if _, ok := expected[name]; !ok {
				problems = append(problems, fmt.Sprintf("%s: no ground truth", name))
			}
		}
		if len(problems) > 0 {
			sort.Strings(problems)
			return fmt.Errorf("%d of %d arrays disagree: %s", len(problems), len(names), strings.Join(problems, "; "))
		}
		return nil
	})
}
