// Package adversarial synthesizes numerically hostile inputs and keeps score
// of what they uncovered.
//
// A Session owns one seeded random stream and three counters (attempts,
// failures, near-misses) that only ever grow. Sessions are not safe for
// concurrent use; parallel workers each get their own (see Campaign).
package adversarial

import (
	"math"
	"math/rand/v2"
	"slices"

	"equivproof/domain/core"
	"equivproof/domain/tensor"
	"equivproof/domain/verdict"
	"equivproof/internal"
	"equivproof/ports"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// SessionOptions configures a Session.
type SessionOptions struct {
	Seed uint64
	// StrictShapes makes IllConditioned fail with core.ErrInvalidShape on a
	// non-square shape instead of falling back to Normal.
	StrictShapes bool
	// RNG overrides how the random stream is derived from Seed.
	RNG    ports.RNGPort
	Logger *internal.Logger
}

// FindingKind distinguishes recorded failures from near-misses.
type FindingKind string

const (
	FindingFailure  FindingKind = "failure"
	FindingNearMiss FindingKind = "near_miss"
)

// Finding is one counterexample or near-counterexample reported by a driver.
type Finding struct {
	Kind     FindingKind `json:"kind"`
	Attempt  int         `json:"attempt"`
	Details  string      `json:"details"`
	Distance float64     `json:"distance,omitempty"`
}

// Session is one adversarial testing session.
type Session struct {
	id      core.SessionID
	seed    uint64
	strict  bool
	rng     *rand.Rand
	unitGen distuv.Normal
	logger  *internal.Logger

	attempts   int
	failures   int
	nearMisses int
	findings   []Finding
}

// NewSession creates a session whose output is fully determined by opts.Seed.
func NewSession(opts SessionOptions) *Session {
	var rng *rand.Rand
	if opts.RNG != nil {
		rng = opts.RNG.SeededStream("adversarial", opts.Seed)
	} else {
		rng = rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	}
	logger := opts.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Session{
		id:      core.NewSessionID(),
		seed:    opts.Seed,
		strict:  opts.StrictShapes,
		rng:     rng,
		unitGen: distuv.Normal{Mu: 0, Sigma: 1},
		logger:  logger.With("Adversarial"),
	}
}

// ID returns the session identifier.
func (s *Session) ID() core.SessionID { return s.id }

// Seed returns the seed the session was created with.
func (s *Session) Seed() uint64 { return s.seed }

// Generate draws one artifact of the given shape. The attempts counter is
// incremented exactly once per call, whether or not an error is returned.
func (s *Session) Generate(shape []int, strategy Strategy) (*tensor.Artifact, error) {
	s.attempts++

	if err := Validate(strategy); err != nil {
		return nil, err
	}
	out, err := tensor.Zeros(shape)
	if err != nil {
		return nil, err
	}

	switch st := strategy.(type) {
	case Normal:
		s.fillNormal(out.Data)
	case Boundary:
		s.fillBoundary(out.Data, st.values())
	case Sparse:
		s.fillSparse(out.Data, st.density())
	case IllConditioned:
		if len(shape) != 2 || shape[0] != shape[1] {
			if s.strict {
				return nil, core.NewInvalidShapeError(st.Name(), shape)
			}
			s.logger.Debug("ill_conditioned needs a square shape, got %v; falling back to normal", shape)
			s.fillNormal(out.Data)
			break
		}
		lo, hi := st.bounds()
		s.fillIllConditioned(out.Data, shape[0], lo, hi)
	}

	s.logger.Trace("attempt %d: %s %v", s.attempts, strategy.Name(), shape)
	return out, nil
}

// RecordFailure counts an equivalence claim broken by a generated input.
// It does not touch the attempt counter, so attempts >= failures holds only
// when callers record failures for inputs they generated. A failure recorded
// on a fresh session reports attempts=0, failures=1 and a success rate of -1.
func (s *Session) RecordFailure(details string) {
	s.RecordFinding(Finding{Kind: FindingFailure, Details: details})
}

// RecordNearMiss counts a comparison that passed close to its bound.
func (s *Session) RecordNearMiss(details string) {
	s.RecordFinding(Finding{Kind: FindingNearMiss, Details: details})
}

// RecordFinding records f and bumps the counter for its kind.
func (s *Session) RecordFinding(f Finding) {
	f.Attempt = s.attempts
	switch f.Kind {
	case FindingFailure:
		s.failures++
		s.logger.Info("failure at attempt %d: %s", f.Attempt, f.Details)
	default:
		f.Kind = FindingNearMiss
		s.nearMisses++
		s.logger.Debug("near miss at attempt %d: %s", f.Attempt, f.Details)
	}
	s.findings = append(s.findings, f)
}

// Findings returns a copy of everything recorded so far, in order.
func (s *Session) Findings() []Finding {
	return slices.Clone(s.findings)
}

// Report summarizes the session. It does not reset anything.
func (s *Session) Report() verdict.Summary {
	summary := verdict.NewSummary(s.attempts, s.failures, s.nearMisses)
	summary.SessionID = s.id
	summary.NearMiss = summarizeDistances(s.findings)
	return summary
}

// summarizeDistances describes the distances carried by near-miss findings.
func summarizeDistances(findings []Finding) *verdict.DistanceSummary {
	var distances []float64
	for _, f := range findings {
		if f.Kind == FindingNearMiss && f.Distance > 0 && !math.IsInf(f.Distance, 0) {
			distances = append(distances, f.Distance)
		}
	}
	if len(distances) == 0 {
		return nil
	}
	mean, _ := stats.Mean(distances)
	median, _ := stats.Median(distances)
	maxDist, _ := stats.Max(distances)
	stdDev, _ := stats.StandardDeviation(distances)
	p95, _ := stats.Percentile(distances, 95)
	return &verdict.DistanceSummary{
		Count:  len(distances),
		Mean:   mean,
		Median: median,
		Max:    maxDist,
		StdDev: stdDev,
		P95:    p95,
	}
}
