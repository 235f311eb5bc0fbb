package adversarial

import (
	"fmt"
	"strings"

	"equivproof/internal/errors"
)

// Strategy selects the distribution an artifact is drawn from. The set of
// variants is closed; Generate switches over them exhaustively.
type Strategy interface {
	Name() string
	isStrategy()
}

// Normal draws real and imaginary parts independently from N(0, 1).
type Normal struct{}

// Boundary draws real and imaginary parts from a fixed set of extreme
// values. An empty Values uses DefaultBoundaryValues.
type Boundary struct {
	Values []float64
}

// Sparse zero-fills the artifact and sets max(1, round(Density*size))
// distinct positions to N(0, 1) draws. Zero Density means 0.1.
type Sparse struct {
	Density float64
}

// IllConditioned builds A = Q diag(s) Qᵗ with Q a random orthogonal matrix
// and s log-spaced from MinSingular to MaxSingular. Zero bounds mean
// 1e-15 and 1. Only square 2D shapes are supported.
type IllConditioned struct {
	MinSingular float64
	MaxSingular float64
}

// DefaultBoundaryValues mixes near-zero, near-overflow and exact unit values.
var DefaultBoundaryValues = []float64{1e-15, 1e15, 0, 1, -1}

const (
	defaultSparseDensity = 0.1
	defaultMinSingular   = 1e-15
	defaultMaxSingular   = 1.0
)

func (Normal) Name() string         { return "normal" }
func (Boundary) Name() string       { return "boundary" }
func (Sparse) Name() string         { return "sparse" }
func (IllConditioned) Name() string { return "ill_conditioned" }

func (Normal) isStrategy()         {}
func (Boundary) isStrategy()       {}
func (Sparse) isStrategy()         {}
func (IllConditioned) isStrategy() {}

func (b Boundary) values() []float64 {
	if len(b.Values) == 0 {
		return DefaultBoundaryValues
	}
	return b.Values
}

func (s Sparse) density() float64 {
	if s.Density == 0 {
		return defaultSparseDensity
	}
	return s.Density
}

func (c IllConditioned) bounds() (float64, float64) {
	lo, hi := c.MinSingular, c.MaxSingular
	if lo == 0 {
		lo = defaultMinSingular
	}
	if hi == 0 {
		hi = defaultMaxSingular
	}
	return lo, hi
}

// Validate checks the parameters carried by a strategy.
func Validate(s Strategy) error {
	switch st := s.(type) {
	case Normal, Boundary:
		return nil
	case Sparse:
		if d := st.density(); d < 0 || d > 1 {
			return errors.InvalidInput(fmt.Sprintf("sparse density must be in (0, 1], got %g", d))
		}
		return nil
	case IllConditioned:
		lo, hi := st.bounds()
		if lo <= 0 || hi < lo {
			return errors.InvalidInput(fmt.Sprintf("singular value range must satisfy 0 < min <= max, got [%g, %g]", lo, hi))
		}
		return nil
	case nil:
		return errors.InvalidInput("strategy is required")
	default:
		return errors.InvalidInput(fmt.Sprintf("unsupported strategy %T", s))
	}
}

// ParseStrategy maps a command-line name to its default-parameter variant.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "normal":
		return Normal{}, nil
	case "boundary":
		return Boundary{}, nil
	case "sparse":
		return Sparse{}, nil
	case "ill_conditioned", "ill-conditioned":
		return IllConditioned{}, nil
	}
	return nil, errors.InvalidInput(fmt.Sprintf("unknown strategy %q (want normal, boundary, sparse or ill_conditioned)", name))
}

// AllStrategies lists one default instance of every variant.
func AllStrategies() []Strategy {
	return []Strategy{Normal{}, Boundary{}, Sparse{}, IllConditioned{}}
}
