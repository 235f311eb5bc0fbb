package verdict

import (
	"encoding/json"
	"fmt"
	"strings"

	"equivproof/domain/core"
)

// Level is a rung on the trust ladder. Levels are totally ordered.
type Level int

const (
	L0 Level = iota // draft
	L1              // cross-checked
	L2              // tested
	L3              // adversarial
	L4              // proven
)

var levelNames = [...]string{"draft", "cross_checked", "tested", "adversarial", "proven"}

// Valid reports whether l is one of L0..L4.
func (l Level) Valid() bool { return l >= L0 && l <= L4 }

// Tag returns the short form used in exports ("L0".."L4").
func (l Level) Tag() string { return fmt.Sprintf("L%d", int(l)) }

// Name returns the descriptive form ("draft".."proven").
func (l Level) Name() string {
	if !l.Valid() {
		return "unknown"
	}
	return levelNames[l]
}

func (l Level) String() string {
	return l.Tag() + " (" + l.Name() + ")"
}

// ParseLevel accepts either the tag ("L2") or the name ("tested").
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	for i, name := range levelNames {
		lvl := Level(i)
		if strings.EqualFold(s, lvl.Tag()) || strings.EqualFold(s, name) {
			return lvl, nil
		}
	}
	return L0, fmt.Errorf("%w: %q", core.ErrUnknownLevel, s)
}

func (l Level) MarshalJSON() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", core.ErrUnknownLevel, int(l))
	}
	return json.Marshal(l.Tag())
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Gauge names the invariance under which two artifacts are judged equal.
type Gauge string

const (
	GaugeExact              Gauge = "exact"
	GaugePhaseInvariant     Gauge = "phase_invariant"
	GaugeConjugateInvariant Gauge = "conjugate_invariant"
)

// ParseGauge validates a gauge name.
func ParseGauge(s string) (Gauge, error) {
	switch g := Gauge(strings.ToLower(strings.TrimSpace(s))); g {
	case GaugeExact, GaugePhaseInvariant, GaugeConjugateInvariant:
		return g, nil
	}
	return "", fmt.Errorf("unknown gauge %q", s)
}

// Attempt is one entry in a target's verification history. The JSON field
// names are consumed by audit tooling and must not change.
type Attempt struct {
	Level      Level          `json:"level"`
	Challenger string         `json:"challenger"`
	Passed     bool           `json:"passed"`
	Details    string         `json:"details"`
	Timestamp  core.Timestamp `json:"timestamp"`
}

// Record is the exported view of one target.
type Record struct {
	History      []Attempt `json:"history"`
	CurrentLevel Level     `json:"current_level"`
}

// Conclusion is the verdict of an adversarial session.
type Conclusion string

const (
	ConclusionPass Conclusion = "PASS"
	ConclusionFail Conclusion = "FAIL"
)

// DistanceSummary describes the distances carried by near-miss findings.
type DistanceSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	P95    float64 `json:"p95"`
}

// Summary is the end-of-session report of an adversarial session.
type Summary struct {
	SessionID   core.SessionID   `json:"session_id,omitempty"`
	Attempts    int              `json:"attempts"`
	Failures    int              `json:"failures"`
	NearMisses  int              `json:"near_misses"`
	SuccessRate float64          `json:"success_rate"`
	Conclusion  Conclusion       `json:"conclusion"`
	NearMiss    *DistanceSummary `json:"near_miss_distances,omitempty"`
}

// NewSummary derives the rate and conclusion from the three counters.
func NewSummary(attempts, failures, nearMisses int) Summary {
	conclusion := ConclusionPass
	if failures > 0 {
		conclusion = ConclusionFail
	}
	return Summary{
		Attempts:    attempts,
		Failures:    failures,
		NearMisses:  nearMisses,
		SuccessRate: float64(attempts-failures) / float64(max(1, attempts)),
		Conclusion:  conclusion,
	}
}

// String renders the summary in one line for logs and ledger details.
func (s Summary) String() string {
	return fmt.Sprintf("attempts=%d failures=%d near_misses=%d success_rate=%.4f conclusion=%s",
		s.Attempts, s.Failures, s.NearMisses, s.SuccessRate, s.Conclusion)
}
