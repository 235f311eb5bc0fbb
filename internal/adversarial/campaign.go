package adversarial

import (
	"context"
	"fmt"

	"equivproof/domain/verdict"
	"equivproof/internal"
	"equivproof/internal/errors"

	"golang.org/x/sync/errgroup"
)

// WorkerFunc drives one worker's session. It must only touch its own session.
type WorkerFunc func(ctx context.Context, worker int, session *Session) error

// Campaign fans a driver out over several independent sessions. Worker i is
// seeded with Seed+i, so a campaign is reproducible for fixed Seed and Workers.
type Campaign struct {
	Seed         uint64
	Workers      int
	StrictShapes bool
	Logger       *internal.Logger
}

// CampaignReport holds each worker's summary and their sum.
type CampaignReport struct {
	Workers []verdict.Summary `json:"workers"`
	Total   verdict.Summary   `json:"total"`
}

// Run executes fn once per worker in parallel and merges the reports. The
// first worker error cancels the others; reports from all sessions are still
// merged so partial progress is visible.
func (c Campaign) Run(ctx context.Context, fn WorkerFunc) (CampaignReport, error) {
	if c.Workers < 1 {
		return CampaignReport{}, errors.InvalidInput(fmt.Sprintf("campaign needs at least one worker, got %d", c.Workers))
	}
	logger := c.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	logger = logger.With("Campaign")

	sessions := make([]*Session, c.Workers)
	for i := range sessions {
		sessions[i] = NewSession(SessionOptions{
			Seed:         c.Seed + uint64(i),
			StrictShapes: c.StrictShapes,
			Logger:       logger,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, session := range sessions {
		g.Go(func() error {
			if err := fn(gctx, i, session); err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			return nil
		})
	}
	err := g.Wait()

	report := mergeReports(sessions)
	logger.Info("%d workers finished: %s", c.Workers, report.Total)
	return report, err
}

func mergeReports(sessions []*Session) CampaignReport {
	report := CampaignReport{Workers: make([]verdict.Summary, len(sessions))}
	var attempts, failures, nearMisses int
	var findings []Finding
	for i, s := range sessions {
		report.Workers[i] = s.Report()
		attempts += s.attempts
		failures += s.failures
		nearMisses += s.nearMisses
		findings = append(findings, s.findings...)
	}
	report.Total = verdict.NewSummary(attempts, failures, nearMisses)
	report.Total.NearMiss = summarizeDistances(findings)
	return report
}
