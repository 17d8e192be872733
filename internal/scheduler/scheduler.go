package scheduler

import (
	"context"
	"log/slog"
	"time"

	"gitaura/internal/aura"
	"gitaura/internal/leaderboard"
	"gitaura/internal/refresh"
	"gitaura/internal/snapshot"
)

// Scheduler runs the daily maintenance sequence: bulk refresh, a settle
// pause, rank recomputation for both scopes, and on the first day of a
// month the capture of the previous month's winners.
type Scheduler struct {
	orchestrator *refresh.Orchestrator
	aggregator   *leaderboard.Aggregator
	capture      *snapshot.Capture
	logger       *slog.Logger

	runAtHourUTC      int
	batchSize         int
	interBatchDelay   time.Duration
	interRequestDelay time.Duration
	settleDelay       time.Duration
	now               func() time.Time
}

// Config holds scheduler tunables
type Config struct {
	RunAtHourUTC      int
	BatchSize         int
	InterBatchDelay   time.Duration
	InterRequestDelay time.Duration
}

// New creates a scheduler
func New(orchestrator *refresh.Orchestrator, aggregator *leaderboard.Aggregator, capture *snapshot.Capture, cfg Config) *Scheduler {
	return &Scheduler{
		orchestrator:      orchestrator,
		aggregator:        aggregator,
		capture:           capture,
		logger:            slog.Default(),
		runAtHourUTC:      cfg.RunAtHourUTC,
		batchSize:         cfg.BatchSize,
		interBatchDelay:   cfg.InterBatchDelay,
		interRequestDelay: cfg.InterRequestDelay,
		settleDelay:       30 * time.Second,
		now:               time.Now,
	}
}

// Start blocks running the daily loop until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting scheduler", "run_at_hour_utc", s.runAtHourUTC)

	for {
		next := s.nextRun()
		s.logger.Info("Next scheduled run", "at", next)

		select {
		case <-ctx.Done():
			s.logger.Info("Stopping scheduler")
			return ctx.Err()
		case <-time.After(next.Sub(s.now())):
		}

		s.RunDailyTasks(ctx)
	}
}

// RunDailyTasks executes one full maintenance pass. Individual step
// failures are logged and do not stop later steps.
func (s *Scheduler) RunDailyTasks(ctx context.Context) {
	now := s.now().UTC()
	s.logger.Info("Starting daily tasks")

	summary, err := s.orchestrator.RefreshAll(ctx, s.batchSize, s.interBatchDelay, s.interRequestDelay)
	if err != nil {
		s.logger.Error("Bulk refresh failed", "error", err)
	} else {
		s.logger.Info("Bulk refresh done",
			"total", summary.Total, "successful", summary.Successful, "failed", summary.Failed)
	}

	// Let in-flight on-demand refreshes land before ranking
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.settleDelay):
	}

	if _, err := s.aggregator.RecomputeMonthlyRanks(aura.PeriodKey(now)); err != nil {
		s.logger.Error("Monthly rank recompute failed", "error", err)
	}
	if _, err := s.aggregator.RecomputeGlobalRanks(); err != nil {
		s.logger.Error("Global rank recompute failed", "error", err)
	}

	if now.Day() == 1 {
		previous := aura.PreviousPeriodKey(now)
		result, err := s.capture.CaptureWinners(ctx, previous)
		if err != nil {
			s.logger.Error("Winner capture failed", "month_year", previous, "error", err)
		} else {
			s.logger.Info("Winner capture done",
				"month_year", previous, "saved", result.Saved, "skipped", result.Skipped)
		}
	}

	s.logger.Info("Daily tasks completed")
}

// nextRun returns the next occurrence of the configured hour in UTC
func (s *Scheduler) nextRun() time.Time {
	now := s.now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.runAtHourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
