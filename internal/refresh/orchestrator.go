package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gitaura/internal/aura"
	"gitaura/internal/database"
	"gitaura/internal/github"
	"gitaura/internal/leaderboard"
	"gitaura/internal/metrics"
)

// ContributionSource supplies a user's contribution calendar and profile
// counts. Satisfied by *github.Client.
type ContributionSource interface {
	FetchContributions(ctx context.Context, username string) (*github.Contributions, error)
}

// Orchestrator drives score recomputation, per user and in bulk. Bulk runs
// pace their external calls to stay inside the API's rate limits.
type Orchestrator struct {
	db     *database.DB
	source ContributionSource
	agg    *leaderboard.Aggregator
	logger *slog.Logger
	now    func() time.Time
}

// NewOrchestrator creates a refresh orchestrator
func NewOrchestrator(db *database.DB, source ContributionSource, agg *leaderboard.Aggregator) *Orchestrator {
	return &Orchestrator{
		db:     db,
		source: source,
		agg:    agg,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// Summary reports the outcome of a bulk refresh run
type Summary struct {
	Total       int     `json:"total"`
	Successful  int     `json:"successful"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// RefreshAll recomputes every eligible user's score in fixed-size batches,
// strictly one user at a time. After each user it waits interRequestDelay;
// after each full batch except the last it waits interBatchDelay. A failed
// user is counted and skipped, never retried within the run.
func (o *Orchestrator) RefreshAll(ctx context.Context, batchSize int, interBatchDelay, interRequestDelay time.Duration) (*Summary, error) {
	if batchSize < 1 {
		batchSize = 1
	}

	users, err := o.db.ListEligibleUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible users: %w", err)
	}

	metrics.RefreshRunsTotal.Inc()
	metrics.RefreshActive.Set(1)
	defer metrics.RefreshActive.Set(0)

	start := o.now()
	o.logger.Info("Starting bulk refresh",
		"total_users", len(users),
		"batch_size", batchSize,
		"inter_batch_delay", interBatchDelay,
		"inter_request_delay", interRequestDelay)

	summary := &Summary{Total: len(users)}

	for i := 0; i < len(users); i += batchSize {
		end := i + batchSize
		if end > len(users) {
			end = len(users)
		}
		batch := users[i:end]
		batchNumber := i/batchSize + 1

		o.logger.Info("Processing batch", "batch", batchNumber, "size", len(batch))

		for _, user := range batch {
			if err := ctx.Err(); err != nil {
				return summary, fmt.Errorf("refresh cancelled: %w", err)
			}

			if err := o.refreshUser(ctx, user); err != nil {
				o.logger.Error("Failed to refresh user",
					"username", user.GithubUsername, "error", err)
				summary.Failed++
				metrics.RefreshUsersTotal.WithLabelValues(metrics.ResultFailure).Inc()
			} else {
				summary.Successful++
				metrics.RefreshUsersTotal.WithLabelValues(metrics.ResultSuccess).Inc()
			}

			if err := wait(ctx, interRequestDelay); err != nil {
				return summary, fmt.Errorf("refresh cancelled: %w", err)
			}
		}

		if end < len(users) {
			if err := wait(ctx, interBatchDelay); err != nil {
				return summary, fmt.Errorf("refresh cancelled: %w", err)
			}
		}
	}

	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Successful) / float64(summary.Total) * 100
	}

	metrics.RefreshRunDuration.Observe(o.now().Sub(start).Seconds())

	o.logger.Info("Bulk refresh completed",
		"total", summary.Total,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"success_rate_pct", summary.SuccessRate,
		"duration_ms", o.now().Sub(start).Milliseconds())

	return summary, nil
}

// RefreshUser recomputes one user's score by username, creating the user
// record on first sight
func (o *Orchestrator) RefreshUser(ctx context.Context, username string) error {
	user, err := o.db.GetUserByUsername(username)
	if err != nil {
		return err
	}
	if user == nil {
		user = &database.User{
			ID:             uuid.NewString(),
			GithubUsername: username,
		}
		if err := o.db.CreateUser(user); err != nil {
			return err
		}
		o.logger.Info("Created user", "username", username, "user_id", user.ID)
	}

	if user.IsBanned {
		return fmt.Errorf("user %s is banned", username)
	}

	return o.refreshUser(ctx, user)
}

// refreshUser is the shared fetch-score-upsert path. If the fetch fails the
// user's aggregate rows are left untouched, never zeroed.
func (o *Orchestrator) refreshUser(ctx context.Context, user *database.User) error {
	contributions, err := o.source.FetchContributions(ctx, user.GithubUsername)
	if err != nil {
		metrics.GitHubAPIRequestsTotal.WithLabelValues(metrics.OpFetchContributions, metrics.ResultFailure).Inc()
		switch {
		case github.IsNotFound(err):
			return fmt.Errorf("user not found upstream: %w", err)
		case github.IsRateLimited(err):
			return fmt.Errorf("rate limited: %w", err)
		default:
			return fmt.Errorf("fetch failed: %w", err)
		}
	}
	metrics.GitHubAPIRequestsTotal.WithLabelValues(metrics.OpFetchContributions, metrics.ResultSuccess).Inc()

	now := o.now().UTC()
	monthYear := aura.PeriodKey(now)

	monthly, err := aura.MonthlyScore(contributions.ContributionDays, monthYear)
	if err != nil {
		return fmt.Errorf("failed to score month %s: %w", monthYear, err)
	}

	trailing := aura.FilterTrailingYear(contributions.ContributionDays, now)
	allTime := aura.AllTimeScore(trailing)

	totalAura := aura.AllTimeAura(contributions.TotalContributions)

	if err := o.db.UpdateUserScore(user.ID, totalAura, allTime.Streak); err != nil {
		return fmt.Errorf("failed to update user score: %w", err)
	}

	if err := o.agg.UpsertMonthly(user.ID, monthYear, monthly.TotalAura, monthly.TotalContributions); err != nil {
		return fmt.Errorf("failed to upsert monthly entry: %w", err)
	}

	if err := o.agg.UpsertGlobal(user.ID, totalAura, allTime.TotalAura); err != nil {
		return fmt.Errorf("failed to upsert global entry: %w", err)
	}

	o.logger.Debug("Refreshed user",
		"username", user.GithubUsername,
		"total_aura", totalAura,
		"monthly_aura", monthly.TotalAura,
		"streak", allTime.Streak)

	return nil
}

// wait sleeps for d or until ctx is cancelled
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
