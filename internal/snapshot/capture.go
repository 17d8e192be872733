package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"gitaura/internal/badges"
	"gitaura/internal/database"
	"gitaura/internal/metrics"
)

// winnerLimit is the size of the winning cohort per month
const winnerLimit = 3

// Capture freezes a closed month's top performers into immutable winner
// records. The caller decides which period is closed; Capture never looks at
// the clock.
type Capture struct {
	db       *database.DB
	notifier badges.Notifier
	logger   *slog.Logger
}

// NewCapture creates a snapshot capture component
func NewCapture(db *database.DB, notifier badges.Notifier) *Capture {
	return &Capture{
		db:       db,
		notifier: notifier,
		logger:   slog.Default(),
	}
}

// Winner is one captured winner in a capture result
type Winner struct {
	UserID             string `json:"user_id"`
	Rank               int    `json:"rank"`
	TotalAura          int    `json:"total_aura"`
	ContributionsCount int    `json:"contributions_count"`
}

// Result summarizes one capture run
type Result struct {
	MonthYear     string   `json:"month_year"`
	Winners       []Winner `json:"winners"`
	Saved         int      `json:"saved"`
	Skipped       int      `json:"skipped"`
	Failed        int      `json:"failed"`
	BadgesAwarded bool     `json:"badges_awarded"`
}

// CaptureWinners selects the top qualifying users of a closed month and
// idempotently persists them as winners. Pre-existing winner rows are
// skipped, a failure saving one winner does not stop the others, and the
// badge notification is attempted once for the whole batch — covering
// rows an earlier run created but could not get badged.
func (c *Capture) CaptureWinners(ctx context.Context, monthYear string) (*Result, error) {
	top, err := c.db.ListTopMonthlyEntries(monthYear, winnerLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard for %s: %w", monthYear, err)
	}

	result := &Result{MonthYear: monthYear}

	if len(top) == 0 {
		c.logger.Info("No qualifying entries for winner capture", "month_year", monthYear)
		return result, nil
	}

	// Winner rows still waiting on a badge: created this invocation, or
	// left behind by an earlier run whose notification failed.
	var pendingBadge []string

	for i, entry := range top {
		rank := i + 1

		existing, err := c.db.GetMonthlyWinner(entry.UserID, monthYear)
		if err != nil {
			c.logger.Error("Failed to check existing winner",
				"user_id", entry.UserID, "month_year", monthYear, "error", err)
			result.Failed++
			continue
		}
		if existing != nil {
			c.logger.Info("Winner already captured, skipping",
				"user_id", entry.UserID, "month_year", monthYear, "rank", existing.Rank)
			result.Skipped++
			if !existing.BadgeAwarded {
				pendingBadge = append(pendingBadge, existing.UserID)
			}
			continue
		}

		winner := &database.MonthlyWinner{
			UserID:             entry.UserID,
			MonthYear:          monthYear,
			Rank:               rank,
			TotalAura:          entry.TotalAura,
			ContributionsCount: entry.ContributionsCount,
		}
		if err := c.db.CreateMonthlyWinner(winner); err != nil {
			c.logger.Error("Failed to save winner",
				"user_id", entry.UserID, "month_year", monthYear, "rank", rank, "error", err)
			result.Failed++
			continue
		}

		saved := Winner{
			UserID:             entry.UserID,
			Rank:               rank,
			TotalAura:          entry.TotalAura,
			ContributionsCount: entry.ContributionsCount,
		}
		pendingBadge = append(pendingBadge, entry.UserID)
		result.Winners = append(result.Winners, saved)
		result.Saved++
		metrics.WinnersSavedTotal.Inc()

		c.logger.Info("Saved monthly winner",
			"user_id", entry.UserID, "month_year", monthYear, "rank", rank,
			"total_aura", entry.TotalAura)
	}

	if len(pendingBadge) > 0 {
		if err := c.notifier.Notify(ctx); err != nil {
			// Rows stay with badge_awarded=false; the next run sees them
			// as pending and retries without creating duplicates.
			c.logger.Error("Badge award notification failed", "month_year", monthYear, "error", err)
			metrics.BadgeNotificationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		} else {
			metrics.BadgeNotificationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
			for _, userID := range pendingBadge {
				if err := c.db.MarkBadgeAwarded(userID, monthYear); err != nil {
					c.logger.Error("Failed to mark badge awarded",
						"user_id", userID, "month_year", monthYear, "error", err)
					continue
				}
			}
			result.BadgesAwarded = true
			c.logger.Info("Badges awarded", "month_year", monthYear, "winners", len(pendingBadge))
		}
	}

	return result, nil
}
