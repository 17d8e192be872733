package leaderboard

import (
	"fmt"
	"log/slog"
	"time"

	"gitaura/internal/database"
	"gitaura/internal/metrics"
)

// Aggregator persists per-scope aggregate rows and recomputes dense ranks.
// Upserts never assign ranks themselves; ranking is a separate full-scope
// pass so a single-user write stays O(1).
type Aggregator struct {
	db     *database.DB
	logger *slog.Logger
}

// NewAggregator creates a new leaderboard aggregator
func NewAggregator(db *database.DB) *Aggregator {
	return &Aggregator{
		db:     db,
		logger: slog.Default(),
	}
}

// UpsertMonthly writes or updates a user's aggregate row for one month.
// New rows carry the unranked sentinel until the next ranking pass.
func (a *Aggregator) UpsertMonthly(userID, monthYear string, totalAura, contributionsCount int) error {
	if totalAura < 0 {
		return fmt.Errorf("total aura must be non-negative, got %d", totalAura)
	}
	return a.db.UpsertMonthlyEntry(userID, monthYear, totalAura, contributionsCount)
}

// UpsertGlobal writes or updates a user's all-time aggregate row
func (a *Aggregator) UpsertGlobal(userID string, totalAura, yearlyAura int) error {
	if totalAura < 0 {
		return fmt.Errorf("total aura must be non-negative, got %d", totalAura)
	}
	return a.db.UpsertGlobalEntry(userID, totalAura, yearlyAura)
}

// RecomputeMonthlyRanks loads every entry for one month, sorts by total aura
// descending and writes dense ranks 1..N back in a single transaction.
// Ties are broken by contribution count, then user id, so repeated passes
// over unchanged data assign identical ranks.
func (a *Aggregator) RecomputeMonthlyRanks(monthYear string) (int, error) {
	start := time.Now()

	entries, err := a.db.ListMonthlyEntries(monthYear, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to load monthly entries for ranking: %w", err)
	}

	if len(entries) == 0 {
		return 0, nil
	}

	ranks := make(map[string]int, len(entries))
	for i, e := range entries {
		ranks[e.UserID] = i + 1
	}

	if err := a.db.SetMonthlyRanks(monthYear, ranks); err != nil {
		return 0, fmt.Errorf("failed to write monthly ranks: %w", err)
	}

	metrics.RankRecomputeDuration.WithLabelValues(metrics.ScopeMonthly).Observe(time.Since(start).Seconds())
	metrics.RankedEntries.WithLabelValues(metrics.ScopeMonthly).Set(float64(len(entries)))

	a.logger.Info("Recomputed monthly ranks",
		"month_year", monthYear,
		"entries", len(entries),
		"duration_ms", time.Since(start).Milliseconds())

	return len(entries), nil
}

// RecomputeGlobalRanks is the all-time counterpart of RecomputeMonthlyRanks
func (a *Aggregator) RecomputeGlobalRanks() (int, error) {
	start := time.Now()

	entries, err := a.db.ListGlobalEntries(0)
	if err != nil {
		return 0, fmt.Errorf("failed to load global entries for ranking: %w", err)
	}

	if len(entries) == 0 {
		return 0, nil
	}

	ranks := make(map[string]int, len(entries))
	for i, e := range entries {
		ranks[e.UserID] = i + 1
	}

	if err := a.db.SetGlobalRanks(ranks); err != nil {
		return 0, fmt.Errorf("failed to write global ranks: %w", err)
	}

	metrics.RankRecomputeDuration.WithLabelValues(metrics.ScopeGlobal).Observe(time.Since(start).Seconds())
	metrics.RankedEntries.WithLabelValues(metrics.ScopeGlobal).Set(float64(len(entries)))

	a.logger.Info("Recomputed global ranks",
		"entries", len(entries),
		"duration_ms", time.Since(start).Milliseconds())

	return len(entries), nil
}
