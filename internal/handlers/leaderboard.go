package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gitaura/internal/aura"
	"gitaura/internal/database"
)

// LeaderboardHandler serves read access to the ranked leaderboards and the
// captured winners. Ranks are assigned by a batch pass, so readers may see
// the unranked sentinel on freshly written rows.
type LeaderboardHandler struct {
	db     *database.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(db *database.DB) *LeaderboardHandler {
	return &LeaderboardHandler{
		db:     db,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// HandleLeaderboard handles GET /leaderboard
// Query parameters:
//   - scope: "monthly" (default) or "global"
//   - month: "YYYY-MM", monthly scope only (default: current month)
//   - limit: maximum entries (default: 100, max: 1000)
func (h *LeaderboardHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	limit := 100
	if limitStr := query.Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		if limit < 1 || limit > 1000 {
			http.Error(w, "Limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
	}

	scope := query.Get("scope")
	if scope == "" {
		scope = "monthly"
	}

	switch scope {
	case "monthly":
		monthYear := query.Get("month")
		if monthYear == "" {
			monthYear = aura.PeriodKey(h.now().UTC())
		} else if _, err := aura.ParsePeriodKey(monthYear); err != nil {
			http.Error(w, "Invalid month parameter", http.StatusBadRequest)
			return
		}

		entries, err := h.db.ListMonthlyEntries(monthYear, limit)
		if err != nil {
			h.logger.Error("Failed to list monthly leaderboard", "month_year", monthYear, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []*database.MonthlyEntry{}
		}

		writeJSON(w, h.logger, map[string]any{
			"scope":      scope,
			"month_year": monthYear,
			"entries":    entries,
		})

	case "global":
		entries, err := h.db.ListGlobalEntries(limit)
		if err != nil {
			h.logger.Error("Failed to list global leaderboard", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []*database.GlobalEntry{}
		}

		writeJSON(w, h.logger, map[string]any{
			"scope":   scope,
			"entries": entries,
		})

	default:
		http.Error(w, "Scope must be 'monthly' or 'global'", http.StatusBadRequest)
	}
}

// HandleWinners handles GET /winners?month=YYYY-MM (default: previous month)
func (h *LeaderboardHandler) HandleWinners(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	monthYear := r.URL.Query().Get("month")
	if monthYear == "" {
		monthYear = aura.PreviousPeriodKey(h.now().UTC())
	} else if _, err := aura.ParsePeriodKey(monthYear); err != nil {
		http.Error(w, "Invalid month parameter", http.StatusBadRequest)
		return
	}

	winners, err := h.db.ListMonthlyWinners(monthYear)
	if err != nil {
		h.logger.Error("Failed to list winners", "month_year", monthYear, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if winners == nil {
		winners = []*database.MonthlyWinner{}
	}

	writeJSON(w, h.logger, map[string]any{
		"month_year": monthYear,
		"winners":    winners,
	})
}
