package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gitaura/internal/aura"
	"gitaura/internal/config"
	"gitaura/internal/github"
	"gitaura/internal/refresh"
	"gitaura/internal/snapshot"
)

// SyncHandler exposes the trigger surface: refresh one user, refresh all
// users, and capture the winners of the month that just ended. Every
// trigger requires the shared cron secret and rejects before doing any work.
type SyncHandler struct {
	orchestrator *refresh.Orchestrator
	capture      *snapshot.Capture
	config       *config.Config
	logger       *slog.Logger
	now          func() time.Time
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(orchestrator *refresh.Orchestrator, capture *snapshot.Capture, cfg *config.Config) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		capture:      capture,
		config:       cfg,
		logger:       slog.Default(),
		now:          time.Now,
	}
}

// authorized verifies the shared secret; on mismatch it writes 401 and
// returns false
func (h *SyncHandler) authorized(w http.ResponseWriter, r *http.Request) bool {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "Bearer "+h.config.CronSecret {
		h.logger.Warn("Unauthorized trigger request", "path", r.URL.Path, "has_auth", authHeader != "")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

type refreshUserRequest struct {
	Username string `json:"username"`
}

// HandleRefreshUser handles POST /refresh-user
func (h *SyncHandler) HandleRefreshUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(w, r) {
		return
	}

	var req refreshUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	h.logger.Info("Refresh user requested", "username", req.Username)

	if err := h.orchestrator.RefreshUser(r.Context(), req.Username); err != nil {
		h.logger.Error("Failed to refresh user", "username", req.Username, "error", err)
		switch {
		case github.IsNotFound(err):
			http.Error(w, "GitHub user not found", http.StatusNotFound)
		case github.IsRateLimited(err):
			http.Error(w, "GitHub rate limit exceeded", http.StatusTooManyRequests)
		default:
			http.Error(w, "Failed to refresh user", http.StatusBadGateway)
		}
		return
	}

	writeJSON(w, h.logger, map[string]any{
		"success":  true,
		"username": req.Username,
	})
}

type refreshAllRequest struct {
	BatchSize           int `json:"batch_size"`
	InterBatchDelayMs   int `json:"inter_batch_delay_ms"`
	InterRequestDelayMs int `json:"inter_request_delay_ms"`
}

// HandleRefreshAll handles POST /refresh-all. The run executes inline and
// the response carries its summary.
func (h *SyncHandler) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(w, r) {
		return
	}

	// Body is optional; an empty body keeps configured defaults
	req := refreshAllRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	batchSize := h.config.RefreshBatchSize
	if req.BatchSize > 0 {
		batchSize = req.BatchSize
	}
	interBatchDelay := h.config.RefreshInterBatchDelay
	if req.InterBatchDelayMs > 0 {
		interBatchDelay = time.Duration(req.InterBatchDelayMs) * time.Millisecond
	}
	interRequestDelay := h.config.RefreshInterRequestDelay
	if req.InterRequestDelayMs > 0 {
		interRequestDelay = time.Duration(req.InterRequestDelayMs) * time.Millisecond
	}

	h.logger.Info("Bulk refresh requested",
		"batch_size", batchSize,
		"inter_batch_delay", interBatchDelay,
		"inter_request_delay", interRequestDelay)

	summary, err := h.orchestrator.RefreshAll(r.Context(), batchSize, interBatchDelay, interRequestDelay)
	if err != nil {
		h.logger.Error("Bulk refresh failed", "error", err)
		http.Error(w, "Bulk refresh failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, map[string]any{
		"success": true,
		"summary": summary,
	})
}

// HandleCaptureWinners handles POST /capture-winners. It captures the month
// that just ended relative to the server clock; winner capture only ever
// operates on closed months.
func (h *SyncHandler) HandleCaptureWinners(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(w, r) {
		return
	}

	monthYear := aura.PreviousPeriodKey(h.now().UTC())
	h.logger.Info("Winner capture requested", "month_year", monthYear)

	result, err := h.capture.CaptureWinners(r.Context(), monthYear)
	if err != nil {
		h.logger.Error("Winner capture failed", "month_year", monthYear, "error", err)
		http.Error(w, "Winner capture failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, map[string]any{
		"success": true,
		"result":  result,
	})
}

// writeJSON encodes a JSON response body
func writeJSON(w http.ResponseWriter, logger *slog.Logger, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
