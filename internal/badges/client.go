package badges

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Notifier triggers downstream badge awarding. It is invoked once per
// winner-capture run, not once per winner.
type Notifier interface {
	Notify(ctx context.Context) error
}

// Client is an HTTP badge-award notifier
type Client struct {
	httpClient *http.Client
	awardURL   string
	logger     *slog.Logger
}

// NewClient creates a badge notifier that POSTs to awardURL
func NewClient(awardURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		awardURL:   awardURL,
		logger:     slog.Default(),
	}
}

// Notify fires the one-shot badge award call. Best effort: the caller does
// not roll anything back on failure.
func (c *Client) Notify(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.awardURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create badge award request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("badge award request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Info("badge_award_request",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("badge award failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// NoopNotifier is used when no badge award endpoint is configured
type NoopNotifier struct{}

// Notify reports success without doing anything
func (NoopNotifier) Notify(ctx context.Context) error {
	return nil
}
