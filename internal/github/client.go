package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultGraphQLURL = "https://api.github.com/graphql"

// Client is a GitHub GraphQL API client for contribution data
type Client struct {
	httpClient  *http.Client
	graphqlURL  string
	token       string
	logger      *slog.Logger
	rateLimiter *RateLimiter
}

// NewClient creates a new GitHub API client
func NewClient(token string, logger *slog.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		graphqlURL:  defaultGraphQLURL,
		token:       token,
		logger:      logger,
		rateLimiter: NewRateLimiter(),
	}
}

// HTTPError represents a non-success response from the GitHub API
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("github api error (status %d): %s", e.StatusCode, e.Body)
}

// ErrUserNotFound indicates the requested username does not resolve to a
// GitHub user
var ErrUserNotFound = fmt.Errorf("github user not found")

// IsNotFound reports whether err means the user does not exist. Not-found
// failures are permanent and should not be retried.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusNotFound
	}
	return errors.Is(err, ErrUserNotFound) || strings.Contains(err.Error(), ErrUserNotFound.Error())
}

// IsRateLimited reports whether err means the API rate limit was exceeded
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusForbidden || httpErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// doGraphQL posts a GraphQL query and decodes the envelope. GraphQL-level
// errors are surfaced alongside the data payload; the caller decides whether
// they are fatal.
func (c *Client) doGraphQL(ctx context.Context, query string, variables map[string]any, out any) ([]graphqlError, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", "gitaura")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("github request failed", "error", err, "duration_ms", duration.Milliseconds())
		return nil, fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	c.parseRateLimitHeaders(resp.Header)

	c.logger.Debug("github_api_request", "status", resp.StatusCode, "duration_ms", duration.Milliseconds())

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(envelope.Data) > 0 && out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data: %w", err)
		}
	}

	return envelope.Errors, nil
}

// RateLimitStatus exposes the current rate limit status
func (c *Client) RateLimitStatus() RateLimitStatus {
	return c.rateLimiter.Status()
}
