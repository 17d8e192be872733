package github

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter tracks GitHub API rate limits as reported by response headers
type RateLimiter struct {
	mu          sync.RWMutex
	limit       int
	remaining   int
	resetAt     time.Time
	lastUpdated time.Time
}

// RateLimitStatus represents the current rate limit status
type RateLimitStatus struct {
	Limit       int
	Remaining   int
	UsagePct    float64
	ResetAt     time.Time
	LastUpdated time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		// Default GitHub GraphQL limit
		limit:     5000,
		remaining: 5000,
	}
}

// Update records the rate limit information from the latest response
func (rl *RateLimiter) Update(limit, remaining int, resetAt time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.limit = limit
	rl.remaining = remaining
	rl.resetAt = resetAt
	rl.lastUpdated = time.Now()
}

// Status returns the current rate limit status
func (rl *RateLimiter) Status() RateLimitStatus {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	usagePct := 0.0
	if rl.limit > 0 {
		usagePct = float64(rl.limit-rl.remaining) / float64(rl.limit) * 100
	}

	return RateLimitStatus{
		Limit:       rl.limit,
		Remaining:   rl.remaining,
		UsagePct:    usagePct,
		ResetAt:     rl.resetAt,
		LastUpdated: rl.lastUpdated,
	}
}

// IsNearLimit returns true if usage has reached the given percentage
func (rl *RateLimiter) IsNearLimit(threshold float64) bool {
	return rl.Status().UsagePct >= threshold
}

// parseRateLimitHeaders extracts rate limit information from response headers
func (c *Client) parseRateLimitHeaders(headers http.Header) {
	limitHeader := headers.Get("X-RateLimit-Limit")
	remainingHeader := headers.Get("X-RateLimit-Remaining")
	resetHeader := headers.Get("X-RateLimit-Reset")

	if limitHeader == "" || remainingHeader == "" {
		return
	}

	limit, err := strconv.Atoi(limitHeader)
	if err != nil {
		return
	}
	remaining, err := strconv.Atoi(remainingHeader)
	if err != nil {
		return
	}

	var resetAt time.Time
	if resetUnix, err := strconv.ParseInt(resetHeader, 10, 64); err == nil {
		resetAt = time.Unix(resetUnix, 0)
	}

	c.rateLimiter.Update(limit, remaining, resetAt)

	c.logger.Debug("rate_limit",
		"limit", limit,
		"remaining", remaining,
		"reset_at", resetAt,
	)
}
