package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Refresh results
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"

	// Leaderboard scopes
	ScopeMonthly = "monthly"
	ScopeGlobal  = "global"

	// HTTP endpoints
	EndpointRefreshUser    = "refresh_user"
	EndpointRefreshAll     = "refresh_all"
	EndpointCaptureWinners = "capture_winners"
	EndpointLeaderboard    = "leaderboard"
	EndpointWinners        = "winners"
	EndpointHealth         = "health"

	// GitHub API operations
	OpFetchContributions = "fetch_contributions"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)
)

// Refresh Metrics
var (
	RefreshRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_runs_total",
			Help: "Total number of bulk refresh runs started",
		},
	)

	RefreshUsersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_users_total",
			Help: "Total number of per-user refresh attempts by result",
		},
		[]string{"result"},
	)

	RefreshRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refresh_run_duration_seconds",
			Help:    "Duration of bulk refresh runs",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 600, 1800, 3600, 7200},
		},
	)

	RefreshActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "refresh_active",
			Help: "Whether a bulk refresh run is currently active (1) or not (0)",
		},
	)
)

// GitHub API Metrics
var (
	GitHubAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "github_api_requests_total",
			Help: "Total number of GitHub API requests",
		},
		[]string{"operation", "result"},
	)

	GitHubRateLimitRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "github_rate_limit_remaining",
			Help: "Remaining GitHub API rate limit budget",
		},
	)
)

// Leaderboard Metrics
var (
	RankRecomputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rank_recompute_duration_seconds",
			Help:    "Duration of full-scope rank recomputation passes",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"scope"},
	)

	RankedEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ranked_entries",
			Help: "Number of entries ranked in the last recompute pass",
		},
		[]string{"scope"},
	)
)

// Snapshot Metrics
var (
	WinnersSavedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "winners_saved_total",
			Help: "Total number of monthly winner rows created",
		},
	)

	BadgeNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_notifications_total",
			Help: "Total number of badge award notification attempts by result",
		},
		[]string{"result"},
	)
)
