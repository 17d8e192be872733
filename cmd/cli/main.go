package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"

	"gitaura/internal/aura"
	"gitaura/internal/badges"
	"gitaura/internal/config"
	"gitaura/internal/database"
	"gitaura/internal/github"
	"gitaura/internal/leaderboard"
	"gitaura/internal/refresh"
	"gitaura/internal/snapshot"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	bold   = color.New(color.Bold)
)

func main() {
	// Disable structured logging for CLI
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors
	})))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	if command == "help" {
		printUsage()
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		red.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Open database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		red.Fprintf(os.Stderr, "Error: Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	githubClient := github.NewClient(cfg.GitHubToken, slog.Default())
	aggregator := leaderboard.NewAggregator(db)
	orchestrator := refresh.NewOrchestrator(db, githubClient, aggregator)

	var notifier badges.Notifier = badges.NoopNotifier{}
	if cfg.BadgeAwardURL != "" {
		notifier = badges.NewClient(cfg.BadgeAwardURL)
	}
	capture := snapshot.NewCapture(db, notifier)

	ctx := context.Background()

	switch command {
	case "refresh-all":
		handleRefreshAll(ctx, orchestrator, cfg)
	case "refresh-user":
		handleRefreshUser(ctx, orchestrator)
	case "ranks":
		handleRanks(aggregator)
	case "capture-winners":
		handleCaptureWinners(ctx, capture)
	default:
		red.Fprintf(os.Stderr, "Error: Unknown command '%s'\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleRefreshAll(ctx context.Context, orchestrator *refresh.Orchestrator, cfg *config.Config) {
	bold.Printf("Refreshing all users (batch size %d)...\n", cfg.RefreshBatchSize)

	start := time.Now()
	summary, err := orchestrator.RefreshAll(ctx, cfg.RefreshBatchSize, cfg.RefreshInterBatchDelay, cfg.RefreshInterRequestDelay)
	if err != nil {
		red.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	bold.Println("=== Refresh Summary ===")
	fmt.Printf("Total users: %d\n", summary.Total)
	green.Printf("Successful: %d\n", summary.Successful)
	if summary.Failed > 0 {
		red.Printf("Failed: %d\n", summary.Failed)
	} else {
		fmt.Printf("Failed: %d\n", summary.Failed)
	}
	fmt.Printf("Success rate: %.2f%%\n", summary.SuccessRate)
	fmt.Printf("Took: %s\n", time.Since(start).Round(time.Second))
}

func handleRefreshUser(ctx context.Context, orchestrator *refresh.Orchestrator) {
	if len(os.Args) < 3 {
		red.Fprintln(os.Stderr, "Error: refresh-user requires a username")
		os.Exit(1)
	}
	username := os.Args[2]

	fmt.Printf("Refreshing user %s...\n", username)

	if err := orchestrator.RefreshUser(ctx, username); err != nil {
		red.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	green.Printf("✓ Refreshed %s\n", username)
}

func handleRanks(aggregator *leaderboard.Aggregator) {
	monthYear := aura.PeriodKey(time.Now().UTC())
	if len(os.Args) >= 3 {
		monthYear = os.Args[2]
		if _, err := aura.ParsePeriodKey(monthYear); err != nil {
			red.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Recomputing ranks for %s and the global scope...\n", monthYear)

	monthly, err := aggregator.RecomputeMonthlyRanks(monthYear)
	if err != nil {
		red.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	global, err := aggregator.RecomputeGlobalRanks()
	if err != nil {
		red.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	green.Printf("✓ Ranked %d monthly entries and %d global entries\n", monthly, global)
}

func handleCaptureWinners(ctx context.Context, capture *snapshot.Capture) {
	monthYear := aura.PreviousPeriodKey(time.Now().UTC())
	if len(os.Args) >= 3 {
		monthYear = os.Args[2]
		if _, err := aura.ParsePeriodKey(monthYear); err != nil {
			red.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Capturing winners for %s...\n", monthYear)

	result, err := capture.CaptureWinners(ctx, monthYear)
	if err != nil {
		red.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(result.Winners) == 0 && result.Skipped == 0 {
		yellow.Printf("No qualifying entries for %s\n", monthYear)
		return
	}

	for _, w := range result.Winners {
		fmt.Printf("  #%d %s (aura %d, contributions %d)\n", w.Rank, w.UserID, w.TotalAura, w.ContributionsCount)
	}
	green.Printf("✓ Saved %d winner(s), skipped %d already captured, %d failed\n",
		result.Saved, result.Skipped, result.Failed)
	if result.Saved > 0 && !result.BadgesAwarded {
		yellow.Println("Badge notification did not succeed; a later capture run will retry")
	}
}

func printUsage() {
	fmt.Println("Usage: cli <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  refresh-all               Refresh every eligible user's aura")
	fmt.Println("  refresh-user <username>   Refresh one user by GitHub username")
	fmt.Println("  ranks [YYYY-MM]           Recompute leaderboard ranks (default: current month)")
	fmt.Println("  capture-winners [YYYY-MM] Capture a closed month's winners (default: previous month)")
	fmt.Println("  help                      Show this help")
}
