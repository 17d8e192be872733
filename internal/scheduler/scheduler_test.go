package scheduler

import (
	"context"
	"testing"
	"time"

	"gitaura/internal/aura"
	"gitaura/internal/badges"
	"gitaura/internal/database"
	"gitaura/internal/github"
	"gitaura/internal/leaderboard"
	"gitaura/internal/refresh"
	"gitaura/internal/snapshot"
)

type staticSource struct{}

func (staticSource) FetchContributions(ctx context.Context, username string) (*github.Contributions, error) {
	return &github.Contributions{TotalContributions: 5}, nil
}

func setupTest(t *testing.T) (*database.DB, *Scheduler) {
	t.Helper()

	db, err := database.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	agg := leaderboard.NewAggregator(db)
	orch := refresh.NewOrchestrator(db, staticSource{}, agg)
	capture := snapshot.NewCapture(db, badges.NoopNotifier{})

	s := New(orch, agg, capture, Config{RunAtHourUTC: 2, BatchSize: 10})
	s.settleDelay = 0
	return db, s
}

func TestNextRun(t *testing.T) {
	_, s := setupTest(t)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"before the hour runs today",
			time.Date(2025, time.March, 10, 1, 30, 0, 0, time.UTC),
			time.Date(2025, time.March, 10, 2, 0, 0, 0, time.UTC),
		},
		{
			"after the hour runs tomorrow",
			time.Date(2025, time.March, 10, 3, 0, 0, 0, time.UTC),
			time.Date(2025, time.March, 11, 2, 0, 0, 0, time.UTC),
		},
		{
			"exactly on the hour runs tomorrow",
			time.Date(2025, time.March, 10, 2, 0, 0, 0, time.UTC),
			time.Date(2025, time.March, 11, 2, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.now = func() time.Time { return tt.now }
			if got := s.nextRun(); !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRunDailyTasksRanksEntries(t *testing.T) {
	db, s := setupTest(t)

	// The refresh path stamps entries with the wall-clock month, so pin
	// the scheduler to a mid-month day of that same month: refresh and
	// rank run, winner capture does not.
	now := time.Now().UTC()
	currentMonth := aura.PeriodKey(now)
	s.now = func() time.Time {
		return time.Date(now.Year(), now.Month(), 15, 2, 0, 0, 0, time.UTC)
	}

	if err := db.CreateUser(&database.User{ID: "user-1", GithubUsername: "octocat"}); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	s.RunDailyTasks(context.Background())

	entry, err := db.GetMonthlyEntry("user-1", currentMonth)
	if err != nil {
		t.Fatalf("Failed to get monthly entry: %v", err)
	}
	if entry == nil {
		t.Fatal("Expected monthly entry after daily tasks")
	}
	if entry.Rank != 1 {
		t.Errorf("Expected rank 1 after ranking pass, got %d", entry.Rank)
	}

	global, err := db.GetGlobalEntry("user-1")
	if err != nil {
		t.Fatalf("Failed to get global entry: %v", err)
	}
	if global == nil || global.Rank != 1 {
		t.Errorf("Expected global rank 1, got %+v", global)
	}

	winners, err := db.ListMonthlyWinners(aura.PreviousPeriodKey(now))
	if err != nil {
		t.Fatalf("Failed to list winners: %v", err)
	}
	if len(winners) != 0 {
		t.Errorf("Expected no winner capture mid-month, got %d", len(winners))
	}
}

func TestRunDailyTasksCapturesOnFirstOfMonth(t *testing.T) {
	db, s := setupTest(t)

	now := time.Now().UTC()
	previousMonth := aura.PreviousPeriodKey(now)
	s.now = func() time.Time {
		return time.Date(now.Year(), now.Month(), 1, 2, 0, 0, 0, time.UTC)
	}

	if err := db.CreateUser(&database.User{ID: "user-1", GithubUsername: "octocat"}); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	// Activity in the month that just closed, to be frozen
	if err := db.UpsertMonthlyEntry("user-1", previousMonth, 400, 18); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	s.RunDailyTasks(context.Background())

	winners, err := db.ListMonthlyWinners(previousMonth)
	if err != nil {
		t.Fatalf("Failed to list winners: %v", err)
	}
	if len(winners) != 1 {
		t.Fatalf("Expected winner captured on the first of the month, got %d", len(winners))
	}
	if winners[0].TotalAura != 400 {
		t.Errorf("Expected frozen aura 400, got %d", winners[0].TotalAura)
	}
}
