package database

import "testing"

func TestCreateAndGetMonthlyWinner(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestUser(t, db, "user-1", "octocat")

	w := &MonthlyWinner{
		UserID:             "user-1",
		MonthYear:          "2025-01",
		Rank:               1,
		TotalAura:          500,
		ContributionsCount: 42,
	}
	if err := db.CreateMonthlyWinner(w); err != nil {
		t.Fatalf("Failed to create winner: %v", err)
	}

	retrieved, err := db.GetMonthlyWinner("user-1", "2025-01")
	if err != nil {
		t.Fatalf("Failed to get winner: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Expected winner to be found")
	}
	if retrieved.Rank != 1 || retrieved.TotalAura != 500 {
		t.Errorf("Unexpected winner: %+v", retrieved)
	}
	if retrieved.BadgeAwarded {
		t.Error("Expected badge_awarded to start false")
	}
	if retrieved.CapturedAt == 0 {
		t.Error("Expected captured_at to be stamped")
	}
}

func TestCreateMonthlyWinnerDuplicate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestUser(t, db, "user-1", "octocat")

	w := &MonthlyWinner{UserID: "user-1", MonthYear: "2025-01", Rank: 1, TotalAura: 500, ContributionsCount: 42}
	if err := db.CreateMonthlyWinner(w); err != nil {
		t.Fatalf("Failed to create winner: %v", err)
	}

	dup := &MonthlyWinner{UserID: "user-1", MonthYear: "2025-01", Rank: 2, TotalAura: 100, ContributionsCount: 3}
	if err := db.CreateMonthlyWinner(dup); err == nil {
		t.Error("Expected unique constraint violation, but create succeeded")
	}

	// A new month is a fresh slate
	next := &MonthlyWinner{UserID: "user-1", MonthYear: "2025-02", Rank: 1, TotalAura: 600, ContributionsCount: 50}
	if err := db.CreateMonthlyWinner(next); err != nil {
		t.Errorf("Failed to create winner for a new month: %v", err)
	}
}

func TestListMonthlyWinnersRankOrder(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestUser(t, db, "user-a", "alice")
	createTestUser(t, db, "user-b", "bob")
	createTestUser(t, db, "user-c", "carol")

	// Insert out of rank order
	for _, w := range []*MonthlyWinner{
		{UserID: "user-c", MonthYear: "2025-01", Rank: 3, TotalAura: 100, ContributionsCount: 4},
		{UserID: "user-a", MonthYear: "2025-01", Rank: 1, TotalAura: 500, ContributionsCount: 20},
		{UserID: "user-b", MonthYear: "2025-01", Rank: 2, TotalAura: 300, ContributionsCount: 12},
	} {
		if err := db.CreateMonthlyWinner(w); err != nil {
			t.Fatalf("Failed to create winner: %v", err)
		}
	}

	winners, err := db.ListMonthlyWinners("2025-01")
	if err != nil {
		t.Fatalf("Failed to list winners: %v", err)
	}
	if len(winners) != 3 {
		t.Fatalf("Expected 3 winners, got %d", len(winners))
	}
	for i, want := range []string{"user-a", "user-b", "user-c"} {
		if winners[i].UserID != want {
			t.Errorf("Expected %s at position %d, got %s", want, i, winners[i].UserID)
		}
	}
}

func TestMarkBadgeAwarded(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestUser(t, db, "user-1", "octocat")

	w := &MonthlyWinner{UserID: "user-1", MonthYear: "2025-01", Rank: 1, TotalAura: 500, ContributionsCount: 42}
	if err := db.CreateMonthlyWinner(w); err != nil {
		t.Fatalf("Failed to create winner: %v", err)
	}

	if err := db.MarkBadgeAwarded("user-1", "2025-01"); err != nil {
		t.Fatalf("Failed to mark badge awarded: %v", err)
	}

	retrieved, err := db.GetMonthlyWinner("user-1", "2025-01")
	if err != nil {
		t.Fatalf("Failed to get winner: %v", err)
	}
	if !retrieved.BadgeAwarded {
		t.Error("Expected badge_awarded to be true")
	}

	if err := db.MarkBadgeAwarded("user-1", "2024-12"); err == nil {
		t.Error("Expected error for missing winner row")
	}
}
