package database

import "testing"

func TestCreateAndGetUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	displayName := "Octo Cat"
	u := &User{
		ID:             "user-1",
		GithubUsername: "octocat",
		DisplayName:    &displayName,
	}
	if err := db.CreateUser(u); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	retrieved, err := db.GetUser("user-1")
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Expected user to be found")
	}
	if retrieved.GithubUsername != "octocat" {
		t.Errorf("Expected username octocat, got %s", retrieved.GithubUsername)
	}
	if retrieved.DisplayName == nil || *retrieved.DisplayName != "Octo Cat" {
		t.Errorf("Expected display name Octo Cat, got %v", retrieved.DisplayName)
	}
	if retrieved.IsBanned {
		t.Error("Expected new user not to be banned")
	}
	if retrieved.LastRefreshedAt != nil {
		t.Error("Expected last_refreshed_at to be unset for a new user")
	}
}

func TestGetUserByUsername(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestUser(t, db, "user-1", "octocat")

	retrieved, err := db.GetUserByUsername("octocat")
	if err != nil {
		t.Fatalf("Failed to get user by username: %v", err)
	}
	if retrieved == nil || retrieved.ID != "user-1" {
		t.Fatalf("Expected user-1, got %+v", retrieved)
	}

	missing, err := db.GetUserByUsername("nobody")
	if err != nil {
		t.Fatalf("Unexpected error for missing user: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing user")
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestUser(t, db, "user-1", "octocat")

	dup := &User{ID: "user-2", GithubUsername: "octocat"}
	if err := db.CreateUser(dup); err == nil {
		t.Error("Expected unique constraint violation, but create succeeded")
	}
}

func TestUpdateUserScore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestUser(t, db, "user-1", "octocat")

	if err := db.UpdateUserScore("user-1", 1200, 5); err != nil {
		t.Fatalf("Failed to update score: %v", err)
	}

	retrieved, err := db.GetUser("user-1")
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if retrieved.TotalAura != 1200 {
		t.Errorf("Expected total aura 1200, got %d", retrieved.TotalAura)
	}
	if retrieved.CurrentStreak != 5 {
		t.Errorf("Expected streak 5, got %d", retrieved.CurrentStreak)
	}
	if retrieved.LastRefreshedAt == nil {
		t.Error("Expected last_refreshed_at to be stamped")
	}

	if err := db.UpdateUserScore("missing", 1, 1); err == nil {
		t.Error("Expected error updating a missing user")
	}
}

func TestListEligibleUsers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestUser(t, db, "user-a", "alice")
	createTestUser(t, db, "user-b", "bob")
	createTestUser(t, db, "user-c", "carol")

	if err := db.SetUserBanned("user-b", true); err != nil {
		t.Fatalf("Failed to ban user: %v", err)
	}

	eligible, err := db.ListEligibleUsers()
	if err != nil {
		t.Fatalf("Failed to list eligible users: %v", err)
	}
	if len(eligible) != 2 {
		t.Fatalf("Expected 2 eligible users, got %d", len(eligible))
	}
	if eligible[0].ID != "user-a" || eligible[1].ID != "user-c" {
		t.Errorf("Unexpected ordering: %s, %s", eligible[0].ID, eligible[1].ID)
	}

	// Unbanning brings the user back
	if err := db.SetUserBanned("user-b", false); err != nil {
		t.Fatalf("Failed to unban user: %v", err)
	}
	eligible, err = db.ListEligibleUsers()
	if err != nil {
		t.Fatalf("Failed to list eligible users: %v", err)
	}
	if len(eligible) != 3 {
		t.Errorf("Expected 3 eligible users after unban, got %d", len(eligible))
	}
}

func TestCountUsers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	count, err := db.CountUsers()
	if err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users, got %d", count)
	}

	createTestUser(t, db, "user-1", "octocat")

	count, err = db.CountUsers()
	if err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}
}
