package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gitaura/internal/database"
)

func setupLeaderboardTest(t *testing.T) (*database.DB, *LeaderboardHandler) {
	t.Helper()

	db, err := database.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db, NewLeaderboardHandler(db)
}

func seedLeaderboard(t *testing.T, db *database.DB, monthYear string) {
	t.Helper()

	for _, u := range []struct {
		id   string
		name string
		aura int
	}{
		{"user-a", "alice", 500},
		{"user-b", "bob", 300},
	} {
		if err := db.CreateUser(&database.User{ID: u.id, GithubUsername: u.name}); err != nil {
			t.Fatalf("Failed to create user: %v", err)
		}
		if err := db.UpsertMonthlyEntry(u.id, monthYear, u.aura, u.aura/10); err != nil {
			t.Fatalf("Failed to upsert monthly entry: %v", err)
		}
		if err := db.UpsertGlobalEntry(u.id, u.aura*2, u.aura); err != nil {
			t.Fatalf("Failed to upsert global entry: %v", err)
		}
	}
}

func TestHandleLeaderboardMonthly(t *testing.T) {
	db, handler := setupLeaderboardTest(t)
	seedLeaderboard(t, db, "2025-01")

	req := httptest.NewRequest(http.MethodGet, "/leaderboard?scope=monthly&month=2025-01", nil)
	rec := httptest.NewRecorder()

	handler.HandleLeaderboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Scope     string `json:"scope"`
		MonthYear string `json:"month_year"`
		Entries   []struct {
			UserID    string `json:"UserID"`
			TotalAura int    `json:"TotalAura"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.MonthYear != "2025-01" {
		t.Errorf("Expected month 2025-01, got %s", body.MonthYear)
	}
	if len(body.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(body.Entries))
	}
	if body.Entries[0].UserID != "user-a" {
		t.Errorf("Expected user-a first, got %s", body.Entries[0].UserID)
	}
}

func TestHandleLeaderboardGlobal(t *testing.T) {
	db, handler := setupLeaderboardTest(t)
	seedLeaderboard(t, db, "2025-01")

	req := httptest.NewRequest(http.MethodGet, "/leaderboard?scope=global", nil)
	rec := httptest.NewRecorder()

	handler.HandleLeaderboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Scope   string `json:"scope"`
		Entries []struct {
			UserID string `json:"UserID"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Scope != "global" || len(body.Entries) != 2 {
		t.Errorf("Unexpected response: %+v", body)
	}
}

func TestHandleLeaderboardEmptyMonth(t *testing.T) {
	_, handler := setupLeaderboardTest(t)

	req := httptest.NewRequest(http.MethodGet, "/leaderboard?month=2030-01", nil)
	rec := httptest.NewRecorder()

	handler.HandleLeaderboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for empty month, got %d", rec.Code)
	}
	var body struct {
		Entries []any `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Entries == nil {
		t.Error("Expected empty array, not null")
	}
}

func TestHandleLeaderboardValidation(t *testing.T) {
	_, handler := setupLeaderboardTest(t)

	tests := []struct {
		name string
		url  string
		want int
	}{
		{"bad scope", "/leaderboard?scope=weekly", http.StatusBadRequest},
		{"bad month", "/leaderboard?month=January", http.StatusBadRequest},
		{"limit not a number", "/leaderboard?limit=ten", http.StatusBadRequest},
		{"limit too small", "/leaderboard?limit=0", http.StatusBadRequest},
		{"limit too large", "/leaderboard?limit=5000", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()

			handler.HandleLeaderboard(rec, req)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestHandleWinners(t *testing.T) {
	db, handler := setupLeaderboardTest(t)

	if err := db.CreateUser(&database.User{ID: "user-1", GithubUsername: "octocat"}); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	winner := &database.MonthlyWinner{
		UserID: "user-1", MonthYear: "2025-01", Rank: 1, TotalAura: 500, ContributionsCount: 20,
	}
	if err := db.CreateMonthlyWinner(winner); err != nil {
		t.Fatalf("Failed to create winner: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/winners?month=2025-01", nil)
	rec := httptest.NewRecorder()

	handler.HandleWinners(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body struct {
		MonthYear string `json:"month_year"`
		Winners   []any  `json:"winners"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.MonthYear != "2025-01" || len(body.Winners) != 1 {
		t.Errorf("Unexpected response: %+v", body)
	}
}

func TestHandleWinnersInvalidMonth(t *testing.T) {
	_, handler := setupLeaderboardTest(t)

	req := httptest.NewRequest(http.MethodGet, "/winners?month=bogus", nil)
	rec := httptest.NewRecorder()

	handler.HandleWinners(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestLeaderboardRejectsPOST(t *testing.T) {
	_, handler := setupLeaderboardTest(t)

	for _, fn := range []http.HandlerFunc{handler.HandleLeaderboard, handler.HandleWinners} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()

		fn(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", rec.Code)
		}
	}
}
