package database

import "testing"

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *DB, id, username string) *User {
	t.Helper()

	u := &User{
		ID:             id,
		GithubUsername: username,
	}
	if err := db.CreateUser(u); err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return u
}
