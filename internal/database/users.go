package database

import (
	"database/sql"
	"fmt"
	"time"
)

// User represents a tracked developer
type User struct {
	ID              string
	GithubUsername  string
	DisplayName     *string
	IsBanned        bool
	TotalAura       int
	CurrentStreak   int
	LastRefreshedAt *int64
	CreatedAt       int64
	UpdatedAt       int64
}

// CreateUser inserts a new user into the database
func (db *DB) CreateUser(u *User) error {
	now := time.Now().Unix()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := db.conn.Exec(`
		INSERT INTO users (
			id, github_username, display_name, is_banned,
			total_aura, current_streak, last_refreshed_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.GithubUsername, u.DisplayName, u.IsBanned,
		u.TotalAura, u.CurrentStreak, u.LastRefreshedAt,
		u.CreatedAt, u.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(id string) (*User, error) {
	return db.scanUser(db.conn.QueryRow(`
		SELECT id, github_username, display_name, is_banned,
		       total_aura, current_streak, last_refreshed_at,
		       created_at, updated_at
		FROM users WHERE id = ?
	`, id))
}

// GetUserByUsername retrieves a user by GitHub username
func (db *DB) GetUserByUsername(username string) (*User, error) {
	return db.scanUser(db.conn.QueryRow(`
		SELECT id, github_username, display_name, is_banned,
		       total_aura, current_streak, last_refreshed_at,
		       created_at, updated_at
		FROM users WHERE github_username = ?
	`, username))
}

func (db *DB) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.GithubUsername, &u.DisplayName, &u.IsBanned,
		&u.TotalAura, &u.CurrentStreak, &u.LastRefreshedAt,
		&u.CreatedAt, &u.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UpdateUserScore updates a user's latest score snapshot after a successful
// refresh
func (db *DB) UpdateUserScore(id string, totalAura, currentStreak int) error {
	now := time.Now().Unix()
	result, err := db.conn.Exec(`
		UPDATE users
		SET total_aura = ?, current_streak = ?, last_refreshed_at = ?, updated_at = ?
		WHERE id = ?
	`, totalAura, currentStreak, now, now, id)

	if err != nil {
		return fmt.Errorf("failed to update user score: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// SetUserBanned updates a user's moderation state
func (db *DB) SetUserBanned(id string, banned bool) error {
	result, err := db.conn.Exec(`
		UPDATE users SET is_banned = ?, updated_at = ? WHERE id = ?
	`, banned, time.Now().Unix(), id)

	if err != nil {
		return fmt.Errorf("failed to set user banned: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// ListEligibleUsers returns all users eligible for a bulk refresh: not
// banned and with a linked GitHub username. The order is deterministic so
// batch runs process users in a stable sequence.
func (db *DB) ListEligibleUsers() ([]*User, error) {
	rows, err := db.conn.Query(`
		SELECT id, github_username, display_name, is_banned,
		       total_aura, current_streak, last_refreshed_at,
		       created_at, updated_at
		FROM users
		WHERE is_banned = 0 AND github_username != ''
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		err := rows.Scan(
			&u.ID, &u.GithubUsername, &u.DisplayName, &u.IsBanned,
			&u.TotalAura, &u.CurrentStreak, &u.LastRefreshedAt,
			&u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// CountUsers returns the total number of users
func (db *DB) CountUsers() (int, error) {
	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
