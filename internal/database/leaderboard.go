package database

import (
	"database/sql"
	"fmt"
	"time"
)

// MonthlyEntry is a user's aggregate row for one calendar month
type MonthlyEntry struct {
	UserID             string
	MonthYear          string
	TotalAura          int
	ContributionsCount int
	Rank               int
	UpdatedAt          int64
}

// GlobalEntry is a user's all-time aggregate row
type GlobalEntry struct {
	UserID      string
	TotalAura   int
	YearlyAura  int
	Rank        int
	LastUpdated int64
}

// UpsertMonthlyEntry writes or updates the aggregate row for (userID,
// monthYear). A fresh row gets the unranked sentinel; an update leaves the
// previously assigned rank in place until the next ranking pass.
func (db *DB) UpsertMonthlyEntry(userID, monthYear string, totalAura, contributionsCount int) error {
	_, err := db.conn.Exec(`
		INSERT INTO monthly_leaderboard (user_id, month_year, total_aura, contributions_count, rank, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, month_year) DO UPDATE SET
			total_aura = excluded.total_aura,
			contributions_count = excluded.contributions_count,
			updated_at = excluded.updated_at
	`, userID, monthYear, totalAura, contributionsCount, UnrankedSentinel, time.Now().Unix())

	if err != nil {
		return fmt.Errorf("failed to upsert monthly entry: %w", err)
	}
	return nil
}

// UpsertGlobalEntry writes or updates the all-time aggregate row for userID
func (db *DB) UpsertGlobalEntry(userID string, totalAura, yearlyAura int) error {
	_, err := db.conn.Exec(`
		INSERT INTO global_leaderboard (user_id, total_aura, yearly_aura, rank, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			total_aura = excluded.total_aura,
			yearly_aura = excluded.yearly_aura,
			last_updated = excluded.last_updated
	`, userID, totalAura, yearlyAura, UnrankedSentinel, time.Now().Unix())

	if err != nil {
		return fmt.Errorf("failed to upsert global entry: %w", err)
	}
	return nil
}

// GetMonthlyEntry retrieves the aggregate row for (userID, monthYear)
func (db *DB) GetMonthlyEntry(userID, monthYear string) (*MonthlyEntry, error) {
	var e MonthlyEntry
	err := db.conn.QueryRow(`
		SELECT user_id, month_year, total_aura, contributions_count, rank, updated_at
		FROM monthly_leaderboard
		WHERE user_id = ? AND month_year = ?
	`, userID, monthYear).Scan(
		&e.UserID, &e.MonthYear, &e.TotalAura, &e.ContributionsCount, &e.Rank, &e.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly entry: %w", err)
	}
	return &e, nil
}

// GetGlobalEntry retrieves the all-time aggregate row for userID
func (db *DB) GetGlobalEntry(userID string) (*GlobalEntry, error) {
	var e GlobalEntry
	err := db.conn.QueryRow(`
		SELECT user_id, total_aura, yearly_aura, rank, last_updated
		FROM global_leaderboard
		WHERE user_id = ?
	`, userID).Scan(&e.UserID, &e.TotalAura, &e.YearlyAura, &e.Rank, &e.LastUpdated)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get global entry: %w", err)
	}
	return &e, nil
}

// ListMonthlyEntries returns a month's entries ordered by total aura
// descending, with contribution count and then user id breaking ties.
// A limit of 0 means no limit.
func (db *DB) ListMonthlyEntries(monthYear string, limit int) ([]*MonthlyEntry, error) {
	query := `
		SELECT user_id, month_year, total_aura, contributions_count, rank, updated_at
		FROM monthly_leaderboard
		WHERE month_year = ?
		ORDER BY total_aura DESC, contributions_count DESC, user_id ASC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.conn.Query(query, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly entries: %w", err)
	}
	defer rows.Close()

	var entries []*MonthlyEntry
	for rows.Next() {
		var e MonthlyEntry
		if err := rows.Scan(&e.UserID, &e.MonthYear, &e.TotalAura, &e.ContributionsCount, &e.Rank, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan monthly entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly entries: %w", err)
	}

	return entries, nil
}

// ListTopMonthlyEntries returns a month's top entries excluding banned users,
// in the same order as ListMonthlyEntries
func (db *DB) ListTopMonthlyEntries(monthYear string, limit int) ([]*MonthlyEntry, error) {
	rows, err := db.conn.Query(`
		SELECT m.user_id, m.month_year, m.total_aura, m.contributions_count, m.rank, m.updated_at
		FROM monthly_leaderboard m
		INNER JOIN users u ON m.user_id = u.id
		WHERE m.month_year = ? AND u.is_banned = 0
		ORDER BY m.total_aura DESC, m.contributions_count DESC, m.user_id ASC
		LIMIT ?
	`, monthYear, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top monthly entries: %w", err)
	}
	defer rows.Close()

	var entries []*MonthlyEntry
	for rows.Next() {
		var e MonthlyEntry
		if err := rows.Scan(&e.UserID, &e.MonthYear, &e.TotalAura, &e.ContributionsCount, &e.Rank, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan monthly entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly entries: %w", err)
	}

	return entries, nil
}

// ListGlobalEntries returns all-time entries ordered by total aura
// descending with the same tie-break as the monthly scope. A limit of 0
// means no limit.
func (db *DB) ListGlobalEntries(limit int) ([]*GlobalEntry, error) {
	query := `
		SELECT user_id, total_aura, yearly_aura, rank, last_updated
		FROM global_leaderboard
		ORDER BY total_aura DESC, yearly_aura DESC, user_id ASC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list global entries: %w", err)
	}
	defer rows.Close()

	var entries []*GlobalEntry
	for rows.Next() {
		var e GlobalEntry
		if err := rows.Scan(&e.UserID, &e.TotalAura, &e.YearlyAura, &e.Rank, &e.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan global entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating global entries: %w", err)
	}

	return entries, nil
}

// SetMonthlyRanks writes ranks for a month inside one transaction so readers
// never observe a half-updated rank set
func (db *DB) SetMonthlyRanks(monthYear string, ranks map[string]int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE monthly_leaderboard SET rank = ? WHERE user_id = ? AND month_year = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare rank update: %w", err)
	}
	defer stmt.Close()

	for userID, rank := range ranks {
		if _, err := stmt.Exec(rank, userID, monthYear); err != nil {
			return fmt.Errorf("failed to set rank for user %s: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rank updates: %w", err)
	}
	return nil
}

// SetGlobalRanks writes all-time ranks inside one transaction
func (db *DB) SetGlobalRanks(ranks map[string]int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE global_leaderboard SET rank = ? WHERE user_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare rank update: %w", err)
	}
	defer stmt.Close()

	for userID, rank := range ranks {
		if _, err := stmt.Exec(rank, userID); err != nil {
			return fmt.Errorf("failed to set rank for user %s: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rank updates: %w", err)
	}
	return nil
}
