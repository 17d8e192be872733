package database

import (
	"database/sql"
	"fmt"
	"time"
)

// MonthlyWinner is an immutable record of one of a closed month's top
// performers. Rows are write-once per (user, month); only badge_awarded is
// ever updated after creation.
type MonthlyWinner struct {
	UserID             string
	MonthYear          string
	Rank               int
	TotalAura          int
	ContributionsCount int
	BadgeAwarded       bool
	CapturedAt         int64
}

// CreateMonthlyWinner inserts a winner row with badge_awarded=false
func (db *DB) CreateMonthlyWinner(w *MonthlyWinner) error {
	w.CapturedAt = time.Now().Unix()
	w.BadgeAwarded = false

	_, err := db.conn.Exec(`
		INSERT INTO monthly_winners (user_id, month_year, rank, total_aura, contributions_count, badge_awarded, captured_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`, w.UserID, w.MonthYear, w.Rank, w.TotalAura, w.ContributionsCount, w.CapturedAt)

	if err != nil {
		return fmt.Errorf("failed to create monthly winner: %w", err)
	}
	return nil
}

// GetMonthlyWinner retrieves the winner row for (userID, monthYear)
func (db *DB) GetMonthlyWinner(userID, monthYear string) (*MonthlyWinner, error) {
	var w MonthlyWinner
	err := db.conn.QueryRow(`
		SELECT user_id, month_year, rank, total_aura, contributions_count, badge_awarded, captured_at
		FROM monthly_winners
		WHERE user_id = ? AND month_year = ?
	`, userID, monthYear).Scan(
		&w.UserID, &w.MonthYear, &w.Rank, &w.TotalAura, &w.ContributionsCount, &w.BadgeAwarded, &w.CapturedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly winner: %w", err)
	}
	return &w, nil
}

// ListMonthlyWinners returns a month's winners in rank order
func (db *DB) ListMonthlyWinners(monthYear string) ([]*MonthlyWinner, error) {
	rows, err := db.conn.Query(`
		SELECT user_id, month_year, rank, total_aura, contributions_count, badge_awarded, captured_at
		FROM monthly_winners
		WHERE month_year = ?
		ORDER BY rank ASC
	`, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly winners: %w", err)
	}
	defer rows.Close()

	var winners []*MonthlyWinner
	for rows.Next() {
		var w MonthlyWinner
		if err := rows.Scan(&w.UserID, &w.MonthYear, &w.Rank, &w.TotalAura, &w.ContributionsCount, &w.BadgeAwarded, &w.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan monthly winner: %w", err)
		}
		winners = append(winners, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly winners: %w", err)
	}

	return winners, nil
}

// MarkBadgeAwarded flips badge_awarded to true for (userID, monthYear)
func (db *DB) MarkBadgeAwarded(userID, monthYear string) error {
	result, err := db.conn.Exec(`
		UPDATE monthly_winners SET badge_awarded = 1 WHERE user_id = ? AND month_year = ?
	`, userID, monthYear)

	if err != nil {
		return fmt.Errorf("failed to mark badge awarded: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("winner not found")
	}

	return nil
}
