package aura

import (
	"fmt"
	"time"
)

// PeriodKey returns the "YYYY-MM" key for the calendar month containing t.
func PeriodKey(t time.Time) string {
	return t.Format("2006-01")
}

// PreviousPeriodKey returns the key of the month before the one containing t.
// This is the "period that just ended" when called at the start of a month.
func PreviousPeriodKey(t time.Time) string {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return PeriodKey(firstOfMonth.AddDate(0, 0, -1))
}

// ParsePeriodKey parses a "YYYY-MM" key into the first instant of that month
// in UTC.
func ParsePeriodKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period key %q: %w", key, err)
	}
	return t, nil
}
