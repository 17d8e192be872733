package aura

import (
	"math"
	"sort"
	"time"
)

// Scoring weights. Raw volume dominates; the monthly score additionally
// rewards showing up at all, and showing up often relative to the month.
const (
	pointsPerContribution = 10
	pointsPerActiveDay    = 50
	consistencyScale      = 1000
)

// ContributionDay is a single day of contribution activity.
type ContributionDay struct {
	Date  time.Time
	Count int
}

// Score is the result of scoring a contribution window.
type Score struct {
	TotalAura          int
	TotalContributions int
	ActiveDays         int
	Streak             int
}

// MonthlyScore scores the days that fall inside the calendar month named by
// periodKey ("YYYY-MM"). Days outside the month are filtered out before any
// counting happens.
func MonthlyScore(days []ContributionDay, periodKey string) (Score, error) {
	period, err := ParsePeriodKey(periodKey)
	if err != nil {
		return Score{}, err
	}

	inMonth := FilterPeriod(days, periodKey)

	total := 0
	activeDays := 0
	for _, d := range inMonth {
		total += d.Count
		if d.Count > 0 {
			activeDays++
		}
	}

	base := total * pointsPerContribution
	activityBonus := activeDays * pointsPerActiveDay
	consistencyBonus := int(math.Round(float64(activeDays) / float64(daysInMonth(period)) * consistencyScale))

	return Score{
		TotalAura:          base + activityBonus + consistencyBonus,
		TotalContributions: total,
		ActiveDays:         activeDays,
		Streak:             Streak(inMonth),
	}, nil
}

// AllTimeAura converts a source-of-truth contribution total into the
// all-time score. Unlike the monthly score it rewards raw volume only.
func AllTimeAura(totalContributions int) int {
	if totalContributions < 0 {
		return 0
	}
	return totalContributions * pointsPerContribution
}

// AllTimeScore scores a trailing-year window with the volume-only rule.
func AllTimeScore(days []ContributionDay) Score {
	total := 0
	activeDays := 0
	for _, d := range days {
		total += d.Count
		if d.Count > 0 {
			activeDays++
		}
	}

	return Score{
		TotalAura:          total * pointsPerContribution,
		TotalContributions: total,
		ActiveDays:         activeDays,
		Streak:             Streak(days),
	}
}

// Streak returns the number of consecutive non-zero days ending at the most
// recent day in the input. A zero-count most recent day means no streak.
func Streak(days []ContributionDay) int {
	if len(days) == 0 {
		return 0
	}

	sorted := make([]ContributionDay, len(days))
	copy(sorted, days)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	streak := 0
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Count <= 0 {
			break
		}
		streak++
	}
	return streak
}

// FilterPeriod returns the days that fall inside the calendar month named by
// periodKey, in the order they appeared in the input. An unparseable key
// filters everything out.
func FilterPeriod(days []ContributionDay, periodKey string) []ContributionDay {
	period, err := ParsePeriodKey(periodKey)
	if err != nil {
		return nil
	}

	var filtered []ContributionDay
	for _, d := range days {
		if d.Date.Year() == period.Year() && d.Date.Month() == period.Month() {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// FilterTrailingYear returns the days within the 365 days ending at "now",
// inclusive of now's date.
func FilterTrailingYear(days []ContributionDay, now time.Time) []ContributionDay {
	cutoff := now.AddDate(-1, 0, 1)
	start := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var filtered []ContributionDay
	for _, d := range days {
		day := time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(), 0, 0, 0, 0, time.UTC)
		if !day.Before(start) && !day.After(end) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func daysInMonth(period time.Time) int {
	return period.AddDate(0, 1, -period.Day()).Day()
}
