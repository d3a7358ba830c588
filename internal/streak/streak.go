// Package streak computes consecutive-day check-in streaks.
package streak

import (
	"sort"
	"time"
)

// Current returns the user's consecutive-day streak as of today. Dates are
// compared as calendar days: the most recent check-in must be today or
// yesterday, otherwise the streak is broken and the result is 0. Duplicate
// dates are ignored and timestamps are truncated to their UTC calendar day.
func Current(dates []time.Time, today time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	seen := make(map[time.Time]bool, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := truncate(d)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	today = truncate(today)
	yesterday := today.AddDate(0, 0, -1)
	if !days[0].Equal(today) && !days[0].Equal(yesterday) {
		return 0
	}

	count := 1
	cursor := days[0]
	for _, day := range days[1:] {
		if !day.Equal(cursor.AddDate(0, 0, -1)) {
			break
		}
		count++
		cursor = day
	}

	return count
}

func truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
