// Package leaderboard ranks challenge participants by check-in history.
package leaderboard

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"fitSquadAPI/internal/checkin"
	"fitSquadAPI/internal/participant"
	"fitSquadAPI/internal/streak"
)

type Entry struct {
	UserID        uuid.UUID `json:"user_id"`
	CheckinCount  int       `json:"checkin_count"`
	CurrentStreak int       `json:"current_streak"`
	Rank          int       `json:"rank"`
}

type Standings struct {
	Entries           []*Entry `json:"entries"`
	TotalParticipants int      `json:"total_participants"`
}

// Rank orders participants by total check-in count descending, ties broken by
// current streak descending. Remaining ties keep join order, so the result is
// deterministic. The participants slice is expected in join order.
func Rank(participants []*participant.Participant, checkins []*checkin.Checkin, today time.Time) *Standings {
	byUser := make(map[uuid.UUID][]time.Time)
	for _, c := range checkins {
		byUser[c.UserID] = append(byUser[c.UserID], c.Date)
	}

	entries := make([]*Entry, 0, len(participants))
	for _, p := range participants {
		dates := byUser[p.UserID]
		entries = append(entries, &Entry{
			UserID:        p.UserID,
			CheckinCount:  len(dates),
			CurrentStreak: streak.Current(dates, today),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CheckinCount != entries[j].CheckinCount {
			return entries[i].CheckinCount > entries[j].CheckinCount
		}
		return entries[i].CurrentStreak > entries[j].CurrentStreak
	})

	for i, e := range entries {
		e.Rank = i + 1
	}

	return &Standings{Entries: entries, TotalParticipants: len(entries)}
}
