package leaderboard

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitSquadAPI/internal/checkin"
	"fitSquadAPI/internal/participant"
)

func day(d int) time.Time {
	return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
}

func member(userID uuid.UUID) *participant.Participant {
	return &participant.Participant{ID: uuid.New(), UserID: userID, Role: participant.RoleParticipant}
}

func checkinsOn(userID uuid.UUID, days ...int) []*checkin.Checkin {
	out := make([]*checkin.Checkin, 0, len(days))
	for _, d := range days {
		out = append(out, &checkin.Checkin{ID: uuid.New(), UserID: userID, Date: day(d)})
	}
	return out
}

func TestRank_OrdersByCountThenStreak(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()
	userC := uuid.New()
	today := day(10)

	var checkins []*checkin.Checkin
	// A: 5 check-ins, 2-day streak
	checkins = append(checkins, checkinsOn(userA, 1, 3, 5, 9, 10)...)
	// B: 5 check-ins, 1-day streak
	checkins = append(checkins, checkinsOn(userB, 1, 2, 3, 5, 10)...)
	// C: 4 check-ins but the longest streak
	checkins = append(checkins, checkinsOn(userC, 7, 8, 9, 10)...)

	standings := Rank([]*participant.Participant{member(userB), member(userA), member(userC)}, checkins, today)

	require.Len(t, standings.Entries, 3)
	assert.Equal(t, userA, standings.Entries[0].UserID)
	assert.Equal(t, userB, standings.Entries[1].UserID)
	assert.Equal(t, userC, standings.Entries[2].UserID)
	assert.Equal(t, []int{1, 2, 3}, []int{
		standings.Entries[0].Rank,
		standings.Entries[1].Rank,
		standings.Entries[2].Rank,
	})
	assert.Equal(t, 3, standings.TotalParticipants)
}

func TestRank_FullTieKeepsJoinOrder(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()
	today := day(10)

	checkins := append(checkinsOn(userA, 9, 10), checkinsOn(userB, 9, 10)...)

	standings := Rank([]*participant.Participant{member(userB), member(userA)}, checkins, today)

	require.Len(t, standings.Entries, 2)
	// identical count and streak: whoever joined first ranks first
	assert.Equal(t, userB, standings.Entries[0].UserID)
	assert.Equal(t, 1, standings.Entries[0].Rank)
	assert.Equal(t, userA, standings.Entries[1].UserID)
	assert.Equal(t, 2, standings.Entries[1].Rank)
}

func TestRank_ParticipantWithoutCheckins(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()
	today := day(10)

	standings := Rank([]*participant.Participant{member(userA), member(userB)}, checkinsOn(userA, 10), today)

	require.Len(t, standings.Entries, 2)
	assert.Equal(t, userA, standings.Entries[0].UserID)
	assert.Equal(t, 0, standings.Entries[1].CheckinCount)
	assert.Equal(t, 0, standings.Entries[1].CurrentStreak)
	assert.Equal(t, 2, standings.Entries[1].Rank)
}

func TestRank_Empty(t *testing.T) {
	standings := Rank(nil, nil, day(10))
	assert.Empty(t, standings.Entries)
	assert.Equal(t, 0, standings.TotalParticipants)
}
