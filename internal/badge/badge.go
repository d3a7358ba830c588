package badge

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	FirstFlame         Kind = "first_flame"
	UnstoppableStreak  Kind = "unstoppable_streak"
	ChallengeElite     Kind = "challenge_elite"
	LivingProof        Kind = "living_proof"
	ChallengeCompleted Kind = "challenge_completed"
	Top1Challenge      Kind = "top_1_challenge"
	Top2Challenge      Kind = "top_2_challenge"
	Top3Challenge      Kind = "top_3_challenge"
)

// PlacementKind returns the badge kind for a leaderboard rank, or "" when the
// rank is outside the podium.
func PlacementKind(rank int) Kind {
	switch rank {
	case 1:
		return Top1Challenge
	case 2:
		return Top2Challenge
	case 3:
		return Top3Challenge
	}
	return ""
}

// Badge is an award record. At most one exists per (challenge, user, kind);
// the storage layer does not enforce this, so writers check before inserting.
type Badge struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ChallengeID uuid.UUID `json:"challenge_id" db:"challenge_id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Kind        Kind      `json:"badge_type" db:"badge_type"`
	EarnedAt    time.Time `json:"earned_at" db:"earned_at"`
}
