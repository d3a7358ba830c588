package checkin

import (
	"time"

	"github.com/google/uuid"
)

type Origin string

const (
	OriginManual Origin = "manual"
	OriginAuto   Origin = "auto"
)

// Checkin records that a user satisfied a challenge's daily participation rule
// on a given calendar day. At most one exists per (challenge, user, date);
// rows are append-only and only removed by challenge or participant cascade.
type Checkin struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	ChallengeID  uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Date         time.Time  `json:"checkin_date" db:"checkin_date"`
	Origin       Origin     `json:"checkin_type" db:"checkin_type"`
	WorkoutID    *uuid.UUID `json:"workout_id,omitempty" db:"workout_id"`
	FeedEventID  *uuid.UUID `json:"feed_event_id,omitempty" db:"feed_event_id"`
	EvidenceNote *string    `json:"evidence_note,omitempty" db:"evidence_note"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

type ManualCheckinRequest struct {
	EvidenceNote *string `json:"evidence_note,omitempty"`
}
