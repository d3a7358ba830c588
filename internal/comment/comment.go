package comment

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a free-text reply attached to an activity-feed event within a
// challenge. It only matters to the engine through the challenge cascade.
type Comment struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ChallengeID uuid.UUID `json:"challenge_id" db:"challenge_id"`
	FeedEventID uuid.UUID `json:"feed_event_id" db:"feed_event_id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Body        string    `json:"body" db:"body"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
