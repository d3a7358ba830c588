// Package activity holds the read-only records the workout-logging subsystem
// produces. The engine consumes them to derive auto check-ins; it never writes
// them.
package activity

import (
	"time"

	"github.com/google/uuid"
)

const EventWorkoutCompleted = "workout_completed"

// Signal is an activity-feed event emitted when a user finishes a workout.
// Older producers encoded workout details in the Payload text field; see
// ParsePayload.
type Signal struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	EventKind  string    `json:"event_kind" db:"event_kind"`
	WorkoutID  uuid.UUID `json:"workout_id" db:"workout_id"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
	Payload    string    `json:"payload" db:"payload"`
}

// WorkoutLog is the workout-logging subsystem's durable record. It can become
// visible before the corresponding Signal does.
type WorkoutLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	WorkoutID uuid.UUID `json:"workout_id" db:"workout_id"`
	Date      time.Time `json:"date" db:"date"`
	Sets      []Set     `json:"sets"`
}

type Set struct {
	Exercise string  `json:"exercise"`
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weight_kg,omitempty"`
}
