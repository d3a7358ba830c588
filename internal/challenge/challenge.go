package challenge

import (
	"time"

	"github.com/google/uuid"
)

type CheckinMode string

const (
	ModeAnyWorkout      CheckinMode = "any_workout"
	ModeSpecificWorkout CheckinMode = "specific_workout"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type JoinRule string

const (
	JoinAnyone        JoinRule = "anyone"
	JoinFollowersOnly JoinRule = "followers_only"
	JoinInviteOnly    JoinRule = "invite_only"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusEnded      Status = "ended"
	StatusFinalizing Status = "finalizing"
	StatusFinalized  Status = "finalized"
)

type Challenge struct {
	ID                uuid.UUID   `json:"id" db:"id"`
	Title             string      `json:"title" db:"title"`
	Description       string      `json:"description" db:"description"`
	Emoji             string      `json:"emoji" db:"emoji"`
	StartDate         time.Time   `json:"start_date" db:"start_date"`
	EndDate           time.Time   `json:"end_date" db:"end_date"`
	WeeklyFrequency   int         `json:"weekly_frequency" db:"weekly_frequency"`
	CheckinMode       CheckinMode `json:"checkin_type" db:"checkin_type"`
	SpecificWorkoutID *uuid.UUID  `json:"specific_workout_id,omitempty" db:"specific_workout_id"`
	Visibility        Visibility  `json:"visibility" db:"visibility"`
	JoinRule          JoinRule    `json:"join_rule" db:"join_rule"`
	MaxParticipants   *int        `json:"max_participants,omitempty" db:"max_participants"`
	Timezone          string      `json:"timezone" db:"timezone"`
	CreatedBy         uuid.UUID   `json:"created_by" db:"created_by"`
	Status            Status      `json:"status" db:"status"`
	StatusChangedAt   time.Time   `json:"status_changed_at" db:"status_changed_at"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
}

// Location resolves the challenge's reference time zone. Every "what day is it"
// decision for this challenge goes through it, so two clients in different
// zones agree on which calendar day a check-in counts for.
func (c *Challenge) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DayOf maps an instant to the challenge-local calendar day, normalized to
// midnight UTC so day values compare with == and Before/After.
func (c *Challenge) DayOf(t time.Time) time.Time {
	y, m, d := t.In(c.Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayWindow returns the instant range [start, end) that a challenge-local
// calendar day spans in absolute time. Timestamped records (activity signals)
// belong to the day whose window contains them; a UTC window would shift
// evening workouts across the midnight boundary for non-UTC challenges.
func (c *Challenge) DayWindow(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, c.Location())
	return start, start.AddDate(0, 0, 1)
}

// InWindow reports whether day falls inside [start_date, end_date], inclusive.
func (c *Challenge) InWindow(day time.Time) bool {
	return !day.Before(c.StartDate) && !day.After(c.EndDate)
}

// HasEnded reports whether the challenge's end date is strictly in the past
// relative to the given challenge-local day.
func (c *Challenge) HasEnded(day time.Time) bool {
	return day.After(c.EndDate)
}

// Date builds a normalized calendar-day value.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NormalizeDate strips the clock from a timestamp, keeping its UTC calendar day.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
