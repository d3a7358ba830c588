// Package store defines the persistence boundary of the engagement engine and
// its two backends: Postgres for production, in-memory for tests and local
// development.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fitSquadAPI/internal/activity"
	"fitSquadAPI/internal/badge"
	"fitSquadAPI/internal/challenge"
	"fitSquadAPI/internal/checkin"
	"fitSquadAPI/internal/comment"
	"fitSquadAPI/internal/participant"
	"fitSquadAPI/internal/user"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateCheckin maps the (challenge_id, user_id, checkin_date)
	// uniqueness violation. Callers treat it as a harmless race, never as a
	// failure to surface.
	ErrDuplicateCheckin = errors.New("check-in already recorded for this day")

	ErrDuplicateParticipant = errors.New("user already joined this challenge")
)

type UserStore interface {
	UpsertUser(ctx context.Context, u *user.User) error
	GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error)
}

type ChallengeStore interface {
	CreateChallenge(ctx context.Context, c *challenge.Challenge) error
	GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error)
	ListChallengesByUser(ctx context.Context, userID uuid.UUID) ([]*challenge.Challenge, error)
	UpdateChallenge(ctx context.Context, id uuid.UUID, title, description *string, endDate *time.Time) (*challenge.Challenge, error)
	// DeleteChallenge cascades participants, check-ins, badges and comments.
	DeleteChallenge(ctx context.Context, id uuid.UUID) error
	// TransitionChallengeStatus atomically moves a challenge from one of the
	// given statuses to the target status, stamping status_changed_at with at.
	// It reports whether this caller won the transition, closing the
	// finalizer's check-then-act window.
	TransitionChallengeStatus(ctx context.Context, id uuid.UUID, from []challenge.Status, to challenge.Status, at time.Time) (bool, error)
}

type ParticipantStore interface {
	AddParticipant(ctx context.Context, p *participant.Participant) error
	GetParticipant(ctx context.Context, challengeID, userID uuid.UUID) (*participant.Participant, error)
	// ListParticipants returns members in join order.
	ListParticipants(ctx context.Context, challengeID uuid.UUID) ([]*participant.Participant, error)
	CountParticipants(ctx context.Context, challengeID uuid.UUID) (int, error)
	// RemoveParticipant cascades the member's check-ins and badges.
	RemoveParticipant(ctx context.Context, challengeID, userID uuid.UUID) error
}

type CheckinStore interface {
	// InsertCheckin returns ErrDuplicateCheckin when a row already exists for
	// the same (challenge, user, date).
	InsertCheckin(ctx context.Context, c *checkin.Checkin) error
	GetCheckinOn(ctx context.Context, challengeID, userID uuid.UUID, date time.Time) (*checkin.Checkin, error)
	HasCheckinOn(ctx context.Context, challengeID, userID uuid.UUID, date time.Time) (bool, error)
	ListUserCheckins(ctx context.Context, challengeID, userID uuid.UUID) ([]*checkin.Checkin, error)
	ListChallengeCheckins(ctx context.Context, challengeID uuid.UUID) ([]*checkin.Checkin, error)
}

type BadgeStore interface {
	// InsertBadges writes a batch atomically: either all rows land or none do,
	// so a failed finalization can retry from scratch.
	InsertBadges(ctx context.Context, badges []*badge.Badge) error
	HasBadge(ctx context.Context, challengeID, userID uuid.UUID, kind badge.Kind) (bool, error)
	ListUserBadges(ctx context.Context, challengeID, userID uuid.UUID) ([]*badge.Badge, error)
	ListChallengeBadges(ctx context.Context, challengeID uuid.UUID) ([]*badge.Badge, error)
}

// ActivityStore is the read-only view over the workout-logging subsystem's
// records. The engine never writes through it.
type ActivityStore interface {
	// ListUserSignalsBetween returns signals with start <= occurred_at < end.
	// Callers derive the window from the challenge's time zone so evening
	// workouts land on the right challenge-local day.
	ListUserSignalsBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*activity.Signal, error)
	// ListUserWorkoutLogsOn matches by calendar date; logs carry no clock, the
	// logging subsystem already dates them by the user's day.
	ListUserWorkoutLogsOn(ctx context.Context, userID uuid.UUID, date time.Time) ([]*activity.WorkoutLog, error)
}

type CommentStore interface {
	AddComment(ctx context.Context, c *comment.Comment) error
	ListComments(ctx context.Context, challengeID, feedEventID uuid.UUID) ([]*comment.Comment, error)
}

type Store interface {
	UserStore
	ChallengeStore
	ParticipantStore
	CheckinStore
	BadgeStore
	ActivityStore
	CommentStore
}
