package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"fitSquadAPI/internal/activity"
	"fitSquadAPI/internal/badge"
	"fitSquadAPI/internal/challenge"
	"fitSquadAPI/internal/checkin"
	"fitSquadAPI/internal/comment"
	"fitSquadAPI/internal/leaderboard"
	"fitSquadAPI/internal/metrics"
	"fitSquadAPI/internal/store"
	"fitSquadAPI/internal/streak"
)

// EngagementService owns the check-in ledger and the derived views over it:
// streaks, leaderboard standings and engagement badges.
type EngagementService struct {
	store store.Store

	// Now is overridable so tests can pin the calendar day.
	Now func() time.Time
}

func NewEngagementService(st store.Store) *EngagementService {
	return &EngagementService{store: st, Now: time.Now}
}

// RecordManualCheckin writes a manual check-in for today in the challenge's
// reference time zone. Preconditions are surfaced before any write; a
// concurrent duplicate insert is swallowed, since another path already
// recorded today's check-in. Badge evaluation runs synchronously on success
// but never fails the check-in.
func (s *EngagementService) RecordManualCheckin(ctx context.Context, challengeID, userID uuid.UUID, note *string) (*checkin.Checkin, error) {
	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetParticipant(ctx, challengeID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, err
	}

	today := ch.DayOf(s.Now())
	if ch.Status != challenge.StatusActive || !ch.InWindow(today) {
		return nil, ErrChallengeInactive
	}

	exists, err := s.store.HasCheckinOn(ctx, challengeID, userID, today)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyCheckedIn
	}

	c := &checkin.Checkin{
		ID:           uuid.New(),
		ChallengeID:  challengeID,
		UserID:       userID,
		Date:         today,
		Origin:       checkin.OriginManual,
		EvidenceNote: note,
		CreatedAt:    s.Now(),
	}
	if err := s.store.InsertCheckin(ctx, c); err != nil {
		if !errors.Is(err, store.ErrDuplicateCheckin) {
			return nil, err
		}
		// a concurrent writer beat us to today's row; return the row that
		// actually landed so the caller never sees an unpersisted ID
		log.Printf("RecordManualCheckin: concurrent check-in for user %s in challenge %s", userID, challengeID)
		stored, err := s.store.GetCheckinOn(ctx, challengeID, userID, today)
		if err != nil {
			return nil, err
		}
		c = stored
	} else {
		metrics.CheckinsRecorded.WithLabelValues(string(checkin.OriginManual)).Inc()
	}

	if _, err := s.EvaluateBadges(ctx, challengeID, userID); err != nil {
		log.Printf("RecordManualCheckin: badge evaluation failed for user %s: %v", userID, err)
	}

	return c, nil
}

// EvaluateBadges applies the badge rules to the user's full check-in history
// and persists any newly earned badges in one batch. It is idempotent: kinds
// the user already holds are never re-awarded.
func (s *EngagementService) EvaluateBadges(ctx context.Context, challengeID, userID uuid.UUID) ([]*badge.Badge, error) {
	history, err := s.store.ListUserCheckins(ctx, challengeID, userID)
	if err != nil {
		return nil, err
	}
	owned, err := s.store.ListUserBadges(ctx, challengeID, userID)
	if err != nil {
		return nil, err
	}

	kinds := badge.Evaluate(history, owned)
	if len(kinds) == 0 {
		return nil, nil
	}

	earnedAt := s.Now()
	awarded := make([]*badge.Badge, 0, len(kinds))
	for _, kind := range kinds {
		// storage does not enforce badge uniqueness; re-check right before
		// the insert to shrink the cross-session race window
		exists, err := s.store.HasBadge(ctx, challengeID, userID, kind)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		awarded = append(awarded, &badge.Badge{
			ID:          uuid.New(),
			ChallengeID: challengeID,
			UserID:      userID,
			Kind:        kind,
			EarnedAt:    earnedAt,
		})
	}
	if len(awarded) == 0 {
		return nil, nil
	}

	if err := s.store.InsertBadges(ctx, awarded); err != nil {
		return nil, err
	}
	for _, b := range awarded {
		metrics.BadgesAwarded.WithLabelValues(string(b.Kind)).Inc()
	}
	return awarded, nil
}

// Streak returns the user's current consecutive-day streak as of today in the
// challenge's reference time zone.
func (s *EngagementService) Streak(ctx context.Context, challengeID, userID uuid.UUID) (int, error) {
	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return 0, err
	}
	history, err := s.store.ListUserCheckins(ctx, challengeID, userID)
	if err != nil {
		return 0, err
	}
	dates := make([]time.Time, 0, len(history))
	for _, c := range history {
		dates = append(dates, c.Date)
	}
	return streak.Current(dates, ch.DayOf(s.Now())), nil
}

// Leaderboard computes current standings for a challenge.
func (s *EngagementService) Leaderboard(ctx context.Context, challengeID uuid.UUID) (*leaderboard.Standings, error) {
	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	checkins, err := s.store.ListChallengeCheckins(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return leaderboard.Rank(participants, checkins, ch.DayOf(s.Now())), nil
}

func (s *EngagementService) UserCheckins(ctx context.Context, challengeID, userID uuid.UUID) ([]*checkin.Checkin, error) {
	return s.store.ListUserCheckins(ctx, challengeID, userID)
}

func (s *EngagementService) UserBadges(ctx context.Context, challengeID, userID uuid.UUID) ([]*badge.Badge, error) {
	return s.store.ListUserBadges(ctx, challengeID, userID)
}

func (s *EngagementService) ChallengeBadges(ctx context.Context, challengeID uuid.UUID) ([]*badge.Badge, error) {
	return s.store.ListChallengeBadges(ctx, challengeID)
}

// FeedItem pairs a raw activity signal with its decoded payload, when the
// payload (legacy or JSON encoded) could be parsed.
type FeedItem struct {
	Signal *activity.Signal                `json:"signal"`
	Event  *activity.WorkoutCompletedEvent `json:"event,omitempty"`
}

// TodayActivity returns the user's workout-completion signals for today (UTC)
// with payloads adapted into their structured form. Undecodable legacy
// payloads are tolerated; the signal is still returned without detail.
func (s *EngagementService) TodayActivity(ctx context.Context, userID uuid.UUID) ([]*FeedItem, error) {
	today := challenge.NormalizeDate(s.Now())
	signals, err := s.store.ListUserSignalsBetween(ctx, userID, today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	items := make([]*FeedItem, 0, len(signals))
	for _, sig := range signals {
		item := &FeedItem{Signal: sig}
		ev, err := activity.ParsePayload(sig.Payload)
		if err != nil {
			log.Printf("TodayActivity: unparseable payload on signal %s: %v", sig.ID, err)
		} else {
			item.Event = ev
		}
		items = append(items, item)
	}
	return items, nil
}

// CommentOnEvent attaches a comment to an activity-feed event in a challenge.
// Only participants may comment.
func (s *EngagementService) CommentOnEvent(ctx context.Context, challengeID, feedEventID, userID uuid.UUID, body string) (*comment.Comment, error) {
	if _, err := s.store.GetParticipant(ctx, challengeID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, err
	}

	c := &comment.Comment{
		ID:          uuid.New(),
		ChallengeID: challengeID,
		FeedEventID: feedEventID,
		UserID:      userID,
		Body:        body,
		CreatedAt:   s.Now(),
	}
	if err := s.store.AddComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *EngagementService) EventComments(ctx context.Context, challengeID, feedEventID uuid.UUID) ([]*comment.Comment, error) {
	return s.store.ListComments(ctx, challengeID, feedEventID)
}
