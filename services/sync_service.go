package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"fitSquadAPI/internal/activity"
	"fitSquadAPI/internal/challenge"
	"fitSquadAPI/internal/checkin"
	"fitSquadAPI/internal/metrics"
	"fitSquadAPI/internal/store"
)

// SyncService turns externally produced workout-completion activity into auto
// check-ins. It is triggered reactively (on view load, on poll), never as a
// background scheduler, and is guarded per (challenge, user) against
// re-entering while a previous run's storage round-trip is outstanding.
type SyncService struct {
	store      store.Store
	engagement *EngagementService
	latch      *processLatch

	// Now is overridable so tests can pin the calendar day.
	Now func() time.Time
}

func NewSyncService(st store.Store, engagement *EngagementService) *SyncService {
	return &SyncService{
		store:      st,
		engagement: engagement,
		latch:      newProcessLatch(),
		Now:        time.Now,
	}
}

// Sync detects today's qualifying workout for the user and records an auto
// check-in if none exists yet. It reports whether a check-in was written so
// the caller knows to refresh derived views. Read failures abort silently:
// the user can still check in manually, and the next trigger retries.
func (s *SyncService) Sync(ctx context.Context, challengeID, userID uuid.UUID) (bool, error) {
	key := latchKey{challengeID: challengeID, userID: userID, process: "sync"}
	if !s.latch.tryAcquire(key) {
		return false, nil
	}
	defer s.latch.release(key)

	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		log.Printf("Sync: failed to load challenge %s: %v", challengeID, err)
		return false, nil
	}

	today := ch.DayOf(s.Now())
	if ch.Status != challenge.StatusActive || !ch.InWindow(today) {
		return false, nil
	}

	if _, err := s.store.GetParticipant(ctx, challengeID, userID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Sync: failed to load participant %s: %v", userID, err)
		}
		return false, nil
	}

	exists, err := s.store.HasCheckinOn(ctx, challengeID, userID, today)
	if err != nil {
		log.Printf("Sync: failed to check existing check-in: %v", err)
		return false, nil
	}
	if exists {
		return false, nil
	}

	dayStart, dayEnd := ch.DayWindow(today)
	signals, err := s.store.ListUserSignalsBetween(ctx, userID, dayStart, dayEnd)
	if err != nil {
		log.Printf("Sync: failed to read activity signals for user %s: %v", userID, err)
		return false, nil
	}
	logs, err := s.store.ListUserWorkoutLogsOn(ctx, userID, today)
	if err != nil {
		log.Printf("Sync: failed to read workout logs for user %s: %v", userID, err)
		return false, nil
	}
	if len(signals) == 0 && len(logs) == 0 {
		metrics.SyncRuns.WithLabelValues("no_activity").Inc()
		return false, nil
	}

	workoutID, feedEventID := s.qualify(ch, today, signals, logs)
	if workoutID == nil {
		metrics.SyncRuns.WithLabelValues("not_qualified").Inc()
		return false, nil
	}

	c := &checkin.Checkin{
		ID:          uuid.New(),
		ChallengeID: challengeID,
		UserID:      userID,
		Date:        today,
		Origin:      checkin.OriginAuto,
		WorkoutID:   workoutID,
		FeedEventID: feedEventID,
		CreatedAt:   s.Now(),
	}
	if err := s.store.InsertCheckin(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicateCheckin) {
			// another path (manual check-in, second session) recorded today
			metrics.SyncRuns.WithLabelValues("duplicate").Inc()
			return false, nil
		}
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return false, err
	}
	metrics.CheckinsRecorded.WithLabelValues(string(checkin.OriginAuto)).Inc()
	metrics.SyncRuns.WithLabelValues("recorded").Inc()

	if _, err := s.engagement.EvaluateBadges(ctx, challengeID, userID); err != nil {
		log.Printf("Sync: badge evaluation failed for user %s: %v", userID, err)
	}

	return true, nil
}

// qualify resolves today's qualifying workout reference per the challenge's
// check-in mode. For any_workout the most recent completed-workout signal
// wins; when the signal has not propagated yet but a workout log exists, the
// log qualifies instead. For specific_workout only a log of the bound workout
// qualifies, with the matching signal linked when visible.
func (s *SyncService) qualify(ch *challenge.Challenge, today time.Time, signals []*activity.Signal, logs []*activity.WorkoutLog) (*uuid.UUID, *uuid.UUID) {
	switch ch.CheckinMode {
	case challenge.ModeAnyWorkout:
		if sig := latestCompletedSignal(signals, nil); sig != nil {
			workoutID := sig.WorkoutID
			feedEventID := sig.ID
			return &workoutID, &feedEventID
		}
		if len(logs) > 0 {
			workoutID := logs[len(logs)-1].WorkoutID
			return &workoutID, nil
		}

	case challenge.ModeSpecificWorkout:
		if ch.SpecificWorkoutID == nil {
			return nil, nil
		}
		for _, wl := range logs {
			if wl.WorkoutID == *ch.SpecificWorkoutID {
				workoutID := *ch.SpecificWorkoutID
				if sig := latestCompletedSignal(signals, ch.SpecificWorkoutID); sig != nil {
					feedEventID := sig.ID
					return &workoutID, &feedEventID
				}
				return &workoutID, nil
			}
		}
	}
	return nil, nil
}

// latestCompletedSignal picks the workout_completed signal with the greatest
// timestamp, optionally restricted to one workout. Ties resolve to the signal
// seen last, matching "latest timestamp wins".
func latestCompletedSignal(signals []*activity.Signal, workoutID *uuid.UUID) *activity.Signal {
	var best *activity.Signal
	for _, sig := range signals {
		if sig.EventKind != activity.EventWorkoutCompleted {
			continue
		}
		if workoutID != nil && sig.WorkoutID != *workoutID {
			continue
		}
		if best == nil || !sig.OccurredAt.Before(best.OccurredAt) {
			best = sig
		}
	}
	return best
}
