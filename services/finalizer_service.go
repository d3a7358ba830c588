package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"fitSquadAPI/internal/badge"
	"fitSquadAPI/internal/challenge"
	"fitSquadAPI/internal/leaderboard"
	"fitSquadAPI/internal/metrics"
	"fitSquadAPI/internal/store"
)

// finalizingStaleAfter bounds how long a finalizing status is trusted. A
// crash between entering finalizing and the revert would otherwise strand the
// challenge; past this bound the run is treated as abandoned and taken over.
const finalizingStaleAfter = 5 * time.Minute

// FinalizerService closes out an ended challenge exactly once, distributing
// completion and placement badges from the final standings. Exactly-once is
// enforced by an atomic status transition (active/ended -> finalizing) rather
// than a "does a completion badge exist" probe, so two concurrent sessions
// cannot both finalize. A failed badge write reverts the status, leaving the
// challenge eligible for retry on the next trigger; re-running distribution
// is safe because the badge batch is transactional and every insert is
// guarded by HasBadge.
type FinalizerService struct {
	store store.Store
	latch *processLatch

	// Now is overridable so tests can pin the calendar day.
	Now func() time.Time
}

func NewFinalizerService(st store.Store) *FinalizerService {
	return &FinalizerService{store: st, latch: newProcessLatch(), Now: time.Now}
}

// Finalize runs the finalization state machine for one challenge. It reports
// whether this call performed the finalization; false with a nil error means
// the challenge was not eligible or someone else already finalized it.
func (s *FinalizerService) Finalize(ctx context.Context, challengeID uuid.UUID) (bool, error) {
	key := latchKey{challengeID: challengeID, process: "finalize"}
	if !s.latch.tryAcquire(key) {
		return false, nil
	}
	defer s.latch.release(key)

	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return false, err
	}
	if ch.Status == challenge.StatusFinalized {
		return false, nil
	}
	from := []challenge.Status{challenge.StatusActive, challenge.StatusEnded}
	if ch.Status == challenge.StatusFinalizing {
		if s.Now().Sub(ch.StatusChangedAt) < finalizingStaleAfter {
			// another session is (presumably) still working
			return false, nil
		}
		from = []challenge.Status{challenge.StatusFinalizing}
	}
	today := ch.DayOf(s.Now())
	if !ch.HasEnded(today) {
		return false, nil
	}

	won, err := s.store.TransitionChallengeStatus(ctx, challengeID, from, challenge.StatusFinalizing, s.Now())
	if err != nil {
		return false, err
	}
	if !won {
		return false, nil
	}

	awarded, err := s.distributeBadges(ctx, challengeID, today)
	if err != nil {
		log.Printf("Finalize: badge distribution failed for challenge %s: %v", challengeID, err)
		s.revert(ctx, challengeID)
		return false, err
	}

	if _, err := s.store.TransitionChallengeStatus(ctx, challengeID,
		[]challenge.Status{challenge.StatusFinalizing}, challenge.StatusFinalized, s.Now()); err != nil {
		// badges are durable; the status catches up on the next trigger
		log.Printf("Finalize: failed to mark challenge %s finalized: %v", challengeID, err)
		return false, err
	}

	metrics.ChallengesFinalized.Inc()
	for _, b := range awarded {
		metrics.BadgesAwarded.WithLabelValues(string(b.Kind)).Inc()
	}
	return true, nil
}

func (s *FinalizerService) distributeBadges(ctx context.Context, challengeID uuid.UUID, today time.Time) ([]*badge.Badge, error) {
	participants, err := s.store.ListParticipants(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	checkins, err := s.store.ListChallengeCheckins(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	standings := leaderboard.Rank(participants, checkins, today)
	earnedAt := s.Now()

	var batch []*badge.Badge
	queue := func(userID uuid.UUID, kind badge.Kind) error {
		exists, err := s.store.HasBadge(ctx, challengeID, userID, kind)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		batch = append(batch, &badge.Badge{
			ID:          uuid.New(),
			ChallengeID: challengeID,
			UserID:      userID,
			Kind:        kind,
			EarnedAt:    earnedAt,
		})
		return nil
	}

	for _, entry := range standings.Entries {
		if entry.CheckinCount == 0 {
			continue
		}
		if err := queue(entry.UserID, badge.ChallengeCompleted); err != nil {
			return nil, err
		}
		if kind := badge.PlacementKind(entry.Rank); kind != "" {
			if err := queue(entry.UserID, kind); err != nil {
				return nil, err
			}
		}
	}

	if len(batch) == 0 {
		return nil, nil
	}
	if err := s.store.InsertBadges(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *FinalizerService) revert(ctx context.Context, challengeID uuid.UUID) {
	if _, err := s.store.TransitionChallengeStatus(ctx, challengeID,
		[]challenge.Status{challenge.StatusFinalizing}, challenge.StatusEnded, s.Now()); err != nil {
		log.Printf("Finalize: failed to revert challenge %s to ended: %v", challengeID, err)
	}
}
