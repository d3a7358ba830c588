package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fitSquadAPI/internal/challenge"
	"fitSquadAPI/internal/participant"
	"fitSquadAPI/internal/store"
)

type ChallengeService struct {
	store store.Store

	// Now is overridable so tests can pin the calendar day.
	Now func() time.Time
}

func NewChallengeService(st store.Store) *ChallengeService {
	return &ChallengeService{store: st, Now: time.Now}
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, creatorID uuid.UUID, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start_date %q", ErrInvalidRequest, req.StartDate)
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end_date %q", ErrInvalidRequest, req.EndDate)
	}
	startDate = challenge.NormalizeDate(startDate)
	endDate = challenge.NormalizeDate(endDate)
	if startDate.After(endDate) {
		return nil, fmt.Errorf("%w: start_date must not be after end_date", ErrInvalidRequest)
	}

	if req.WeeklyFrequency < 1 || req.WeeklyFrequency > 7 {
		return nil, fmt.Errorf("%w: weekly_frequency must be between 1 and 7", ErrInvalidRequest)
	}

	mode := challenge.CheckinMode(req.CheckinMode)
	var specificWorkoutID *uuid.UUID
	switch mode {
	case challenge.ModeAnyWorkout:
	case challenge.ModeSpecificWorkout:
		if req.SpecificWorkoutID == nil {
			return nil, fmt.Errorf("%w: specific_workout mode requires specific_workout_id", ErrInvalidRequest)
		}
		id, err := uuid.Parse(*req.SpecificWorkoutID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid specific_workout_id", ErrInvalidRequest)
		}
		specificWorkoutID = &id
	default:
		return nil, fmt.Errorf("%w: unknown checkin_type %q", ErrInvalidRequest, req.CheckinMode)
	}

	tz := req.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidRequest, tz)
	}

	visibility := challenge.Visibility(req.Visibility)
	if visibility == "" {
		visibility = challenge.VisibilityPublic
	}
	joinRule := challenge.JoinRule(req.JoinRule)
	if joinRule == "" {
		joinRule = challenge.JoinAnyone
	}

	ch := &challenge.Challenge{
		ID:                uuid.New(),
		Title:             req.Title,
		Description:       req.Description,
		Emoji:             req.Emoji,
		StartDate:         startDate,
		EndDate:           endDate,
		WeeklyFrequency:   req.WeeklyFrequency,
		CheckinMode:       mode,
		SpecificWorkoutID: specificWorkoutID,
		Visibility:        visibility,
		JoinRule:          joinRule,
		MaxParticipants:   req.MaxParticipants,
		Timezone:          tz,
		CreatedBy:         creatorID,
		Status:            challenge.StatusActive,
		StatusChangedAt:   s.Now(),
		CreatedAt:         s.Now(),
	}

	if err := s.store.CreateChallenge(ctx, ch); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	owner := &participant.Participant{
		ID:          uuid.New(),
		ChallengeID: ch.ID,
		UserID:      creatorID,
		Role:        participant.RoleOwner,
		JoinedAt:    s.Now(),
	}
	if err := s.store.AddParticipant(ctx, owner); err != nil {
		return nil, fmt.Errorf("failed to add challenge owner: %w", err)
	}

	return ch, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	return s.store.GetChallenge(ctx, id)
}

func (s *ChallengeService) ListUserChallenges(ctx context.Context, userID uuid.UUID) ([]*challenge.Challenge, error) {
	return s.store.ListChallengesByUser(ctx, userID)
}

func (s *ChallengeService) UpdateChallenge(ctx context.Context, challengeID, userID uuid.UUID, req *challenge.UpdateChallengeRequest) (*challenge.Challenge, error) {
	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	member, err := s.store.GetParticipant(ctx, challengeID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotAuthorized
		}
		return nil, err
	}
	if !member.CanManage() {
		return nil, ErrNotAuthorized
	}

	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid end_date %q", ErrInvalidRequest, *req.EndDate)
		}
		normalized := challenge.NormalizeDate(parsed)
		if normalized.Before(ch.StartDate) {
			return nil, fmt.Errorf("%w: end_date must not precede start_date", ErrInvalidRequest)
		}
		endDate = &normalized
	}

	return s.store.UpdateChallenge(ctx, challengeID, req.Title, req.Description, endDate)
}

func (s *ChallengeService) DeleteChallenge(ctx context.Context, challengeID, userID uuid.UUID) error {
	member, err := s.store.GetParticipant(ctx, challengeID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotAuthorized
		}
		return err
	}
	if member.Role != participant.RoleOwner {
		return ErrNotAuthorized
	}
	return s.store.DeleteChallenge(ctx, challengeID)
}

func (s *ChallengeService) JoinChallenge(ctx context.Context, challengeID, userID uuid.UUID) (*participant.Participant, error) {
	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	if ch.MaxParticipants != nil {
		count, err := s.store.CountParticipants(ctx, challengeID)
		if err != nil {
			return nil, err
		}
		if count >= *ch.MaxParticipants {
			return nil, ErrChallengeFull
		}
	}

	role := participant.RoleParticipant
	if userID == ch.CreatedBy {
		role = participant.RoleOwner
	}

	p := &participant.Participant{
		ID:          uuid.New(),
		ChallengeID: challengeID,
		UserID:      userID,
		Role:        role,
		JoinedAt:    s.Now(),
	}
	if err := s.store.AddParticipant(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicateParticipant) {
			return nil, ErrAlreadyJoined
		}
		return nil, err
	}
	return p, nil
}

// Participants returns challenge members in join order, re-deriving the owner
// row from the creator identity when it is missing.
func (s *ChallengeService) Participants(ctx context.Context, challengeID uuid.UUID) ([]*participant.Participant, error) {
	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListParticipants(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	for _, p := range members {
		if p.Role == participant.RoleOwner {
			return members, nil
		}
	}

	owner := &participant.Participant{
		ID:          uuid.New(),
		ChallengeID: challengeID,
		UserID:      ch.CreatedBy,
		Role:        participant.RoleOwner,
		JoinedAt:    s.Now(),
	}
	if err := s.store.AddParticipant(ctx, owner); err != nil {
		if !errors.Is(err, store.ErrDuplicateParticipant) {
			return nil, err
		}
		// the creator already has a non-owner row; leave it alone
		return members, nil
	}
	return append(members, owner), nil
}

func (s *ChallengeService) RemoveParticipant(ctx context.Context, challengeID, requesterID, targetID uuid.UUID) error {
	requester, err := s.store.GetParticipant(ctx, challengeID, requesterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotAuthorized
		}
		return err
	}
	if !requester.CanManage() && requesterID != targetID {
		return ErrNotAuthorized
	}

	target, err := s.store.GetParticipant(ctx, challengeID, targetID)
	if err != nil {
		return err
	}
	if target.Role == participant.RoleOwner {
		return ErrCannotRemoveOwner
	}

	return s.store.RemoveParticipant(ctx, challengeID, targetID)
}
