package store

import (
	"context"
	"sync"
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

type checkinKey struct {
	challengeID uuid.UUID
	userID      uuid.UUID
	date        time.Time
}

// MemoryStore implements Store with in-process maps. It upholds the same
// contracts as the Postgres backend: check-in uniqueness, atomic status
// transitions, all-or-nothing badge batches, cascade deletes.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]*user.User
	challenges   map[uuid.UUID]*challenge.Challenge
	participants map[uuid.UUID][]*participant.Participant
	checkins     map[uuid.UUID][]*checkin.Checkin
	checkinIdx   map[checkinKey]bool
	badges       map[uuid.UUID][]*badge.Badge
	comments     map[uuid.UUID][]*comment.Comment
	signals      map[uuid.UUID][]*activity.Signal
	workoutLogs  map[uuid.UUID][]*activity.WorkoutLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]*user.User),
		challenges:   make(map[uuid.UUID]*challenge.Challenge),
		participants: make(map[uuid.UUID][]*participant.Participant),
		checkins:     make(map[uuid.UUID][]*checkin.Checkin),
		checkinIdx:   make(map[checkinKey]bool),
		badges:       make(map[uuid.UUID][]*badge.Badge),
		comments:     make(map[uuid.UUID][]*comment.Comment),
		signals:      make(map[uuid.UUID][]*activity.Signal),
		workoutLogs:  make(map[uuid.UUID][]*activity.WorkoutLog),
	}
}

func (s *MemoryStore) UpsertUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ClerkID] = &cp
	return nil
}

func (s *MemoryStore) GetUserByClerkID(_ context.Context, clerkID string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[clerkID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) CreateChallenge(_ context.Context, c *challenge.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.challenges[c.ID] = &cp
	return nil
}

func (s *MemoryStore) GetChallenge(_ context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) ListChallengesByUser(_ context.Context, userID uuid.UUID) ([]*challenge.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*challenge.Challenge
	for id, members := range s.participants {
		for _, p := range members {
			if p.UserID == userID {
				if c, ok := s.challenges[id]; ok {
					cp := *c
					out = append(out, &cp)
				}
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateChallenge(_ context.Context, id uuid.UUID, title, description *string, endDate *time.Time) (*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil, ErrNotFound
	}
	if title != nil {
		c.Title = *title
	}
	if description != nil {
		c.Description = *description
	}
	if endDate != nil {
		c.EndDate = *endDate
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) DeleteChallenge(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.challenges[id]; !ok {
		return ErrNotFound
	}
	delete(s.challenges, id)
	delete(s.participants, id)
	for _, c := range s.checkins[id] {
		delete(s.checkinIdx, checkinKey{c.ChallengeID, c.UserID, c.Date})
	}
	delete(s.checkins, id)
	delete(s.badges, id)
	delete(s.comments, id)
	return nil
}

func (s *MemoryStore) TransitionChallengeStatus(_ context.Context, id uuid.UUID, from []challenge.Status, to challenge.Status, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return false, ErrNotFound
	}
	for _, st := range from {
		if c.Status == st {
			c.Status = to
			c.StatusChangedAt = at
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) AddParticipant(_ context.Context, p *participant.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.participants[p.ChallengeID] {
		if existing.UserID == p.UserID {
			return ErrDuplicateParticipant
		}
	}
	cp := *p
	s.participants[p.ChallengeID] = append(s.participants[p.ChallengeID], &cp)
	return nil
}

func (s *MemoryStore) GetParticipant(_ context.Context, challengeID, userID uuid.UUID) (*participant.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.participants[challengeID] {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListParticipants(_ context.Context, challengeID uuid.UUID) ([]*participant.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := s.participants[challengeID]
	out := make([]*participant.Participant, 0, len(members))
	for _, p := range members {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) CountParticipants(_ context.Context, challengeID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants[challengeID]), nil
}

func (s *MemoryStore) RemoveParticipant(_ context.Context, challengeID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.participants[challengeID]
	for i, p := range members {
		if p.UserID == userID {
			s.participants[challengeID] = append(members[:i:i], members[i+1:]...)
			break
		}
	}

	kept := s.checkins[challengeID][:0]
	for _, c := range s.checkins[challengeID] {
		if c.UserID == userID {
			delete(s.checkinIdx, checkinKey{c.ChallengeID, c.UserID, c.Date})
			continue
		}
		kept = append(kept, c)
	}
	s.checkins[challengeID] = kept

	keptBadges := s.badges[challengeID][:0]
	for _, b := range s.badges[challengeID] {
		if b.UserID != userID {
			keptBadges = append(keptBadges, b)
		}
	}
	s.badges[challengeID] = keptBadges
	return nil
}

func (s *MemoryStore) InsertCheckin(_ context.Context, c *checkin.Checkin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := checkinKey{c.ChallengeID, c.UserID, c.Date}
	if s.checkinIdx[key] {
		return ErrDuplicateCheckin
	}
	s.checkinIdx[key] = true
	cp := *c
	s.checkins[c.ChallengeID] = append(s.checkins[c.ChallengeID], &cp)
	return nil
}

func (s *MemoryStore) GetCheckinOn(_ context.Context, challengeID, userID uuid.UUID, date time.Time) (*checkin.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.checkins[challengeID] {
		if c.UserID == userID && c.Date.Equal(date) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) HasCheckinOn(_ context.Context, challengeID, userID uuid.UUID, date time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkinIdx[checkinKey{challengeID, userID, date}], nil
}

func (s *MemoryStore) ListUserCheckins(_ context.Context, challengeID, userID uuid.UUID) ([]*checkin.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*checkin.Checkin
	for _, c := range s.checkins[challengeID] {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListChallengeCheckins(_ context.Context, challengeID uuid.UUID) ([]*checkin.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	checkins := s.checkins[challengeID]
	out := make([]*checkin.Checkin, 0, len(checkins))
	for _, c := range checkins {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) InsertBadges(_ context.Context, badges []*badge.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range badges {
		cp := *b
		s.badges[b.ChallengeID] = append(s.badges[b.ChallengeID], &cp)
	}
	return nil
}

func (s *MemoryStore) HasBadge(_ context.Context, challengeID, userID uuid.UUID, kind badge.Kind) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.badges[challengeID] {
		if b.UserID == userID && b.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListUserBadges(_ context.Context, challengeID, userID uuid.UUID) ([]*badge.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*badge.Badge
	for _, b := range s.badges[challengeID] {
		if b.UserID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListChallengeBadges(_ context.Context, challengeID uuid.UUID) ([]*badge.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	badges := s.badges[challengeID]
	out := make([]*badge.Badge, 0, len(badges))
	for _, b := range badges {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) ListUserSignalsBetween(_ context.Context, userID uuid.UUID, start, end time.Time) ([]*activity.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*activity.Signal
	for _, sig := range s.signals[userID] {
		if !sig.OccurredAt.Before(start) && sig.OccurredAt.Before(end) {
			cp := *sig
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListUserWorkoutLogsOn(_ context.Context, userID uuid.UUID, date time.Time) ([]*activity.WorkoutLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*activity.WorkoutLog
	for _, wl := range s.workoutLogs[userID] {
		if wl.Date.Equal(date) {
			cp := *wl
			out = append(out, &cp)
		}
	}
	return out, nil
}

// SeedSignal and SeedWorkoutLog stand in for the external workout-logging
// subsystem, which owns these records in production.
func (s *MemoryStore) SeedSignal(sig *activity.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sig
	s.signals[sig.UserID] = append(s.signals[sig.UserID], &cp)
}

func (s *MemoryStore) SeedWorkoutLog(wl *activity.WorkoutLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *wl
	s.workoutLogs[wl.UserID] = append(s.workoutLogs[wl.UserID], &cp)
}

func (s *MemoryStore) AddComment(_ context.Context, c *comment.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.comments[c.ChallengeID] = append(s.comments[c.ChallengeID], &cp)
	return nil
}

func (s *MemoryStore) ListComments(_ context.Context, challengeID, feedEventID uuid.UUID) ([]*comment.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*comment.Comment
	for _, c := range s.comments[challengeID] {
		if c.FeedEventID == feedEventID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}
