package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fitSquadAPI/internal/store"
	"fitSquadAPI/internal/user"
)

// UserService resolves authenticated identities to engine user records.
// Profile management proper lives outside this subsystem.
type UserService struct {
	store store.Store

	Now func() time.Time
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st, Now: time.Now}
}

// EnsureUser returns the user for a Clerk identity, creating a minimal record
// on first sight.
func (s *UserService) EnsureUser(ctx context.Context, clerkID string) (*user.User, error) {
	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	u = &user.User{
		ID:        uuid.New(),
		ClerkID:   clerkID,
		Username:  defaultUsername(clerkID),
		CreatedAt: s.Now(),
	}
	if err := s.store.UpsertUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func defaultUsername(clerkID string) string {
	name := strings.TrimPrefix(clerkID, "user_")
	if len(name) > 12 {
		name = name[:12]
	}
	return "athlete_" + name
}
