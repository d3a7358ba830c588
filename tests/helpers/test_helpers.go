package helpers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fitSquadAPI/internal/store"
	"fitSquadAPI/middleware"
	"fitSquadAPI/services"
)

// Env bundles the engine's services over one in-memory store, with every
// service clock pinned to the same controllable day.
type Env struct {
	Store     *store.MemoryStore
	Users     *services.UserService
	Challenge *services.ChallengeService
	Engage    *services.EngagementService
	Sync      *services.SyncService
	Finalizer *services.FinalizerService
}

func NewEnv() *Env {
	st := store.NewMemoryStore()
	engagement := services.NewEngagementService(st)
	return &Env{
		Store:     st,
		Users:     services.NewUserService(st),
		Challenge: services.NewChallengeService(st),
		Engage:    engagement,
		Sync:      services.NewSyncService(st, engagement),
		Finalizer: services.NewFinalizerService(st),
	}
}

// SetDay pins every service's clock to noon UTC on the given calendar day.
func (e *Env) SetDay(year int, month time.Month, day int) {
	now := func() time.Time {
		return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	}
	e.Users.Now = now
	e.Challenge.Now = now
	e.Engage.Now = now
	e.Sync.Now = now
	e.Finalizer.Now = now
}

// Authenticate attaches a Clerk identity to the request the way the auth
// middleware would after verifying a token.
func Authenticate(r *http.Request, clerkID string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ClerkIDKey, clerkID)
	return r.WithContext(ctx)
}

// GenerateMockClerkJWT builds a signed JWT for middleware-level tests.
func GenerateMockClerkJWT(clerkID string) (string, error) {
	secretKey := []byte("test-secret-key-for-testing-only")

	claims := jwt.MapClaims{
		"sub": clerkID,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"azp": "test-app-id",
		"sid": "sess_test123",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}
