package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitSquadAPI/internal/badge"
	"fitSquadAPI/internal/challenge"
	"fitSquadAPI/internal/store"
)

func kindsFor(t *testing.T, st *store.MemoryStore, challengeID, userID uuid.UUID) []badge.Kind {
	t.Helper()
	badges, err := st.ListUserBadges(context.Background(), challengeID, userID)
	require.NoError(t, err)
	kinds := make([]badge.Kind, 0, len(badges))
	for _, b := range badges {
		kinds = append(kinds, b.Kind)
	}
	return kinds
}

func TestFinalize_DistributesCompletionAndPlacement(t *testing.T) {
	st := store.NewMemoryStore()
	engagement := NewEngagementService(st)
	userA := uuid.New()
	userB := uuid.New()
	userC := uuid.New()
	idle := uuid.New()
	ch := newTestChallenge(t, st, userA, userB, userC, idle)
	ctx := context.Background()

	// A checks in three days, B two, C one, idle never
	for d, users := range map[int][]uuid.UUID{
		1: {userA, userB, userC},
		2: {userA, userB},
		3: {userA},
	} {
		engagement.Now = fixedClock(2026, 2, d)
		for _, u := range users {
			_, err := engagement.RecordManualCheckin(ctx, ch.ID, u, nil)
			require.NoError(t, err)
		}
	}

	svc := NewFinalizerService(st)
	svc.Now = fixedClock(2026, 3, 1)

	done, err := svc.Finalize(ctx, ch.ID)
	require.NoError(t, err)
	assert.True(t, done)

	got, err := st.GetChallenge(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusFinalized, got.Status)

	assert.Contains(t, kindsFor(t, st, ch.ID, userA), badge.ChallengeCompleted)
	assert.Contains(t, kindsFor(t, st, ch.ID, userA), badge.Top1Challenge)
	assert.Contains(t, kindsFor(t, st, ch.ID, userB), badge.Top2Challenge)
	assert.Contains(t, kindsFor(t, st, ch.ID, userC), badge.Top3Challenge)

	// no check-ins, no completion badge
	assert.Empty(t, kindsFor(t, st, ch.ID, idle))
}

func TestFinalize_RunsExactlyOnce(t *testing.T) {
	st := store.NewMemoryStore()
	engagement := NewEngagementService(st)
	userID := uuid.New()
	ch := newTestChallenge(t, st, userID)
	ctx := context.Background()

	engagement.Now = fixedClock(2026, 2, 3)
	_, err := engagement.RecordManualCheckin(ctx, ch.ID, userID, nil)
	require.NoError(t, err)

	svc := NewFinalizerService(st)
	svc.Now = fixedClock(2026, 3, 1)

	done, err := svc.Finalize(ctx, ch.ID)
	require.NoError(t, err)
	require.True(t, done)

	done, err = svc.Finalize(ctx, ch.ID)
	require.NoError(t, err)
	assert.False(t, done)

	kinds := kindsFor(t, st, ch.ID, userID)
	completed := 0
	for _, k := range kinds {
		if k == badge.ChallengeCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}

func TestFinalize_NotEligibleBeforeEnd(t *testing.T) {
	st := store.NewMemoryStore()
	ch := newTestChallenge(t, st, uuid.New())
	ctx := context.Background()

	svc := NewFinalizerService(st)

	// last day of the window is still not eligible
	svc.Now = fixedClock(2026, 2, 28)
	done, err := svc.Finalize(ctx, ch.ID)
	require.NoError(t, err)
	assert.False(t, done)

	got, err := st.GetChallenge(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusActive, got.Status)
}

func TestFinalize_SkipsAlreadyFinalized(t *testing.T) {
	st := store.NewMemoryStore()
	ch := newTestChallenge(t, st, uuid.New())
	ctx := context.Background()

	_, err := st.TransitionChallengeStatus(ctx, ch.ID,
		[]challenge.Status{challenge.StatusActive}, challenge.StatusFinalized, time.Now())
	require.NoError(t, err)

	svc := NewFinalizerService(st)
	svc.Now = fixedClock(2026, 3, 1)

	done, err := svc.Finalize(ctx, ch.ID)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestFinalize_TakesOverStaleFinalizing(t *testing.T) {
	st := store.NewMemoryStore()
	engagement := NewEngagementService(st)
	userID := uuid.New()
	ch := newTestChallenge(t, st, userID)
	ctx := context.Background()

	engagement.Now = fixedClock(2026, 2, 3)
	_, err := engagement.RecordManualCheckin(ctx, ch.ID, userID, nil)
	require.NoError(t, err)

	// a previous session crashed mid-finalization ten minutes ago
	won, err := st.TransitionChallengeStatus(ctx, ch.ID,
		[]challenge.Status{challenge.StatusActive}, challenge.StatusFinalizing,
		time.Date(2026, 3, 1, 11, 50, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, won)

	svc := NewFinalizerService(st)
	svc.Now = fixedClock(2026, 3, 1)

	done, err := svc.Finalize(ctx, ch.ID)
	require.NoError(t, err)
	assert.True(t, done)

	got, err := st.GetChallenge(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusFinalized, got.Status)
	assert.Contains(t, kindsFor(t, st, ch.ID, userID), badge.ChallengeCompleted)
}

func TestFinalize_LeavesFreshFinalizingAlone(t *testing.T) {
	st := store.NewMemoryStore()
	ch := newTestChallenge(t, st, uuid.New())
	ctx := context.Background()

	won, err := st.TransitionChallengeStatus(ctx, ch.ID,
		[]challenge.Status{challenge.StatusActive}, challenge.StatusFinalizing,
		time.Date(2026, 3, 1, 11, 58, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, won)

	svc := NewFinalizerService(st)
	svc.Now = fixedClock(2026, 3, 1)

	done, err := svc.Finalize(ctx, ch.ID)
	require.NoError(t, err)
	assert.False(t, done)

	got, err := st.GetChallenge(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusFinalizing, got.Status)
}

func TestFinalize_MissingChallenge(t *testing.T) {
	svc := NewFinalizerService(store.NewMemoryStore())
	_, err := svc.Finalize(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFinalize_PlacementGoesByCountNotJoinOrder(t *testing.T) {
	st := store.NewMemoryStore()
	engagement := NewEngagementService(st)
	first := uuid.New()
	second := uuid.New()
	ch := newTestChallenge(t, st, first, second)
	ctx := context.Background()

	// the later joiner out-trains the owner
	for d := 1; d <= 2; d++ {
		engagement.Now = fixedClock(2026, 2, d)
		_, err := engagement.RecordManualCheckin(ctx, ch.ID, second, nil)
		require.NoError(t, err)
	}
	engagement.Now = fixedClock(2026, 2, 1)
	_, err := engagement.RecordManualCheckin(ctx, ch.ID, first, nil)
	require.NoError(t, err)

	svc := NewFinalizerService(st)
	svc.Now = fixedClock(2026, 3, 1)

	done, err := svc.Finalize(ctx, ch.ID)
	require.NoError(t, err)
	require.True(t, done)

	assert.Contains(t, kindsFor(t, st, ch.ID, second), badge.Top1Challenge)
	assert.Contains(t, kindsFor(t, st, ch.ID, first), badge.Top2Challenge)
}
