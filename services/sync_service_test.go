package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitSquadAPI/internal/activity"
	"fitSquadAPI/internal/badge"
	"fitSquadAPI/internal/challenge"
	"fitSquadAPI/internal/checkin"
	"fitSquadAPI/internal/store"
)

func newSyncFixture(t *testing.T, st *store.MemoryStore, day func() time.Time) *SyncService {
	t.Helper()
	engagement := NewEngagementService(st)
	engagement.Now = day
	svc := NewSyncService(st, engagement)
	svc.Now = day
	return svc
}

func signalAt(userID, workoutID uuid.UUID, at time.Time, payload string) *activity.Signal {
	return &activity.Signal{
		ID:         uuid.New(),
		UserID:     userID,
		EventKind:  activity.EventWorkoutCompleted,
		WorkoutID:  workoutID,
		OccurredAt: at,
		Payload:    payload,
	}
}

func logOn(userID, workoutID uuid.UUID, day time.Time) *activity.WorkoutLog {
	return &activity.WorkoutLog{
		ID:        uuid.New(),
		UserID:    userID,
		WorkoutID: workoutID,
		Date:      day,
	}
}

func TestSync_RecordsAutoCheckinFromSignal(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newSyncFixture(t, st, fixedClock(2026, 2, 3))
	userID := uuid.New()
	ch := newTestChallenge(t, st, userID)
	ctx := context.Background()

	workoutID := uuid.New()
	sig := signalAt(userID, workoutID, time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC), "")
	st.SeedSignal(sig)

	recorded, err := svc.Sync(ctx, ch.ID, userID)
	require.NoError(t, err)
	assert.True(t, recorded)

	history, err := st.ListUserCheckins(ctx, ch.ID, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	c := history[0]
	assert.Equal(t, checkin.OriginAuto, c.Origin)
	assert.Equal(t, challenge.Date(2026, 2, 3), c.Date)
	require.NotNil(t, c.WorkoutID)
	assert.Equal(t, workoutID, *c.WorkoutID)
	require.NotNil(t, c.FeedEventID)
	assert.Equal(t, sig.ID, *c.FeedEventID)
}

func TestSync_LatestSignalWins(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newSyncFixture(t, st, fixedClock(2026, 2, 3))
	userID := uuid.New()
	ch := newTestChallenge(t, st, userID)
	ctx := context.Background()

	early := signalAt(userID, uuid.New(), time.Date(2026, 2, 3, 7, 0, 0, 0, time.UTC), "")
	late := signalAt(userID, uuid.New(), time.Date(2026, 2, 3, 9, 30, 0, 0, time.UTC), "")
	st.SeedSignal(early)
	st.SeedSignal(late)

	recorded, err := svc.Sync(ctx, ch.ID, userID)
	require.NoError(t, err)
	require.True(t, recorded)

	history, err := st.ListUserCheckins(ctx, ch.ID, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, late.ID, *history[0].FeedEventID)
}

func TestSync_FallsBackToWorkoutLog(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newSyncFixture(t, st, fixedClock(2026, 2, 3))
	userID := uuid.New()
	ch := newTestChallenge(t, st, userID)
	ctx := context.Background()

	// the log is durable before its feed signal propagates
	workoutID := uuid.New()
	st.SeedWorkoutLog(logOn(userID, workoutID, challenge.Date(2026, 2, 3)))

	recorded, err := svc.Sync(ctx, ch.ID, userID)
	require.NoError(t, err)
	require.True(t, recorded)

	history, err := st.ListUserCheckins(ctx, ch.ID, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, workoutID, *history[0].WorkoutID)
	assert.Nil(t, history[0].FeedEventID)
}

func TestSync_NoActivityRecordsNothing(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newSyncFixture(t, st, fixedClock(2026, 2, 3))
	userID := uuid.New()
	ch := newTestChallenge(t, st, userID)

	recorded, err := svc.Sync(context.Background(), ch.ID, userID)
	require.NoError(t, err)
	assert.False(t, recorded)

	history, err := st.ListUserCheckins(context.Background(), ch.ID, userID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSync_SecondRunSameDayIsNoop(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newSyncFixture(t, st, fixedClock(2026, 2, 3))
	userID := uuid.New()
	ch := newTestChallenge(t, st, userID)
	ctx := context.Background()

	st.SeedSignal(signalAt(userID, uuid.New(), time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC), ""))

	recorded, err := svc.Sync(ctx, ch.ID, userID)
	require.NoError(t, err)
	require.True(t, recorded)

	recorded, err = svc.Sync(ctx, ch.ID, userID)
	require.NoError(t, err)
	assert.False(t, recorded)

	history, err := st.ListUserCheckins(ctx, ch.ID, userID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSync_ManualCheckinBlocksAuto(t *testing.T) {
	st := store.NewMemoryStore()
	clock := fixedClock(2026, 2, 3)
	svc := newSyncFixture(t, st, clock)
	userID := uuid.New()
	ch := newTestChallenge(t, st, userID)
	ctx := context.Background()

	_, err := svc.engagement.RecordManualCheckin(ctx, ch.ID, userID, nil)
	require.NoError(t, err)

	st.SeedSignal(signalAt(userID, uuid.New(), time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC), ""))

	recorded, err := svc.Sync(ctx, ch.ID, userID)
	require.NoError(t, err)
	assert.False(t, recorded)

	history, err := st.ListUserCheckins(ctx, ch.ID, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, checkin.OriginManual, history[0].Origin)
}

func TestSync_SpecificWorkoutMode(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newSyncFixture(t, st, fixedClock(2026, 2, 3))
	userID := uuid.New()
	ctx := context.Background()

	boundWorkout := uuid.New()
	ch := newTestChallenge(t, st, userID)
	ch.CheckinMode = challenge.ModeSpecificWorkout
	ch.SpecificWorkoutID = &boundWorkout
	require.NoError(t, st.CreateChallenge(ctx, ch))

	// a different workout does not qualify
	st.SeedWorkoutLog(logOn(userID, uuid.New(), challenge.Date(2026, 2, 3)))
	recorded, err := svc.Sync(ctx, ch.ID, userID)
	require.NoError(t, err)
	assert.False(t, recorded)

	// the bound workout does
	st.SeedWorkoutLog(logOn(userID, boundWorkout, challenge.Date(2026, 2, 3)))
	recorded, err = svc.Sync(ctx, ch.ID, userID)
	require.NoError(t, err)
	require.True(t, recorded)

	history, err := st.ListUserCheckins(ctx, ch.ID, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, boundWorkout, *history[0].WorkoutID)
}

func TestSync_EveningSignalCountsForChallengeLocalDay(t *testing.T) {
	st := store.NewMemoryStore()
	// 01:30 UTC on Feb 3 is still the evening of Feb 2 in New York
	clock := func() time.Time { return time.Date(2026, 2, 3, 1, 30, 0, 0, time.UTC) }
	svc := newSyncFixture(t, st, clock)
	userID := uuid.New()
	ctx := context.Background()

	ch := newTestChallenge(t, st, userID)
	ch.Timezone = "America/New_York"
	require.NoError(t, st.CreateChallenge(ctx, ch))

	st.SeedSignal(signalAt(userID, uuid.New(), time.Date(2026, 2, 3, 1, 0, 0, 0, time.UTC), ""))

	recorded, err := svc.Sync(ctx, ch.ID, userID)
	require.NoError(t, err)
	require.True(t, recorded)

	history, err := st.ListUserCheckins(ctx, ch.ID, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, challenge.Date(2026, 2, 2), history[0].Date)
}

func TestSync_PriorLocalDaySignalDoesNotCount(t *testing.T) {
	st := store.NewMemoryStore()
	clock := func() time.Time { return time.Date(2026, 2, 3, 1, 30, 0, 0, time.UTC) }
	svc := newSyncFixture(t, st, clock)
	userID := uuid.New()
	ctx := context.Background()

	ch := newTestChallenge(t, st, userID)
	ch.Timezone = "America/New_York"
	require.NoError(t, st.CreateChallenge(ctx, ch))

	// 01:00 UTC on Feb 2 is the evening of Feb 1 in New York, outside today
	st.SeedSignal(signalAt(userID, uuid.New(), time.Date(2026, 2, 2, 1, 0, 0, 0, time.UTC), ""))

	recorded, err := svc.Sync(ctx, ch.ID, userID)
	require.NoError(t, err)
	assert.False(t, recorded)

	history, err := st.ListUserCheckins(ctx, ch.ID, userID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSync_NonParticipantIgnored(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newSyncFixture(t, st, fixedClock(2026, 2, 3))
	ch := newTestChallenge(t, st, uuid.New())
	stranger := uuid.New()

	st.SeedSignal(signalAt(stranger, uuid.New(), time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC), ""))

	recorded, err := svc.Sync(context.Background(), ch.ID, stranger)
	require.NoError(t, err)
	assert.False(t, recorded)
}

func TestSync_OutsideWindowIgnored(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newSyncFixture(t, st, fixedClock(2026, 3, 2))
	userID := uuid.New()
	ch := newTestChallenge(t, st, userID)

	st.SeedSignal(signalAt(userID, uuid.New(), time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), ""))

	recorded, err := svc.Sync(context.Background(), ch.ID, userID)
	require.NoError(t, err)
	assert.False(t, recorded)
}

// TestSync_ChallengeRunWithSkippedDay drives one participant through a short
// challenge with a rest day in the middle, then finalizes it.
func TestSync_ChallengeRunWithSkippedDay(t *testing.T) {
	st := store.NewMemoryStore()
	engagement := NewEngagementService(st)
	svc := NewSyncService(st, engagement)
	userID := uuid.New()
	ctx := context.Background()

	ch := newTestChallenge(t, st, userID)
	ch.StartDate = challenge.Date(2026, 2, 1)
	ch.EndDate = challenge.Date(2026, 2, 5)
	require.NoError(t, st.CreateChallenge(ctx, ch))

	for _, d := range []int{1, 2, 4} {
		clock := fixedClock(2026, 2, d)
		svc.Now = clock
		engagement.Now = clock
		st.SeedSignal(signalAt(userID, uuid.New(), time.Date(2026, 2, d, 8, 0, 0, 0, time.UTC), ""))

		recorded, err := svc.Sync(ctx, ch.ID, userID)
		require.NoError(t, err)
		assert.True(t, recorded)
	}

	history, err := st.ListUserCheckins(ctx, ch.ID, userID)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	// the rest day on the 3rd broke the run
	days, err := engagement.Streak(ctx, ch.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, days)

	owned, err := st.ListUserBadges(ctx, ch.ID, userID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, badge.FirstFlame, owned[0].Kind)

	finalizer := NewFinalizerService(st)
	finalizer.Now = fixedClock(2026, 2, 6)
	done, err := finalizer.Finalize(ctx, ch.ID)
	require.NoError(t, err)
	require.True(t, done)

	owned, err = st.ListUserBadges(ctx, ch.ID, userID)
	require.NoError(t, err)
	kinds := make([]badge.Kind, 0, len(owned))
	for _, b := range owned {
		kinds = append(kinds, b.Kind)
	}
	assert.ElementsMatch(t, []badge.Kind{badge.FirstFlame, badge.ChallengeCompleted, badge.Top1Challenge}, kinds)
}

func TestSync_AwardsEngagementBadges(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newSyncFixture(t, st, fixedClock(2026, 2, 3))
	userID := uuid.New()
	ch := newTestChallenge(t, st, userID)
	ctx := context.Background()

	st.SeedSignal(signalAt(userID, uuid.New(), time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC), ""))

	recorded, err := svc.Sync(ctx, ch.ID, userID)
	require.NoError(t, err)
	require.True(t, recorded)

	has, err := st.HasBadge(ctx, ch.ID, userID, badge.FirstFlame)
	require.NoError(t, err)
	assert.True(t, has)
}
