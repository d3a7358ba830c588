package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload_JSON(t *testing.T) {
	ev, err := ParsePayload(`{"workout_name":"Push Day","sets":4,"reps":10}`)
	require.NoError(t, err)
	require.NotNil(t, ev)

	assert.Equal(t, "Push Day", ev.WorkoutName)
	assert.Equal(t, 4, ev.Sets)
	assert.Equal(t, 10, ev.Reps)
}

func TestParsePayload_KeyValue(t *testing.T) {
	ev, err := ParsePayload("workout=Push Day;sets=4;reps=10")
	require.NoError(t, err)
	require.NotNil(t, ev)

	assert.Equal(t, "Push Day", ev.WorkoutName)
	assert.Equal(t, 4, ev.Sets)
	assert.Equal(t, 10, ev.Reps)
}

func TestParsePayload_KeyValueTrailingSeparator(t *testing.T) {
	ev, err := ParsePayload("workout=Leg Day;sets=3;")
	require.NoError(t, err)

	assert.Equal(t, "Leg Day", ev.WorkoutName)
	assert.Equal(t, 3, ev.Sets)
	assert.Equal(t, 0, ev.Reps)
}

func TestParsePayload_Pipe(t *testing.T) {
	ev, err := ParsePayload("Push Day|4|10")
	require.NoError(t, err)
	require.NotNil(t, ev)

	assert.Equal(t, "Push Day", ev.WorkoutName)
	assert.Equal(t, 4, ev.Sets)
	assert.Equal(t, 10, ev.Reps)
}

func TestParsePayload_PipeNameOnly(t *testing.T) {
	ev, err := ParsePayload("Morning Run")
	require.NoError(t, err)

	assert.Equal(t, "Morning Run", ev.WorkoutName)
	assert.Equal(t, 0, ev.Sets)
}

func TestParsePayload_Empty(t *testing.T) {
	ev, err := ParsePayload("")
	require.NoError(t, err)
	assert.Nil(t, ev)

	ev, err = ParsePayload("   ")
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestParsePayload_MalformedJSON(t *testing.T) {
	_, err := ParsePayload(`{"workout_name":`)
	assert.Error(t, err)
}

func TestParsePayload_BadNumbers(t *testing.T) {
	_, err := ParsePayload("workout=Push Day;sets=lots")
	assert.Error(t, err)

	_, err = ParsePayload("Push Day|four")
	assert.Error(t, err)
}

func TestParsePayload_KeyValueMissingWorkout(t *testing.T) {
	_, err := ParsePayload("sets=4;reps=10")
	assert.Error(t, err)
}
