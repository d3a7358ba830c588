package activity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// WorkoutCompletedEvent is the structured form of a workout_completed signal
// payload. Current producers write it as JSON; two legacy text encodings are
// still present in historical rows and are adapted here at the read boundary.
type WorkoutCompletedEvent struct {
	WorkoutName string `json:"workout_name"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
}

// ParsePayload decodes a signal payload into a WorkoutCompletedEvent.
//
// Supported encodings, newest first:
//   - JSON: {"workout_name":"Push Day","sets":4,"reps":10}
//   - key=value pairs: workout=Push Day;sets=4;reps=10
//   - pipe-delimited: Push Day|4|10
//
// An empty payload yields a nil event without error; signals predating payload
// support simply have no detail to show.
func ParsePayload(raw string) (*WorkoutCompletedEvent, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if strings.HasPrefix(raw, "{") {
		ev := &WorkoutCompletedEvent{}
		if err := json.Unmarshal([]byte(raw), ev); err != nil {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
		return ev, nil
	}

	if strings.Contains(raw, "=") {
		return parseKeyValuePayload(raw)
	}

	return parsePipePayload(raw)
}

func parseKeyValuePayload(raw string) (*WorkoutCompletedEvent, error) {
	ev := &WorkoutCompletedEvent{}
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed payload segment %q", pair)
		}
		switch strings.TrimSpace(key) {
		case "workout":
			ev.WorkoutName = strings.TrimSpace(value)
		case "sets":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid sets value %q", value)
			}
			ev.Sets = n
		case "reps":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid reps value %q", value)
			}
			ev.Reps = n
		}
	}
	if ev.WorkoutName == "" {
		return nil, fmt.Errorf("payload missing workout name")
	}
	return ev, nil
}

func parsePipePayload(raw string) (*WorkoutCompletedEvent, error) {
	parts := strings.Split(raw, "|")
	ev := &WorkoutCompletedEvent{WorkoutName: strings.TrimSpace(parts[0])}
	if ev.WorkoutName == "" {
		return nil, fmt.Errorf("payload missing workout name")
	}
	if len(parts) > 1 {
		n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid sets value %q", parts[1])
		}
		ev.Sets = n
	}
	if len(parts) > 2 {
		n, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("invalid reps value %q", parts[2])
		}
		ev.Reps = n
	}
	return ev, nil
}
