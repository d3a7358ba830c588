package store

import (
	"context"
	"fmt"
)

// schema covers the tables the engine owns. activity_feed and workout_logs are
// written by the workout-logging subsystem; they are created here only so a
// fresh database is usable end to end. The unique index on
// (challenge_id, user_id, checkin_date) is the engine's one hard concurrency
// contract at the storage layer.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	clerk_id TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL,
	image_url TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS challenges (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	emoji TEXT NOT NULL DEFAULT '',
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	weekly_frequency INT NOT NULL DEFAULT 7,
	checkin_type TEXT NOT NULL,
	specific_workout_id UUID,
	visibility TEXT NOT NULL DEFAULT 'public',
	join_rule TEXT NOT NULL DEFAULT 'anyone',
	max_participants INT,
	timezone TEXT NOT NULL DEFAULT 'UTC',
	created_by UUID NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	status_changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (start_date <= end_date)
);

CREATE TABLE IF NOT EXISTS challenge_participants (
	id UUID PRIMARY KEY,
	challenge_id UUID NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
	user_id UUID NOT NULL,
	role TEXT NOT NULL DEFAULT 'participant',
	joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (challenge_id, user_id)
);

CREATE TABLE IF NOT EXISTS challenge_checkins (
	id UUID PRIMARY KEY,
	challenge_id UUID NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
	user_id UUID NOT NULL,
	checkin_date DATE NOT NULL,
	checkin_type TEXT NOT NULL,
	workout_id UUID,
	feed_event_id UUID,
	evidence_note TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (challenge_id, user_id, checkin_date)
);

CREATE TABLE IF NOT EXISTS challenge_badges (
	id UUID PRIMARY KEY,
	challenge_id UUID NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
	user_id UUID NOT NULL,
	badge_type TEXT NOT NULL,
	earned_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS challenge_comments (
	id UUID PRIMARY KEY,
	challenge_id UUID NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
	feed_event_id UUID NOT NULL,
	user_id UUID NOT NULL,
	body TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS activity_feed (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	event_kind TEXT NOT NULL,
	workout_id UUID NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	payload TEXT
);

CREATE TABLE IF NOT EXISTS workout_logs (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	workout_id UUID NOT NULL,
	date DATE NOT NULL,
	sets JSONB NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_checkins_challenge ON challenge_checkins (challenge_id, checkin_date);
CREATE INDEX IF NOT EXISTS idx_badges_lookup ON challenge_badges (challenge_id, user_id, badge_type);
CREATE INDEX IF NOT EXISTS idx_activity_feed_user_time ON activity_feed (user_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_workout_logs_user_date ON workout_logs (user_id, date);
`

// Migrate creates the schema if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
