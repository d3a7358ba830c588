package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitSquadAPI/internal/activity"
	"fitSquadAPI/internal/badge"
	"fitSquadAPI/internal/challenge"
	"fitSquadAPI/internal/checkin"
	"fitSquadAPI/internal/comment"
	"fitSquadAPI/internal/participant"
	"fitSquadAPI/internal/user"
)

const pgUniqueViolation = "23505"

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UpsertUser(ctx context.Context, u *user.User) error {
	query := `
	INSERT INTO users (id, clerk_id, username, image_url, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (clerk_id)
	DO UPDATE SET username = $3, image_url = $4
	`

	_, err := s.db.Exec(ctx, query, u.ID, u.ClerkID, u.Username, u.ImageURL, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, username, image_url, created_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(&u.ID, &u.ClerkID, &u.Username, &u.ImageURL, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	query := `
	INSERT INTO challenges (id, title, description, emoji, start_date, end_date, weekly_frequency,
		checkin_type, specific_workout_id, visibility, join_rule, max_participants, timezone,
		created_by, status, status_changed_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := s.db.Exec(ctx, query,
		c.ID, c.Title, c.Description, c.Emoji, c.StartDate, c.EndDate, c.WeeklyFrequency,
		c.CheckinMode, c.SpecificWorkoutID, c.Visibility, c.JoinRule, c.MaxParticipants, c.Timezone,
		c.CreatedBy, c.Status, c.StatusChangedAt, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

const challengeColumns = `id, title, description, emoji, start_date, end_date, weekly_frequency,
	checkin_type, specific_workout_id, visibility, join_rule, max_participants, timezone,
	created_by, status, status_changed_at, created_at`

func scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	c := &challenge.Challenge{}
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Emoji, &c.StartDate, &c.EndDate, &c.WeeklyFrequency,
		&c.CheckinMode, &c.SpecificWorkoutID, &c.Visibility, &c.JoinRule, &c.MaxParticipants, &c.Timezone,
		&c.CreatedBy, &c.Status, &c.StatusChangedAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`

	c, err := scanChallenge(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListChallengesByUser(ctx context.Context, userID uuid.UUID) ([]*challenge.Challenge, error) {
	query := `
	SELECT ` + challengeColumns + `
	FROM challenges c
	JOIN challenge_participants cp ON cp.challenge_id = c.id
	WHERE cp.user_id = $1
	ORDER BY c.start_date DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*challenge.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}
	return challenges, nil
}

func (s *PostgresStore) UpdateChallenge(ctx context.Context, id uuid.UUID, title, description *string, endDate *time.Time) (*challenge.Challenge, error) {
	query := `
	UPDATE challenges
	SET
		title = COALESCE($2, title),
		description = COALESCE($3, description),
		end_date = COALESCE($4, end_date)
	WHERE id = $1
	RETURNING ` + challengeColumns

	c, err := scanChallenge(s.db.QueryRow(ctx, query, id, title, description, endDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) DeleteChallenge(ctx context.Context, id uuid.UUID) error {
	// participants, check-ins, badges and comments cascade via FK constraints
	result, err := s.db.Exec(ctx, `DELETE FROM challenges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) TransitionChallengeStatus(ctx context.Context, id uuid.UUID, from []challenge.Status, to challenge.Status, at time.Time) (bool, error) {
	query := `
	UPDATE challenges
	SET status = $2, status_changed_at = $4
	WHERE id = $1 AND status = ANY($3)
	`

	states := make([]string, len(from))
	for i, st := range from {
		states[i] = string(st)
	}

	result, err := s.db.Exec(ctx, query, id, to, states, at)
	if err != nil {
		return false, fmt.Errorf("failed to transition challenge status: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (s *PostgresStore) AddParticipant(ctx context.Context, p *participant.Participant) error {
	query := `
	INSERT INTO challenge_participants (id, challenge_id, user_id, role, joined_at)
	VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query, p.ID, p.ChallengeID, p.UserID, p.Role, p.JoinedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateParticipant
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetParticipant(ctx context.Context, challengeID, userID uuid.UUID) (*participant.Participant, error) {
	query := `
	SELECT id, challenge_id, user_id, role, joined_at
	FROM challenge_participants
	WHERE challenge_id = $1 AND user_id = $2
	`

	p := &participant.Participant{}
	err := s.db.QueryRow(ctx, query, challengeID, userID).Scan(&p.ID, &p.ChallengeID, &p.UserID, &p.Role, &p.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListParticipants(ctx context.Context, challengeID uuid.UUID) ([]*participant.Participant, error) {
	query := `
	SELECT id, challenge_id, user_id, role, joined_at
	FROM challenge_participants
	WHERE challenge_id = $1
	ORDER BY joined_at, id
	`

	rows, err := s.db.Query(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*participant.Participant
	for rows.Next() {
		p := &participant.Participant{}
		if err := rows.Scan(&p.ID, &p.ChallengeID, &p.UserID, &p.Role, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}

func (s *PostgresStore) CountParticipants(ctx context.Context, challengeID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM challenge_participants WHERE challenge_id = $1`, challengeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) RemoveParticipant(ctx context.Context, challengeID, userID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, query := range []string{
		`DELETE FROM challenge_checkins WHERE challenge_id = $1 AND user_id = $2`,
		`DELETE FROM challenge_badges WHERE challenge_id = $1 AND user_id = $2`,
		`DELETE FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2`,
	} {
		if _, err := tx.Exec(ctx, query, challengeID, userID); err != nil {
			return fmt.Errorf("failed to remove participant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit participant removal: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertCheckin(ctx context.Context, c *checkin.Checkin) error {
	query := `
	INSERT INTO challenge_checkins (id, challenge_id, user_id, checkin_date, checkin_type,
		workout_id, feed_event_id, evidence_note, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		c.ID, c.ChallengeID, c.UserID, c.Date, c.Origin,
		c.WorkoutID, c.FeedEventID, c.EvidenceNote, c.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateCheckin
		}
		return fmt.Errorf("failed to insert check-in: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCheckinOn(ctx context.Context, challengeID, userID uuid.UUID, date time.Time) (*checkin.Checkin, error) {
	query := `
	SELECT ` + checkinColumns + `
	FROM challenge_checkins
	WHERE challenge_id = $1 AND user_id = $2 AND checkin_date = $3
	`

	c := &checkin.Checkin{}
	err := s.db.QueryRow(ctx, query, challengeID, userID, date).Scan(
		&c.ID, &c.ChallengeID, &c.UserID, &c.Date, &c.Origin,
		&c.WorkoutID, &c.FeedEventID, &c.EvidenceNote, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get check-in: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) HasCheckinOn(ctx context.Context, challengeID, userID uuid.UUID, date time.Time) (bool, error) {
	query := `
	SELECT EXISTS(
		SELECT 1 FROM challenge_checkins
		WHERE challenge_id = $1 AND user_id = $2 AND checkin_date = $3
	)
	`

	var exists bool
	if err := s.db.QueryRow(ctx, query, challengeID, userID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check check-in existence: %w", err)
	}
	return exists, nil
}

const checkinColumns = `id, challenge_id, user_id, checkin_date, checkin_type, workout_id, feed_event_id, evidence_note, created_at`

func (s *PostgresStore) listCheckins(ctx context.Context, query string, args ...any) ([]*checkin.Checkin, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	defer rows.Close()

	var checkins []*checkin.Checkin
	for rows.Next() {
		c := &checkin.Checkin{}
		err := rows.Scan(&c.ID, &c.ChallengeID, &c.UserID, &c.Date, &c.Origin,
			&c.WorkoutID, &c.FeedEventID, &c.EvidenceNote, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		checkins = append(checkins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check-ins: %w", err)
	}
	return checkins, nil
}

func (s *PostgresStore) ListUserCheckins(ctx context.Context, challengeID, userID uuid.UUID) ([]*checkin.Checkin, error) {
	query := `
	SELECT ` + checkinColumns + `
	FROM challenge_checkins
	WHERE challenge_id = $1 AND user_id = $2
	ORDER BY checkin_date
	`
	return s.listCheckins(ctx, query, challengeID, userID)
}

func (s *PostgresStore) ListChallengeCheckins(ctx context.Context, challengeID uuid.UUID) ([]*checkin.Checkin, error) {
	query := `
	SELECT ` + checkinColumns + `
	FROM challenge_checkins
	WHERE challenge_id = $1
	ORDER BY checkin_date
	`
	return s.listCheckins(ctx, query, challengeID)
}

func (s *PostgresStore) InsertBadges(ctx context.Context, badges []*badge.Badge) error {
	if len(badges) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO challenge_badges (id, challenge_id, user_id, badge_type, earned_at)
	VALUES ($1, $2, $3, $4, $5)
	`
	for _, b := range badges {
		if _, err := tx.Exec(ctx, query, b.ID, b.ChallengeID, b.UserID, b.Kind, b.EarnedAt); err != nil {
			return fmt.Errorf("failed to insert badge %s: %w", b.Kind, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit badge batch: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasBadge(ctx context.Context, challengeID, userID uuid.UUID, kind badge.Kind) (bool, error) {
	query := `
	SELECT EXISTS(
		SELECT 1 FROM challenge_badges
		WHERE challenge_id = $1 AND user_id = $2 AND badge_type = $3
	)
	`

	var exists bool
	if err := s.db.QueryRow(ctx, query, challengeID, userID, kind).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check badge existence: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) listBadges(ctx context.Context, query string, args ...any) ([]*badge.Badge, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	var badges []*badge.Badge
	for rows.Next() {
		b := &badge.Badge{}
		if err := rows.Scan(&b.ID, &b.ChallengeID, &b.UserID, &b.Kind, &b.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badges: %w", err)
	}
	return badges, nil
}

func (s *PostgresStore) ListUserBadges(ctx context.Context, challengeID, userID uuid.UUID) ([]*badge.Badge, error) {
	query := `
	SELECT id, challenge_id, user_id, badge_type, earned_at
	FROM challenge_badges
	WHERE challenge_id = $1 AND user_id = $2
	ORDER BY earned_at
	`
	return s.listBadges(ctx, query, challengeID, userID)
}

func (s *PostgresStore) ListChallengeBadges(ctx context.Context, challengeID uuid.UUID) ([]*badge.Badge, error) {
	query := `
	SELECT id, challenge_id, user_id, badge_type, earned_at
	FROM challenge_badges
	WHERE challenge_id = $1
	ORDER BY earned_at
	`
	return s.listBadges(ctx, query, challengeID)
}

func (s *PostgresStore) ListUserSignalsBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*activity.Signal, error) {
	query := `
	SELECT id, user_id, event_kind, workout_id, occurred_at, COALESCE(payload, '')
	FROM activity_feed
	WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3
	ORDER BY occurred_at
	`

	rows, err := s.db.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity signals: %w", err)
	}
	defer rows.Close()

	var signals []*activity.Signal
	for rows.Next() {
		sig := &activity.Signal{}
		if err := rows.Scan(&sig.ID, &sig.UserID, &sig.EventKind, &sig.WorkoutID, &sig.OccurredAt, &sig.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan activity signal: %w", err)
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity signals: %w", err)
	}
	return signals, nil
}

func (s *PostgresStore) ListUserWorkoutLogsOn(ctx context.Context, userID uuid.UUID, date time.Time) ([]*activity.WorkoutLog, error) {
	query := `
	SELECT id, user_id, workout_id, date, COALESCE(sets, '[]')
	FROM workout_logs
	WHERE user_id = $1 AND date = $2
	ORDER BY id
	`

	rows, err := s.db.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout logs: %w", err)
	}
	defer rows.Close()

	var logs []*activity.WorkoutLog
	for rows.Next() {
		wl := &activity.WorkoutLog{}
		if err := rows.Scan(&wl.ID, &wl.UserID, &wl.WorkoutID, &wl.Date, &wl.Sets); err != nil {
			return nil, fmt.Errorf("failed to scan workout log: %w", err)
		}
		logs = append(logs, wl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workout logs: %w", err)
	}
	return logs, nil
}

func (s *PostgresStore) AddComment(ctx context.Context, c *comment.Comment) error {
	query := `
	INSERT INTO challenge_comments (id, challenge_id, feed_event_id, user_id, body, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.Exec(ctx, query, c.ID, c.ChallengeID, c.FeedEventID, c.UserID, c.Body, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListComments(ctx context.Context, challengeID, feedEventID uuid.UUID) ([]*comment.Comment, error) {
	query := `
	SELECT id, challenge_id, feed_event_id, user_id, body, created_at
	FROM challenge_comments
	WHERE challenge_id = $1 AND feed_event_id = $2
	ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, challengeID, feedEventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*comment.Comment
	for rows.Next() {
		c := &comment.Comment{}
		if err := rows.Scan(&c.ID, &c.ChallengeID, &c.FeedEventID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}
