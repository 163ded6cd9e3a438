package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/meetupbot/internal/meetup/models"
)

// PostgresStorage implements Storage on top of a Postgres connection pool.
type PostgresStorage struct {
	db *sqlx.DB
}

// NewPostgresStorage wraps an established connection pool.
func NewPostgresStorage(db *sqlx.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

const upsertProfileQuery = `
INSERT INTO profiles (telegram_id, display_name, username, role, occupation)
VALUES ($1, $2, $3, 'attendee', '')
ON CONFLICT (telegram_id) DO UPDATE
SET display_name = EXCLUDED.display_name,
    username     = EXCLUDED.username
RETURNING id, telegram_id, display_name, username, role, occupation`

func (s *PostgresStorage) UpsertProfile(ctx context.Context, telegramID int64, displayName, username string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.db.GetContext(ctx, &p, upsertProfileQuery, telegramID, displayName, username); err != nil {
		return nil, fmt.Errorf("upsert profile tg_id=%d: %w", telegramID, err)
	}
	return &p, nil
}

func (s *PostgresStorage) ProfileByTelegramID(ctx context.Context, telegramID int64) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.GetContext(ctx, &p,
		`SELECT id, telegram_id, display_name, username, role, occupation
		 FROM profiles WHERE telegram_id = $1`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile by tg_id=%d: %w", telegramID, err)
	}
	return &p, nil
}

func (s *PostgresStorage) ProfileByID(ctx context.Context, id int64) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.GetContext(ctx, &p,
		`SELECT id, telegram_id, display_name, username, role, occupation
		 FROM profiles WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile by id=%d: %w", id, err)
	}
	return &p, nil
}

func (s *PostgresStorage) SetOccupation(ctx context.Context, telegramID int64, occupation string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.GetContext(ctx, &p,
		`UPDATE profiles SET occupation = $2 WHERE telegram_id = $1
		 RETURNING id, telegram_id, display_name, username, role, occupation`,
		telegramID, occupation)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set occupation tg_id=%d: %w", telegramID, err)
	}
	return &p, nil
}

const upcomingTalksQuery = `
SELECT t.id, t.speaker_id, p.display_name AS speaker_name,
       t.title, t.description, t.starts_at
FROM talks t
JOIN profiles p ON p.id = t.speaker_id
WHERE t.starts_at >= $1
ORDER BY t.starts_at`

func (s *PostgresStorage) UpcomingTalks(ctx context.Context, now time.Time) ([]models.ScheduledTalk, error) {
	var talks []models.ScheduledTalk
	if err := s.db.SelectContext(ctx, &talks, upcomingTalksQuery, now); err != nil {
		return nil, fmt.Errorf("upcoming talks: %w", err)
	}
	return talks, nil
}

func (s *PostgresStorage) TalkByID(ctx context.Context, id int64) (*models.ScheduledTalk, error) {
	var t models.ScheduledTalk
	err := s.db.GetContext(ctx, &t,
		`SELECT t.id, t.speaker_id, p.display_name AS speaker_name,
		        t.title, t.description, t.starts_at
		 FROM talks t
		 JOIN profiles p ON p.id = t.speaker_id
		 WHERE t.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("talk by id=%d: %w", id, err)
	}
	return &t, nil
}

func (s *PostgresStorage) CreateQuestion(ctx context.Context, authorID, talkID int64, body string) (*models.SubmittedQuestion, error) {
	var q models.SubmittedQuestion
	err := s.db.GetContext(ctx, &q,
		`INSERT INTO questions (author_id, talk_id, body)
		 VALUES ($1, $2, $3)
		 RETURNING id, author_id, talk_id, body, created_at`,
		authorID, talkID, body)
	if err != nil {
		return nil, fmt.Errorf("create question talk_id=%d: %w", talkID, err)
	}
	return &q, nil
}

const speakerQuestionsQuery = `
SELECT t.title AS talk_title, a.display_name AS author_name,
       q.body, q.created_at
FROM questions q
JOIN talks t ON t.id = q.talk_id
JOIN profiles a ON a.id = q.author_id
JOIN profiles s ON s.id = t.speaker_id
WHERE s.telegram_id = $1
ORDER BY q.created_at`

func (s *PostgresStorage) QuestionsForSpeaker(ctx context.Context, speakerTelegramID int64) ([]models.SpeakerQuestion, error) {
	var qs []models.SpeakerQuestion
	if err := s.db.SelectContext(ctx, &qs, speakerQuestionsQuery, speakerTelegramID); err != nil {
		return nil, fmt.Errorf("questions for speaker tg_id=%d: %w", speakerTelegramID, err)
	}
	return qs, nil
}

func (s *PostgresStorage) CandidateProfiles(ctx context.Context, excludeTelegramID int64) ([]models.UserProfile, error) {
	var ps []models.UserProfile
	err := s.db.SelectContext(ctx, &ps,
		`SELECT id, telegram_id, display_name, username, role, occupation
		 FROM profiles
		 WHERE occupation <> '' AND telegram_id <> $1
		 ORDER BY id`, excludeTelegramID)
	if err != nil {
		return nil, fmt.Errorf("candidate profiles: %w", err)
	}
	return ps, nil
}
