// Package storage persists meetup profiles, talks and questions.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/m3rciful/meetupbot/internal/meetup/models"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("storage: not found")

// Storage is the persistence collaborator used by the bot handlers.
// Every call honours the context deadline set by the caller.
type Storage interface {
	// UpsertProfile creates the profile for telegramID or refreshes its
	// display name and username, and returns the stored row.
	UpsertProfile(ctx context.Context, telegramID int64, displayName, username string) (*models.UserProfile, error)
	// ProfileByTelegramID returns the profile keyed by Telegram user id.
	ProfileByTelegramID(ctx context.Context, telegramID int64) (*models.UserProfile, error)
	// ProfileByID returns the profile keyed by its internal id.
	ProfileByID(ctx context.Context, id int64) (*models.UserProfile, error)
	// SetOccupation updates the occupation of the profile keyed by Telegram user id.
	SetOccupation(ctx context.Context, telegramID int64, occupation string) (*models.UserProfile, error)

	// UpcomingTalks lists talks starting at or after now, ordered by start time.
	UpcomingTalks(ctx context.Context, now time.Time) ([]models.ScheduledTalk, error)
	// TalkByID returns a single talk with its speaker name resolved.
	TalkByID(ctx context.Context, id int64) (*models.ScheduledTalk, error)

	// CreateQuestion stores a question from the given author for the given talk.
	CreateQuestion(ctx context.Context, authorID, talkID int64, body string) (*models.SubmittedQuestion, error)
	// QuestionsForSpeaker returns all questions addressed to the talks of the
	// speaker identified by Telegram user id, oldest first.
	QuestionsForSpeaker(ctx context.Context, speakerTelegramID int64) ([]models.SpeakerQuestion, error)

	// CandidateProfiles lists profiles eligible for networking, excluding
	// the viewer identified by Telegram user id.
	CandidateProfiles(ctx context.Context, excludeTelegramID int64) ([]models.UserProfile, error)
}
