// Package models holds the persistent entities of the meetup domain.
package models

import "time"

// Roles a profile can have. Speakers additionally appear in the schedule.
const (
	RoleAttendee = "attendee"
	RoleSpeaker  = "speaker"
)

// UserProfile is a participant known to the bot. A profile is created or
// refreshed on every /start and whenever the user submits a question.
type UserProfile struct {
	ID          int64  `db:"id"`
	TelegramID  int64  `db:"telegram_id"`
	DisplayName string `db:"display_name"`
	Username    string `db:"username"`
	Role        string `db:"role"`
	Occupation  string `db:"occupation"`
}

// HasOccupation reports whether the profile is eligible for networking.
func (p UserProfile) HasOccupation() bool {
	return p.Occupation != ""
}

// ScheduledTalk is one entry of the event programme.
type ScheduledTalk struct {
	ID          int64     `db:"id"`
	SpeakerID   int64     `db:"speaker_id"`
	SpeakerName string    `db:"speaker_name"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	StartsAt    time.Time `db:"starts_at"`
}

// SubmittedQuestion is a question an attendee left for a talk.
type SubmittedQuestion struct {
	ID        int64     `db:"id"`
	AuthorID  int64     `db:"author_id"`
	TalkID    int64     `db:"talk_id"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

// SpeakerQuestion is the denormalized view a speaker sees when reading
// questions addressed to their talks.
type SpeakerQuestion struct {
	TalkTitle  string    `db:"talk_title"`
	AuthorName string    `db:"author_name"`
	Body       string    `db:"body"`
	CreatedAt  time.Time `db:"created_at"`
}
