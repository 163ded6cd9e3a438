package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/meetupbot/internal/meetup/models"
)

// MemoryStorage is an in-process Storage used in tests and local development.
type MemoryStorage struct {
	mu        sync.Mutex
	profiles  map[int64]*models.UserProfile // keyed by internal id
	talks     map[int64]*models.ScheduledTalk
	questions []models.SubmittedQuestion

	nextProfileID  int64
	nextTalkID     int64
	nextQuestionID int64

	failErr error
}

// NewMemoryStorage constructs an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		profiles: make(map[int64]*models.UserProfile),
		talks:    make(map[int64]*models.ScheduledTalk),
	}
}

// FailWith makes every subsequent call return err until cleared with nil.
func (s *MemoryStorage) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *MemoryStorage) checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.failErr
}

// PutProfile inserts a prepared profile row, assigning an id when zero.
func (s *MemoryStorage) PutProfile(p models.UserProfile) models.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextProfileID++
		p.ID = s.nextProfileID
	} else if p.ID > s.nextProfileID {
		s.nextProfileID = p.ID
	}
	cp := p
	s.profiles[p.ID] = &cp
	return p
}

// PutTalk inserts a prepared talk row, assigning an id when zero.
func (s *MemoryStorage) PutTalk(t models.ScheduledTalk) models.ScheduledTalk {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		s.nextTalkID++
		t.ID = s.nextTalkID
	} else if t.ID > s.nextTalkID {
		s.nextTalkID = t.ID
	}
	cp := t
	s.talks[t.ID] = &cp
	return t
}

// DeleteTalk removes a talk row, simulating a schedule change.
func (s *MemoryStorage) DeleteTalk(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.talks, id)
}

// Questions returns a copy of all stored questions.
func (s *MemoryStorage) Questions() []models.SubmittedQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SubmittedQuestion, len(s.questions))
	copy(out, s.questions)
	return out
}

func (s *MemoryStorage) UpsertProfile(ctx context.Context, telegramID int64, displayName, username string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCtx(ctx); err != nil {
		return nil, err
	}
	for _, p := range s.profiles {
		if p.TelegramID == telegramID {
			p.DisplayName = displayName
			p.Username = username
			cp := *p
			return &cp, nil
		}
	}
	s.nextProfileID++
	p := &models.UserProfile{
		ID:          s.nextProfileID,
		TelegramID:  telegramID,
		DisplayName: displayName,
		Username:    username,
		Role:        models.RoleAttendee,
	}
	s.profiles[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *MemoryStorage) ProfileByTelegramID(ctx context.Context, telegramID int64) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCtx(ctx); err != nil {
		return nil, err
	}
	for _, p := range s.profiles {
		if p.TelegramID == telegramID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) ProfileByID(ctx context.Context, id int64) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCtx(ctx); err != nil {
		return nil, err
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStorage) SetOccupation(ctx context.Context, telegramID int64, occupation string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCtx(ctx); err != nil {
		return nil, err
	}
	for _, p := range s.profiles {
		if p.TelegramID == telegramID {
			p.Occupation = occupation
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) UpcomingTalks(ctx context.Context, now time.Time) ([]models.ScheduledTalk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCtx(ctx); err != nil {
		return nil, err
	}
	var talks []models.ScheduledTalk
	for _, t := range s.talks {
		if !t.StartsAt.Before(now) {
			talks = append(talks, *t)
		}
	}
	sort.Slice(talks, func(i, j int) bool { return talks[i].StartsAt.Before(talks[j].StartsAt) })
	return talks, nil
}

func (s *MemoryStorage) TalkByID(ctx context.Context, id int64) (*models.ScheduledTalk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCtx(ctx); err != nil {
		return nil, err
	}
	t, ok := s.talks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStorage) CreateQuestion(ctx context.Context, authorID, talkID int64, body string) (*models.SubmittedQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCtx(ctx); err != nil {
		return nil, err
	}
	if _, ok := s.talks[talkID]; !ok {
		return nil, ErrNotFound
	}
	if _, ok := s.profiles[authorID]; !ok {
		return nil, ErrNotFound
	}
	s.nextQuestionID++
	q := models.SubmittedQuestion{
		ID:        s.nextQuestionID,
		AuthorID:  authorID,
		TalkID:    talkID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	s.questions = append(s.questions, q)
	return &q, nil
}

func (s *MemoryStorage) QuestionsForSpeaker(ctx context.Context, speakerTelegramID int64) ([]models.SpeakerQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCtx(ctx); err != nil {
		return nil, err
	}
	var speakerID int64
	for _, p := range s.profiles {
		if p.TelegramID == speakerTelegramID {
			speakerID = p.ID
			break
		}
	}
	var out []models.SpeakerQuestion
	for _, q := range s.questions {
		t, ok := s.talks[q.TalkID]
		if !ok || t.SpeakerID != speakerID {
			continue
		}
		view := models.SpeakerQuestion{
			TalkTitle: t.Title,
			Body:      q.Body,
			CreatedAt: q.CreatedAt,
		}
		if a, ok := s.profiles[q.AuthorID]; ok {
			view.AuthorName = a.DisplayName
		}
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStorage) CandidateProfiles(ctx context.Context, excludeTelegramID int64) ([]models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCtx(ctx); err != nil {
		return nil, err
	}
	var out []models.UserProfile
	for _, p := range s.profiles {
		if p.TelegramID == excludeTelegramID || !p.HasOccupation() {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
