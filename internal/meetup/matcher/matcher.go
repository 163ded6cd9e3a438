// Package matcher selects networking profiles to show to a user.
package matcher

import (
	"math/rand"
	"sync"
	"time"

	"github.com/m3rciful/meetupbot/internal/meetup/models"
)

// Matcher picks a random profile from a candidate set. Safe for concurrent use.
type Matcher struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New builds a matcher from the given source. A nil source seeds from the clock.
func New(src rand.Source) *Matcher {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Matcher{rnd: rand.New(src)}
}

// Next returns a uniformly random profile from candidates, skipping profiles
// without an occupation, the viewer and the profile shown immediately before.
// It returns nil when no eligible profile remains, even when the only
// candidate left is the one shown before.
func (m *Matcher) Next(candidates []models.UserProfile, viewerTelegramID, lastShownID int64) *models.UserProfile {
	eligible := make([]models.UserProfile, 0, len(candidates))
	for _, p := range candidates {
		if !p.HasOccupation() || p.TelegramID == viewerTelegramID || p.ID == lastShownID {
			continue
		}
		eligible = append(eligible, p)
	}
	if len(eligible) == 0 {
		return nil
	}

	m.mu.Lock()
	idx := m.rnd.Intn(len(eligible))
	m.mu.Unlock()

	pick := eligible[idx]
	return &pick
}
