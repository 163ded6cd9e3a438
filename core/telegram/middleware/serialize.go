package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

type userLock struct {
	mu   sync.Mutex
	refs int
}

// SerializeByUser returns a middleware that admits at most one in-flight
// update per user id. Events for the same user run in receipt order; events
// for different users proceed without blocking each other.
//
// Session mutation is read-modify-write, so two concurrent updates from one
// user could otherwise corrupt the dialog state.
func SerializeByUser() tele.MiddlewareFunc {
	var (
		mu    sync.Mutex
		locks = make(map[int64]*userLock)
	)

	acquire := func(id int64) *userLock {
		mu.Lock()
		l, ok := locks[id]
		if !ok {
			l = &userLock{}
			locks[id] = l
		}
		l.refs++
		mu.Unlock()
		l.mu.Lock()
		return l
	}

	release := func(id int64, l *userLock) {
		l.mu.Unlock()
		mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(locks, id)
		}
		mu.Unlock()
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			l := acquire(user.ID)
			defer release(user.ID, l)
			return next(c)
		}
	}
}
