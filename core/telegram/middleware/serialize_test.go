package middleware

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type senderContext struct {
	tele.Context
	user *tele.User
}

func (s *senderContext) Sender() *tele.User { return s.user }

func TestSerializeByUserSameUserIsExclusive(t *testing.T) {
	mw := SerializeByUser()

	var inFlight, maxInFlight int32
	handler := mw(func(c tele.Context) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			max := atomic.LoadInt32(&maxInFlight)
			if n <= max || atomic.CompareAndSwapInt32(&maxInFlight, max, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = handler(&senderContext{user: &tele.User{ID: 1}})
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&maxInFlight); got != 1 {
		t.Fatalf("max concurrent handlers for one user = %d, want 1", got)
	}
}

func TestSerializeByUserDifferentUsersRunConcurrently(t *testing.T) {
	mw := SerializeByUser()

	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})

	handler := mw(func(c tele.Context) error {
		if c.Sender().ID == 1 {
			close(firstEntered)
			<-releaseFirst
		}
		return nil
	})

	go func() { _ = handler(&senderContext{user: &tele.User{ID: 1}}) }()
	<-firstEntered

	done := make(chan struct{})
	go func() {
		_ = handler(&senderContext{user: &tele.User{ID: 2}})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("user 2 blocked behind user 1")
	}
	close(releaseFirst)
}

func TestSerializeByUserNilSenderPassesThrough(t *testing.T) {
	mw := SerializeByUser()
	called := false
	handler := mw(func(c tele.Context) error {
		called = true
		return nil
	})
	if err := handler(&senderContext{user: nil}); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !called {
		t.Fatal("next handler not invoked")
	}
}
