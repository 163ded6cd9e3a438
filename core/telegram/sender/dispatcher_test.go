package sender

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 4, Workers: 1})

	var mu sync.Mutex
	var ran []string
	done := make(chan struct{})

	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		mu.Lock()
		ran = append(ran, "a")
		mu.Unlock()
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
	d.Close()

	if len(ran) != 1 {
		t.Fatalf("ran = %v", ran)
	}
	if d.ErrorCount() != 0 {
		t.Fatalf("error count = %d", d.ErrorCount())
	}
}

func TestDispatcherCountsFailures(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 1, Workers: 1, MaxRetries: 0})

	if err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		return errors.New("telegram says no")
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	d.Close()

	if d.ErrorCount() != 1 {
		t.Fatalf("error count = %d, want 1", d.ErrorCount())
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 1, Workers: 1})
	block := make(chan struct{})

	// Occupy the single worker, then fill the one queue slot.
	_ = d.Enqueue(context.Background(), "a", "", func() error { <-block; return nil })

	var accepted int
	for i := 0; i < 8; i++ {
		if err := d.Enqueue(context.Background(), "b", "", func() error { return nil }); err == nil {
			accepted++
		} else if !errors.Is(err, ErrQueueFull) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if accepted > 1 {
		t.Fatalf("accepted %d jobs into a single-slot queue", accepted)
	}

	close(block)
	d.Close()
}

func TestDispatcherEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 1, Workers: 1})
	d.Close()
	if err := d.Enqueue(context.Background(), "a", "", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New("post https://api.telegram.org/bot12345:AAAbbbCCC-ddd/sendMessage: boom")
	got := sanitizeErrorMessage(err)
	if got != "post https://api.telegram.org/bot<redacted>/sendMessage: boom" {
		t.Fatalf("sanitized = %q", got)
	}
}
