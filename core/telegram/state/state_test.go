package state

import (
	"sync"
	"testing"

	tele "gopkg.in/telebot.v4"
)

const stateAwaiting State = "awaiting_question"

func TestGetStateDefaultsToIdle(t *testing.T) {
	m := NewMemoryManager()
	if got := m.GetState(1); got != StateIdle {
		t.Fatalf("GetState = %q, want idle", got)
	}
	if m.InProgress(1) {
		t.Fatal("fresh user should not be in progress")
	}
}

func TestSetAndClearState(t *testing.T) {
	m := NewMemoryManager()
	m.SetState(1, stateAwaiting)
	if got := m.GetState(1); got != stateAwaiting {
		t.Fatalf("GetState = %q", got)
	}
	if !m.InProgress(1) {
		t.Fatal("expected in-progress dialog")
	}

	m.Clear(1)
	if got := m.GetState(1); got != StateIdle {
		t.Fatalf("GetState after Clear = %q", got)
	}
	if _, ok := m.GetTemp(1, "k"); ok {
		t.Fatal("scratch should be gone after Clear")
	}
}

func TestTempRoundTrip(t *testing.T) {
	m := NewMemoryManager()
	m.SetTemp(1, "talk", int64(7))

	v, ok := m.GetTempInt64(1, "talk")
	if !ok || v != 7 {
		t.Fatalf("GetTempInt64 = %d ok=%v", v, ok)
	}

	m.SetTemp(1, "label", "not an int")
	if _, ok := m.GetTempInt64(1, "label"); ok {
		t.Fatal("non-int64 value should not assert")
	}

	m.ClearTemp(1, "talk")
	if _, ok := m.GetTemp(1, "talk"); ok {
		t.Fatal("cleared key should be absent")
	}
}

func TestTempIsolationBetweenUsers(t *testing.T) {
	m := NewMemoryManager()
	m.SetTemp(1, "talk", int64(7))
	m.SetState(1, stateAwaiting)

	if _, ok := m.GetTemp(2, "talk"); ok {
		t.Fatal("user 2 should not see user 1 scratch")
	}
	if m.InProgress(2) {
		t.Fatal("user 2 should be idle")
	}
}

func TestSnapshotRestore(t *testing.T) {
	m := NewMemoryManager()
	m.SetState(1, stateAwaiting)
	m.SetTemp(1, "talk", int64(7))

	snap := m.Snapshot(1)

	m.Clear(1)
	m.SetTemp(1, "talk", int64(99))

	m.Restore(1, snap)
	if got := m.GetState(1); got != stateAwaiting {
		t.Fatalf("state after restore = %q", got)
	}
	if v, ok := m.GetTempInt64(1, "talk"); !ok || v != 7 {
		t.Fatalf("scratch after restore = %d ok=%v", v, ok)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	m := NewMemoryManager()
	m.SetTemp(1, "talk", int64(7))
	snap := m.Snapshot(1)

	m.SetTemp(1, "talk", int64(8))
	if snap.TempData["talk"] != int64(7) {
		t.Fatal("snapshot should not track later mutations")
	}
}

type dispatchContext struct {
	tele.Context
	user  *tele.User
	store map[string]any
}

func (d *dispatchContext) Sender() *tele.User  { return d.user }
func (d *dispatchContext) Chat() *tele.Chat    { return nil }
func (d *dispatchContext) Update() tele.Update { return tele.Update{} }
func (d *dispatchContext) Get(key string) any  { return d.store[key] }
func (d *dispatchContext) Set(key string, v any) {
	if d.store == nil {
		d.store = make(map[string]any)
	}
	d.store[key] = v
}

func TestManagerHandlerDispatchesByState(t *testing.T) {
	m := NewMemoryManager()

	var ran []State
	m.RegisterHandler(stateAwaiting, func(tele.Context) error {
		ran = append(ran, stateAwaiting)
		return nil
	})

	c := &dispatchContext{user: &tele.User{ID: 1}}

	// Idle has no handler registered; dispatch is a no-op.
	if err := m.ManagerHandler(c); err != nil {
		t.Fatalf("ManagerHandler idle: %v", err)
	}
	if len(ran) != 0 {
		t.Fatalf("handler ran in idle state: %v", ran)
	}

	m.SetState(1, stateAwaiting)
	if err := m.ManagerHandler(c); err != nil {
		t.Fatalf("ManagerHandler: %v", err)
	}
	if len(ran) != 1 {
		t.Fatalf("handler runs = %d, want 1", len(ran))
	}
}

func TestConcurrentAccessDifferentUsers(t *testing.T) {
	m := NewMemoryManager()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.SetState(id, stateAwaiting)
			m.SetTemp(id, "talk", id)
			if v, ok := m.GetTempInt64(id, "talk"); !ok || v != id {
				t.Errorf("user %d scratch = %d ok=%v", id, v, ok)
			}
			m.Clear(id)
		}(int64(i))
	}
	wg.Wait()
}
