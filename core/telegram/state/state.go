// Package state provides the per-user session store and FSM manager for
// multi-step Telegram dialogs. Sessions live for the process lifetime only
// and are created implicitly on first lookup.
package state

import tele "gopkg.in/telebot.v4"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active dialog with the user.
	StateIdle State = "idle"
)

// Session stores the active dialog state and scratch data for a user.
type Session struct {
	State    State
	TempData map[string]interface{}
}

// Clone returns a deep copy of the session, usable as a rollback snapshot.
func (s Session) Clone() Session {
	out := Session{State: s.State, TempData: make(map[string]interface{}, len(s.TempData))}
	for k, v := range s.TempData {
		out.TempData[k] = v
	}
	return out
}

// Manager orchestrates user sessions and FSM state transitions.
//
// Dialog correctness relies on events for a single user being serialized by
// the caller (see middleware.SerializeByUser); the manager itself only
// guarantees that individual operations are safe under concurrent access.
type Manager interface {
	// SetState sets the FSM state for the given user.
	SetState(userID int64, st State)
	// GetState returns the current FSM state of a user, or StateIdle if none exists.
	GetState(userID int64) State
	// InProgress reports whether the user currently has an active dialog.
	InProgress(userID int64) bool

	// SetTemp stores a scratch key/value pair for the given user session.
	SetTemp(userID int64, key string, value interface{})
	// GetTemp retrieves a scratch value by key for the given user session.
	GetTemp(userID int64, key string) (interface{}, bool)
	// GetTempInt64 retrieves a scratch value by key and asserts it as int64.
	GetTempInt64(userID int64, key string) (int64, bool)
	// ClearTemp removes a scratch key/value pair for the given user session.
	ClearTemp(userID int64, key string)

	// Snapshot returns a copy of the user's session for rollback purposes.
	Snapshot(userID int64) Session
	// Restore replaces the user's session with a previously taken snapshot.
	Restore(userID int64, snap Session)
	// Clear resets the session to idle with empty scratch data.
	Clear(userID int64)

	// RegisterHandler associates a state with its continuation handler.
	RegisterHandler(st State, h tele.HandlerFunc)
	// ManagerHandler executes the handler registered for the user's current state, if any.
	ManagerHandler(c tele.Context) error
}
