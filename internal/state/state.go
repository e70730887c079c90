// Package state tracks the WhatsApp connection status shared by the event
// handlers and the HTTP layer.
package state

import (
	"sync"
	"time"
)

// Status is the coarse connection state reported to API clients.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusConnecting   Status = "connecting"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// Event is a provider lifecycle event.
type Event string

const (
	EventReady       Event = "ready"
	EventQR          Event = "qr"
	EventPairingCode Event = "pairing-code"
	EventAuthFailure Event = "auth_failure"
	EventError       Event = "error"
	EventClose       Event = "close"
	// EventAuthRetry is the deferred follow-up to an auth failure.
	EventAuthRetry Event = "auth_retry"
)

// Transition returns the status an event moves the tracker to.
func Transition(e Event) (Status, bool) {
	switch e {
	case EventReady:
		return StatusConnected, true
	case EventQR, EventPairingCode, EventAuthRetry:
		return StatusConnecting, true
	case EventAuthFailure, EventError:
		return StatusError, true
	case EventClose:
		return StatusDisconnected, true
	default:
		return "", false
	}
}

// Snapshot is a point-in-time copy of the connection status.
type Snapshot struct {
	IsConnected bool      `json:"isConnected"`
	Status      Status    `json:"status"`
	Event       Event     `json:"event,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Message returns a human readable description of the status.
func (s Snapshot) Message() string {
	switch s.Status {
	case StatusConnected:
		return "WhatsApp is connected and ready"
	case StatusConnecting:
		return "WhatsApp is connecting, waiting for device pairing"
	case StatusError:
		if s.LastError != "" {
			return "WhatsApp connection error: " + s.LastError
		}
		return "WhatsApp connection error"
	default:
		return "WhatsApp is disconnected"
	}
}

// Tracker holds the single connection status value.
// Provider callbacks arrive on their own goroutines, so all access is locked.
type Tracker struct {
	mu      sync.RWMutex
	current Snapshot
	subs    map[int]chan Snapshot
	nextSub int
	now     func() time.Time
}

// NewTracker creates a Tracker in the disconnected state.
func NewTracker() *Tracker {
	t := &Tracker{
		subs: make(map[int]chan Snapshot),
		now:  time.Now,
	}
	t.current = Snapshot{Status: StatusDisconnected, UpdatedAt: t.now()}
	return t
}

// Snapshot returns the current status.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// IsConnected reports whether the provider is ready to send.
func (t *Tracker) IsConnected() bool {
	return t.Snapshot().IsConnected
}

// Apply moves the tracker according to e and notifies subscribers.
// detail is kept as the last error for failure events and ignored otherwise.
// Unknown events leave the state untouched and return false.
func (t *Tracker) Apply(e Event, detail string) (Snapshot, bool) {
	status, ok := Transition(e)
	if !ok {
		return t.Snapshot(), false
	}

	t.mu.Lock()
	next := Snapshot{
		IsConnected: status == StatusConnected,
		Status:      status,
		Event:       e,
		UpdatedAt:   t.now(),
	}
	if status == StatusError {
		next.LastError = detail
	}
	t.current = next
	for _, ch := range t.subs {
		notify(ch, next)
	}
	t.mu.Unlock()

	return next, true
}

// Subscribe returns a channel receiving every subsequent snapshot, and a
// function to stop the subscription. Slow readers only see the latest value.
func (t *Tracker) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
			close(ch)
		})
	}
}

// notify replaces any unread snapshot with s. Callers hold t.mu.
func notify(ch chan Snapshot, s Snapshot) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
