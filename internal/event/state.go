package event

import (
	"sync"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/aaquinonez01/whatsapp-service/internal/state"
)

// StateHandler records lifecycle events in a state.Tracker.
//
// After an auth failure it schedules a single deferred move back to
// connecting. Repeated failures restart the same timer instead of stacking
// new ones, and any later ready or close event cancels it.
type StateHandler struct {
	tracker    *state.Tracker
	retryDelay time.Duration
	log        waLog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	onRetry func()
	// gen identifies the most recently scheduled timer so a stale callback
	// that already fired cannot apply its transition.
	gen uint64
}

// NewStateHandler creates a StateHandler.
func NewStateHandler(tracker *state.Tracker, retryDelay time.Duration, log waLog.Logger) *StateHandler {
	return &StateHandler{
		tracker:    tracker,
		retryDelay: retryDelay,
		log:        log.Sub("State"),
	}
}

func (s *StateHandler) OnReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelRetryLocked()
	s.apply(state.EventReady, "")
}

func (s *StateHandler) OnQR(codes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(state.EventQR, "")
}

func (s *StateHandler) OnPairingCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(state.EventPairingCode, "")
}

// OnAuthFailure records the failure and arms the retry timer under one lock.
func (s *StateHandler) OnAuthFailure(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(state.EventAuthFailure, reason)
	s.scheduleRetryLocked()
}

func (s *StateHandler) OnError(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(state.EventError, reason)
}

func (s *StateHandler) OnClose(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelRetryLocked()
	s.apply(state.EventClose, reason)
}

// SetRetryHook registers fn to run after the deferred connecting transition,
// typically to reconnect the client once.
func (s *StateHandler) SetRetryHook(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRetry = fn
}

// Stop cancels any pending deferred transition.
func (s *StateHandler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelRetryLocked()
}

// RetryPending reports whether a deferred transition is scheduled.
func (s *StateHandler) RetryPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// apply updates the tracker. Callers hold s.mu.
func (s *StateHandler) apply(e state.Event, detail string) {
	snap, _ := s.tracker.Apply(e, detail)
	s.log.Infof("Status %s (event %s)", snap.Status, e)
}

func (s *StateHandler) scheduleRetryLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.retryDelay, func() { s.fireRetry(gen) })
}

// fireRetry applies the deferred transition scheduled as gen. It is a no-op
// once a newer event has bumped the generation.
func (s *StateHandler) fireRetry(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.log.Infof("Retrying after auth failure")
	s.apply(state.EventAuthRetry, "")
	hook := s.onRetry
	s.mu.Unlock()

	// The hook may reconnect, which dispatches events back into this handler.
	if hook != nil {
		hook()
	}
}

func (s *StateHandler) cancelRetryLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

var _ Handler = (*StateHandler)(nil)
