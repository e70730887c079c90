package state

import (
	"testing"
	"time"
)

func TestNewTrackerStartsDisconnected(t *testing.T) {
	tr := NewTracker()
	snap := tr.Snapshot()
	if snap.IsConnected || snap.Status != StatusDisconnected {
		t.Fatalf("initial snapshot = %+v, want disconnected/false", snap)
	}
	if snap.Message() != "WhatsApp is disconnected" {
		t.Fatalf("Message() = %q", snap.Message())
	}
}

func TestApplyTransitions(t *testing.T) {
	tests := []struct {
		event     Event
		status    Status
		connected bool
	}{
		{EventReady, StatusConnected, true},
		{EventQR, StatusConnecting, false},
		{EventPairingCode, StatusConnecting, false},
		{EventAuthFailure, StatusError, false},
		{EventError, StatusError, false},
		{EventClose, StatusDisconnected, false},
		{EventAuthRetry, StatusConnecting, false},
	}

	tr := NewTracker()
	for _, tt := range tests {
		snap, ok := tr.Apply(tt.event, "boom")
		if !ok {
			t.Fatalf("Apply(%s) ok = false", tt.event)
		}
		if snap.Status != tt.status || snap.IsConnected != tt.connected {
			t.Fatalf("Apply(%s) = %s/%t, want %s/%t", tt.event, snap.Status, snap.IsConnected, tt.status, tt.connected)
		}
		if snap.IsConnected != (snap.Status == StatusConnected) {
			t.Fatalf("inconsistent snapshot after %s: %+v", tt.event, snap)
		}
		if got := tr.Snapshot(); got != snap {
			t.Fatalf("Snapshot() = %+v, want %+v", got, snap)
		}
	}
}

func TestApplyUnknownEventIsIgnored(t *testing.T) {
	tr := NewTracker()
	tr.Apply(EventReady, "")

	if _, ok := tr.Apply(Event("bogus"), ""); ok {
		t.Fatalf("Apply(bogus) ok = true, want false")
	}
	if !tr.IsConnected() {
		t.Fatalf("unknown event changed the state")
	}
}

func TestLastErrorOnlyOnFailure(t *testing.T) {
	tr := NewTracker()

	snap, _ := tr.Apply(EventAuthFailure, "logged out")
	if snap.LastError != "logged out" {
		t.Fatalf("LastError = %q, want logged out", snap.LastError)
	}
	if snap.Message() != "WhatsApp connection error: logged out" {
		t.Fatalf("Message() = %q", snap.Message())
	}

	snap, _ = tr.Apply(EventReady, "ignored")
	if snap.LastError != "" {
		t.Fatalf("LastError = %q after ready, want empty", snap.LastError)
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	tr := NewTracker()
	ch, cancel := tr.Subscribe()
	defer cancel()

	tr.Apply(EventReady, "")

	select {
	case snap := <-ch:
		if snap.Status != StatusConnected {
			t.Fatalf("subscriber got %s, want connected", snap.Status)
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber did not receive snapshot")
	}
}

func TestSlowSubscriberSeesLatest(t *testing.T) {
	tr := NewTracker()
	ch, cancel := tr.Subscribe()
	defer cancel()

	tr.Apply(EventReady, "")
	tr.Apply(EventClose, "")

	snap := <-ch
	if snap.Status != StatusDisconnected {
		t.Fatalf("subscriber got %s, want latest disconnected", snap.Status)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	tr := NewTracker()
	ch, cancel := tr.Subscribe()
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("channel still open after cancel")
	}
	tr.Apply(EventReady, "")
}
