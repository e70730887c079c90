package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aaquinonez01/whatsapp-service/internal/infra/logger"
	"github.com/aaquinonez01/whatsapp-service/internal/state"
)

type fakePublisher struct {
	mu       sync.Mutex
	channel  string
	payloads [][]byte
	err      error
	seen     chan struct{}
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.mu.Lock()
	f.channel = channel
	f.payloads = append(f.payloads, message.([]byte))
	f.mu.Unlock()
	select {
	case f.seen <- struct{}{}:
	default:
	}

	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestNotifierPublishesChanges(t *testing.T) {
	tracker := state.NewTracker()
	pub := &fakePublisher{seen: make(chan struct{}, 4)}
	n := New(pub, "whatsapp:status", tracker, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	// Run subscribes asynchronously; keep applying until the first publish lands.
	deadline := time.After(time.Second)
	for published := false; !published; {
		tracker.Apply(state.EventReady, "")
		select {
		case <-pub.seen:
			published = true
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatalf("no publish observed")
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() = %v", err)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.channel != "whatsapp:status" {
		t.Fatalf("channel = %s", pub.channel)
	}
	var msg Message
	if err := json.Unmarshal(pub.payloads[0], &msg); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if msg.Type != "status" || msg.Status != state.StatusConnected || !msg.IsConnected {
		t.Fatalf("payload = %+v", msg)
	}
}

func TestNotifierSurvivesPublishErrors(t *testing.T) {
	tracker := state.NewTracker()
	pub := &fakePublisher{seen: make(chan struct{}, 8), err: errors.New("connection refused")}
	n := New(pub, "ch", tracker, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = n.Run(ctx) }()

	count := 0
	deadline := time.After(time.Second)
	for count < 2 {
		tracker.Apply(state.EventClose, "")
		select {
		case <-pub.seen:
			count++
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatalf("publisher stopped after an error, saw %d publishes", count)
		}
	}
	if got := tracker.Snapshot().Status; got != state.StatusDisconnected {
		t.Fatalf("tracker status = %s", got)
	}
}

func TestDialRejectsBadURL(t *testing.T) {
	if _, err := Dial(context.Background(), "not a url", "ch", state.NewTracker(), logger.Nop()); err == nil {
		t.Fatalf("Dial() with bad url returned nil error")
	}
}

func TestCloseWithoutOwnedClient(t *testing.T) {
	n := New(&fakePublisher{}, "ch", state.NewTracker(), logger.Nop())
	if err := n.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
}
