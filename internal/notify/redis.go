// Package notify broadcasts connection status changes to Redis Pub/Sub so
// other services can follow the WhatsApp link without polling /status.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/aaquinonez01/whatsapp-service/internal/state"
)

const publishTimeout = 2 * time.Second

// Publisher sends status snapshots to a Redis channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Message is the payload published for each status change.
type Message struct {
	Type        string       `json:"type"`
	IsConnected bool         `json:"isConnected"`
	Status      state.Status `json:"status"`
	Message     string       `json:"message"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// NewMessage builds the payload for a snapshot.
func NewMessage(s state.Snapshot) Message {
	return Message{
		Type:        "status",
		IsConnected: s.IsConnected,
		Status:      s.Status,
		Message:     s.Message(),
		UpdatedAt:   s.UpdatedAt,
	}
}

// Notifier forwards tracker changes to Redis.
type Notifier struct {
	client  Publisher
	closer  func() error
	channel string
	tracker *state.Tracker
	log     waLog.Logger
}

// Dial connects to Redis and returns a Notifier for the tracker.
func Dial(ctx context.Context, url, channel string, tracker *state.Tracker, log waLog.Logger) (*Notifier, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts == nil {
		return nil, errors.New("redis options resolved to nil")
	}
	opts.ContextTimeoutEnabled = true

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	n := New(client, channel, tracker, log)
	n.closer = client.Close
	return n, nil
}

// New creates a Notifier over an existing publisher.
func New(client Publisher, channel string, tracker *state.Tracker, log waLog.Logger) *Notifier {
	return &Notifier{
		client:  client,
		channel: channel,
		tracker: tracker,
		log:     log.Sub("Notify"),
	}
}

// Run publishes every status change until ctx is done. Publish failures are
// logged and never stop the loop.
func (n *Notifier) Run(ctx context.Context) error {
	updates, cancel := n.tracker.Subscribe()
	defer cancel()

	n.log.Infof("Publishing status changes to redis channel %s", n.channel)
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if err := n.publish(ctx, snap); err != nil {
				n.log.Warnf("Failed to publish status %s: %v", snap.Status, err)
			}
		}
	}
}

// Close releases the Redis connection if the Notifier owns it.
func (n *Notifier) Close() error {
	if n.closer == nil {
		return nil
	}
	return n.closer()
}

func (n *Notifier) publish(ctx context.Context, snap state.Snapshot) error {
	payload, err := json.Marshal(NewMessage(snap))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return n.client.Publish(ctx, n.channel, payload).Err()
}
