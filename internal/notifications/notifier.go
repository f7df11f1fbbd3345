// Package notifications fans post lifecycle events out to live feed sockets.
package notifications

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"strings"
	"time"

	"orma/internal/cache"
	"orma/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// PostCompleted is published when a post becomes visible on the feed.
const PostCompleted = "post.completed"

const eventChannelPattern = "events:*:posts"

// PostEvent is the payload carried on an event channel.
type PostEvent struct {
	Type       string    `json:"type"`
	EventHash  string    `json:"event_hash"`
	PostID     uint      `json:"post_id"`
	CategoryID uint      `json:"category_id,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	At         time.Time `json:"at"`
}

// Notifier publishes and consumes event channel messages through Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client turns every call into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishPostEvent sends ev to the channel of ev.EventHash.
func (n *Notifier) PublishPostEvent(ctx context.Context, ev PostEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, cache.EventChannel(ev.EventHash), payload).Err()
}

// StartEventSubscriber subscribes to every event channel and calls onMessage
// with the event hash and raw payload until ctx ends.
func (n *Notifier) StartEventSubscriber(
	ctx context.Context, onMessage func(eventHash string, payload string),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, eventChannelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				hash, ok := EventHashFromChannel(msg.Channel)
				if !ok {
					middleware.Logger.Warn("invalid event channel", "channel", msg.Channel)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in event subscriber",
								"panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(hash, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// EventHashFromChannel extracts the hash from an events:{hash}:posts channel.
func EventHashFromChannel(channel string) (string, bool) {
	rest, ok := strings.CutPrefix(channel, "events:")
	if !ok {
		return "", false
	}
	hash, ok := strings.CutSuffix(rest, ":posts")
	if !ok || hash == "" {
		return "", false
	}
	return hash, true
}
