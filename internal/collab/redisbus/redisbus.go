// Package redisbus implements the MessageBus collaborator on Redis pub/sub.
// Channels are named "<project>:<name>"; the subscription name doubles as
// the channel name, since Redis pub/sub has no broker-side subscriptions.
// Delivery is fire-and-forget: a receiver must be listening when the
// message is published, which is exactly the shape of a synthetic test that
// runs its subscribe node concurrently with (or ahead of) its publish node.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vk/probegrid/internal/collab"
	"github.com/vk/probegrid/internal/ctxlog"
)

// envelope is the JSON wire format carried on the Redis channel.
type envelope struct {
	ID          string            `json:"id"`
	Data        string            `json:"data"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	OrderingKey string            `json:"ordering_key,omitempty"`
	PublishedAt time.Time         `json:"published_at"`
}

// Bus is a MessageBus backed by a Redis client.
type Bus struct {
	client *redis.Client
}

// NewBus creates a Bus on top of an existing Redis client; the caller owns
// the client's lifecycle.
func NewBus(client *redis.Client) *Bus {
	return &Bus{client: client}
}

// Publish serializes the message and publishes it on the topic channel.
func (b *Bus) Publish(ctx context.Context, project, topic, data string, attributes map[string]string, orderingKey string) (string, error) {
	env := envelope{
		ID:          uuid.NewString(),
		Data:        data,
		Attributes:  attributes,
		OrderingKey: orderingKey,
		PublishedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshaling message envelope: %w", err)
	}

	if err := b.client.Publish(ctx, channel(project, topic), payload).Err(); err != nil {
		return "", fmt.Errorf("publishing to redis channel %q: %w", channel(project, topic), err)
	}

	ctxlog.FromContext(ctx).Debug("Message published.", "channel", channel(project, topic), "message_id", env.ID)
	return env.ID, nil
}

// Receive subscribes to the subscription channel and waits for one message.
// It returns (nil, nil) when the timeout elapses with no message.
func (b *Bus) Receive(ctx context.Context, project, subscription string, timeout time.Duration) (*collab.Message, error) {
	logger := ctxlog.FromContext(ctx)
	ch := channel(project, subscription)

	sub := b.client.Subscribe(ctx, ch)
	defer sub.Close()

	// Wait for the subscription to be confirmed so a concurrently published
	// message is not lost to the subscribe race.
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribing to redis channel %q: %w", ch, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		logger.Debug("Receive timed out.", "channel", ch, "timeout", timeout)
		return nil, nil
	case raw, ok := <-sub.Channel():
		if !ok {
			return nil, fmt.Errorf("redis subscription %q closed unexpectedly", ch)
		}
		var env envelope
		if err := json.Unmarshal([]byte(raw.Payload), &env); err != nil {
			return nil, fmt.Errorf("decoding message envelope from %q: %w", ch, err)
		}
		return &collab.Message{
			ID:          env.ID,
			Data:        env.Data,
			Attributes:  env.Attributes,
			OrderingKey: env.OrderingKey,
			PublishedAt: env.PublishedAt,
		}, nil
	}
}

func channel(project, name string) string {
	return project + ":" + name
}
