// Package membus is an in-memory MessageBus for tests and local runs. State
// is owned by the Bus instance: two buses never share messages, so
// concurrent test runs with separate buses cannot observe each other.
package membus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vk/probegrid/internal/collab"
)

// subscriptionBuffer bounds how many undelivered messages a subscription
// holds before Publish starts failing.
const subscriptionBuffer = 64

// Bus is an in-memory pub/sub bus with explicit subscription-to-topic
// bindings.
type Bus struct {
	mu sync.Mutex
	// bindings maps a topic key to the subscription keys fanned out to.
	bindings map[string][]string
	// queues maps a subscription key to its buffered message channel.
	queues map[string]chan *collab.Message
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{
		bindings: make(map[string][]string),
		queues:   make(map[string]chan *collab.Message),
	}
}

// Bind attaches a subscription to a topic; every message published to the
// topic is fanned out to all bound subscriptions.
func (b *Bus) Bind(project, subscription, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	topicKey := key(project, topic)
	subKey := key(project, subscription)
	b.ensureQueueLocked(subKey)

	for _, existing := range b.bindings[topicKey] {
		if existing == subKey {
			return
		}
	}
	b.bindings[topicKey] = append(b.bindings[topicKey], subKey)
}

// Publish fans the message out to every subscription bound to the topic and
// returns the assigned message id. Publishing to a topic with no bindings is
// not an error; the message is simply dropped, like a broker with no
// subscribers.
func (b *Bus) Publish(ctx context.Context, project, topic, data string, attributes map[string]string, orderingKey string) (string, error) {
	msg := &collab.Message{
		ID:          uuid.NewString(),
		Data:        data,
		Attributes:  attributes,
		OrderingKey: orderingKey,
		PublishedAt: time.Now().UTC(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, subKey := range b.bindings[key(project, topic)] {
		queue := b.ensureQueueLocked(subKey)
		select {
		case queue <- msg:
		default:
			return "", fmt.Errorf("subscription %q backlog is full", subKey)
		}
	}
	return msg.ID, nil
}

// Receive waits for one message on the subscription. It returns (nil, nil)
// when the timeout elapses with no message.
func (b *Bus) Receive(ctx context.Context, project, subscription string, timeout time.Duration) (*collab.Message, error) {
	b.mu.Lock()
	queue := b.ensureQueueLocked(key(project, subscription))
	b.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	case msg := <-queue:
		return msg, nil
	}
}

func (b *Bus) ensureQueueLocked(subKey string) chan *collab.Message {
	queue, ok := b.queues[subKey]
	if !ok {
		queue = make(chan *collab.Message, subscriptionBuffer)
		b.queues[subKey] = queue
	}
	return queue
}

func key(project, name string) string {
	return project + "/" + name
}
