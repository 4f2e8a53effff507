package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/probegrid/internal/collab/membus"
	"github.com/vk/probegrid/internal/model"
)

func TestPublishThenSubscribe(t *testing.T) {
	bus := membus.NewBus()
	bus.Bind("proj", "orders-sub", "orders")
	pub := &publishHandler{bus: bus}
	sub := &subscribeHandler{bus: bus}

	pubOut, err := pub.Run(context.Background(), &model.NodeExecutionContext{
		NodeID: "publisher",
		Config: &PublishConfig{
			Project:    "proj",
			Topic:      "orders",
			Message:    `{"order_id": 7}`,
			Attributes: map[string]string{"env": "prod"},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pubOut["message_id"])
	assert.NotEmpty(t, pubOut["published_at"])

	subOut, err := sub.Run(context.Background(), &model.NodeExecutionContext{
		NodeID: "subscriber",
		Config: &SubscribeConfig{
			Project:            "proj",
			Subscription:       "orders-sub",
			TimeoutSeconds:     1,
			ExpectedAttributes: map[string]string{"env": "prod"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, pubOut["message_id"], subOut["message_id"])
	assert.Equal(t, `{"order_id": 7}`, subOut["data"])
	assert.Equal(t, map[string]string{"env": "prod"}, subOut["attributes"])
}

func TestSubscribeAttributeMismatchKeepsOutput(t *testing.T) {
	bus := membus.NewBus()
	bus.Bind("proj", "sub", "topic")
	pub := &publishHandler{bus: bus}
	sub := &subscribeHandler{bus: bus}

	_, err := pub.Run(context.Background(), &model.NodeExecutionContext{
		NodeID: "publisher",
		Config: &PublishConfig{
			Project:    "proj",
			Topic:      "topic",
			Message:    "payload",
			Attributes: map[string]string{"env": "staging"},
		},
	})
	require.NoError(t, err)

	output, err := sub.Run(context.Background(), &model.NodeExecutionContext{
		NodeID: "subscriber",
		Config: &SubscribeConfig{
			Project:            "proj",
			Subscription:       "sub",
			TimeoutSeconds:     1,
			ExpectedAttributes: map[string]string{"env": "prod"},
		},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, `attribute "env" mismatch`)
	// Partial output survives so a downstream comparator can diagnose.
	require.NotNil(t, output)
	assert.Equal(t, "payload", output["data"])
}

func TestSubscribeMissingExpectedAttribute(t *testing.T) {
	bus := membus.NewBus()
	bus.Bind("proj", "sub", "topic")
	pub := &publishHandler{bus: bus}
	sub := &subscribeHandler{bus: bus}

	_, err := pub.Run(context.Background(), &model.NodeExecutionContext{
		NodeID: "publisher",
		Config: &PublishConfig{Project: "proj", Topic: "topic", Message: "x"},
	})
	require.NoError(t, err)

	_, err = sub.Run(context.Background(), &model.NodeExecutionContext{
		NodeID: "subscriber",
		Config: &SubscribeConfig{
			Project:            "proj",
			Subscription:       "sub",
			TimeoutSeconds:     1,
			ExpectedAttributes: map[string]string{"env": "prod"},
		},
	})
	assert.ErrorContains(t, err, `missing expected attribute "env"`)
}

func TestSubscribeTimesOutOnEmptySubscription(t *testing.T) {
	bus := membus.NewBus()
	bus.Bind("proj", "quiet-sub", "quiet")
	sub := &subscribeHandler{bus: bus}

	_, err := sub.Run(context.Background(), &model.NodeExecutionContext{
		NodeID: "subscriber",
		Config: &SubscribeConfig{
			Project:        "proj",
			Subscription:   "quiet-sub",
			TimeoutSeconds: 0.05,
		},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "no message received on proj/quiet-sub")
}
