package pubsub

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/probegrid/internal/collab"
	"github.com/vk/probegrid/internal/model"
)

const defaultReceiveTimeout = 30 * time.Second

// SubscribeConfig configures a pubsub_subscribe node.
type SubscribeConfig struct {
	Project      string  `hcl:"project"`
	Subscription string  `hcl:"subscription"`
	// TimeoutSeconds bounds the wait for one message; zero means the
	// default of 30 seconds.
	TimeoutSeconds float64 `hcl:"timeout_seconds,optional"`
	// ExpectedAttributes must all be present and equal on the received
	// message; the first mismatch fails the node.
	ExpectedAttributes map[string]string `hcl:"expected_attributes,optional"`
}

type subscribeHandler struct {
	bus collab.MessageBus
}

func (h *subscribeHandler) NewConfig() any { return new(SubscribeConfig) }

func (h *subscribeHandler) Run(ctx context.Context, nodeCtx *model.NodeExecutionContext) (map[string]any, error) {
	cfg, ok := nodeCtx.Config.(*SubscribeConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: config is %T, want *SubscribeConfig", nodeCtx.NodeID, nodeCtx.Config)
	}

	timeout := defaultReceiveTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds * float64(time.Second))
	}

	msg, err := h.bus.Receive(ctx, cfg.Project, cfg.Subscription, timeout)
	if err != nil {
		return nil, fmt.Errorf("receiving on %s/%s: %w", cfg.Project, cfg.Subscription, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("no message received on %s/%s within %s", cfg.Project, cfg.Subscription, timeout)
	}

	output := map[string]any{
		"message_id":  msg.ID,
		"data":        msg.Data,
		"attributes":  msg.Attributes,
		"received_at": time.Now().UTC().Format(time.RFC3339Nano),
	}

	for key, want := range cfg.ExpectedAttributes {
		got, present := msg.Attributes[key]
		if !present {
			return output, fmt.Errorf("message %s is missing expected attribute %q", msg.ID, key)
		}
		if got != want {
			return output, fmt.Errorf("attribute %q mismatch on message %s: expected %q, got %q", key, msg.ID, want, got)
		}
	}

	return output, nil
}
