package pubsub

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/probegrid/internal/collab"
	"github.com/vk/probegrid/internal/model"
)

// PublishConfig configures a pubsub_publish node.
type PublishConfig struct {
	Project     string            `hcl:"project"`
	Topic       string            `hcl:"topic"`
	Message     string            `hcl:"message"`
	Attributes  map[string]string `hcl:"attributes,optional"`
	OrderingKey string            `hcl:"ordering_key,optional"`
}

type publishHandler struct {
	bus collab.MessageBus
}

func (h *publishHandler) NewConfig() any { return new(PublishConfig) }

func (h *publishHandler) Run(ctx context.Context, nodeCtx *model.NodeExecutionContext) (map[string]any, error) {
	cfg, ok := nodeCtx.Config.(*PublishConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: config is %T, want *PublishConfig", nodeCtx.NodeID, nodeCtx.Config)
	}

	messageID, err := h.bus.Publish(ctx, cfg.Project, cfg.Topic, cfg.Message, cfg.Attributes, cfg.OrderingKey)
	if err != nil {
		return nil, fmt.Errorf("publishing to %s/%s: %w", cfg.Project, cfg.Topic, err)
	}

	return map[string]any{
		"message_id":   messageID,
		"published_at": time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}
