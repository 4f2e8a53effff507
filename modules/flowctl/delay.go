package flowctl

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/probegrid/internal/model"
)

// DelayConfig configures a delay node.
type DelayConfig struct {
	DelaySeconds float64 `hcl:"delay_seconds"`
}

type delayHandler struct{}

func (h *delayHandler) NewConfig() any { return new(DelayConfig) }

// Run sleeps cooperatively: other nodes in the same wave keep executing, and
// cancelling the run context ends the pause early.
func (h *delayHandler) Run(ctx context.Context, nodeCtx *model.NodeExecutionContext) (map[string]any, error) {
	cfg, ok := nodeCtx.Config.(*DelayConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: config is %T, want *DelayConfig", nodeCtx.NodeID, nodeCtx.Config)
	}
	if cfg.DelaySeconds < 0 {
		return nil, fmt.Errorf("delay_seconds must not be negative, got %g", cfg.DelaySeconds)
	}

	timer := time.NewTimer(time.Duration(cfg.DelaySeconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("delay interrupted: %w", ctx.Err())
	case <-timer.C:
	}

	return map[string]any{
		"delay_seconds": cfg.DelaySeconds,
		"delayed_at":    time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}
