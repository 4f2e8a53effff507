package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/probegrid/internal/ctxlog"
	"github.com/vk/probegrid/internal/model"
)

// dispatch runs a single node and never lets a fault escape: handler errors,
// missing handlers, and panics all land in a failed result envelope, so a
// fault in one node cannot abort its siblings in the same wave. Every
// envelope carries a start time, an end time, and a definite status.
func (e *Executor) dispatch(ctx context.Context, node *model.Node, nodeCtx *model.NodeExecutionContext) (res *model.NodeResult) {
	logger := ctxlog.FromContext(ctx).With("node_id", node.ID, "node_type", string(node.Type))

	res = &model.NodeResult{
		Status:    model.NodeFailed,
		StartTime: time.Now(),
		Output:    map[string]any{},
	}

	defer func() {
		if r := recover(); r != nil {
			res.Error = fmt.Sprintf("node handler panicked: %v", r)
		}
		res.EndTime = time.Now()

		if e.collector != nil {
			e.collector.ObserveNode(string(node.Type), string(res.Status), res.EndTime.Sub(res.StartTime))
		}
		if res.Status == model.NodePassed {
			logger.Info("✅ Node passed.", "duration", res.EndTime.Sub(res.StartTime))
		} else {
			logger.Warn("❌ Node failed.", "error", res.Error, "duration", res.EndTime.Sub(res.StartTime))
		}
	}()

	logger.Debug("▶️ Dispatching node.", "name", node.Name)

	handler, ok := e.registry.Handler(node.Type)
	if !ok {
		res.Error = fmt.Sprintf("no handler registered for node type %q", node.Type)
		return res
	}

	output, err := handler.Run(ctx, nodeCtx)
	if output != nil {
		// Keep partial output on failure for downstream diagnosis.
		res.Output = output
	}
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Status = model.NodePassed
	return res
}
