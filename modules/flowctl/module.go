// Package flowctl provides the flow-control node handlers: delay (a
// cooperative, context-aware pause) and condition (a sandboxed boolean
// expression over upstream outputs).
package flowctl

import (
	"github.com/vk/probegrid/internal/model"
	"github.com/vk/probegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the delay and condition handlers with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler(model.NodeDelay, &delayHandler{})
	r.RegisterHandler(model.NodeCondition, &conditionHandler{})
}
