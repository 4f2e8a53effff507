// Package registry maps node types to their handler implementations. Adding
// a node type means registering a handler for it, never growing a dispatch
// conditional inside the engine.
package registry

import (
	"context"
	"fmt"

	"github.com/vk/probegrid/internal/model"
)

// Handler is the executable behavior behind one node type.
type Handler interface {
	// NewConfig returns a pointer to a zero value of the handler's typed
	// configuration struct, ready for the definition loader to decode into.
	NewConfig() any

	// Run executes the node and returns its output map. Errors are expected
	// and recovered by the engine into a failed result envelope; Run may
	// return a partial output alongside an error for diagnosis.
	Run(ctx context.Context, nodeCtx *model.NodeExecutionContext) (map[string]any, error)
}

// Module is the interface all node-handler modules implement to be wired
// into an application instance.
type Module interface {
	Register(r *Registry)
}

// Registry holds the handler for every known node type of one application
// instance. It is populated at startup and read-only afterwards.
type Registry struct {
	handlers map[model.NodeType]Handler
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{handlers: make(map[model.NodeType]Handler)}
}

// RegisterHandler binds a handler to a node type, replacing any previous
// binding.
func (r *Registry) RegisterHandler(t model.NodeType, h Handler) {
	r.handlers[t] = h
}

// Handler returns the handler registered for the node type.
func (r *Registry) Handler(t model.NodeType) (Handler, bool) {
	h, ok := r.handlers[t]
	return h, ok
}

// NewConfig builds a fresh config value for the node type, for definition
// loaders to decode into.
func (r *Registry) NewConfig(t model.NodeType) (any, error) {
	h, ok := r.handlers[t]
	if !ok {
		return nil, fmt.Errorf("unknown node type %q", t)
	}
	return h.NewConfig(), nil
}

// Types returns all registered node types, in no particular order.
func (r *Registry) Types() []model.NodeType {
	types := make([]model.NodeType, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}
