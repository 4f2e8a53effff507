// Package pubsub provides the publish and subscribe node handlers. Both
// speak to an injected message bus; the bus implementation (Redis or
// in-memory) is chosen by the application, never by the handlers.
package pubsub

import (
	"github.com/vk/probegrid/internal/collab"
	"github.com/vk/probegrid/internal/model"
	"github.com/vk/probegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	Bus collab.MessageBus
}

// Register registers the publish and subscribe handlers with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler(model.NodePubSubPublish, &publishHandler{bus: m.Bus})
	r.RegisterHandler(model.NodePubSubSubscribe, &subscribeHandler{bus: m.Bus})
}
