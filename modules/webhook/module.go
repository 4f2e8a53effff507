// Package webhook provides the webhook_wait node handler: it suspends until
// a callback tagged with the node's derived webhook id arrives, then
// validates the delivery's headers and body shape.
package webhook

import (
	"github.com/vk/probegrid/internal/collab"
	"github.com/vk/probegrid/internal/model"
	"github.com/vk/probegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	Hub collab.WebhookHub
}

// Register registers the webhook_wait handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler(model.NodeWebhookWait, &handler{hub: m.Hub})
}
