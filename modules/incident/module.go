// Package incident provides the incident node handler: a step that opens an
// incident from inside a test run, with templated title and description.
package incident

import (
	"github.com/vk/probegrid/internal/collab"
	"github.com/vk/probegrid/internal/model"
	"github.com/vk/probegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	Service collab.IncidentService
}

// Register registers the incident handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler(model.NodeIncident, &handler{service: m.Service})
}
