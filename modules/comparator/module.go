// Package comparator provides the compare node handler: it evaluates a list
// of attribute predicates against the recorded outputs of two upstream
// nodes. The node passes only when every predicate holds for both.
package comparator

import (
	"github.com/vk/probegrid/internal/model"
	"github.com/vk/probegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the compare handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler(model.NodeCompare, &handler{})
}
