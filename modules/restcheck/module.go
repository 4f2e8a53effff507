// Package restcheck provides the rest_check node handler: it issues one
// HTTP request and verifies the response status against an allow-list.
package restcheck

import (
	"net/http"
	"time"

	"github.com/vk/probegrid/internal/model"
	"github.com/vk/probegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	Client *http.Client
}

// Register registers the rest_check handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	client := m.Client
	if client == nil {
		client = NewClient()
	}
	r.RegisterHandler(model.NodeRestCheck, &handler{client: client})
}

// NewClient builds the shared HTTP client used by rest_check nodes. Per-node
// timeouts ride on the request context, so the client itself carries none.
func NewClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
