package collab

import (
	"context"
	"time"
)

// Message is one message observed on the bus.
type Message struct {
	ID          string
	Data        string
	Attributes  map[string]string
	OrderingKey string
	PublishedAt time.Time
}

// MessageBus publishes and receives messages on named topics and
// subscriptions within a project namespace.
type MessageBus interface {
	// Publish sends data with the given attributes and returns the assigned
	// message id.
	Publish(ctx context.Context, project, topic, data string, attributes map[string]string, orderingKey string) (string, error)

	// Receive blocks for up to timeout waiting for one message on the
	// subscription. It returns (nil, nil) when the timeout elapses with no
	// message; a non-nil error only for transport faults.
	Receive(ctx context.Context, project, subscription string, timeout time.Duration) (*Message, error)
}

// WebhookDelivery is one inbound webhook callback.
type WebhookDelivery struct {
	Headers    map[string]string
	Body       map[string]any
	Query      map[string]string
	ReceivedAt time.Time
	SourceIP   string
}

// WebhookHub routes inbound webhook callbacks to waiting nodes by id.
type WebhookHub interface {
	// Wait blocks for up to timeout until a delivery tagged with webhookID
	// arrives. It returns (nil, nil) when the timeout elapses.
	Wait(ctx context.Context, webhookID string, timeout time.Duration) (*WebhookDelivery, error)
}

// IncidentRequest is the payload sent to the incident service.
type IncidentRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Severity         string   `json:"severity"`
	IncidentType     string   `json:"incident_type"`
	AffectedServices []string `json:"affected_services"`
}

// IncidentService opens incidents in the (external) incident platform.
type IncidentService interface {
	CreateIncident(ctx context.Context, req *IncidentRequest) (string, error)
}
