package webhook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/probegrid/internal/collab"
	"github.com/vk/probegrid/internal/ctyutil"
	"github.com/vk/probegrid/internal/model"
)

const defaultWaitTimeout = 60 * time.Second

// Config configures a webhook_wait node.
type Config struct {
	// WebhookURL is the externally visible callback URL; the hub routes
	// deliveries by its last path segment (see DeriveID).
	WebhookURL string `hcl:"webhook_url"`
	// ExpectedHeaders must each be present with an exactly equal value.
	ExpectedHeaders map[string]string `hcl:"expected_headers,optional"`
	// ExpectedBodySchema is a shallow JSON schema: field name to either a
	// type name ("string", "number", "bool", "object", "array", "any"), a
	// nested object schema, or a single-element array holding the element
	// schema.
	ExpectedBodySchema cty.Value `hcl:"expected_body_schema,optional"`
	// TimeoutSeconds bounds the wait; zero means the default of 60 seconds.
	TimeoutSeconds float64 `hcl:"timeout_seconds,optional"`
}

type handler struct {
	hub collab.WebhookHub
}

func (h *handler) NewConfig() any { return new(Config) }

func (h *handler) Run(ctx context.Context, nodeCtx *model.NodeExecutionContext) (map[string]any, error) {
	cfg, ok := nodeCtx.Config.(*Config)
	if !ok {
		return nil, fmt.Errorf("node %s: config is %T, want *webhook.Config", nodeCtx.NodeID, nodeCtx.Config)
	}

	webhookID := DeriveID(cfg.WebhookURL)
	if webhookID == "" {
		return nil, fmt.Errorf("cannot derive a webhook id from %q", cfg.WebhookURL)
	}

	timeout := defaultWaitTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds * float64(time.Second))
	}

	delivery, err := h.hub.Wait(ctx, webhookID, timeout)
	if err != nil {
		return nil, fmt.Errorf("waiting for webhook %q: %w", webhookID, err)
	}
	if delivery == nil {
		return nil, fmt.Errorf("no webhook received on %q within %s", webhookID, timeout)
	}

	output := map[string]any{
		"webhook_data": map[string]any{
			"headers":      delivery.Headers,
			"body":         delivery.Body,
			"query_params": delivery.Query,
			"source_ip":    delivery.SourceIP,
		},
		"received_at": delivery.ReceivedAt.UTC().Format(time.RFC3339Nano),
	}

	if err := validateHeaders(cfg.ExpectedHeaders, delivery.Headers); err != nil {
		return output, err
	}

	if !cfg.ExpectedBodySchema.IsNull() {
		schemaGo, err := ctyutil.ToGo(cfg.ExpectedBodySchema)
		if err != nil {
			return output, fmt.Errorf("invalid expected_body_schema: %w", err)
		}
		schema, ok := schemaGo.(map[string]any)
		if !ok {
			return output, fmt.Errorf("expected_body_schema must be an object, got %T", schemaGo)
		}
		if err := validateBodySchema(schema, delivery.Body, ""); err != nil {
			return output, err
		}
	}

	return output, nil
}

// DeriveID extracts the webhook routing id from a callback URL: the last
// non-empty path segment.
func DeriveID(webhookURL string) string {
	trimmed := strings.TrimRight(webhookURL, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

func validateHeaders(expected, got map[string]string) error {
	for key, want := range expected {
		value, present := lookupHeader(got, key)
		if !present {
			return fmt.Errorf("webhook is missing expected header %q", key)
		}
		if value != want {
			return fmt.Errorf("webhook header %q mismatch: expected %q, got %q", key, want, value)
		}
	}
	return nil
}

// lookupHeader matches header names case-insensitively, as HTTP does.
func lookupHeader(headers map[string]string, name string) (string, bool) {
	if v, ok := headers[name]; ok {
		return v, true
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// validateBodySchema checks field presence and type, recursing into nested
// object schemas and single-element array schemas.
func validateBodySchema(schema map[string]any, body map[string]any, path string) error {
	for field, want := range schema {
		fieldPath := field
		if path != "" {
			fieldPath = path + "." + field
		}

		value, present := body[field]
		if !present {
			return fmt.Errorf("webhook body is missing expected field %q", fieldPath)
		}

		switch want := want.(type) {
		case string:
			if err := checkType(want, value, fieldPath); err != nil {
				return err
			}
		case map[string]any:
			nested, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("webhook body field %q: expected object, got %T", fieldPath, value)
			}
			if err := validateBodySchema(want, nested, fieldPath); err != nil {
				return err
			}
		case []any:
			items, ok := value.([]any)
			if !ok {
				return fmt.Errorf("webhook body field %q: expected array, got %T", fieldPath, value)
			}
			if len(want) == 0 {
				continue
			}
			elemSchema, ok := want[0].(map[string]any)
			if !ok {
				continue
			}
			for i, item := range items {
				elem, ok := item.(map[string]any)
				if !ok {
					return fmt.Errorf("webhook body field %q[%d]: expected object, got %T", fieldPath, i, item)
				}
				if err := validateBodySchema(elemSchema, elem, fmt.Sprintf("%s[%d]", fieldPath, i)); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unsupported schema entry for field %q: %T", fieldPath, want)
		}
	}
	return nil
}

func checkType(typeName string, value any, fieldPath string) error {
	matches := false
	switch typeName {
	case "any":
		matches = true
	case "string":
		_, matches = value.(string)
	case "number":
		switch value.(type) {
		case float64, int, int64:
			matches = true
		}
	case "bool":
		_, matches = value.(bool)
	case "object":
		_, matches = value.(map[string]any)
	case "array":
		_, matches = value.([]any)
	default:
		return fmt.Errorf("unknown schema type %q for field %q", typeName, fieldPath)
	}
	if !matches {
		return fmt.Errorf("webhook body field %q: expected %s, got %T", fieldPath, typeName, value)
	}
	return nil
}
