package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/probegrid/internal/collab"
	"github.com/vk/probegrid/internal/model"
)

// fakeHub returns a canned delivery for one webhook id and times out (nil,
// nil) for everything else.
type fakeHub struct {
	id       string
	delivery *collab.WebhookDelivery
}

func (f *fakeHub) Wait(ctx context.Context, webhookID string, timeout time.Duration) (*collab.WebhookDelivery, error) {
	if webhookID == f.id {
		return f.delivery, nil
	}
	return nil, nil
}

func waitCtx(cfg *Config) *model.NodeExecutionContext {
	return &model.NodeExecutionContext{NodeID: "hook", NodeName: "hook", Config: cfg}
}

func TestDeriveID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://probes.example.com/hooks/order-created", "order-created"},
		{"https://probes.example.com/hooks/order-created/", "order-created"},
		{"order-created", "order-created"},
		{"/order-created", "order-created"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveID(tc.url), "url %q", tc.url)
	}
}

func TestRunDeliversWebhookData(t *testing.T) {
	receivedAt := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	hub := &fakeHub{
		id: "payment-settled",
		delivery: &collab.WebhookDelivery{
			Headers:    map[string]string{"X-Signature": "abc123"},
			Body:       map[string]any{"amount": 12.5, "currency": "EUR"},
			Query:      map[string]string{"source": "gateway"},
			ReceivedAt: receivedAt,
			SourceIP:   "10.0.0.9",
		},
	}
	h := &handler{hub: hub}

	output, err := h.Run(context.Background(), waitCtx(&Config{
		WebhookURL: "https://probes.example.com/hooks/payment-settled",
	}))
	require.NoError(t, err)

	data := output["webhook_data"].(map[string]any)
	assert.Equal(t, map[string]string{"X-Signature": "abc123"}, data["headers"])
	assert.Equal(t, map[string]any{"amount": 12.5, "currency": "EUR"}, data["body"])
	assert.Equal(t, map[string]string{"source": "gateway"}, data["query_params"])
	assert.Equal(t, "10.0.0.9", data["source_ip"])
	assert.Equal(t, receivedAt.Format(time.RFC3339Nano), output["received_at"])
}

func TestRunTimesOutWithoutDelivery(t *testing.T) {
	h := &handler{hub: &fakeHub{}}
	_, err := h.Run(context.Background(), waitCtx(&Config{
		WebhookURL:     "https://probes.example.com/hooks/never-called",
		TimeoutSeconds: 0.05,
	}))
	require.Error(t, err)
	assert.ErrorContains(t, err, `no webhook received on "never-called"`)
}

func TestRunValidatesHeaders(t *testing.T) {
	hub := &fakeHub{
		id: "signed",
		delivery: &collab.WebhookDelivery{
			Headers:    map[string]string{"x-signature": "abc123"},
			Body:       map[string]any{},
			ReceivedAt: time.Now(),
		},
	}
	h := &handler{hub: hub}

	t.Run("case-insensitive match passes", func(t *testing.T) {
		_, err := h.Run(context.Background(), waitCtx(&Config{
			WebhookURL:      "/hooks/signed",
			ExpectedHeaders: map[string]string{"X-Signature": "abc123"},
		}))
		assert.NoError(t, err)
	})

	t.Run("value mismatch keeps output", func(t *testing.T) {
		output, err := h.Run(context.Background(), waitCtx(&Config{
			WebhookURL:      "/hooks/signed",
			ExpectedHeaders: map[string]string{"X-Signature": "wrong"},
		}))
		require.Error(t, err)
		assert.ErrorContains(t, err, `header "X-Signature" mismatch`)
		assert.NotNil(t, output["webhook_data"])
	})

	t.Run("missing header fails", func(t *testing.T) {
		_, err := h.Run(context.Background(), waitCtx(&Config{
			WebhookURL:      "/hooks/signed",
			ExpectedHeaders: map[string]string{"X-Other": "x"},
		}))
		assert.ErrorContains(t, err, `missing expected header "X-Other"`)
	})
}

func TestRunValidatesBodySchema(t *testing.T) {
	hub := &fakeHub{
		id: "order",
		delivery: &collab.WebhookDelivery{
			Body: map[string]any{
				"order_id": "ord_1",
				"total":    99.9,
				"customer": map[string]any{"name": "Ada"},
				"items":    []any{map[string]any{"sku": "A-1"}},
			},
			ReceivedAt: time.Now(),
		},
	}
	h := &handler{hub: hub}

	schema := func(pairs map[string]cty.Value) cty.Value {
		return cty.ObjectVal(pairs)
	}

	t.Run("valid schema passes", func(t *testing.T) {
		_, err := h.Run(context.Background(), waitCtx(&Config{
			WebhookURL: "/hooks/order",
			ExpectedBodySchema: schema(map[string]cty.Value{
				"order_id": cty.StringVal("string"),
				"total":    cty.StringVal("number"),
				"customer": schema(map[string]cty.Value{"name": cty.StringVal("string")}),
				"items": cty.TupleVal([]cty.Value{
					schema(map[string]cty.Value{"sku": cty.StringVal("string")}),
				}),
			}),
		}))
		assert.NoError(t, err)
	})

	t.Run("missing field fails", func(t *testing.T) {
		_, err := h.Run(context.Background(), waitCtx(&Config{
			WebhookURL: "/hooks/order",
			ExpectedBodySchema: schema(map[string]cty.Value{
				"status": cty.StringVal("string"),
			}),
		}))
		assert.ErrorContains(t, err, `missing expected field "status"`)
	})

	t.Run("type mismatch fails", func(t *testing.T) {
		_, err := h.Run(context.Background(), waitCtx(&Config{
			WebhookURL: "/hooks/order",
			ExpectedBodySchema: schema(map[string]cty.Value{
				"order_id": cty.StringVal("number"),
			}),
		}))
		assert.ErrorContains(t, err, `field "order_id": expected number`)
	})

	t.Run("nested path in error", func(t *testing.T) {
		_, err := h.Run(context.Background(), waitCtx(&Config{
			WebhookURL: "/hooks/order",
			ExpectedBodySchema: schema(map[string]cty.Value{
				"customer": schema(map[string]cty.Value{"email": cty.StringVal("string")}),
			}),
		}))
		assert.ErrorContains(t, err, `missing expected field "customer.email"`)
	})
}

func TestCheckType(t *testing.T) {
	assert.NoError(t, checkType("any", 42, "f"))
	assert.NoError(t, checkType("string", "x", "f"))
	assert.NoError(t, checkType("number", 3.14, "f"))
	assert.NoError(t, checkType("bool", true, "f"))
	assert.NoError(t, checkType("object", map[string]any{}, "f"))
	assert.NoError(t, checkType("array", []any{}, "f"))
	assert.ErrorContains(t, checkType("uuid", "x", "f"), `unknown schema type "uuid"`)
	assert.ErrorContains(t, checkType("string", 42, "f"), "expected string")
}
