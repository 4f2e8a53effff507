// Package webhookhub implements the WebhookHub collaborator: an HTTP
// receiver that routes inbound callbacks to the node currently waiting on
// the matching webhook id. Waiter state is owned by the Hub instance, never
// process-wide, so concurrent test runs with separate hubs stay isolated.
package webhookhub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vk/probegrid/internal/collab"
)

// Hub routes webhook deliveries to waiting nodes by id.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	waiters map[string]chan *collab.WebhookDelivery

	server *http.Server
}

// NewHub creates a Hub. logger may be nil, in which case the default slog
// logger is used.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		waiters: make(map[string]chan *collab.WebhookDelivery),
	}
}

// Wait blocks until a delivery tagged with webhookID arrives or the timeout
// elapses, in which case it returns (nil, nil). Only one waiter per id is
// supported at a time; a second concurrent waiter for the same id is an
// error.
func (h *Hub) Wait(ctx context.Context, webhookID string, timeout time.Duration) (*collab.WebhookDelivery, error) {
	ch := make(chan *collab.WebhookDelivery, 1)

	h.mu.Lock()
	if _, exists := h.waiters[webhookID]; exists {
		h.mu.Unlock()
		return nil, fmt.Errorf("another node is already waiting on webhook %q", webhookID)
	}
	h.waiters[webhookID] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.waiters, webhookID)
		h.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	case delivery := <-ch:
		return delivery, nil
	}
}

// Deliver hands a delivery to the waiter registered for the id. It reports
// whether a waiter consumed it.
func (h *Hub) Deliver(webhookID string, delivery *collab.WebhookDelivery) bool {
	h.mu.Lock()
	ch, ok := h.waiters[webhookID]
	h.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- delivery:
		return true
	default:
		return false
	}
}

// Router builds the gin handler serving POST /hooks/:id.
func (h *Hub) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/hooks/:id", h.handleHook)
	return router
}

func (h *Hub) handleHook(c *gin.Context) {
	webhookID := c.Param("id")

	body := map[string]any{}
	// A non-JSON or empty body is still a valid delivery; validation of the
	// shape is the waiting node's job.
	if err := c.ShouldBindJSON(&body); err != nil {
		body = map[string]any{}
	}

	headers := make(map[string]string, len(c.Request.Header))
	for name := range c.Request.Header {
		headers[name] = c.Request.Header.Get(name)
	}
	query := make(map[string]string)
	for name, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	delivery := &collab.WebhookDelivery{
		Headers:    headers,
		Body:       body,
		Query:      query,
		ReceivedAt: time.Now().UTC(),
		SourceIP:   c.ClientIP(),
	}

	consumed := h.Deliver(webhookID, delivery)
	h.logger.Debug("Webhook delivery received.", "webhook_id", webhookID, "consumed", consumed, "source_ip", delivery.SourceIP)

	// Always acknowledge: the sender retrying because no node happened to be
	// waiting would only produce duplicate deliveries.
	c.JSON(http.StatusOK, gin.H{"received": true, "consumed": consumed})
}

// Start serves the hub's HTTP endpoint on addr in a background goroutine.
func (h *Hub) Start(addr string) {
	h.server = &http.Server{
		Addr:    addr,
		Handler: h.Router(),
	}
	go func() {
		h.logger.Info("📬 Webhook receiver listening.", "address", addr)
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("Webhook receiver failed.", "error", err)
		}
	}()
}

// Shutdown stops the HTTP endpoint gracefully.
func (h *Hub) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}
