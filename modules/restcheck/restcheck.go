package restcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vk/probegrid/internal/model"
)

const (
	defaultRequestTimeout = 30 * time.Second

	// maxBodyBytes caps how much of a response body is captured into the
	// node output.
	maxBodyBytes = 1 << 20
)

// Config configures a rest_check node.
type Config struct {
	URL     string            `hcl:"url"`
	Method  string            `hcl:"method,optional"`
	Headers map[string]string `hcl:"headers,optional"`
	Body    string            `hcl:"body,optional"`
	// TimeoutSeconds bounds the whole request; zero means the default of
	// 30 seconds.
	TimeoutSeconds float64 `hcl:"timeout_seconds,optional"`
	// ExpectedStatusCodes is the response status allow-list; empty means
	// only 200.
	ExpectedStatusCodes []int `hcl:"expected_status_codes,optional"`
}

type handler struct {
	client *http.Client
}

func (h *handler) NewConfig() any { return new(Config) }

func (h *handler) Run(ctx context.Context, nodeCtx *model.NodeExecutionContext) (map[string]any, error) {
	cfg, ok := nodeCtx.Config.(*Config)
	if !ok {
		return nil, fmt.Errorf("node %s: config is %T, want *restcheck.Config", nodeCtx.NodeID, nodeCtx.Config)
	}

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}

	timeout := defaultRequestTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds * float64(time.Second))
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if cfg.Body != "" {
		bodyReader = strings.NewReader(cfg.Body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, cfg.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", cfg.URL, err)
	}
	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	requestedAt := time.Now().UTC()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, cfg.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body from %s: %w", cfg.URL, err)
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		respHeaders[key] = resp.Header.Get(key)
	}

	output := map[string]any{
		"status_code":  resp.StatusCode,
		"headers":      respHeaders,
		"body":         string(body),
		"requested_at": requestedAt.Format(time.RFC3339Nano),
	}

	expected := cfg.ExpectedStatusCodes
	if len(expected) == 0 {
		expected = []int{http.StatusOK}
	}
	for _, code := range expected {
		if resp.StatusCode == code {
			return output, nil
		}
	}
	return output, fmt.Errorf("%s %s returned status %d, expected one of %v", method, cfg.URL, resp.StatusCode, expected)
}
