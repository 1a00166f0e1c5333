package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/seatmate-io/seatmate/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// WebhookClient delivers notification payloads to the configured external
// endpoint. Delivery is best-effort: callers log failures and move on.
type WebhookClient struct {
	Endpoint   string
	Enabled    bool
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewWebhookClient creates a WebhookClient with OpenTelemetry instrumentation.
func NewWebhookClient(cfg *config.Config, log *zap.Logger) *WebhookClient {
	timeout := time.Duration(cfg.Webhook.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookClient{
		Endpoint: cfg.Webhook.Endpoint,
		Enabled:  cfg.Webhook.Enabled && cfg.Webhook.Endpoint != "",
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Logger: log,
	}
}

// Deliver posts the payload as JSON. A non-2xx response is an error so the
// caller can decide whether to log or retry.
func (c *WebhookClient) Deliver(ctx context.Context, payload any) error {
	if !c.Enabled {
		return nil
	}

	b, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.Logger.Error("webhook delivery failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(respBody)))
		return fmt.Errorf("webhook delivery failed with status %d", resp.StatusCode)
	}
	return nil
}
