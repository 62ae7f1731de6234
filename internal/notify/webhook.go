package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/kims-booking/pkg/logging"
)

// WebhookObserver records delivery outcomes.
type WebhookObserver interface {
	ObserveWebhook(status string, seconds float64)
}

// WebhookNotifier POSTs booking payloads to a single configured URL.
// Delivery is best effort: failures are logged and counted, never retried.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	metrics WebhookObserver
	logger  *logging.Logger
}

// WebhookConfig holds configuration for the booking webhook.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

// NewWebhookNotifier creates a notifier. An empty URL yields a notifier that
// only logs.
func NewWebhookNotifier(cfg WebhookConfig, metrics WebhookObserver, logger *logging.Logger) *WebhookNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:     strings.TrimSpace(cfg.URL),
		client:  &http.Client{Timeout: cfg.Timeout},
		metrics: metrics,
		logger:  logger,
	}
}

// Enabled reports whether a destination URL is configured.
func (n *WebhookNotifier) Enabled() bool {
	return n != nil && n.url != ""
}

// Notify delivers the payload and reports the result. Callers are expected
// to ignore the error beyond logging.
func (n *WebhookNotifier) Notify(ctx context.Context, payload Payload) error {
	if !n.Enabled() {
		if n != nil {
			n.logger.Debug("booking webhook disabled, skipping", "reference", payload.BookingReference)
		}
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.observe("error", -1)
		return fmt.Errorf("notify: build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := n.client.Do(req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		n.observe("error", elapsed)
		n.logger.Warn("booking webhook request failed", "error", err, "reference", payload.BookingReference)
		return fmt.Errorf("notify: webhook request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.observe("rejected", elapsed)
		n.logger.Warn("booking webhook returned error status",
			"status", resp.StatusCode,
			"body", string(respBody),
			"reference", payload.BookingReference,
		)
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}

	n.observe("delivered", elapsed)
	n.logger.Info("booking webhook delivered", "reference", payload.BookingReference, "status", resp.StatusCode)
	return nil
}

func (n *WebhookNotifier) observe(status string, seconds float64) {
	if n.metrics != nil {
		n.metrics.ObserveWebhook(status, seconds)
	}
}
