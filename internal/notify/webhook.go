package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const DefaultWebhookTimeout = 10 * time.Second

// Sender posts one payload to the sink.
type Sender interface {
	Enabled() bool
	Send(ctx context.Context, payload Payload) bool
}

// Webhook posts payloads as JSON to a Discord-compatible endpoint.
type Webhook struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

func NewWebhook(url string, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		url:    strings.TrimSpace(url),
		http:   &http.Client{Timeout: DefaultWebhookTimeout},
		logger: logger,
	}
}

// Enabled reports whether an endpoint is configured.
func (w *Webhook) Enabled() bool {
	return w != nil && w.url != ""
}

// Send reports whether the sink answered 200 or 204. It never returns an error.
func (w *Webhook) Send(ctx context.Context, payload Payload) bool {
	if !w.Enabled() {
		return false
	}
	body, err := json.Marshal(payload)
	if err != nil {
		w.logger.Warn("encode webhook payload", "error", err)
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.logger.Warn("build webhook request", "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		w.logger.Warn("webhook delivery failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		w.logger.Warn("webhook rejected payload", "status", resp.StatusCode)
		return false
	}
	return true
}
