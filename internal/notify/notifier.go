package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocktruck/doc-validator/internal/entity"
)

// Notifier delivers a finished decision to the caller's callback URL.
type Notifier interface {
	Deliver(ctx context.Context, url string, decision *entity.Decision) error
}

// WebhookNotifier posts the decision as JSON. Delivery is best-effort: the
// decision is already persisted, so a failed callback only gets logged by the
// caller.
type WebhookNotifier struct {
	client *http.Client
	logger *slog.Logger
}

func NewWebhookNotifier(timeout time.Duration, logger *slog.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookNotifier{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (n *WebhookNotifier) Deliver(ctx context.Context, url string, decision *entity.Decision) error {
	bs, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post decision: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	n.logger.Info("notify.delivered",
		"document_id", decision.DocumentID,
		"status", resp.StatusCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}
