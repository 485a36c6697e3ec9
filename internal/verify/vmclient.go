package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rocktruck/doc-validator/internal/common"
	"github.com/rocktruck/doc-validator/internal/profile"
)

// VMClientConfig configures the HTTP client for the browser-automation VM
// that drives the registry portal.
type VMClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// VMClient implements Agent over the automation VM's HTTP API. A 2xx reply
// with a decoded body is taken at face value; transport errors and non-2xx
// statuses are technical failures the coordinator may retry.
type VMClient struct {
	cfg    VMClientConfig
	http   *http.Client
	logger *slog.Logger
}

func NewVMClient(cfg VMClientConfig, logger *slog.Logger) *VMClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VMClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type vmRequest struct {
	Variant string            `json:"variant"`
	Inputs  map[string]string `json:"inputs"`
}

func (c *VMClient) SubmitAndVerify(ctx context.Context, variant profile.Variant, inputs map[string]string) (AgentResult, error) {
	start := time.Now()
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/v1/verify"

	bs, err := json.Marshal(vmRequest{Variant: string(variant), Inputs: inputs})
	if err != nil {
		return AgentResult{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return AgentResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("verify.vm.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return AgentResult{}, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("verify.vm.body_close_error", "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	c.logger.Info("verify.vm.response",
		"document_id", common.DocumentIDFromContext(ctx),
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return AgentResult{}, fmt.Errorf("vm returned status %d", resp.StatusCode)
	}

	var res AgentResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return AgentResult{}, fmt.Errorf("decode vm response: %w", err)
	}
	return res, nil
}
