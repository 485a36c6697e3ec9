package extract

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

	"github.com/google/uuid"

	"github.com/rocktruck/doc-validator/internal/profile"
)

// AIConfig configures the chat-completions extraction client.
type AIConfig struct {
	APIKey      string
	BaseURL     string // default https://api.openai.com/v1
	Model       string // e.g. "gpt-4o-mini"
	Temperature float32
	Timeout     time.Duration
}

// AIClient implements FieldExtractor over an OpenAI-compatible
// chat/completions endpoint with structured JSON output.
type AIClient struct {
	cfg      AIConfig
	http     *http.Client
	registry *profile.Registry
	log      *slog.Logger
}

func NewAIClient(cfg AIConfig, registry *profile.Registry, logger *slog.Logger) *AIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AIClient{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		registry: registry,
		log:      logger,
	}
}

func (c *AIClient) ExtractFields(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	p, err := c.registry.ProfileFor(req.Variant)
	if err != nil {
		return ExtractResult{}, err
	}

	c.log.Info("extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"variant", string(req.Variant),
		"text_len", len(req.Text),
	)

	schema := BuildExtractionSchema(p)
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": buildSystemPrompt(p)},
			{"role": "user", "content": buildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return ExtractResult{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return ExtractResult{}, fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return ExtractResult{}, fmt.Errorf("no choices in completion response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	// Validate strictly first; fall back to a lenient sanitize pass.
	if vErr := ValidateAgainstSchema(schema, content); vErr != nil {
		cleaned, dropped, sErr := SanitizeReply(p, content)
		if sErr != nil {
			return ExtractResult{RawJSON: content}, fmt.Errorf("%w: sanitize: %v", ErrReplyInvalid, sErr)
		}
		if vErr2 := ValidateAgainstSchema(schema, cleaned); vErr2 != nil {
			c.log.Error("extract.schema_validation_failed",
				"req_id", rid, "error", vErr2,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return ExtractResult{RawJSON: content}, fmt.Errorf("%w: %v", ErrReplyInvalid, vErr2)
		}
		c.log.Warn("extract.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		content = cleaned
	}

	result, err := decodeResult(content)
	if err != nil {
		return ExtractResult{RawJSON: content}, err
	}

	c.log.Info("extract.done",
		"req_id", rid,
		"matched_variant", result.MatchedVariant,
		"fields", len(result.Fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (c *AIClient) post(ctx context.Context, url string, body any) ([]byte, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warn("extract.response_body_close_error", "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return raw, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, nil
}

// decodeResult splits the validated reply into the match flag and the string
// field map.
func decodeResult(content []byte) (ExtractResult, error) {
	var m map[string]any
	if err := json.Unmarshal(content, &m); err != nil {
		return ExtractResult{}, fmt.Errorf("decode reply: %w", err)
	}
	res := ExtractResult{Fields: make(map[string]string), RawJSON: content}
	for k, v := range m {
		if k == "matched_variant" {
			if b, ok := v.(bool); ok {
				res.MatchedVariant = b
			}
			continue
		}
		if s, ok := v.(string); ok {
			res.Fields[k] = s
		}
	}
	return res, nil
}

func buildSystemPrompt(p *profile.DocumentTypeProfile) string {
	var b strings.Builder
	b.WriteString("You are a data-entry specialist for Chilean labor and social security certificates (Certificado F30).\n")
	fmt.Fprintf(&b, "The document you receive is declared to be: %s.\n", p.DisplayName)
	b.WriteString("First decide whether the text really is that kind of certificate and set matched_variant accordingly.\n")
	b.WriteString("Then extract the following fields verbatim from the text, without inventing values:\n")
	for _, f := range p.Fields {
		fmt.Fprintf(&b, "- %s: %s\n", f.Name, f.Description)
	}
	b.WriteString("If matched_variant is false, still return the required keys with your best effort values.")
	return b.String()
}

func buildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if req.FileNameHint != "" {
		fmt.Fprintf(&b, "File name: %s\n\n", req.FileNameHint)
	}
	b.WriteString("Document text:\n")
	b.WriteString(req.Text)
	return b.String()
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
