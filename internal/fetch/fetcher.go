package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrDownload wraps any transport failure while retrieving document bytes.
var ErrDownload = errors.New("document download failed")

// Result carries the downloaded bytes plus transport-level facts that feed
// the authenticity layer.
type Result struct {
	Data          []byte
	ContentType   string
	ContentLength int64
}

// Fetcher retrieves document bytes from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Result, error)
}

type HTTPFetcher struct {
	client  *http.Client
	logger  *slog.Logger
	maxSize int64
}

func NewHTTPFetcher(timeout time.Duration, maxSize int64, logger *slog.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		maxSize: maxSize,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Result, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %v", ErrDownload, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("fetch.failed", "url", url, "error", err)
		return Result{}, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Warn("fetch.body_close_error", "error", cerr)
		}
	}()

	if resp.StatusCode/100 != 2 {
		f.logger.Error("fetch.bad_status", "url", url, "status", resp.StatusCode)
		return Result{}, fmt.Errorf("%w: status %d", ErrDownload, resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if f.maxSize > 0 {
		body = io.LimitReader(resp.Body, f.maxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read body: %v", ErrDownload, err)
	}
	if f.maxSize > 0 && int64(len(data)) > f.maxSize {
		return Result{}, fmt.Errorf("%w: body exceeds %d bytes", ErrDownload, f.maxSize)
	}

	f.logger.Info("fetch.done",
		"url", url,
		"bytes", len(data),
		"content_type", resp.Header.Get("Content-Type"),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{
		Data:          data,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}
