package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pmpayout/internal/logging"
	"pmpayout/internal/normalize"
	"pmpayout/internal/services"
)

const (
	defaultHTTPTimeout    = 60 * time.Second
	defaultPageSize       = 20000
	defaultPageDelay      = 2100 * time.Millisecond
	defaultRetryBaseDelay = 2 * time.Second
	defaultRetryMaxDelay  = 30 * time.Second
)

// HTTPConfig describes the export API client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	PageSize   int
	MaxRetries int
	// PageDelay spaces consecutive page requests to stay under the API's
	// per-minute quota. Zero selects the default; negative disables it.
	PageDelay      time.Duration
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	HTTPClient     *http.Client
}

// HTTP pages through GET {base}/videos. The server filters by upload date
// and returns rows in creation order.
type HTTP struct {
	cfg     HTTPConfig
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
}

// NewHTTP validates cfg and builds a client.
func NewHTTP(cfg HTTPConfig, logger *slog.Logger) (*HTTP, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "source", "http", "api key is required", nil)
	}
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, services.Wrap(services.ErrConfiguration, "source", "http", fmt.Sprintf("invalid base url %q", cfg.BaseURL), err)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	switch {
	case cfg.PageDelay == 0:
		cfg.PageDelay = defaultPageDelay
	case cfg.PageDelay < 0:
		cfg.PageDelay = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = defaultRetryMaxDelay
	}
	client := cfg.HTTPClient
	if client == nil {
		client = newHTTPClient(0)
	}
	return &HTTP{cfg: cfg, baseURL: base, http: client, logger: logging.NewComponentLogger(logger, "source")}, nil
}

type pageResponse struct {
	Data       []normalize.Raw `json:"data"`
	Pagination struct {
		Total      int `json:"total"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

type statusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// transportError marks a failure before any response arrived.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "request failed: " + e.err.Error() }

func (e *transportError) Unwrap() error { return e.err }

// Fetch implements VideoSource. Paging follows pagination.total_pages when
// the server reports it and otherwise continues until a short page. The
// server filters on upload date, so rows created outside window are dropped
// here as File does.
func (h *HTTP) Fetch(ctx context.Context, window Window) ([]normalize.Raw, error) {
	var rows []normalize.Raw
	page := 1
	for ; ; page++ {
		if page > 1 && h.cfg.PageDelay > 0 {
			if err := sleep(ctx, h.cfg.PageDelay); err != nil {
				return nil, err
			}
		}
		resp, err := h.fetchPage(ctx, window, page)
		if err != nil {
			return nil, err
		}
		rows = append(rows, resp.Data...)
		h.logger.Debug("fetched page",
			logging.Int("page", page),
			logging.Int("total_pages", resp.Pagination.TotalPages),
			logging.Int("rows", len(resp.Data)),
		)
		if !h.hasNextPage(page, resp) {
			break
		}
	}
	kept := createdWithin(rows, window)
	h.logger.Info("videos fetched",
		logging.Int("rows", len(kept)),
		logging.Int("outside_window", len(rows)-len(kept)),
		logging.Int("pages", page),
	)
	return kept, nil
}

func (h *HTTP) hasNextPage(page int, resp pageResponse) bool {
	if len(resp.Data) == 0 {
		return false
	}
	if resp.Pagination.TotalPages > 0 {
		return page < resp.Pagination.TotalPages
	}
	return len(resp.Data) >= h.cfg.PageSize
}

func (h *HTTP) fetchPage(ctx context.Context, window Window, page int) (pageResponse, error) {
	attempts := h.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := h.fetchPageOnce(ctx, window, page)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		delay, retry := h.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			break
		}
		logging.WarnWithContext(h.logger, "export api request failed; retrying", "source_retry",
			logging.Int("page", page),
			logging.Int("attempt", attempt),
			logging.Duration("backoff", delay),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run is delayed until the API recovers"),
			logging.String(logging.FieldErrorHint, "check the API quota and status page"),
		)
		if err := sleep(ctx, delay); err != nil {
			return pageResponse{}, err
		}
	}
	if ctx.Err() != nil {
		return pageResponse{}, ctx.Err()
	}
	return pageResponse{}, services.Wrap(services.ErrExternalTool, "source", "http", fmt.Sprintf("page %d", page), lastErr)
}

func (h *HTTP) fetchPageOnce(ctx context.Context, window Window, page int) (pageResponse, error) {
	var payload pageResponse
	endpoint := h.baseURL.JoinPath("videos")
	params := url.Values{}
	params.Set("uploaded_at_start", window.Start.Format(time.DateOnly))
	params.Set("uploaded_at_end", window.End.Format(time.DateOnly))
	params.Set("order_by", "created_at")
	params.Set("order_direction", "asc")
	params.Set("has_metrics", "true")
	params.Set("limit", strconv.Itoa(h.cfg.PageSize))
	params.Set("page", strconv.Itoa(page))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return payload, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := h.http.Do(req)
	if err != nil {
		return payload, &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return payload, &statusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return payload, &transportError{err: err}
	}
	if payload, err = decodePage(body); err != nil {
		return payload, fmt.Errorf("decode response: %w", err)
	}
	return payload, nil
}

// decodePage accepts the paginated envelope or a bare array of rows.
func decodePage(body []byte) (pageResponse, error) {
	var page pageResponse
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		rows, err := decodeRows(trimmed)
		page.Data = rows
		return page, err
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	err := dec.Decode(&page)
	return page, err
}

func (h *HTTP) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return min(statusErr.RetryAfter, h.cfg.RetryMaxDelay), true
			}
			return h.backoff(attempt), true
		default:
			return 0, false
		}
	}
	// Transport errors are retried; decode errors are not.
	var transportErr *transportError
	if errors.As(err, &transportErr) {
		return h.backoff(attempt), true
	}
	return 0, false
}

// backoff returns base * 2^(attempt-1), capped at RetryMaxDelay.
func (h *HTTP) backoff(attempt int) time.Duration {
	delay := h.cfg.RetryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > h.cfg.RetryMaxDelay/2 {
			return h.cfg.RetryMaxDelay
		}
		delay *= 2
	}
	return min(delay, h.cfg.RetryMaxDelay)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
