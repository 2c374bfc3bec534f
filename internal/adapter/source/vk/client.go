// Package vk is a search transport for the VK video API (method video.search).
package vk

import (
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

	"github.com/mmcdole/reel/internal/domain"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultPageSize   = 50
	defaultAPIVersion = "5.103"
	maxRetries        = 3
	baseRetryDelay    = 500 * time.Millisecond
	userAgent         = "Reel/1.0"
)

// Config configures a Client
type Config struct {
	BaseURL    string
	Token      string
	APIVersion string
	PageSize   int
	Timeout    time.Duration
}

// Client implements domain.SearchTransport
type Client struct {
	baseURL    string
	token      string
	version    string
	pageSize   int
	httpClient *http.Client
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient creates a new API client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		version:  cfg.APIVersion,
		pageSize: cfg.PageSize,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retryDelay: baseRetryDelay,
		logger:     logger,
	}
}

// FetchPage runs video.search for the query at the cursor's offset
func (c *Client) FetchPage(ctx context.Context, q domain.QueryState, cursor domain.Cursor) (domain.Page, error) {
	offset, err := parseCursor(cursor)
	if err != nil {
		return domain.Page{}, err
	}

	body, err := c.doRequest(ctx, "/method/video.search", c.searchParams(q, offset))
	if err != nil {
		return domain.Page{}, err
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return domain.Page{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if env.Error != nil {
		if env.Error.Code == errCodeAuth {
			return domain.Page{}, fmt.Errorf("%w: %s", domain.ErrAuthFailed, env.Error.Message)
		}
		return domain.Page{}, env.Error
	}
	if env.Response == nil {
		return domain.Page{}, errors.New("response has neither result nor error")
	}

	page := MapPage(*env.Response, offset)
	c.logger.Debug("search page",
		"query", q.Text,
		"offset", offset,
		"items", len(page.Records),
		"total", env.Response.Count,
		"next", string(page.Next),
	)
	return page, nil
}

// searchParams encodes a query as video.search parameters
func (c *Client) searchParams(q domain.QueryState, offset int) url.Values {
	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("sort", string(q.Filters.Sort))
	params.Set("hd", boolParam(q.Filters.HDOnly))
	params.Set("adult", boolParam(q.Filters.IncludeAdult))
	if q.Filters.MinDuration != nil {
		params.Set("longer", strconv.FormatUint(uint64(*q.Filters.MinDuration), 10))
	}
	if q.Filters.MaxDuration != nil {
		params.Set("shorter", strconv.FormatUint(uint64(*q.Filters.MaxDuration), 10))
	}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("count", strconv.Itoa(c.pageSize))
	params.Set("access_token", c.token)
	params.Set("v", c.version)
	return params
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// doRequest performs a GET with retry and exponential backoff on 5xx
// responses and rate limiting.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "path", path)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)

		// The token is in the URL; keep it out of the log
		c.logger.Debug("api request", "path", path, "q", query.Get("q"), "offset", query.Get("offset"), "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("api request failed", "error", err)
			return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return nil, domain.ErrAuthFailed
		}

		if resp.StatusCode >= 500 && resp.StatusCode < 600 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("server error: %d - %s", resp.StatusCode, string(body))
			c.logger.Warn("api server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", maxRetries,
				"path", path,
			)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			c.logger.Error("api request error", "status", resp.StatusCode, "body", string(body))
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		if rateLimited(body) {
			lastErr = &APIError{Code: errCodeTooManyReqs, Message: "too many requests per second"}
			c.logger.Warn("api rate limited, will retry", "attempt", attempt)
			continue
		}

		return body, nil
	}

	c.logger.Error("api request failed after retries", "error", lastErr, "path", path)
	return nil, lastErr
}

// rateLimited reports whether body is the API's rate-limit error
func rateLimited(body []byte) bool {
	var env struct {
		Error *APIError `json:"error"`
	}
	if json.Unmarshal(body, &env) != nil || env.Error == nil {
		return false
	}
	return env.Error.Code == errCodeTooManyReqs
}
