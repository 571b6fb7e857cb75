package gateway

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
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/staffdash/internal/metrics"
)

// DefaultBaseURL is used when neither the caller nor STAFFDASH_GATEWAY_URL set one.
const DefaultBaseURL = "http://localhost:3000/api"

// Client is an HTTP client for the resource service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	collector  *metrics.Collector
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithCollector records call timings.
func WithCollector(m *metrics.Collector) Option {
	return func(c *Client) { c.collector = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for baseURL.
// If baseURL is empty, uses STAFFDASH_GATEWAY_URL or DefaultBaseURL.
// A nil session sends no Authorization header.
func New(baseURL string, session *Session, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("STAFFDASH_GATEWAY_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    session,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches one page of a collection.
func (c *Client) List(ctx context.Context, coll Collection, opts ListOptions) (Page[json.RawMessage], error) {
	data, err := c.call(ctx, http.MethodGet, "list", coll, "/"+string(coll), opts.Values(), nil)
	if err != nil {
		return Page[json.RawMessage]{}, err
	}
	page, err := decodePage(data)
	if err != nil {
		return Page[json.RawMessage]{}, &CallError{Op: "list", Collection: coll, Kind: ErrTransport, Cause: err}
	}
	return page, nil
}

// Get fetches one record.
func (c *Client) Get(ctx context.Context, coll Collection, id string) (json.RawMessage, error) {
	return c.call(ctx, http.MethodGet, "get", coll, recordPath(coll, id), nil, nil)
}

// Create posts a new record.
func (c *Client) Create(ctx context.Context, coll Collection, payload any) (json.RawMessage, error) {
	return c.call(ctx, http.MethodPost, "create", coll, "/"+string(coll), nil, payload)
}

// Update patches a record.
func (c *Client) Update(ctx context.Context, coll Collection, id string, payload any) (json.RawMessage, error) {
	return c.call(ctx, http.MethodPatch, "update", coll, recordPath(coll, id), nil, payload)
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, coll Collection, id string) error {
	_, err := c.call(ctx, http.MethodDelete, "delete", coll, recordPath(coll, id), nil, nil)
	return err
}

func recordPath(coll Collection, id string) string {
	return "/" + string(coll) + "/" + url.PathEscape(id)
}

// call performs one request and records its timing.
func (c *Client) call(ctx context.Context, method, op string, coll Collection, path string, query url.Values, payload any) (json.RawMessage, error) {
	start := time.Now()
	data, err := c.roundTrip(ctx, method, path, query, payload)
	c.collector.RecordCall(op+":"+string(coll), time.Since(start), err)

	if err != nil {
		var callErr *CallError
		if errors.As(err, &callErr) {
			callErr.Op = op
			callErr.Collection = coll
		} else {
			err = &CallError{Op: op, Collection: coll, Kind: ErrTransport, Cause: err}
		}
		if IsAuthExpired(err) && c.session != nil {
			c.session.Expire()
		}
		c.logger.Debug("gateway call failed", "op", op, "collection", coll, "error", err)
		return nil, err
	}
	return data, nil
}

// roundTrip sends the request and unwraps the response envelope.
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		token, err := c.session.Token()
		if err != nil {
			return nil, &CallError{Kind: ErrAuthExpired, Cause: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	parseErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(respBody))
		if parseErr == nil && (env.Error != "" || env.Message != "") {
			msg = firstNonEmpty(env.Error, env.Message)
		}
		return nil, &CallError{Status: resp.StatusCode, Message: msg, Kind: kindForStatus(resp.StatusCode)}
	}

	if parseErr != nil {
		return nil, &CallError{Status: resp.StatusCode, Kind: ErrTransport, Cause: fmt.Errorf("unmarshal response: %w", parseErr)}
	}
	if !env.Success {
		return nil, &CallError{
			Status:  resp.StatusCode,
			Message: firstNonEmpty(env.Error, env.Message, "request was not successful"),
			Kind:    kindForEnvelope(env),
		}
	}
	return env.Data, nil
}

// decodePage accepts either a page object or a bare array.
func decodePage(data json.RawMessage) (Page[json.RawMessage], error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Page[json.RawMessage]{Items: []json.RawMessage{}, Page: 1, Pages: 1}, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page[json.RawMessage]{}, fmt.Errorf("unmarshal items: %w", err)
		}
		return Page[json.RawMessage]{
			Items: items,
			Total: len(items),
			Page:  1,
			Limit: len(items),
			Pages: 1,
		}, nil
	}

	var page Page[json.RawMessage]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return Page[json.RawMessage]{}, fmt.Errorf("unmarshal page: %w", err)
	}
	if page.Items == nil {
		page.Items = []json.RawMessage{}
	}
	return page, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
