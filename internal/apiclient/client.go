// Package apiclient dispatches requests to the property-management REST API.
//
// Every request reads the stored session token and sends it as a bearer
// credential. A 401 answer to an authenticated request tears the stored
// session down and notifies the registered UnauthorizedHandler before the
// error is returned to the caller.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rasmith-dev/propadmin/internal/core/ports"
	"github.com/rasmith-dev/propadmin/internal/metrics"
)

const (
	defaultTimeout  = 15 * time.Second
	headerRequestID = "X-Request-ID"
)

// UnauthorizedHandler is told when the API rejected the stored token.
type UnauthorizedHandler interface {
	Unauthorized(ctx context.Context)
}

// UnauthorizedFunc adapts a function to UnauthorizedHandler.
type UnauthorizedFunc func(ctx context.Context)

func (f UnauthorizedFunc) Unauthorized(ctx context.Context) { f(ctx) }

// Request describes one API call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is sent as JSON when non-nil.
	Body any
	// RawBody is sent verbatim with ContentType; it takes precedence over Body.
	RawBody     io.Reader
	ContentType string
	// Anonymous requests never carry the stored token and never trigger the
	// session teardown. Used for signin and register.
	Anonymous bool
}

// Response is a successful (2xx) API answer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

type Client struct {
	baseURL string
	http    *http.Client
	storage ports.SessionStorage
	log     zerolog.Logger

	mu             sync.RWMutex
	onUnauthorized UnauthorizedHandler
	teardown       sync.Locker
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTeardownLock makes the 401 teardown share l with whoever else writes
// the stored session, so a login cannot interleave with it.
func WithTeardownLock(l sync.Locker) Option {
	return func(c *Client) { c.teardown = l }
}

// New returns a client for baseURL (e.g. "http://localhost:8080/api") that
// reads the bearer token from storage.
func New(baseURL string, storage ports.SessionStorage, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base URL %q", baseURL)
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		storage:  storage,
		log:      zerolog.Nop(),
		teardown: &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OnUnauthorized registers the handler told about rejected tokens.
func (c *Client) OnUnauthorized(h UnauthorizedHandler) {
	c.mu.Lock()
	c.onUnauthorized = h
	c.mu.Unlock()
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Ping reports whether the API answers at all. Any HTTP status counts as
// reachable; the probe never carries the stored token.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/auth/validate", Anonymous: true})
	if errors.Is(err, ErrTransport) {
		return err
	}
	return nil
}

// Do sends req once. Non-2xx answers come back as *APIError, failures
// without a response wrap ErrTransport.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	token := ""
	if !req.Anonymous {
		token = c.storedToken(ctx)
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	reqID := httpReq.Header.Get(headerRequestID)
	log := c.log.With().
		Str("method", req.Method).
		Str("path", req.Path).
		Str("request_id", reqID).
		Logger()

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.APIRequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(req.Method, "error").Inc()
		log.Warn().Err(err).Msg("api request failed")
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(req.Method, "error").Inc()
		return nil, fmt.Errorf("%w: %s %s: read body: %w", ErrTransport, req.Method, req.Path, err)
	}
	metrics.APIRequestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request")

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		c.expire(ctx, token, log)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Method:  req.Method,
			Path:    req.Path,
			Status:  resp.StatusCode,
			Message: errorMessage(body),
		}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// DoJSON sends req and decodes the answer into out. A 2xx answer whose body
// is empty or not valid JSON wraps ErrInvalidResponse. out may be nil.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return fmt.Errorf("%w: %s %s: empty body", ErrInvalidResponse, req.Method, req.Path)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidResponse, req.Method, req.Path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.RawBody != nil:
		body, contentType = req.RawBody, req.ContentType
	case req.Body != nil:
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode %s %s: %w", req.Method, req.Path, err)
		}
		body, contentType = bytes.NewReader(b), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build %s %s: %w", req.Method, req.Path, err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(headerRequestID, uuid.NewString())
	return httpReq, nil
}

func (c *Client) storedToken(ctx context.Context) string {
	s, err := c.storage.Load(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("read stored session, sending request without token")
		return ""
	}
	if !s.Complete() {
		return ""
	}
	return s.Token
}

// expire tears down the stored session after the API rejected sent. A token
// that was already replaced (a newer login) or cleared (a concurrent 401) is
// left alone, so the handler fires once per rejected session. The handler
// runs while the teardown lock is held and must not take it again.
func (c *Client) expire(ctx context.Context, sent string, log zerolog.Logger) {
	ctx = context.WithoutCancel(ctx)

	c.teardown.Lock()
	defer c.teardown.Unlock()

	current, err := c.storage.Load(ctx)
	if err == nil && current.Token != sent {
		return
	}
	if err := c.storage.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("clear stored session after 401")
	}
	log.Warn().Msg("api rejected session token, session cleared")

	c.mu.RLock()
	h := c.onUnauthorized
	c.mu.RUnlock()
	if h != nil {
		h.Unauthorized(ctx)
	}
}
