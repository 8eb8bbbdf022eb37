package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/healthhub-client/pkg/errors"
	"github.com/jwalitptl/healthhub-client/pkg/httputil"
	"github.com/jwalitptl/healthhub-client/pkg/logger"
	"github.com/jwalitptl/healthhub-client/pkg/metrics"
)

const (
	// MaxBodySize is the default response size limit. Medicine lists carry
	// base64 prescription images, so it sits well above a few photos.
	MaxBodySize    = 32 << 20
	defaultTimeout = 30 * time.Second

	HeaderRequestID = "X-Request-ID"
)

// TokenSource supplies the bearer token at request time.
type TokenSource interface {
	Token() string
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func() string

func (f TokenSourceFunc) Token() string { return f() }

// ErrResponseTooLarge is the cause of a decode error for a response over the
// size limit.
var ErrResponseTooLarge = stderrors.New("response too large")

// UnauthorizedHandler is told which token the backend rejected with 401.
type UnauthorizedHandler func(ctx context.Context, token string)

// Client performs JSON calls against the backend. Every outcome is either
// nil or an *errors.AppError.
type Client struct {
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *logger.Logger
	metrics   *metrics.Metrics
	userAgent string
	maxBody   int64

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.With("api_client")
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize overrides MaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// New resolves the base URL once; paths passed to Do are appended to it.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.ParseRequestURI(base)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger.Nop(),
		maxBody: MaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTokenSource installs the source consulted for every bearer request.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// OnUnauthorized installs the handler called when a bearer request gets 401.
func (c *Client) OnUnauthorized(h UnauthorizedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = h
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) unauthorizedHandler() UnauthorizedHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onUnauthorized
}

// Do sends an authenticated request. in is JSON encoded when non-nil; the
// response is decoded into out when non-nil.
func (c *Client) Do(ctx context.Context, method, path string, in, out interface{}) error {
	return c.do(ctx, method, path, in, out, true)
}

// DoPublic sends a request without an Authorization header.
func (c *Client) DoPublic(ctx context.Context, method, path string, in, out interface{}) error {
	return c.do(ctx, method, path, in, out, false)
}

func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, auth bool) (err error) {
	start := time.Now()
	resource := resourceLabel(path)
	requestID := uuid.NewString()

	defer func() {
		c.observe(method, resource, start, err)
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Network(err)
		}
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Validation("invalid request body", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Validation("invalid request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var token string
	if auth {
		token = c.currentToken()
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "request_id", requestID, "method", method, "path", path, "error", err.Error())
		return errors.Network(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return errors.Network(err)
	}
	if int64(len(raw)) > c.maxBody {
		c.logger.Warn("response over size limit", "request_id", requestID, "path", path, "limit", c.maxBody)
		return errors.Decode(fmt.Sprintf("response from server is larger than %d bytes", c.maxBody), ErrResponseTooLarge)
	}

	c.logger.Debug("request completed",
		"request_id", requestID,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized && auth {
			if h := c.unauthorizedHandler(); h != nil {
				h(ctx, token)
			}
		}
		return errors.HTTP(resp.StatusCode, httputil.ErrorMessage(raw))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.Decode("empty response from server", nil)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Decode("", err)
	}
	return nil
}

func (c *Client) observe(method, resource string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = errors.KindOf(err).String()
	}
	c.metrics.APIRequests.WithLabelValues(method, resource, outcome).Inc()
	c.metrics.APILatency.WithLabelValues(method, resource).Observe(time.Since(start).Seconds())
}

// resourceLabel reduces a path to its collection name so ids never become
// metric labels: /api/medicines/123 -> medicines.
func resourceLabel(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 0 && parts[0] == "api" {
		parts = parts[1:]
	}
	if len(parts) == 0 || parts[0] == "" {
		return "root"
	}
	return parts[0]
}
