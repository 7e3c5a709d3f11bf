// Package goalapi is a client for the external goals REST API.
package goalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theirongolddev/sgp/internal/logger"
	"github.com/theirongolddev/sgp/internal/model"
)

const (
	// DefaultTimeout bounds each request when no timeout is configured.
	DefaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	userAgent      = "github.com/theirongolddev/sgp/1.0"
)

var (
	// ErrFetchFailed wraps every transport failure: network errors, non-2xx
	// responses and undecodable bodies. Response bodies are never parsed for detail.
	ErrFetchFailed = errors.New("goalapi: fetch failed")
	// ErrResponseTooLarge is wrapped with ErrFetchFailed when a body exceeds the read cap.
	ErrResponseTooLarge = errors.New("goalapi: response too large")
	// ErrInvalidBaseURL is returned by New for an unusable base URL.
	ErrInvalidBaseURL = errors.New("goalapi: invalid base URL")
)

// Client talks to {base}/goals.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock overrides the clock used to stamp createdAt.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client for the API rooted at baseURL (for example
// "http://localhost:5000/api"). The base must be an absolute http(s) URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		base:    base,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NormalizeBaseURL validates a base URL and strips trailing slashes.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidBaseURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}
	return strings.TrimRight(raw, "/"), nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.base }

// List returns every goal.
func (c *Client) List(ctx context.Context) ([]model.Goal, error) {
	body, err := c.do(ctx, http.MethodGet, "/goals", nil)
	if err != nil {
		return nil, err
	}

	var goals []model.Goal
	if err := json.Unmarshal(body, &goals); err != nil {
		return nil, fmt.Errorf("%w: parsing goals: %w", ErrFetchFailed, err)
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	return goals, nil
}

// createRequest is the POST body: the draft plus a client-side creation stamp.
type createRequest struct {
	model.Draft
	CreatedAt string `json:"createdAt"`
}

// Create posts a new goal and returns it as stored, with its assigned ID.
func (c *Client) Create(ctx context.Context, d model.Draft) (model.Goal, error) {
	req := createRequest{
		Draft:     d,
		CreatedAt: c.now().UTC().Format(model.CreatedAtLayout),
	}
	body, err := c.do(ctx, http.MethodPost, "/goals", req)
	if err != nil {
		return model.Goal{}, err
	}

	var g model.Goal
	if err := json.Unmarshal(body, &g); err != nil {
		return model.Goal{}, fmt.Errorf("%w: parsing created goal: %w", ErrFetchFailed, err)
	}
	return g, nil
}

// Update sends the patch for orig with PUT. The response is merged over
// orig, so fields the server leaves out keep their local values; an empty
// body yields the patch applied to orig.
func (c *Client) Update(ctx context.Context, orig model.Goal, p model.Patch) (model.Goal, error) {
	body, err := c.do(ctx, http.MethodPut, goalPath(orig.ID), p)
	if err != nil {
		return model.Goal{}, err
	}

	g := p.Apply(orig)
	if len(bytes.TrimSpace(body)) == 0 {
		return g, nil
	}
	if err := json.Unmarshal(body, &g); err != nil {
		return model.Goal{}, fmt.Errorf("%w: parsing updated goal: %w", ErrFetchFailed, err)
	}
	if g.ID == "" {
		g.ID = orig.ID
	}
	return g, nil
}

// Delete removes a goal. Any 2xx counts as success; the body is ignored.
func (c *Client) Delete(ctx context.Context, id model.ID) error {
	_, err := c.do(ctx, http.MethodDelete, goalPath(id), nil)
	return err
}

// Load fetches the goal list and reports it as a LoadState.
func (c *Client) Load(ctx context.Context) LoadState {
	goals, err := c.List(ctx)
	if err != nil {
		return Failed(err, c.now())
	}
	return Loaded(goals, c.now())
}

func goalPath(id model.ID) string {
	return "/goals/" + url.PathEscape(id.String())
}

// do performs one request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding request: %w", ErrFetchFailed, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrFetchFailed, err)
	}

	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := logger.Get().With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", reqID),
	)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("%w: %s %s: %w", ErrFetchFailed, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	log = log.With(zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(start)))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("unexpected status")
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrFetchFailed, method, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		log.Warn("reading response failed", zap.Error(err))
		return nil, fmt.Errorf("%w: reading response: %w", ErrFetchFailed, err)
	}
	if len(body) > maxBodySize {
		log.Warn("response too large", zap.Int("limit", maxBodySize))
		return nil, fmt.Errorf("%w: %w (over %d bytes)", ErrFetchFailed, ErrResponseTooLarge, maxBodySize)
	}
	log.Debug("request done", zap.Int("bytes", len(body)))
	return body, nil
}
