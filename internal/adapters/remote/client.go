// Package remote is the JSON REST client of the beacon API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/internal/domain/types"
	"github.com/campuslink/beacon/pkg/logger"
)

// IdempotencyHeader carries the client-chosen key of an application submission.
const IdempotencyHeader = "Idempotency-Key"

const maxErrorBody = 4096

// NewDefaultHTTPClient creates an http.Client whose total request timeout
// is timeout. Requests are never retried.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Client talks to the beacon HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: NewDefaultHTTPClient(0),
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        logger.Named("remote_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListPostsByEvent calls GET /api/posts/event/{eventId}.
func (c *Client) ListPostsByEvent(ctx context.Context, eventID string) ([]types.PostView, error) {
	posts := make([]types.PostView, 0)
	err := c.Do(ctx, http.MethodGet, "/api/posts/event/"+url.PathEscape(eventID), nil, nil, &posts)
	return posts, err
}

// CreatePost calls POST /api/posts/team-finding.
func (c *Client) CreatePost(ctx context.Context, req types.CreatePostRequest) (types.PostView, error) {
	var post types.PostView
	err := c.Do(ctx, http.MethodPost, "/api/posts/team-finding", nil, req, &post)
	return post, err
}

// Apply calls POST /api/beacon/{postId}/applications and returns the
// authoritative post. An empty idempotencyKey omits the header.
func (c *Client) Apply(ctx context.Context, postID string, req types.ApplicationRequest, idempotencyKey string) (types.PostView, error) {
	var headers http.Header
	if idempotencyKey != "" {
		headers = http.Header{IdempotencyHeader: []string{idempotencyKey}}
	}
	var post types.PostView
	err := c.Do(ctx, http.MethodPost, "/api/beacon/"+url.PathEscape(postID)+"/applications", headers, req, &post)
	return post, err
}

// GetPost calls GET /api/beacon/{postId}.
func (c *Client) GetPost(ctx context.Context, postID string) (types.PostView, error) {
	var post types.PostView
	err := c.Do(ctx, http.MethodGet, "/api/beacon/"+url.PathEscape(postID), nil, nil, &post)
	return post, err
}

// Browse calls GET /api/beacon with the given tab and search query.
func (c *Client) Browse(ctx context.Context, filter, query string) ([]types.PostView, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	if query != "" {
		q.Set("q", query)
	}
	path := "/api/beacon"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	posts := make([]types.PostView, 0)
	err := c.Do(ctx, http.MethodGet, path, nil, nil, &posts)
	return posts, err
}

// ListEvents calls GET /api/events. filter is an events hub tab such as
// "hackathons"; "all" or "" lists everything.
func (c *Client) ListEvents(ctx context.Context, filter string) ([]model.Event, error) {
	path := "/api/events"
	if category := CategoryFromFilter(filter); category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	events := make([]model.Event, 0)
	err := c.Do(ctx, http.MethodGet, path, nil, nil, &events)
	return events, err
}

// CreateEvent calls POST /api/events.
func (c *Client) CreateEvent(ctx context.Context, req types.CreateEventRequest) (model.Event, error) {
	var event model.Event
	err := c.Do(ctx, http.MethodPost, "/api/events", nil, req, &event)
	return event, err
}

// CategoryFromFilter turns a plural tab id into its category:
// "hackathons" -> "Hackathon". "all" and "" yield "".
func CategoryFromFilter(filter string) string {
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, "all") {
		return ""
	}
	runes := []rune(filter)
	if len(runes) < 2 {
		return strings.ToUpper(filter)
	}
	runes = runes[:len(runes)-1]
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}

// Do sends body as JSON and decodes a 2xx response into result. Every
// failure is returned as a *NetworkError.
func (c *Client) Do(ctx context.Context, method, path string, headers http.Header, body, result any) error {
	fullURL := c.baseURL + path
	fail := func(err error) error {
		return &NetworkError{Method: method, URL: fullURL, Err: err}
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fail(fmt.Errorf("failed to marshal request body: %w", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fail(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed",
			logger.String("method", method),
			logger.String("url", fullURL),
			logger.Error(err))
		return fail(err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug(ctx, "request completed",
		logger.String("method", method),
		logger.String("url", fullURL),
		logger.Int("status", resp.StatusCode),
		logger.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(readHTTPError(resp, method, fullURL))
	}
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fail(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func readHTTPError(resp *http.Response, method, fullURL string) *HTTPError {
	httpErr := &HTTPError{StatusCode: resp.StatusCode, URL: fullURL, Method: method}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return httpErr
	}
	var payload types.ErrorResponse
	if json.Unmarshal(data, &payload) == nil && (payload.Message != "" || payload.Code != "") {
		httpErr.Code = payload.Code
		httpErr.Message = payload.Message
		return httpErr
	}
	httpErr.Message = strings.TrimSpace(string(data))
	return httpErr
}
