// Package apiclient talks to the hospital backend. It attaches the persisted bearer token
// when the token passes the validity predicate and otherwise sends no Authorization header.
// It never retries, refreshes, or reacts to 401/403: failures go back to the caller as-is.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.pilab.hu/hospital/credential"
	"go.pilab.hu/hospital/internal/metrics"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

// HeaderRequestID is set on every outgoing request.
const HeaderRequestID = "X-Request-ID"

// TokenSource yields the freshest persisted access token, or "" when none is stored.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client is the backend HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a client for baseURL, e.g. "http://127.0.0.1:8000/api".
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: tokens,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends a JSON request and decodes a 2xx body into out when out is non-nil. fallback is
// the message used when a failed response carries no "error" field.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, fallback string) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	logger := log.Ctx(ctx).With().
		Str("method", method).
		Str("path", path).
		Str("request_id", req.Header.Get(HeaderRequestID)).
		Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(method, 0)
		logger.Debug().Err(err).Dur("elapsed", time.Since(start)).Msg("request failed")

		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	metrics.ObserveAPIRequest(method, resp.StatusCode)
	logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("response received")

	return decodeResponse(resp, out, fallback)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())

	c.authorize(ctx, req)

	return req, nil
}

// authorize attaches the bearer token if it passes the predicate and strips any stale header
// otherwise.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	req.Header.Del("Authorization")

	if c.tokens == nil {
		return
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to read access token, sending request without it")
		return
	}

	if !credential.Valid(token) {
		if token != "" {
			log.Ctx(ctx).Debug().
				Str("token", credential.Preview(token)).
				Int("token_length", len(token)).
				Msg("persisted token is invalid, omitting Authorization header")
		}

		return
	}

	req.Header.Set("Authorization", "Bearer "+token)
}

func decodeResponse(resp *http.Response, out any, fallback string) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, raw, fallback)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func newAPIError(status int, raw []byte, fallback string) *APIError {
	apiErr := &APIError{Status: status, Message: fallback}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err == nil {
		apiErr.Payload = payload
		if msg, ok := payload["error"].(string); ok && msg != "" {
			apiErr.Message = msg
		} else if msg, ok := payload["message"].(string); ok && msg != "" {
			apiErr.Message = msg
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}

	return apiErr
}
