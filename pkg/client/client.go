// Package client is a typed client for the CRM REST API. Every failure is
// returned as a *crmerr.Error so callers can render it as an inline notice.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/garnizeh/crm/pkg/crmerr"
)

// TokenSource supplies the bearer token attached to each request. An empty
// token sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Patch is a partial update body; only the present keys change.
type Patch map[string]any

// Client talks to the CRM API over HTTP.
type Client struct {
	base   *url.URL
	cfg    Config
	client *http.Client
	tokens TokenSource
	closed int32
}

// package-level logger for pkg/client; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by pkg/client. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// New creates a client for cfg.BaseURL. A nil httpClient gets one with
// cfg.Timeout.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	u, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	c := &Client{base: u, cfg: cfg, client: httpClient, tokens: StaticToken("")}
	logger.Debug("client: created", slog.String("base_url", cfg.BaseURL), slog.Duration("timeout", cfg.Timeout))
	return c, nil
}

// NewDefaultClient builds a client with a tuned transport.
func NewDefaultClient(cfg Config) (*Client, error) {
	defaultClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 15 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
	return New(cfg, defaultClient)
}

// WithTokenSource returns a copy of c that authenticates with ts.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	cp := &Client{base: c.base, cfg: c.cfg, client: c.client, tokens: ts}
	if ts == nil {
		cp.tokens = StaticToken("")
	}
	return cp
}

// Close releases idle connections held by the transport. Close is
// idempotent.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	if c.client != nil {
		c.client.CloseIdleConnections()
	}
	return nil
}

type apiError struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	u.RawQuery = ""
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// send performs the request and decodes a 2xx body into out when out is
// not nil. op names the call in returned errors.
func (c *Client) send(ctx context.Context, req *http.Request, op string, out any) error {
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("client: request failed", slog.String("op", op), slog.Any("err", err))
		return crmerr.Wrap(crmerr.KindNetwork, op, err)
	}
	defer resp.Body.Close()
	logger.Debug("client: response", slog.String("op", op), slog.Int("status", resp.StatusCode), slog.Duration("elapsed", time.Since(start)))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return crmerr.Wrap(crmerr.KindNetwork, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(op, resp.StatusCode, body)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return crmerr.Wrap(crmerr.KindPersistence, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// statusError maps a non-2xx response to an error kind.
func statusError(op string, status int, body []byte) error {
	msg := http.StatusText(status)
	var ae apiError
	if json.Unmarshal(body, &ae) == nil && ae.Error != "" {
		msg = ae.Error
		if len(ae.Details) > 0 {
			msg += ": " + strings.Join(ae.Details, "; ")
		}
	}

	kind := crmerr.KindPersistence
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = crmerr.KindValidation
	case http.StatusNotFound:
		kind = crmerr.KindNotFound
	case http.StatusUnauthorized:
		return crmerr.Wrap(crmerr.KindUnauthorized, op, fmt.Errorf("%w: %s", ErrSessionRejected, msg))
	case http.StatusForbidden:
		kind = crmerr.KindUnauthorized
	}
	return crmerr.New(kind, op, fmt.Sprintf("status %d: %s", status, msg))
}

func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, in, out any) error {
	op := method + " " + path
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return crmerr.Wrap(crmerr.KindValidation, op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), body)
	if err != nil {
		return crmerr.Wrap(crmerr.KindNetwork, op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(ctx, req, op, out)
}

func get[T any](ctx context.Context, c *Client, path string, q url.Values) (T, error) {
	var out T
	err := c.doJSON(ctx, http.MethodGet, path, q, nil, &out)
	return out, err
}

func write[T any](ctx context.Context, c *Client, method, path string, in any) (T, error) {
	var out T
	err := c.doJSON(ctx, method, path, nil, in, &out)
	return out, err
}

// ErrSessionRejected marks a 401: the token is missing, invalid or expired.
// A 403 is also KindUnauthorized but leaves the session usable.
var ErrSessionRejected = errors.New("session rejected")

// IsUnauthorized reports whether err means the session must be renewed.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrSessionRejected)
}
