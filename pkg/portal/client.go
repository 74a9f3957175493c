// Package portal is the client side of the master data portal: session,
// permission-gated collections, the request controller and the live chat
// channel. Everything talks to the API through one Client.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultTimeout = 30 * time.Second

// envelope mirrors the API's response wrapper.
type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

// Client is the HTTP core shared by every collection.
type Client struct {
	base *url.URL
	http *http.Client
	log  logrus.FieldLogger

	mu           sync.RWMutex
	bearer       func() (string, error)
	unauthorized func()
}

type Option func(*Client)

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

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient builds a client for the API at baseURL. The live channel URL is
// derived from the same base.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: defaultTimeout},
		log:  logrus.StandardLogger(),
		bearer: func() (string, error) {
			return "", &AuthError{Msg: "not logged in"}
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Logger returns the SDK logger.
func (c *Client) Logger() logrus.FieldLogger { return c.log }

func (c *Client) attach(bearer func() (string, error), unauthorized func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bearer = bearer
	c.unauthorized = unauthorized
}

// Do sends an authenticated request. in is JSON-encoded when non-nil and the
// envelope's data is decoded into out when non-nil.
func (c *Client) Do(ctx context.Context, method, path string, in, out interface{}) error {
	c.mu.RLock()
	bearer := c.bearer
	c.mu.RUnlock()

	token, err := bearer()
	if err != nil {
		return err
	}
	return c.send(ctx, method, path, token, in, out)
}

// DoPublic sends a request without credentials.
func (c *Client) DoPublic(ctx context.Context, method, path string, in, out interface{}) error {
	return c.send(ctx, method, path, "", in, out)
}

func (c *Client) send(ctx context.Context, method, path, token string, in, out interface{}) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return &NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	if resp.StatusCode >= 300 {
		return c.mapStatus(op, resp.StatusCode, env.Error)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode data: %w", err)}
		}
	}
	return nil
}

func (c *Client) mapStatus(op string, status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized:
		c.mu.RLock()
		hook := c.unauthorized
		c.mu.RUnlock()
		if hook != nil {
			hook()
		}
		return &AuthError{Msg: msg}
	case status == http.StatusForbidden:
		return &PermissionError{Msg: msg}
	case status == http.StatusNotFound:
		return &NotFoundError{Msg: msg}
	case status == http.StatusConflict:
		return &ConflictError{Msg: msg}
	case status >= 400 && status < 500:
		return &ValidationError{Msg: msg}
	default:
		return &NetworkError{Op: op, Status: status, Err: fmt.Errorf("%s", msg)}
	}
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// socketURL derives the duplex channel address from the API base: wss when
// the base is https, ws otherwise.
func (c *Client) socketURL(path, token string) string {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	q := url.Values{}
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
