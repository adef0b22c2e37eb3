// Package portalclient is a small Go client for the portal API. It mirrors
// what the web frontend does around login: a short health preflight, a login
// call with its own timeout, and a fixed-delay retry on transport failures.
package portalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"medilink/pkg/retry"
)

const (
	healthTimeout = 5 * time.Second
	loginTimeout  = 10 * time.Second

	defaultRetries = 2
	defaultDelay   = 1500 * time.Millisecond
)

// Terminal connectivity errors. ErrUnreachable means the server could not be
// reached at all; ErrTimeout means it did not answer within the call's
// deadline. Both carry the message the login page shows for that case.
var (
	ErrUnreachable = errors.New("Erreur de connexion au serveur. Veuillez vérifier que le serveur est en marche.")
	ErrTimeout     = errors.New("La connexion au serveur a pris trop de temps. Veuillez réessayer.")
)

// APIError is a non-2xx response from the portal. The message is the
// user-facing one from the error envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("portal: unexpected status %d", e.Status)
}

// Health is the payload of GET /api/health.
type Health struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Message string `json:"message"`
}

// User is the profile returned alongside a login token.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResult is the payload of a successful POST /api/auth/login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Client talks to the portal API.
type Client struct {
	baseURL string
	http    *http.Client
	policy  retry.Policy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRetryPolicy overrides the transport-failure retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// New builds a client for the portal at baseURL (e.g. "http://localhost:5001").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		policy:  retry.New(defaultRetries, defaultDelay),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckHealth pre-flights connectivity before login. It uses a shorter
// timeout than Login so an unreachable server is reported quickly.
func (c *Client) CheckHealth(ctx context.Context) (Health, error) {
	var out Health
	err := c.call(ctx, healthTimeout, http.MethodGet, "/api/health", nil, &out)
	return out, err
}

// Login authenticates with an email or phone identifier. API-level failures
// (wrong credentials, validation) come back as *APIError and are never
// retried; only transport failures are.
func (c *Client) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	var out LoginResult
	body := map[string]string{"identifier": identifier, "password": password}
	err := c.call(ctx, loginTimeout, http.MethodPost, "/api/auth/login", body, &out)
	return out, err
}

func (c *Client) call(ctx context.Context, timeout time.Duration, method, path string, body, out any) error {
	op := func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return c.doOnce(callCtx, method, path, body, out)
	}
	return c.policy.Do(ctx, op, func(err error) bool {
		return errors.Is(err, ErrUnreachable) || errors.Is(err, ErrTimeout)
	})
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		return &APIError{Status: resp.StatusCode, Message: envelope.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// classifyTransport splits request failures into the two connectivity cases
// the login page distinguishes.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
