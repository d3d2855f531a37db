// Package peloton authenticates users against the fitness service.
package peloton

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	// ErrInvalidCredentials is returned when the fitness service rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnavailable is returned when the fitness service cannot be reached or answers unexpectedly.
	ErrUnavailable = errors.New("fitness service unavailable")
)

// Credentials are passed straight through to the fitness service and never stored.
type Credentials struct {
	Email    string
	Password string
}

// Session is the upstream identity established by a login.
type Session struct {
	UserID    string
	SessionID string
}

// Client talks to the fitness-service auth endpoint.
type Client struct {
	http    *http.Client
	baseURL string
	breaker *gobreaker.CircuitBreaker[Session]
}

// NewClient constructs a Client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		breaker: gobreaker.NewCircuitBreaker[Session](gobreaker.Settings{
			Name:        "peloton-auth",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// Rejected credentials say nothing about upstream health.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrInvalidCredentials)
			},
		}),
	}
}

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

type loginResponse struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// Login exchanges credentials for an upstream session.
func (c *Client) Login(ctx context.Context, creds Credentials) (Session, error) {
	session, err := c.breaker.Execute(func() (Session, error) {
		return c.login(ctx, creds)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUnavailable) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return session, nil
}

func (c *Client) login(ctx context.Context, creds Credentials) (Session, error) {
	body, err := json.Marshal(loginRequest{UsernameOrEmail: creds.Email, Password: creds.Password})
	if err != nil {
		return Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Session{}, ErrInvalidCredentials
	case resp.StatusCode >= 400:
		return Session{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out loginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("%w: decode login response: %v", ErrUnavailable, err)
	}
	if out.UserID == "" || out.SessionID == "" {
		return Session{}, fmt.Errorf("%w: login response missing identity", ErrUnavailable)
	}
	return Session{UserID: out.UserID, SessionID: out.SessionID}, nil
}
