// Package client talks to the budgetbox sync server. All transport and
// non-success failures surface as *NetworkError so the sync coordinator
// can downgrade them to "sync pending" instead of treating them as fatal.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"budgetbox/internal/auth"
	"budgetbox/internal/core"
	"budgetbox/internal/remote"
)

// NetworkError covers transport failures and non-success responses.
// A zero StatusCode means the request never got a response.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: server responded %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type (
	syncResponse struct {
		Success   bool        `json:"success"`
		Timestamp time.Time   `json:"timestamp"`
		Data      core.Budget `json:"data"`
	}

	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	loginResponse struct {
		Success bool          `json:"success"`
		User    core.Identity `json:"user"`
	}
)

// Push sends a whole budget record and returns the accepted copy with the
// server's sync stamps.
func (c *Client) Push(ctx context.Context, b core.Budget) (core.Budget, error) {
	body, err := json.Marshal(b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("marshal budget: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sync", bytes.NewReader(body))
	if err != nil {
		return core.Budget{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return core.Budget{}, &NetworkError{Op: "push", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.Budget{}, &NetworkError{Op: "push", StatusCode: resp.StatusCode}
	}

	var out syncResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return core.Budget{}, &NetworkError{Op: "push", Err: fmt.Errorf("decode response: %w", err)}
	}
	return out.Data, nil
}

// Fetch returns the record for the key, or remote.ErrNotFound.
func (c *Client) Fetch(ctx context.Context, owner, period string) (core.Budget, error) {
	return c.get(ctx, url.Values{"owner": {owner}, "period": {period}})
}

// FetchLatest returns the owner's most recently updated record, or
// remote.ErrNotFound.
func (c *Client) FetchLatest(ctx context.Context, owner string) (core.Budget, error) {
	return c.get(ctx, url.Values{"owner": {owner}})
}

func (c *Client) get(ctx context.Context, query url.Values) (core.Budget, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sync?"+query.Encode(), nil)
	if err != nil {
		return core.Budget{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return core.Budget{}, &NetworkError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return core.Budget{}, remote.ErrNotFound
	default:
		return core.Budget{}, &NetworkError{Op: "fetch", StatusCode: resp.StatusCode}
	}

	var b core.Budget
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return core.Budget{}, &NetworkError{Op: "fetch", Err: fmt.Errorf("decode response: %w", err)}
	}
	return b, nil
}

// Login authenticates against the server. Invalid credentials map to
// auth.ErrInvalidCredentials; anything else network-shaped comes back as
// *NetworkError so the caller can fall back to the offline identity.
func (c *Client) Login(ctx context.Context, email, password string) (core.Identity, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return core.Identity{}, fmt.Errorf("marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return core.Identity{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return core.Identity{}, &NetworkError{Op: "login", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return core.Identity{}, auth.ErrInvalidCredentials
	default:
		return core.Identity{}, &NetworkError{Op: "login", StatusCode: resp.StatusCode}
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return core.Identity{}, &NetworkError{Op: "login", Err: fmt.Errorf("decode response: %w", err)}
	}
	return out.User, nil
}

// Ping probes connectivity with a short health check. It never fails hard;
// false simply means "treat the session as offline".
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
