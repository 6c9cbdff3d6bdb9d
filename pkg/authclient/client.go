// Package authclient provides a client-side helper for consuming the
// auth API. Its main job is coordinating token refresh: any number of
// goroutines may ask for a valid access token, but at most one refresh
// request is in flight at a time and every waiter shares its result.
package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// refreshSkew renews the token slightly before its actual expiry so
// in-flight requests do not race the deadline.
const refreshSkew = 30 * time.Second

// TokenSource obtains a fresh access token, typically by calling the
// refresh endpoint with the browser's (or client's) refresh cookie.
type TokenSource interface {
	Refresh(ctx context.Context) (accessToken string, expiresIn time.Duration, err error)
}

// Client caches an access token and refreshes it on demand. Concurrent
// callers collapse onto a single refresh via singleflight; duplicate
// refreshes would burn single-use refresh credentials server-side.
type Client struct {
	source TokenSource
	group  singleflight.Group

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// NewClient creates a Client backed by the given token source.
func NewClient(source TokenSource) *Client {
	return &Client{source: source}
}

// Token returns a valid access token, refreshing if the cached one is
// missing or near expiry.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.RLock()
	token, expiresAt := c.token, c.expiresAt
	c.mu.RUnlock()

	if token != "" && time.Until(expiresAt) > refreshSkew {
		return token, nil
	}

	result, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		// Another waiter may have refreshed while this call queued
		c.mu.RLock()
		token, expiresAt := c.token, c.expiresAt
		c.mu.RUnlock()
		if token != "" && time.Until(expiresAt) > refreshSkew {
			return token, nil
		}

		fresh, expiresIn, err := c.source.Refresh(ctx)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.token = fresh
		c.expiresAt = time.Now().Add(expiresIn)
		c.mu.Unlock()

		return fresh, nil
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

// Invalidate drops the cached token so the next Token call refreshes.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// HTTPTokenSource refreshes against the auth API over HTTP using a
// cookie-aware client.
type HTTPTokenSource struct {
	BaseURL    string
	HTTPClient *http.Client
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Refresh calls POST {BaseURL}/auth/refresh. The refresh credential
// rides in the client's cookie jar; the rotated replacement comes back
// the same way.
func (s *HTTPTokenSource) Refresh(ctx context.Context) (string, time.Duration, error) {
	httpClient := s.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/auth/refresh", nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to build refresh request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	var body refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	return body.AccessToken, time.Duration(body.ExpiresIn) * time.Second, nil
}
