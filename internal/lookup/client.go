// Package lookup provides rate-limited access to the VRChat user search
// endpoint through an owned FIFO queue.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/graaaaa/vrc-albums/internal/appinfo"
	"github.com/graaaaa/vrc-albums/internal/config"
	"github.com/graaaaa/vrc-albums/internal/version"
)

// DefaultBaseURL is the VRChat API root.
const DefaultBaseURL = "https://api.vrchat.cloud/api/1"

// Sentinel errors for status classification.
var (
	// ErrUnauthorized indicates a missing or rejected auth cookie. Not
	// recoverable by retrying.
	ErrUnauthorized = errors.New("lookup: unauthorized")

	// ErrRateLimited indicates the endpoint asked us to slow down.
	ErrRateLimited = errors.New("lookup: rate limited")
)

// User is one user search result.
type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Status            string `json:"status"`
	StatusDescription string `json:"statusDescription"`
	Bio               string `json:"bio"`
	IsFriend          bool   `json:"isFriend"`
	Location          string `json:"location"`
}

// Searcher abstracts the user search call for testing.
type Searcher interface {
	SearchUsers(ctx context.Context, query string, limit int) ([]User, error)
}

// Client performs user searches against the VRChat API.
type Client struct {
	baseURL    string
	authCookie config.Secret
	client     *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API root (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a user search client.
// The auth cookie is stored as a Secret and appears as [REDACTED] in logs.
func NewClient(authCookie config.Secret, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		authCookie: authCookie,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchUsers implements Searcher.
func (c *Client) SearchUsers(ctx context.Context, query string, limit int) ([]User, error) {
	if c.authCookie.IsEmpty() {
		return nil, ErrUnauthorized
	}
	if limit <= 0 {
		limit = 10
	}

	u := c.baseURL + "/users?search=" + url.QueryEscape(query) + "&n=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", appinfo.AppName+"/"+version.Version)
	req.AddCookie(&http.Cookie{Name: "auth", Value: c.authCookie.Value()})

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user search request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var users []User
		if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
			return nil, fmt.Errorf("decode user search response: %w", err)
		}
		c.logger.Debug("user search ok", "query", query, "results", len(users))
		return users, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		drain(resp.Body)
		c.logger.Error("user search auth rejected",
			"status", resp.StatusCode,
			"auth_cookie", c.authCookie, // logs as [REDACTED]
		)
		return nil, ErrUnauthorized

	case resp.StatusCode == http.StatusTooManyRequests:
		drain(resp.Body)
		c.logger.Warn("user search rate limited")
		return nil, ErrRateLimited

	default:
		drain(resp.Body)
		return nil, fmt.Errorf("user search failed: status %d", resp.StatusCode)
	}
}

// drain empties the body to allow connection reuse.
func drain(body io.Reader) {
	_, _ = io.Copy(io.Discard, body)
}
