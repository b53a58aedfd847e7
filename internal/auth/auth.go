// Package auth talks to the Twitch OAuth endpoints: validating the chat
// token at startup and refreshing it when a refresh token is configured.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrInvalidToken indicates Twitch definitively rejected the token.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrUnavailable indicates the auth endpoint is unreachable or
	// misbehaving. Callers may retry; the token itself is not condemned.
	ErrUnavailable = errors.New("auth: unavailable")
)

const defaultBaseURL = "https://id.twitch.tv"

// Identity describes the account a validated token belongs to.
type Identity struct {
	UserID    string   `json:"user_id"`
	Login     string   `json:"login"`
	ClientID  string   `json:"client_id"`
	Scopes    []string `json:"scopes"`
	ExpiresIn int      `json:"expires_in"`
}

// Token is a refreshed credential pair.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Client calls the Twitch OAuth endpoints.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client
}

// NewClient creates an OAuth client for the given application credentials.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      defaultBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetBaseURL overrides the OAuth endpoint, used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// Validate checks an access token and returns the identity it belongs to.
func (c *Client) Validate(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/oauth2/validate", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrInvalidToken
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var identity Identity
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&identity); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrUnavailable, err)
	}
	return &identity, nil
}

// Refresh exchanges a refresh token for a fresh access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		// Twitch rejects dead refresh tokens with a 400.
		return nil, ErrInvalidToken
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var token Token
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrUnavailable, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token in response", ErrUnavailable)
	}
	return &token, nil
}
