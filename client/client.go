// Package client talks to the check-in auth API over HTTP. It satisfies
// verification.Provider so the confirmation flow can run against a remote
// server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ufacm/checkin"
)

const maxResponseBytes = 1 << 20

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:8080".
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	// Redirects are never followed.
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client is a remote identity provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("client: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}

	base := cfg.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	httpClient := *base
	httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &httpClient,
		logger:     cfg.Logger,
	}, nil
}

func (c *Client) SignUp(ctx context.Context, email, password, redirectTo string) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/auth/v1/signup", "", map[string]string{
		"email":       email,
		"password":    password,
		"redirect_to": redirectTo,
	})
	return err
}

func (c *Client) VerifyOTP(ctx context.Context, email, code string, kind checkin.OTPType) (*checkin.Session, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/auth/v1/verify", "", map[string]string{
		"email": email,
		"token": code,
		"type":  kind.String(),
	})
	if err != nil {
		return nil, err
	}
	return decodeSession(body)
}

func (c *Client) ResendOTP(ctx context.Context, email string, kind checkin.OTPType) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/auth/v1/resend", "", map[string]string{
		"email": email,
		"type":  kind.String(),
	})
	return err
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*checkin.Session, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/auth/v1/token", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return decodeSession(body)
}

// GetUser resolves the principal behind token.
func (c *Client) GetUser(ctx context.Context, token string) (*checkin.User, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/auth/v1/user", token, nil)
	if err != nil {
		return nil, err
	}
	var user checkin.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("client: failed to parse user response: %w", err)
	}
	return &user, nil
}

// SignOut revokes the session behind token.
func (c *Client) SignOut(ctx context.Context, token string) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/auth/v1/logout", token, nil)
	return err
}

func decodeSession(body []byte) (*checkin.Session, error) {
	var sess checkin.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("client: failed to parse session response: %w", err)
	}
	if sess.AccessToken == "" {
		return nil, errors.New("client: session response without access token")
	}
	return &sess, nil
}

func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, requestBody any) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("client: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("client: failed to create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		request.Header.Set("Authorization", "Bearer "+accessToken)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("client: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("client: failed to read response body: %w", err)
	}

	switch {
	case response.StatusCode >= 200 && response.StatusCode < 400:
		return responseBody, nil
	case response.StatusCode < 500:
		if pe := decodeProviderError(responseBody); pe != nil {
			return nil, pe
		}
	}

	c.logger.Debug().
		Int("status_code", response.StatusCode).
		Str("method", method).
		Str("path", path).
		Msg("client: unexpected response")
	return nil, fmt.Errorf("client: unexpected %d response from %s %s", response.StatusCode, method, path)
}
