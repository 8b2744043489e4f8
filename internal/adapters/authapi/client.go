package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agora/internal/domain/auth"
)

// Client is the HTTP binding of the auth service API
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the auth service at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NewClientWithHTTP creates a client using the given http client
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: httpClient}
}

// errorResponse is the error body returned by the service
type errorResponse struct {
	Error string `json:"error"`
}

// do sends a request and decodes a JSON answer into out when out is not nil
func (c *Client) do(ctx context.Context, method, path, accessToken string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &auth.HTTPError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var decoded errorResponse
		if json.Unmarshal(raw, &decoded) == nil && decoded.Error != "" {
			apiErr.Message = decoded.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || method == http.MethodHead {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// CreateAnonSession obtains an anonymous token pair
func (c *Client) CreateAnonSession(ctx context.Context) (auth.TokenPair, error) {
	var out auth.TokenPair
	err := c.do(ctx, http.MethodPut, "/session/anon", "", nil, nil, &out)
	return out, err
}

// GetClaims decodes the claims of accessToken
func (c *Client) GetClaims(ctx context.Context, accessToken string) (*auth.Claims, error) {
	var out auth.Claims
	if err := c.do(ctx, http.MethodGet, "/session", accessToken, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshSession exchanges a token pair for a new access token
func (c *Client) RefreshSession(ctx context.Context, tokens auth.TokenPair) (auth.TokenPair, error) {
	var out auth.TokenPair
	err := c.do(ctx, http.MethodPatch, "/session/refresh", "", nil, tokens, &out)
	return out, err
}

// CreateSession exchanges credentials for a token pair
func (c *Client) CreateSession(ctx context.Context, req auth.LoginRequest) (auth.TokenPair, error) {
	var out auth.TokenPair
	err := c.do(ctx, http.MethodPut, "/session", "", nil, req, &out)
	return out, err
}

// CredentialsExist checks whether an account uses email
func (c *Client) CredentialsExist(ctx context.Context, accessToken, email string) (bool, error) {
	err := c.do(ctx, http.MethodHead, "/credentials", accessToken, url.Values{"email": {email}}, nil, nil)
	if err == nil {
		return true, nil
	}
	if auth.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// GetCredentials returns the public account data of userID
func (c *Client) GetCredentials(ctx context.Context, accessToken, userID string) (*auth.Credentials, error) {
	var out auth.Credentials
	if err := c.do(ctx, http.MethodGet, "/credentials", accessToken, url.Values{"id": {userID}}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestRegistration mails a registration link to email
func (c *Client) RequestRegistration(ctx context.Context, accessToken string, req auth.ShortCodeRequest) error {
	return c.do(ctx, http.MethodPut, "/short-code/register", accessToken, nil, req, nil)
}

// CompleteRegistration creates the account and returns its first token pair
func (c *Client) CompleteRegistration(ctx context.Context, accessToken string, req auth.RegisterRequest) (auth.TokenPair, error) {
	var out auth.TokenPair
	err := c.do(ctx, http.MethodPut, "/credentials", accessToken, nil, req, &out)
	return out, err
}

// RequestPasswordReset mails a password reset link to email
func (c *Client) RequestPasswordReset(ctx context.Context, accessToken string, req auth.ShortCodeRequest) error {
	return c.do(ctx, http.MethodPut, "/short-code/update-password", accessToken, nil, req, nil)
}

// ResetPassword sets a new password using a short code
func (c *Client) ResetPassword(ctx context.Context, accessToken string, req auth.ResetPasswordRequest) error {
	return c.do(ctx, http.MethodPatch, "/credentials/password/reset", accessToken, nil, req, nil)
}

// UpdatePassword changes the password of the authenticated user
func (c *Client) UpdatePassword(ctx context.Context, accessToken string, req auth.UpdatePasswordRequest) error {
	return c.do(ctx, http.MethodPatch, "/credentials/password", accessToken, nil, req, nil)
}

// RequestEmailUpdate mails a validation link to the new email
func (c *Client) RequestEmailUpdate(ctx context.Context, accessToken string, req auth.ShortCodeRequest) error {
	return c.do(ctx, http.MethodPut, "/short-code/update-email", accessToken, nil, req, nil)
}

// UpdateEmail applies a pending email update
func (c *Client) UpdateEmail(ctx context.Context, accessToken string, req auth.UpdateEmailRequest) (auth.UpdateEmailResponse, error) {
	var out auth.UpdateEmailResponse
	err := c.do(ctx, http.MethodPatch, "/credentials/email", accessToken, nil, req, &out)
	return out, err
}

// Ping checks that the service answers
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", "", nil, nil, nil)
}

// Health returns the health report of the service
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	err := c.do(ctx, http.MethodGet, "/healthcheck", "", nil, nil, &out)
	return out, err
}
