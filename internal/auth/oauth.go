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

	"github.com/dvcrn/tink-gateway/internal/provider"
	"github.com/dvcrn/tink-gateway/internal/transport"
)

const (
	grantAuthorizationCode = "authorization_code"
	grantRefreshToken      = "refresh_token"
)

// ErrNoRefreshToken is wrapped into the Unauthenticated failure returned when
// a refresh is requested but no refresh token is stored.
var ErrNoRefreshToken = errors.New("no refresh token stored")

// TokenEndpoint performs the two OAuth grants the gateway needs.
type TokenEndpoint interface {
	ExchangeCode(ctx context.Context, code string) (*TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// ClientConfig identifies the gateway at the provider's token endpoint.
type ClientConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// TokenClient talks to the provider's OAuth token endpoint.
type TokenClient struct {
	cfg        ClientConfig
	httpClient transport.HTTPClient
}

// NewTokenClient creates a token endpoint client.
func NewTokenClient(cfg ClientConfig, httpClient transport.HTTPClient) *TokenClient {
	return &TokenClient{cfg: cfg, httpClient: httpClient}
}

// ExchangeCode trades an authorization code for the initial credentials.
func (c *TokenClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type": {grantAuthorizationCode},
		"code":       {code},
	}
	if c.cfg.RedirectURI != "" {
		form.Set("redirect_uri", c.cfg.RedirectURI)
	}
	return c.post(ctx, form)
}

// RefreshToken obtains a new access token from a refresh token.
func (c *TokenClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {grantRefreshToken},
		"refresh_token": {refreshToken},
	}
	return c.post(ctx, form)
}

// post sends a token grant. Rejections (400, 401, 403) are Unauthenticated;
// everything else that goes wrong is ProviderUnavailable.
func (c *TokenClient) post(ctx context.Context, form url.Values) (*TokenResponse, error) {
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, provider.Unavailable(fmt.Errorf("failed to build token request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.Unavailable(fmt.Errorf("failed to make token request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.Unavailable(fmt.Errorf("failed to read token response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return nil, provider.Unauthenticated(provider.NewHTTPError(string(body), resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, provider.Unavailable(provider.NewHTTPError(string(body), resp.StatusCode))
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, provider.Unavailable(fmt.Errorf("failed to decode token response: %w", err))
	}
	if tokenResp.AccessToken == "" {
		return nil, provider.Unavailable(errors.New("token response has no access_token"))
	}

	return &tokenResp, nil
}
