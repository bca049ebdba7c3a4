package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/dvcrn/tink-gateway/internal/credentials"
	"github.com/dvcrn/tink-gateway/internal/provider"
	"github.com/dvcrn/tink-gateway/internal/result"
)

const refreshFlight = "refresh"

// Coordinator owns the OAuth refresh protocol. At most one refresh round-trip
// is in flight at a time; concurrent callers wait for it and share its outcome.
type Coordinator struct {
	store    *credentials.Store
	endpoint TokenEndpoint
	logger   *zerolog.Logger

	group singleflight.Group
	// mu serializes every grant that writes the store, so an authorization
	// code exchange never races an in-flight refresh.
	mu sync.Mutex
}

// NewCoordinator creates a refresh coordinator over store.
func NewCoordinator(store *credentials.Store, endpoint TokenEndpoint, logger *zerolog.Logger) *Coordinator {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Coordinator{
		store:    store,
		endpoint: endpoint,
		logger:   logger,
	}
}

// Refresh exchanges the stored refresh token for new credentials.
func (c *Coordinator) Refresh(ctx context.Context) result.Result[credentials.Status, error] {
	if _, err := c.renew(ctx, "", true); err != nil {
		return result.Fail[credentials.Status](err)
	}
	return result.Ok[credentials.Status, error](c.store.Status())
}

// Renew returns an access token to replace stale, the token a caller saw
// rejected or found missing ("" when none was stored). If another caller already
// replaced stale, the current token is returned without a network call.
func (c *Coordinator) Renew(ctx context.Context, stale string) result.Result[string, error] {
	token, err := c.renew(ctx, stale, false)
	return result.From(token, err)
}

// Authenticate runs the authorization code exchange and stores the result.
func (c *Coordinator) Authenticate(ctx context.Context, code string) result.Result[credentials.Status, error] {
	if code == "" {
		return result.Fail[credentials.Status](provider.Unauthenticated(errors.New("authorization code is empty")))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tokens, err := c.endpoint.ExchangeCode(ctx, code)
	if err != nil {
		err = classify(err)
		c.logger.Error().Err(err).Msg("❌ Authorization code exchange failed")
		return result.Fail[credentials.Status](err)
	}

	c.store.SetCredentials(tokens.AccessToken, tokens.RefreshToken, tokens.TTL())
	c.logger.Info().
		Int("expires_in", tokens.ExpiresIn).
		Bool("has_refresh_token", tokens.RefreshToken != "").
		Msg("✅ Authorization code exchanged")

	return result.Ok[credentials.Status, error](c.store.Status())
}

// SignOut drops all stored credentials.
func (c *Coordinator) SignOut() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Clear()
	c.logger.Info().Msg("Credentials cleared")
}

func (c *Coordinator) renew(ctx context.Context, stale string, force bool) (string, error) {
	if _, ok := c.store.RefreshToken(); !ok {
		if token, ok := c.replacement(stale, force); ok {
			return token, nil
		}
		return "", provider.Unauthenticated(ErrNoRefreshToken)
	}

	// The flight runs on a context detached from the first caller, so one
	// caller giving up does not fail everyone waiting on the same refresh.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(refreshFlight, func() (any, error) {
		if token, ok := c.replacement(stale, force); ok {
			return token, nil
		}
		return c.refresh(flightCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", provider.Unavailable(fmt.Errorf("waiting for token refresh: %w", ctx.Err()))
	}
}

// replacement returns the stored access token when it is usable and differs
// from stale. A forced refresh never takes this shortcut.
func (c *Coordinator) replacement(stale string, force bool) (string, bool) {
	if force {
		return "", false
	}
	token, ok := c.store.AccessToken()
	if !ok || token == stale {
		return "", false
	}
	return token, true
}

func (c *Coordinator) refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	refreshToken, ok := c.store.RefreshToken()
	if !ok {
		return "", provider.Unauthenticated(ErrNoRefreshToken)
	}

	c.logger.Info().Msg("🔄 Refreshing OAuth access token")
	start := time.Now()

	tokens, err := c.endpoint.RefreshToken(ctx, refreshToken)
	if err != nil {
		err = classify(err)
		c.store.Clear()
		c.logger.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("❌ Failed to refresh OAuth token, stored credentials cleared")
		return "", err
	}

	// Providers that do not rotate refresh tokens omit the field.
	nextRefresh := tokens.RefreshToken
	if nextRefresh == "" {
		nextRefresh = refreshToken
	}
	c.store.SetCredentials(tokens.AccessToken, nextRefresh, tokens.TTL())

	c.logger.Info().
		Int("expires_in", tokens.ExpiresIn).
		Bool("refresh_token_rotated", tokens.RefreshToken != "" && tokens.RefreshToken != refreshToken).
		Dur("duration", time.Since(start)).
		Msg("✅ OAuth token refreshed successfully")

	return tokens.AccessToken, nil
}

// classify makes sure an endpoint failure carries one of the provider kinds.
func classify(err error) error {
	if errors.Is(err, provider.ErrUnauthenticated) || errors.Is(err, provider.ErrProviderUnavailable) {
		return err
	}
	return provider.Unavailable(err)
}
