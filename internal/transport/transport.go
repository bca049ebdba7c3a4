package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvcrn/tink-gateway/internal/provider"
	"github.com/dvcrn/tink-gateway/internal/result"
)

// Sender sends a provider request and yields the raw response.
type Sender interface {
	Send(ctx context.Context, req *http.Request) result.Result[*http.Response, error]
}

// TokenSource hands out the cached access token.
type TokenSource interface {
	AccessToken() (string, bool)
}

// Renewer replaces an access token that is missing or was rejected.
type Renewer interface {
	Renew(ctx context.Context, stale string) result.Result[string, error]
}

// AuthTransport attaches the cached bearer token to every request. A 401
// triggers one coordinated refresh and one resend; nothing is retried twice.
type AuthTransport struct {
	client  HTTPClient
	tokens  TokenSource
	renewer Renewer
	logger  *zerolog.Logger
}

// NewAuthTransport creates an authenticating transport.
func NewAuthTransport(client HTTPClient, tokens TokenSource, renewer Renewer, logger *zerolog.Logger) *AuthTransport {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AuthTransport{
		client:  client,
		tokens:  tokens,
		renewer: renewer,
		logger:  logger,
	}
}

// Send implements Sender. Non-401 responses, successful or not, are returned
// untouched; the caller owns the response body.
func (t *AuthTransport) Send(ctx context.Context, req *http.Request) result.Result[*http.Response, error] {
	log := t.logger.With().
		Str("request_id", uuid.NewString()).
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Logger()

	body, err := bufferBody(req)
	if err != nil {
		return result.Fail[*http.Response](provider.Unavailable(fmt.Errorf("failed to read request body: %w", err)))
	}

	token, ok := t.tokens.AccessToken()
	if !ok {
		log.Info().Msg("No usable access token, refreshing before request")
		renewed := t.renewer.Renew(ctx, "")
		if !renewed.IsSuccess() {
			log.Error().Err(renewed.Failure()).Msg("Could not obtain an access token, request not sent")
			return result.Fail[*http.Response](provider.Unauthenticated(renewed.Failure()))
		}
		token = renewed.Unwrap()
	}

	resp, err := t.do(ctx, req, body, token)
	if err != nil {
		log.Error().Err(err).Msg("Provider request failed")
		return result.Fail[*http.Response](provider.Unavailable(fmt.Errorf("failed to send request: %w", err)))
	}
	if resp.StatusCode != http.StatusUnauthorized {
		log.Debug().Int("status_code", resp.StatusCode).Msg("Provider responded")
		return result.Ok[*http.Response, error](resp)
	}

	rejected, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	log.Warn().Msg("Received 401 Unauthorized, attempting token refresh...")

	renewed := t.renewer.Renew(ctx, token)
	if !renewed.IsSuccess() {
		log.Error().Err(renewed.Failure()).Msg("Failed to refresh credentials after 401 error")
		return result.Fail[*http.Response](provider.Unauthenticated(
			provider.NewHTTPError(string(rejected), http.StatusUnauthorized),
		))
	}

	log.Info().Msg("Successfully refreshed credentials, retrying request...")

	resp, err = t.do(ctx, req, body, renewed.Unwrap())
	if err != nil {
		log.Error().Err(err).Msg("Retried provider request failed")
		return result.Fail[*http.Response](provider.Unavailable(fmt.Errorf("retry request failed: %w", err)))
	}

	if resp.StatusCode == http.StatusUnauthorized {
		log.Error().Msg("Still received 401 after token refresh, giving up")
	} else {
		log.Info().Int("status_code", resp.StatusCode).Msg("Request succeeded after token refresh")
	}

	return result.Ok[*http.Response, error](resp)
}

func (t *AuthTransport) do(ctx context.Context, req *http.Request, body []byte, token string) (*http.Response, error) {
	out := req.Clone(ctx)
	if body != nil {
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		out.ContentLength = int64(len(body))
	}
	out.Header.Set("Authorization", "Bearer "+token)
	return t.client.Do(out)
}

// bufferBody reads the request body once so it can be sent twice.
func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()
	return io.ReadAll(req.Body)
}
