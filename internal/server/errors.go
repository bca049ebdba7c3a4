package server

import (
	"encoding/json"
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/dvcrn/tink-gateway/internal/provider"
)

const (
	textCodeUnauthorized        = "UNAUTHORIZED"
	textCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	textCodeProviderRejected    = "PROVIDER_REJECTED"
	textCodeBadInput            = "BAD_INPUT"
	textCodeInternal            = "INTERNAL"
)

// errorEnvelope is the JSON body of every failed API response.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Category goerrors.Category `json:"category"`
	Code     int               `json:"code"`
	TextCode string            `json:"text_code"`
	Message  string            `json:"message"`
	Metadata map[string]any    `json:"metadata,omitempty"`
}

func badInput(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(textCodeBadInput)
}

// toServiceError maps a provider failure onto an HTTP-facing envelope.
func toServiceError(err error) *goerrors.Error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}

	var httpErr *provider.HTTPError
	hasHTTPErr := errors.As(err, &httpErr)

	switch {
	case errors.Is(err, provider.ErrUnauthenticated):
		return goerrors.Wrap(err, goerrors.CategoryAuth, "not authenticated with the provider").
			WithCode(http.StatusUnauthorized).
			WithTextCode(textCodeUnauthorized)
	case errors.Is(err, provider.ErrProviderUnavailable):
		return goerrors.Wrap(err, goerrors.CategoryExternal, "provider unavailable").
			WithCode(http.StatusServiceUnavailable).
			WithTextCode(textCodeProviderUnavailable)
	case errors.Is(err, provider.ErrProviderRejected):
		wrapped := goerrors.Wrap(err, goerrors.CategoryExternal, "provider rejected the request").
			WithCode(http.StatusBadGateway).
			WithTextCode(textCodeProviderRejected)
		if hasHTTPErr {
			wrapped.WithMetadata(map[string]any{
				"upstream_status":  httpErr.StatusCode,
				"upstream_message": httpErr.Message,
			})
		}
		return wrapped
	default:
		return goerrors.Wrap(err, goerrors.CategoryInternal, "internal error").
			WithCode(http.StatusInternalServerError).
			WithTextCode(textCodeInternal)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	rich := toServiceError(err)

	code := rich.Code
	if code == 0 {
		code = http.StatusInternalServerError
	}

	s.logger.Warn().
		Err(err).
		Str("method", r.Method).
		Str("uri", r.URL.Path).
		Int("status_code", code).
		Str("text_code", rich.TextCode).
		Msg("Request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	envelope := errorEnvelope{Error: errorBody{
		Category: rich.Category,
		Code:     code,
		TextCode: rich.TextCode,
		Message:  rich.Message,
		Metadata: rich.Metadata,
	}}
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode error response")
	}
}
