package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvcrn/tink-gateway/internal/credentials"
	"github.com/dvcrn/tink-gateway/internal/provider"
	"github.com/dvcrn/tink-gateway/internal/result"
)

const dateLayout = "2006-01-02"

// Gateway is the provider client the HTTP surface exposes.
type Gateway interface {
	QueryTransactions(ctx context.Context, from time.Time) result.Result[[]provider.Transaction, error]
	ListAccounts(ctx context.Context) result.Result[[]provider.Account, error]
	ListCategories(ctx context.Context) result.Result[[]provider.Category, error]
	Authenticate(ctx context.Context, code string) result.Result[credentials.Status, error]
	RefreshAuth(ctx context.Context) result.Result[credentials.Status, error]
	SignOut()
}

// StatusSource reports the redacted credential state.
type StatusSource interface {
	Status() credentials.Status
}

type Server struct {
	gateway  Gateway
	status   StatusSource
	adminKey string
	mux      *http.ServeMux
	logger   zerolog.Logger
}

func New(logger zerolog.Logger, gateway Gateway, status StatusSource, adminKey string) *Server {
	s := &Server{
		gateway:  gateway,
		status:   status,
		adminKey: adminKey,
		mux:      http.NewServeMux(),
		logger:   logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.healthHandler)
	s.mux.HandleFunc("/oauth/callback", s.oauthCallbackHandler)
	s.mux.HandleFunc("/v1/transactions", s.adminMiddleware(s.transactionsHandler))
	s.mux.HandleFunc("/v1/accounts", s.adminMiddleware(s.accountsHandler))
	s.mux.HandleFunc("/v1/categories", s.adminMiddleware(s.categoriesHandler))
	s.mux.HandleFunc("/admin/refresh", s.adminMiddleware(s.refreshHandler))
	s.mux.HandleFunc("/admin/credentials", s.adminMiddleware(s.credentialsHandler))
	s.mux.HandleFunc("/admin/credentials/status", s.adminMiddleware(s.credentialsStatusHandler))
	s.mux.HandleFunc("/", s.notFoundHandler)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.loggingMiddleware(s.mux).ServeHTTP(w, r)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.logger.Info().
			Str("method", r.Method).
			Str("uri", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Msg("Incoming request")
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("uri", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Finished request")
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn().
		Str("method", r.Method).
		Str("uri", r.URL.Path).
		Str("remote_addr", r.RemoteAddr).
		Str("user_agent", r.UserAgent()).
		Msg("Unhandled route")
	http.NotFound(w, r)
}

// transactionsHandler handles GET /v1/transactions?from=YYYY-MM-DD
func (s *Server) transactionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	raw := r.URL.Query().Get("from")
	if raw == "" {
		s.writeError(w, r, badInput("missing required query parameter: from"))
		return
	}
	from, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		s.writeError(w, r, badInput("from must be a date in YYYY-MM-DD format"))
		return
	}

	res := s.gateway.QueryTransactions(r.Context(), from)
	if !res.IsSuccess() {
		s.writeError(w, r, res.Failure())
		return
	}

	transactions := res.Unwrap()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":        len(transactions),
		"transactions": transactions,
	})
}

// accountsHandler handles GET /v1/accounts
func (s *Server) accountsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	res := s.gateway.ListAccounts(r.Context())
	if !res.IsSuccess() {
		s.writeError(w, r, res.Failure())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"accounts": res.Unwrap()})
}

// categoriesHandler handles GET /v1/categories
func (s *Server) categoriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	res := s.gateway.ListCategories(r.Context())
	if !res.IsSuccess() {
		s.writeError(w, r, res.Failure())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"categories": res.Unwrap()})
}

// oauthCallbackHandler handles GET /oauth/callback, the redirect target of
// the provider's authorization flow.
func (s *Server) oauthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		s.logger.Warn().Str("error", providerErr).Msg("Provider reported an authorization failure")
		s.writeError(w, r, badInput("authorization failed: "+providerErr))
		return
	}

	code := q.Get("code")
	if code == "" {
		s.writeError(w, r, badInput("missing required query parameter: code"))
		return
	}

	res := s.gateway.Authenticate(r.Context(), code)
	if !res.IsSuccess() {
		s.writeError(w, r, res.Failure())
		return
	}

	s.logger.Info().Msg("🔑 Authorization completed via callback")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"credentials": res.Unwrap(),
	})
}

// refreshHandler handles POST /admin/refresh
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	res := s.gateway.RefreshAuth(r.Context())
	if !res.IsSuccess() {
		s.writeError(w, r, res.Failure())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"credentials": res.Unwrap(),
	})
}

// credentialsHandler handles DELETE /admin/credentials (sign-out)
func (s *Server) credentialsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.gateway.SignOut()
	s.logger.Info().Msg("Credentials cleared via admin API")

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Credentials cleared",
	})
}

// credentialsStatusHandler handles GET /admin/credentials/status
func (s *Server) credentialsStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.status.Status())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
