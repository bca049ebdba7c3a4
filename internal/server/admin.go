package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var (
	errMissingAdminKey = errors.New("missing Authorization or X-API-Key header")
	errMalformedBearer = errors.New("invalid Authorization header format")
)

// adminMiddleware guards operator and data routes with the configured admin
// key, taken from 'Authorization: Bearer <key>' or 'X-API-Key: <key>'.
func (s *Server) adminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey == "" {
			s.logger.Error().Msg("server.admin_api_key is not configured")
			http.Error(w, "Admin API not configured", http.StatusInternalServerError)
			return
		}

		provided, err := adminKeyFromRequest(r)
		if err == nil && subtle.ConstantTimeCompare([]byte(provided), []byte(s.adminKey)) != 1 {
			err = errors.New("invalid admin API key")
		}
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("method", r.Method).
				Str("uri", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("Rejected admin request")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		s.logger.Debug().
			Str("method", r.Method).
			Str("uri", r.URL.Path).
			Msg("Admin request authorized")

		next(w, r)
	}
}

func adminKeyFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return "", errMalformedBearer
		}
		return token, nil
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key, nil
	}
	return "", errMissingAdminKey
}
