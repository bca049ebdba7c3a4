package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvcrn/tink-gateway/internal/credentials"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := gateway.Config.Server

	validateCredentialsAtStartup(gateway.Store.Status())

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      gateway.NewServer(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func validateCredentialsAtStartup(status credentials.Status) {
	if !status.HasRefreshToken {
		log.Warn().Msg("⚠️  No refresh token stored, complete the OAuth flow via /oauth/callback or `tink-gateway authenticate`")
		return
	}
	if !status.HasAccessToken || status.ExpiresAt.IsZero() {
		log.Info().Msg("✅ Refresh token loaded, access token will be fetched on first request")
		return
	}

	minutesUntilExpiry := int64(time.Until(status.ExpiresAt) / time.Minute)
	switch {
	case status.Expired:
		log.Warn().
			Int64("minutes_expired", -minutesUntilExpiry).
			Msg("⚠️  Token is already expired, will attempt refresh on first request")
	case minutesUntilExpiry <= 5:
		log.Warn().
			Int64("minutes_until_expiry", minutesUntilExpiry).
			Msg("⚠️  Token expires soon, will refresh on demand")
	default:
		log.Info().
			Int64("minutes_until_expiry", minutesUntilExpiry).
			Msg("✅ Token is valid and not expiring soon")
	}
}
