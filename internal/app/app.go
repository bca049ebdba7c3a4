package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvcrn/tink-gateway/internal/auth"
	"github.com/dvcrn/tink-gateway/internal/config"
	"github.com/dvcrn/tink-gateway/internal/credentials"
	"github.com/dvcrn/tink-gateway/internal/server"
	"github.com/dvcrn/tink-gateway/internal/tink"
	"github.com/dvcrn/tink-gateway/internal/transport"
)

// App holds the wired gateway components. One App means one Token Store and
// one refresh coordinator for the whole process.
type App struct {
	Config      *config.Config
	Store       *credentials.Store
	Coordinator *auth.Coordinator
	Client      *tink.Client

	logger zerolog.Logger
}

// New wires the store, OAuth coordinator, authenticating transport and
// provider client from cfg.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	storeOpts := []credentials.Option{
		credentials.WithLogger(&logger),
		credentials.WithRefreshToken(cfg.OAuth.RefreshToken),
	}
	if !cfg.Credentials.InMemory {
		path := CredentialsPath(cfg)
		storeOpts = append(storeOpts, credentials.WithFile(path))
		logger.Info().Str("path", path).Msg("📄 Persisting credentials to file")
	} else {
		logger.Info().Msg("📝 Keeping credentials in memory only")
	}
	store := credentials.NewStore(storeOpts...)

	httpClient := transport.NewHTTPClient(cfg.Provider.Timeout)

	tokens := auth.NewTokenClient(auth.ClientConfig{
		TokenURL:     cfg.Provider.TokenURL(),
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURI:  cfg.OAuth.RedirectURI,
	}, httpClient)
	coordinator := auth.NewCoordinator(store, tokens, &logger)

	sender := transport.NewAuthTransport(httpClient, store, coordinator, &logger)

	client, err := tink.NewClient(tink.Config{
		BaseURL: cfg.Provider.BaseURL,
		Paths: tink.Paths{
			SearchTransactions: cfg.Provider.SearchPath,
			ListAccounts:       cfg.Provider.AccountsPath,
			ListCategories:     cfg.Provider.CategoriesPath,
		},
	}, sender, coordinator, &logger)
	if err != nil {
		return nil, fmt.Errorf("create provider client: %w", err)
	}

	return &App{
		Config:      cfg,
		Store:       store,
		Coordinator: coordinator,
		Client:      client,
		logger:      logger,
	}, nil
}

// NewServer creates the HTTP surface over the wired client.
func (a *App) NewServer() *server.Server {
	return server.New(a.logger, a.Client, a.Store, a.Config.Server.AdminAPIKey)
}

// CredentialsPath is the configured snapshot path, or the XDG default.
func CredentialsPath(cfg *config.Config) string {
	if cfg.Credentials.Path != "" {
		return cfg.Credentials.Path
	}
	return credentials.DefaultCredsPath()
}
