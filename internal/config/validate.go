package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Provider.validate(); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	if err := c.OAuth.validate(); err != nil {
		return fmt.Errorf("oauth: %w", err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json (got %q)", c.Log.Format)
	}
	return nil
}

func (p *ProviderConfig) validate() error {
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL (got %q)", p.BaseURL)
	}

	paths := map[string]string{
		"search_path":      p.SearchPath,
		"accounts_path":    p.AccountsPath,
		"categories_path":  p.CategoriesPath,
		"oauth_token_path": p.OAuthTokenPath,
	}
	for name, value := range paths {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}

	if p.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", p.Timeout)
	}
	return nil
}

func (o *OAuthConfig) validate() error {
	if o.ClientID == "" || o.ClientSecret == "" {
		return errors.New("client_id and client_secret are required")
	}
	return nil
}
