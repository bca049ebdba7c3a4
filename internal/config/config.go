package config

import "time"

// Config is the root gateway configuration.
type Config struct {
	Provider    ProviderConfig    `yaml:"provider"`
	OAuth       OAuthConfig       `yaml:"oauth"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// ProviderConfig locates the Tink API. Paths are relative to BaseURL.
type ProviderConfig struct {
	BaseURL        string        `yaml:"base_url"         env:"PROVIDER_BASE_URL"         env-default:"https://api.tink.com/api/v1/"`
	SearchPath     string        `yaml:"search_path"      env:"PROVIDER_SEARCH_PATH"      env-default:"search"`
	AccountsPath   string        `yaml:"accounts_path"    env:"PROVIDER_ACCOUNTS_PATH"    env-default:"accounts/list"`
	CategoriesPath string        `yaml:"categories_path"  env:"PROVIDER_CATEGORIES_PATH"  env-default:"categories"`
	OAuthTokenPath string        `yaml:"oauth_token_path" env:"PROVIDER_OAUTH_TOKEN_PATH" env-default:"oauth/token"`
	Timeout        time.Duration `yaml:"timeout"          env:"PROVIDER_TIMEOUT"          env-default:"30s"`
}

// OAuthConfig holds the client registration used for the token endpoint.
type OAuthConfig struct {
	ClientID     string `yaml:"client_id"     env:"OAUTH_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"OAUTH_CLIENT_SECRET"`
	RedirectURI  string `yaml:"redirect_uri"  env:"OAUTH_REDIRECT_URI"`
	// RefreshToken seeds the store so the first request can refresh without
	// an authorization code.
	RefreshToken string `yaml:"refresh_token" env:"OAUTH_REFRESH_TOKEN"`
}

// CredentialsConfig controls where the token snapshot is kept. An empty Path
// means the XDG default; InMemory disables the file entirely.
type CredentialsConfig struct {
	Path     string `yaml:"path"      env:"CREDENTIALS_PATH"`
	InMemory bool   `yaml:"in_memory" env:"CREDENTIALS_IN_MEMORY"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"9000"`
	AdminAPIKey     string        `yaml:"admin_api_key"    env:"ADMIN_API_KEY"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
}

// TokenURL is the absolute OAuth token endpoint.
func (p ProviderConfig) TokenURL() string {
	return joinURL(p.BaseURL, p.OAuthTokenPath)
}
