package credentials

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ExpirySkew is subtracted from the provider-supplied lifetime so a token is
// never handed out moments before the provider stops accepting it.
const ExpirySkew = 30 * time.Second

// credentialSet is the unit the store replaces atomically.
type credentialSet struct {
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func (c credentialSet) empty() bool {
	return c.accessToken == "" && c.refreshToken == ""
}

// Status is a redacted view of the stored credentials.
type Status struct {
	HasAccessToken  bool      `json:"hasAccessToken"`
	HasRefreshToken bool      `json:"hasRefreshToken"`
	ExpiresAt       time.Time `json:"expiresAt,omitzero"`
	Expired         bool      `json:"expired"`
}

type persister interface {
	load() (*credentialSet, error)
	save(credentialSet) error
}

// Store is the single source of truth for the current OAuth credentials.
// Reads share a read lock; SetCredentials and Clear replace the whole set
// under the write lock, so a reader never observes a mix of old and new fields.
type Store struct {
	mu    sync.RWMutex
	creds credentialSet
	gen   uint64

	saveMu sync.Mutex
	saved  uint64

	persist persister
	seed    string
	now     func() time.Time
	logger  *zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRefreshToken seeds a refresh token when nothing else is stored, so the
// first request refreshes instead of failing.
func WithRefreshToken(token string) Option {
	return func(s *Store) { s.seed = token }
}

// WithFile persists every credential change to a JSON file at path and loads
// it when the store is created.
func WithFile(path string) Option {
	return func(s *Store) { s.persist = &filePersister{path: path} }
}

// NewStore creates a credential store.
func NewStore(opts ...Option) *Store {
	nop := zerolog.Nop()
	s := &Store{
		now:    time.Now,
		logger: &nop,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.persist != nil {
		loaded, err := s.persist.load()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to load stored credentials")
		} else if loaded != nil {
			s.creds = *loaded
		}
	}

	if s.creds.refreshToken == "" && s.seed != "" {
		s.creds.refreshToken = s.seed
	}

	return s
}

// AccessToken returns the cached access token. It reports false when no token
// is stored or the stored one has expired.
func (s *Store) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.creds.accessToken == "" || s.expiredLocked() {
		return "", false
	}
	return s.creds.accessToken, true
}

// RefreshToken returns the cached refresh token.
func (s *Store) RefreshToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.creds.refreshToken, s.creds.refreshToken != ""
}

// SetCredentials replaces the access token, refresh token and expiry as one
// unit. A ttl of zero or less stores the token without an expiry marker.
func (s *Store) SetCredentials(accessToken, refreshToken string, ttl time.Duration) {
	next := credentialSet{
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
	if ttl > 0 {
		if ttl > 2*ExpirySkew {
			ttl -= ExpirySkew
		}
		next.expiresAt = s.now().Add(ttl)
	}
	s.replace(next)
}

// Clear drops every stored credential.
func (s *Store) Clear() {
	s.replace(credentialSet{})
}

// Status reports what the store holds without exposing token material.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		HasAccessToken:  s.creds.accessToken != "",
		HasRefreshToken: s.creds.refreshToken != "",
		ExpiresAt:       s.creds.expiresAt,
		Expired:         s.creds.accessToken != "" && s.expiredLocked(),
	}
}

func (s *Store) expiredLocked() bool {
	return !s.creds.expiresAt.IsZero() && !s.now().Before(s.creds.expiresAt)
}

func (s *Store) snapshot() credentialSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

func (s *Store) replace(next credentialSet) {
	s.mu.Lock()
	s.creds = next
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.persistSnapshot(gen, next)
}

// persistSnapshot writes outside the credential lock. Generations keep a slow
// writer from overwriting a newer snapshot with an older one.
func (s *Store) persistSnapshot(gen uint64, creds credentialSet) {
	if s.persist == nil {
		return
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if gen <= s.saved {
		return
	}
	if err := s.persist.save(creds); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist credentials")
		return
	}
	s.saved = gen
}
