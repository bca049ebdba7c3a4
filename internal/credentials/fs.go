package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

type fsAuth struct {
	Tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresAt    int64  `json:"expiresAt,omitempty"`
	} `json:"tokens"`
}

// filePersister keeps the credential set in a JSON file readable only by the
// current user.
type filePersister struct {
	path string
}

func (f *filePersister) load() (*credentialSet, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var a fsAuth
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	creds := &credentialSet{
		accessToken:  a.Tokens.AccessToken,
		refreshToken: a.Tokens.RefreshToken,
	}
	if a.Tokens.ExpiresAt > 0 {
		creds.expiresAt = time.UnixMilli(a.Tokens.ExpiresAt)
	}
	if creds.empty() {
		return nil, nil
	}
	return creds, nil
}

func (f *filePersister) save(creds credentialSet) error {
	if creds.empty() {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove credentials file: %w", err)
		}
		return nil
	}

	var a fsAuth
	a.Tokens.AccessToken = creds.accessToken
	a.Tokens.RefreshToken = creds.refreshToken
	if !creds.expiresAt.IsZero() {
		a.Tokens.ExpiresAt = creds.expiresAt.UnixMilli()
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := EnsureParentDir(f.path); err != nil {
		return err
	}

	// Write then rename so a crash never leaves a truncated file behind.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}

	return nil
}
