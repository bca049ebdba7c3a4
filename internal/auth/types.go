package auth

import "time"

// TokenResponse represents the OAuth token endpoint response
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

// TTL returns the access token lifetime announced by the provider
func (r *TokenResponse) TTL() time.Duration {
	return time.Duration(r.ExpiresIn) * time.Second
}
