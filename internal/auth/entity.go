package auth

import "time"

// Identity is the resolved third-party identity of the current user.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

// Profile is the persisted counterpart of an Identity, materialized on
// first sign-in and refreshed on every subsequent one.
type Profile struct {
	ID          string    `yaml:"id"`
	Email       string    `yaml:"email"`
	DisplayName string    `yaml:"display_name"`
	PhotoURL    string    `yaml:"photo_url,omitempty"`
	CreatedAt   time.Time `yaml:"created_at"`
	LastLogin   time.Time `yaml:"last_login"`
}

// Session ties a browser cookie to an identity. Only the SHA-256 hash
// of the token is stored.
type Session struct {
	TokenHash  string    `yaml:"token_hash"`
	IdentityID string    `yaml:"identity_id"`
	CreatedAt  time.Time `yaml:"created_at"`
	ExpiresAt  time.Time `yaml:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
