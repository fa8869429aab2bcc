package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

// Service is the identity gate: it completes provider sign-ins,
// maintains the profile documents and resolves session cookies back to
// identities.
type Service struct {
	provider Provider
	sessions SessionRepository
	profiles ProfileRepository
	ttl      time.Duration
}

func NewService(provider Provider, sessions SessionRepository, profiles ProfileRepository, ttl time.Duration) *Service {
	return &Service{
		provider: provider,
		sessions: sessions,
		profiles: profiles,
		ttl:      ttl,
	}
}

func (s *Service) SignInURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CompleteSignIn exchanges the provider code, upserts the profile
// document and opens a session. The returned token goes into the
// cookie; only its hash is stored.
func (s *Service) CompleteSignIn(ctx context.Context, code string) (string, Identity, error) {
	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return "", Identity{}, err
	}

	now := time.Now()
	profile, err := s.profiles.Get(ctx, identity.ID)
	switch {
	case err == nil:
		profile.Email = identity.Email
		profile.DisplayName = identity.DisplayName
		profile.PhotoURL = identity.PhotoURL
		profile.LastLogin = now
	case cerr.IsCode(err, cerr.NotFound) || errors.Is(err, storage.ErrNotFound):
		profile = &Profile{
			ID:          identity.ID,
			Email:       identity.Email,
			DisplayName: identity.DisplayName,
			PhotoURL:    identity.PhotoURL,
			CreatedAt:   now,
			LastLogin:   now,
		}
	default:
		return "", Identity{}, err
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return "", Identity{}, err
	}

	token := uuid.NewString()
	session := &Session{
		TokenHash:  hashToken(token),
		IdentityID: identity.ID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", Identity{}, err
	}
	return token, identity, nil
}

// Resolve maps a session token to its identity. Expired sessions are
// removed on sight.
func (s *Service) Resolve(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, cerr.NewError(cerr.Unauthenticated, "not signed in", nil)
	}
	session, err := s.sessions.Get(ctx, hashToken(token))
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return Identity{}, cerr.NewError(cerr.Unauthenticated, "not signed in", err)
		}
		return Identity{}, err
	}
	if session.Expired(time.Now()) {
		_ = s.sessions.Delete(ctx, session.TokenHash)
		return Identity{}, cerr.NewError(cerr.Unauthenticated, "session expired", nil)
	}

	profile, err := s.profiles.Get(ctx, session.IdentityID)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		ID:          profile.ID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		PhotoURL:    profile.PhotoURL,
	}, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.sessions.Delete(ctx, hashToken(token))
	if err != nil && cerr.IsCode(err, cerr.NotFound) {
		return nil
	}
	return err
}
