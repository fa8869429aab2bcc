package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/pkg/cerr"
)

type fakeProvider struct {
	identity Identity
	err      error
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.example.com/auth?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, _ string) (Identity, error) {
	return p.identity, p.err
}

type memSessions struct {
	sessions map[string]*Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]*Session)}
}

func (m *memSessions) Create(_ context.Context, s *Session) error {
	m.sessions[s.TokenHash] = s
	return nil
}

func (m *memSessions) Get(_ context.Context, tokenHash string) (*Session, error) {
	s, ok := m.sessions[tokenHash]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "session not found", nil)
	}
	return s, nil
}

func (m *memSessions) Delete(_ context.Context, tokenHash string) error {
	if _, ok := m.sessions[tokenHash]; !ok {
		return cerr.NewError(cerr.NotFound, "session not found", nil)
	}
	delete(m.sessions, tokenHash)
	return nil
}

type memProfiles struct {
	profiles map[string]*Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{profiles: make(map[string]*Profile)}
}

func (m *memProfiles) Get(_ context.Context, id string) (*Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "profile not found", nil)
	}
	return p, nil
}

func (m *memProfiles) Upsert(_ context.Context, p *Profile) error {
	m.profiles[p.ID] = p
	return nil
}

func newTestService(ttl time.Duration) (*Service, *memSessions, *memProfiles) {
	provider := &fakeProvider{identity: Identity{
		ID:          "g-123",
		Email:       "alice@example.com",
		DisplayName: "Alice",
	}}
	sessions := newMemSessions()
	profiles := newMemProfiles()
	return NewService(provider, sessions, profiles, ttl), sessions, profiles
}

func TestCompleteSignIn(t *testing.T) {
	ctx := context.Background()
	svc, sessions, profiles := newTestService(time.Hour)

	token, identity, err := svc.CompleteSignIn(ctx, "code")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "g-123", identity.ID)

	// First sign-in materializes the profile document.
	profile, ok := profiles.profiles["g-123"]
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, profile.CreatedAt, profile.LastLogin)

	// The raw token is never stored.
	_, raw := sessions.sessions[token]
	assert.False(t, raw)
	assert.Len(t, sessions.sessions, 1)
}

func TestCompleteSignInRefreshesProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, profiles := newTestService(time.Hour)

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	profiles.profiles["g-123"] = &Profile{
		ID:          "g-123",
		Email:       "old@example.com",
		DisplayName: "Old Name",
		CreatedAt:   created,
		LastLogin:   created,
	}

	_, _, err := svc.CompleteSignIn(ctx, "code")
	require.NoError(t, err)

	profile := profiles.profiles["g-123"]
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "Alice", profile.DisplayName)
	assert.Equal(t, created, profile.CreatedAt)
	assert.True(t, profile.LastLogin.After(created))
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(time.Hour)

	token, _, err := svc.CompleteSignIn(ctx, "code")
	require.NoError(t, err)

	identity, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "g-123", identity.ID)

	_, err = svc.Resolve(ctx, "")
	assert.True(t, cerr.IsCode(err, cerr.Unauthenticated))

	_, err = svc.Resolve(ctx, "bogus")
	assert.True(t, cerr.IsCode(err, cerr.Unauthenticated))
}

func TestResolveExpiredSession(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _ := newTestService(-time.Minute)

	token, _, err := svc.CompleteSignIn(ctx, "code")
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, token)
	assert.True(t, cerr.IsCode(err, cerr.Unauthenticated))
	// Expired sessions are removed on sight.
	assert.Empty(t, sessions.sessions)
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _ := newTestService(time.Hour)

	token, _, err := svc.CompleteSignIn(ctx, "code")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, token))
	assert.Empty(t, sessions.sessions)

	// Signing out an unknown or empty token is not an error.
	require.NoError(t, svc.SignOut(ctx, token))
	require.NoError(t, svc.SignOut(ctx, ""))
}
