package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

const (
	sessionsPrefix = "sessions"
	usersPrefix    = "users"
)

type SessionYAMLRepository struct {
	storage storage.Storage
}

func NewSessionYAMLRepository(s storage.Storage) *SessionYAMLRepository {
	return &SessionYAMLRepository{storage: s}
}

func sessionPath(tokenHash string) string {
	return fmt.Sprintf("%s/%s.yaml", sessionsPrefix, tokenHash)
}

func (r *SessionYAMLRepository) Create(ctx context.Context, s *auth.Session) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal session: %w", err))
	}
	if err := r.storage.Write(ctx, sessionPath(s.TokenHash), data); err != nil {
		return cerr.WrapStorageWriteError("session", err)
	}
	return nil
}

func (r *SessionYAMLRepository) Get(ctx context.Context, tokenHash string) (*auth.Session, error) {
	data, err := r.storage.Read(ctx, sessionPath(tokenHash))
	if err != nil {
		return nil, cerr.WrapStorageReadError("session", err)
	}
	var s auth.Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal session: %w", err))
	}
	return &s, nil
}

func (r *SessionYAMLRepository) Delete(ctx context.Context, tokenHash string) error {
	if err := r.storage.Delete(ctx, sessionPath(tokenHash)); err != nil {
		return cerr.WrapStorageDeleteError("session", err)
	}
	return nil
}

type ProfileYAMLRepository struct {
	storage storage.Storage
}

func NewProfileYAMLRepository(s storage.Storage) *ProfileYAMLRepository {
	return &ProfileYAMLRepository{storage: s}
}

func profilePath(id string) string {
	return fmt.Sprintf("%s/%s.yaml", usersPrefix, id)
}

func (r *ProfileYAMLRepository) Get(ctx context.Context, id string) (*auth.Profile, error) {
	data, err := r.storage.Read(ctx, profilePath(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("profile", err)
	}
	var p auth.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal profile: %w", err))
	}
	return &p, nil
}

func (r *ProfileYAMLRepository) Upsert(ctx context.Context, p *auth.Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal profile: %w", err))
	}
	if err := r.storage.Write(ctx, profilePath(p.ID), data); err != nil {
		return cerr.WrapStorageWriteError("profile", err)
	}
	return nil
}
