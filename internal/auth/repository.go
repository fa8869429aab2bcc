package auth

import "context"

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, tokenHash string) (*Session, error)
	Delete(ctx context.Context, tokenHash string) error
}

type ProfileRepository interface {
	Get(ctx context.Context, id string) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
}
