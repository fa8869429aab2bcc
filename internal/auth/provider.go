package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/taskdeck/taskdeck/pkg/cerr"
)

// Provider is the third-party identity provider the login surface
// delegates to.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider implements Provider against Google's OAuth2 endpoints.
type GoogleProvider struct {
	cfg *oauth2.Config
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return Identity{}, cerr.NewError(cerr.Unauthenticated, "sign-in failed", err)
	}

	resp, err := p.cfg.Client(ctx, token).Get(googleUserinfoURL)
	if err != nil {
		return Identity{}, cerr.NewError(cerr.Unavailable, "identity provider unavailable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Identity{}, cerr.NewError(cerr.Unauthenticated, "sign-in failed",
			fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body))
	}

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Identity{}, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to decode userinfo: %w", err))
	}
	if info.ID == "" {
		return Identity{}, cerr.NewError(cerr.Unauthenticated, "sign-in failed", fmt.Errorf("userinfo without subject"))
	}
	return Identity{
		ID:          info.ID,
		Email:       info.Email,
		DisplayName: info.Name,
		PhotoURL:    info.Picture,
	}, nil
}
