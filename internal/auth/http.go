package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/pkg/cerr"
)

const stateCookieName = "taskdeck_oauth_state"

// HTTPHandler exposes the sign-in flow and the middlewares gating the
// dashboard and the API.
type HTTPHandler struct {
	svc        *Service
	cookieName string
	secure     bool
}

func NewHTTPHandler(svc *Service, cookieName string, secure bool) *HTTPHandler {
	return &HTTPHandler{
		svc:        svc,
		cookieName: cookieName,
		secure:     secure,
	}
}

func (h *HTTPHandler) Routes(r chi.Router) {
	r.Get("/auth/sign-in", h.handleSignIn)
	r.Get("/auth/callback", h.handleCallback)
	r.Post("/auth/sign-out", h.handleSignOut)
}

func (h *HTTPHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.svc.SignInURL(state), http.StatusFound)
}

func (h *HTTPHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, stateCookieName)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		slog.WarnContext(r.Context(), "provider rejected sign-in", "reason", errParam)
		http.Redirect(w, r, "/login?error=signin_failed", http.StatusFound)
		return
	}
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		slog.WarnContext(r.Context(), "sign-in state mismatch")
		http.Redirect(w, r, "/login?error=signin_failed", http.StatusFound)
		return
	}

	token, identity, err := h.svc.CompleteSignIn(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		slog.ErrorContext(r.Context(), "sign-in failed", "error", err)
		http.Redirect(w, r, "/login?error=signin_failed", http.StatusFound)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.svc.TTL()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	slog.InfoContext(r.Context(), "signed in", "identity", identity.ID)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (h *HTTPHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context(), h.token(r)); err != nil {
		slog.ErrorContext(r.Context(), "sign-out failed", "error", err)
	}
	h.clearCookie(w, h.cookieName)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *HTTPHandler) token(r *http.Request) string {
	c, err := r.Cookie(h.cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *HTTPHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Identify resolves the session cookie without gating, e.g. for the
// login page redirect when already signed in.
func (h *HTTPHandler) Identify(r *http.Request) (Identity, bool) {
	id, err := h.svc.Resolve(r.Context(), h.token(r))
	if err != nil {
		return Identity{}, false
	}
	return id, true
}

// RequirePage gates an HTML route: unauthenticated requests are
// redirected to the login surface.
func (h *HTTPHandler) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.svc.Resolve(r.Context(), h.token(r))
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// RequireAPI gates a JSON route: unauthenticated requests get a 401
// body through the response receiver.
func (h *HTTPHandler) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.svc.Resolve(r.Context(), h.token(r))
		if err != nil {
			cerr.SetJSONError(r.Context(), err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}
