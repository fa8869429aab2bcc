package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/section"
	"github.com/taskdeck/taskdeck/internal/selection"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/internal/taskstore"
)

// Pages serves the two addressable views, login and dashboard, plus
// the dashboard's form posts. Form posts wait for the gateway to
// resolve before redirecting, for creates and edits alike.
type Pages struct {
	stores     *taskstore.Manager
	selections *selections
	gate       *auth.HTTPHandler
}

func NewPages(stores *taskstore.Manager, selections *selections, gate *auth.HTTPHandler) *Pages {
	return &Pages{
		stores:     stores,
		selections: selections,
		gate:       gate,
	}
}

var pageErrors = map[string]string{
	"signin_failed": "Sign-in failed. Please try again.",
	"create_failed": "Could not create the task. Please try again.",
	"update_failed": "Could not update the task. Please try again.",
	"load_failed":   "Could not load your tasks. Showing the last known state.",
}

func errorMessage(r *http.Request) string {
	return pageErrors[r.URL.Query().Get("error")]
}

func (p *Pages) Routes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	r.Get("/login", p.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(p.gate.RequirePage)
		r.Get("/dashboard", p.handleDashboard)
		r.Get("/tasks/{id}/edit", p.handleEditPage)
		r.Post("/tasks", p.handleCreateTask)
		r.Post("/tasks/{id}", p.handleUpdateTask)
		r.Post("/tasks/{id}/status", p.handleToggleStatus)
		r.Post("/selection/{id}", p.handleToggleSelection)
	})
}

type loginData struct {
	Error string
}

func (p *Pages) handleLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.gate.Identify(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	p.render(w, r, "login.html", loginData{Error: errorMessage(r)})
}

type dashboardData struct {
	Identity auth.Identity
	Sections []section.Section
	Selected *selection.Set
	Board    bool
	Error    string
}

func (p *Pages) handleDashboard(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	store := p.stores.For(identity.ID)

	msg := errorMessage(r)
	if err := store.EnsureFresh(r.Context()); err != nil {
		// The previous collection is still rendered below.
		slog.ErrorContext(r.Context(), "failed to load tasks", "error", err)
		if msg == "" {
			msg = pageErrors["load_failed"]
		}
	}

	p.render(w, r, "dashboard.html", dashboardData{
		Identity: identity,
		Sections: section.Partition(store.Snapshot()),
		Selected: p.selections.For(identity.ID),
		Board:    r.URL.Query().Get("view") == "board",
		Error:    msg,
	})
}

type editData struct {
	Task task.Task
}

func (p *Pages) handleEditPage(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	store := p.stores.For(identity.ID)

	if err := store.EnsureFresh(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "failed to load tasks", "error", err)
		http.Redirect(w, r, "/dashboard?error=load_failed", http.StatusSeeOther)
		return
	}
	rec, ok := store.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	p.render(w, r, "edit.html", editData{Task: rec})
}

func (p *Pages) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	store := p.stores.For(identity.ID)

	draft, att, err := task.ParseCreateForm(r, identity.ID)
	if err == nil {
		_, err = store.Create(r.Context(), draft, att)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create task", "error", err)
		http.Redirect(w, r, "/dashboard?error=create_failed", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (p *Pages) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	store := p.stores.For(identity.ID)

	existing, ok := store.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Redirect(w, r, "/dashboard?error=update_failed", http.StatusSeeOther)
		return
	}

	rec, att, err := task.ParseEditForm(r, existing)
	if err == nil {
		_, err = store.Update(r.Context(), rec, att)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to update task", "error", err)
		http.Redirect(w, r, "/dashboard?error=update_failed", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (p *Pages) handleToggleStatus(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	store := p.stores.For(identity.ID)

	existing, ok := store.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Redirect(w, r, "/dashboard?error=update_failed", http.StatusSeeOther)
		return
	}
	status := task.Status(r.FormValue("status"))
	if !status.Valid() {
		http.Redirect(w, r, "/dashboard?error=update_failed", http.StatusSeeOther)
		return
	}

	existing.Status = status
	if _, err := store.Update(r.Context(), existing, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to change status", "error", err)
		http.Redirect(w, r, "/dashboard?error=update_failed", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (p *Pages) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	p.selections.For(identity.ID).Toggle(chi.URLParam(r, "id"))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "failed to render page", "template", name, "error", err)
	}
}
