package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taskdeck/taskdeck/internal/attachment"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/section"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/internal/taskstore"
	"github.com/taskdeck/taskdeck/pkg/cerr"
)

// API serves the JSON surface of the dashboard. Handlers run under the
// response receiver middleware and the identity gate, so they only set
// responses and errors on the context.
type API struct {
	stores     *taskstore.Manager
	selections *selections
}

func NewAPI(stores *taskstore.Manager, selections *selections) *API {
	return &API{
		stores:     stores,
		selections: selections,
	}
}

func (a *API) Routes(r chi.Router) {
	r.Get("/tasks", a.handleListTasks)
	r.Post("/tasks", a.handleCreateTask)
	r.Post("/tasks/reload", a.handleReload)
	r.Put("/tasks/{id}", a.handleUpdateTask)
	r.Patch("/tasks/{id}/status", a.handleSetStatus)
	r.Get("/sections", a.handleSections)
	r.Get("/selection", a.handleListSelection)
	r.Post("/selection/{id}", a.handleToggleSelection)
}

func (a *API) store(r *http.Request) (*taskstore.Store, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		cerr.SetNewJSONError(r.Context(), cerr.Unauthenticated, "not signed in", nil)
		return nil, false
	}
	return a.stores.For(identity.ID), true
}

type taskListResponse struct {
	Tasks []task.Task `json:"tasks"`
}

func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	store, ok := a.store(r)
	if !ok {
		return
	}
	if err := store.EnsureFresh(r.Context()); err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), taskListResponse{Tasks: store.Snapshot()})
}

func (a *API) handleReload(w http.ResponseWriter, r *http.Request) {
	store, ok := a.store(r)
	if !ok {
		return
	}
	if err := store.Load(r.Context()); err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), taskListResponse{Tasks: store.Snapshot()})
}

type sectionsResponse struct {
	Sections []section.Section `json:"sections"`
}

func (a *API) handleSections(w http.ResponseWriter, r *http.Request) {
	store, ok := a.store(r)
	if !ok {
		return
	}
	if err := store.EnsureFresh(r.Context()); err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), sectionsResponse{Sections: section.Partition(store.Snapshot())})
}

type taskPayload struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    task.Category `json:"category"`
	Status      task.Status   `json:"status"`
	DueDate     time.Time     `json:"dueDate"`
}

// handleCreateTask accepts either a JSON payload or a multipart form
// with an optional attachment. It responds with the persisted record
// once the gateway has resolved.
func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	store, ok := a.store(r)
	if !ok {
		return
	}

	var (
		draft task.Draft
		att   *attachment.Upload
	)
	if isForm(r) {
		d, up, err := task.ParseCreateForm(r, store.OwnerID())
		if err != nil {
			cerr.SetJSONError(r.Context(), err)
			return
		}
		draft, att = d, up
	} else {
		var p taskPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, "malformed request body", err)
			return
		}
		draft = task.Draft{
			OwnerID:     store.OwnerID(),
			Title:       strings.TrimSpace(p.Title),
			Description: p.Description,
			Category:    p.Category,
			Status:      p.Status,
			DueDate:     p.DueDate,
		}
		if draft.Category == "" {
			draft.Category = task.CategoryWork
		}
		if draft.Status == "" {
			draft.Status = task.StatusTodo
		}
	}

	created, err := store.Create(r.Context(), draft, att)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), created)
}

// handleUpdateTask edits the record with the given ID. The cached
// record is the base; the payload overwrites the editable fields.
func (a *API) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	store, ok := a.store(r)
	if !ok {
		return
	}
	if err := store.EnsureFresh(r.Context()); err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}

	existing, ok := store.Get(chi.URLParam(r, "id"))
	if !ok {
		cerr.SetNewJSONError(r.Context(), cerr.NotFound, "task not found", nil)
		return
	}

	var (
		rec task.Task
		att *attachment.Upload
	)
	if isForm(r) {
		edited, up, err := task.ParseEditForm(r, existing)
		if err != nil {
			cerr.SetJSONError(r.Context(), err)
			return
		}
		rec, att = edited, up
	} else {
		var p taskPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, "malformed request body", err)
			return
		}
		rec = existing
		rec.Title = strings.TrimSpace(p.Title)
		rec.Description = p.Description
		if p.Category != "" {
			rec.Category = p.Category
		}
		if p.Status != "" {
			rec.Status = p.Status
		}
		if !p.DueDate.IsZero() {
			rec.DueDate = p.DueDate
		}
	}

	updated, err := store.Update(r.Context(), rec, att)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), updated)
}

type statusPayload struct {
	Status task.Status `json:"status"`
}

// handleSetStatus moves a task to any of the three statuses; there is
// no enforced transition order.
func (a *API) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	store, ok := a.store(r)
	if !ok {
		return
	}
	if err := store.EnsureFresh(r.Context()); err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}

	existing, ok := store.Get(chi.URLParam(r, "id"))
	if !ok {
		cerr.SetNewJSONError(r.Context(), cerr.NotFound, "task not found", nil)
		return
	}

	var p statusPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, "malformed request body", err)
		return
	}
	if !p.Status.Valid() {
		cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, fmt.Sprintf("unknown status %q", p.Status), nil)
		return
	}

	existing.Status = p.Status
	updated, err := store.Update(r.Context(), existing, nil)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), updated)
}

type selectionResponse struct {
	IDs []string `json:"ids"`
}

func (a *API) handleListSelection(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		cerr.SetNewJSONError(r.Context(), cerr.Unauthenticated, "not signed in", nil)
		return
	}
	cerr.SetJSONResponse(r.Context(), selectionResponse{IDs: a.selections.For(identity.ID).IDs()})
}

type toggleResponse struct {
	ID       string `json:"id"`
	Selected bool   `json:"selected"`
}

func (a *API) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		cerr.SetNewJSONError(r.Context(), cerr.Unauthenticated, "not signed in", nil)
		return
	}
	id := chi.URLParam(r, "id")
	selected := a.selections.For(identity.ID).Toggle(id)
	cerr.SetJSONResponse(r.Context(), toggleResponse{ID: id, Selected: selected})
}

func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "multipart/form-data") || strings.HasPrefix(ct, "application/x-www-form-urlencoded")
}
