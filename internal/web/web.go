package web

import (
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/eventbus"
	"github.com/taskdeck/taskdeck/internal/taskstore"
)

// Handlers bundles the page, API and event handlers around a shared
// per-owner selection registry.
type Handlers struct {
	Pages  *Pages
	API    *API
	Events *Events
}

func NewHandlers(stores *taskstore.Manager, bus *eventbus.Bus, gate *auth.HTTPHandler) *Handlers {
	selections := newSelections()
	return &Handlers{
		Pages:  NewPages(stores, selections, gate),
		API:    NewAPI(stores, selections),
		Events: NewEvents(bus, gate),
	}
}
