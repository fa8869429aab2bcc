package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/eventbus"
)

const eventBufferSize = 16

// Events streams task change notifications over server-sent events.
// It writes the response body incrementally, so it is mounted outside
// the JSON response middleware and checks the session itself.
type Events struct {
	bus  *eventbus.Bus
	gate *auth.HTTPHandler
}

func NewEvents(bus *eventbus.Bus, gate *auth.HTTPHandler) *Events {
	return &Events{bus: bus, gate: gate}
}

func (e *Events) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := e.gate.Identify(r)
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	id, ch := e.bus.Subscribe(eventBufferSize)
	defer e.bus.Unsubscribe(id)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			// Broadcast events carry no owner and go to everyone.
			if event.OwnerID != "" && event.OwnerID != identity.ID {
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to encode event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}
