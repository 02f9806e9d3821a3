package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/terminal/internal/ws"
)

// EventsHandler fans the upstream order feed out to UI listeners over
// server-sent events.
type EventsHandler struct {
	mu   sync.Mutex
	subs map[chan ws.Event]bool
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler() *EventsHandler {
	return &EventsHandler{subs: make(map[chan ws.Event]bool)}
}

// RegisterRoutes registers the event stream endpoint.
func (h *EventsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.Stream)
}

// Publish forwards one order-feed event to every connected listener.
// Slow listeners are skipped, not waited on.
func (h *EventsHandler) Publish(event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub <- event:
		default:
		}
	}
}

// Stream handles GET /events as a server-sent event stream.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	sub := make(chan ws.Event, 16)
	h.mu.Lock()
	h.subs[sub] = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	slog.Debug("event stream listener connected")
	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-sub:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Payload)
			flusher.Flush()
		}
	}
}
