package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"repairhub-backend/internal/bus"
	"repairhub-backend/internal/service"
)

// StreamHandler serves the change feed over SSE. Clients subscribe to a topic
// and re-fetch the corresponding list whenever an event arrives.
type StreamHandler struct {
	Bus *bus.Bus
}

func (h StreamHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stream", h.stream)
}

func validTopic(topic string) bool {
	switch topic {
	case service.TopicOrders, service.TopicRequests, service.TopicParts, service.TopicNotifications:
		return true
	}
	return false
}

func (h StreamHandler) stream(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if !validTopic(topic) {
		writeError(w, http.StatusBadRequest, "unknown topic")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := h.Bus.Subscribe(topic)
	defer cancel()

	// Heartbeat keeps proxies from closing idle streams.
	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Action, payload)
			flusher.Flush()
		}
	}
}
