// internal/handler/changes_handler.go
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/unclebandit/opsboard-backend/internal/model"
	"github.com/unclebandit/opsboard-backend/internal/queue"
)

const defaultHeartbeat = 25 * time.Second

// ChangesHandler streams operation changes of one entity as server-sent events.
// Clients re-fetch the list on every event.
type ChangesHandler struct {
	Queue     queue.Queue
	Heartbeat time.Duration
}

func NewChangesHandler(q queue.Queue) *ChangesHandler {
	return &ChangesHandler{Queue: q, Heartbeat: defaultHeartbeat}
}

func (h *ChangesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entityID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid entity id", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events := make(chan model.OperationChange, 16)
	unsubscribe, err := h.Queue.Subscribe(queue.TopicOperationChanges, func(payload any) error {
		change, err := queue.DecodeChange(payload)
		if err != nil || change.EntityID != entityID {
			return nil
		}
		select {
		case events <- change:
		default:
			log.WithField("entity_id", entityID).Warn("change stream client too slow, dropping event")
		}
		return nil
	})
	if err != nil {
		http.Error(w, "failed to subscribe: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	log.WithField("entity_id", entityID).Debug("change stream opened")

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.WithField("entity_id", entityID).Debug("change stream closed")
			return
		case change := <-events:
			data, err := json.Marshal(change)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
