package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"jobfinder-engine/internal/events"
)

type EventsHandler struct {
	Hub *events.Hub
}

// ServeSSE streams hub events. ?user_id= narrows the stream to one user's
// notifications plus broadcasts.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			WriteError(w, r, http.StatusBadRequest, "invalid_input", "invalid user_id")
			return
		}
		userID = v
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Hub.Subscribe(userID)
	defer h.Hub.Unsubscribe(ch)

	reqID := RequestIDFrom(r.Context())
	ping := events.MakeEvent(reqID, "ping", userID, nil)
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", ping)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
