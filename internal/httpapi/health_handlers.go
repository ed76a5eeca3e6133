package httpapi

import (
	"context"
	"net/http"
	"time"
)

type HealthHandler struct {
	Deps Deps
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]any{"ok": true, "time": time.Now().UTC().Format(time.RFC3339)}
	if h.Deps.Store != nil {
		if err := h.Deps.Store.Ping(ctx); err != nil {
			body["ok"] = false
			body["store"] = "unreachable"
			WriteJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		body["store"] = "ok"
	}
	writeJSON(w, body)
}
