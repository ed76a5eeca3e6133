package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"jobfinder-engine/internal/poll"
)

type PollHandler struct {
	Deps Deps
}

func (h PollHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Deps.Poller.Status())
}

// Run starts a poll cycle in the background, or waits for it with ?wait=1.
// A cycle already in flight yields 409.
func (h PollHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Deps.Poller.Status().Running {
		h.Deps.WriteDomainError(w, r, poll.ErrCycleRunning)
		return
	}

	if wait := r.URL.Query().Get("wait"); wait == "1" || wait == "true" {
		sum, err := h.Deps.Poller.RunOnce(r.Context())
		if err != nil {
			h.Deps.WriteDomainError(w, r, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "summary": sum})
		return
	}

	ctx := context.WithoutCancel(r.Context())
	log := h.Deps.log()
	go func() {
		if _, err := h.Deps.Poller.RunOnce(ctx); err != nil {
			log.Warn("manual poll", zap.Error(err))
		}
	}()
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
