package notify

import (
	"context"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/events"
)

// Hub publishes notifications to SSE subscribers of the owning user.
type Hub struct {
	hub *events.Hub
}

func NewHub(h *events.Hub) *Hub { return &Hub{hub: h} }

func (h *Hub) Notify(_ context.Context, n domain.Notification) error {
	h.hub.PublishTo(n.UserID, events.MakeEvent("", events.TypeJobNotified, n.UserID, NewMessage(n)))
	return nil
}
