package events

import "sync"

// Hub fans events out to SSE subscribers. A subscriber registered with a
// non-zero user id only receives that user's events and broadcasts.
type Hub struct {
	mu      sync.Mutex
	clients map[chan string]int64
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]int64)}
}

func (h *Hub) Subscribe(userID int64) chan string {
	ch := make(chan string, 10)
	h.mu.Lock()
	h.clients[ch] = userID
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish delivers evt to every subscriber.
func (h *Hub) Publish(evt string) {
	h.PublishTo(0, evt)
}

// PublishTo delivers evt to subscribers of userID and to unfiltered ones.
// A zero userID is a broadcast.
func (h *Hub) PublishTo(userID int64, evt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, filter := range h.clients {
		if userID != 0 && filter != 0 && filter != userID {
			continue
		}
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
