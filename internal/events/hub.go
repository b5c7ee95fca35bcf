package events

import "sync"

// Hub fans encoded events out to SSE clients. A slow client drops
// messages rather than blocking the pipeline.
type Hub struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]struct{})}
}

func (h *Hub) Subscribe() chan string {
	ch := make(chan string, 10)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Publish(evt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}

// AsSubscriber bridges the typed bus onto the hub's SSE wire format.
func (h *Hub) AsSubscriber() Subscriber {
	return SubscriberFunc(func(e Event) error {
		h.Publish(e.Encode())
		return nil
	})
}
