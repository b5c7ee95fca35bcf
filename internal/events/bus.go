package events

import (
	"log"
	"sync"
)

// Subscriber receives events. Returning an error unsubscribes the
// subscriber; it is never called again.
type Subscriber interface {
	OnEvent(Event) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(Event) error

func (f SubscriberFunc) OnEvent(e Event) error { return f(e) }

// Bus delivers events synchronously to subscribers in registration order.
// Publishers are serialized, so per-subscriber ordering matches emission
// order.
type Bus struct {
	mu   sync.Mutex
	subs []*busEntry
	next int
}

type busEntry struct {
	id  int
	sub Subscriber
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers s and returns a function that removes it.
func (b *Bus) Subscribe(s Subscriber) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.subs = append(b.subs, &busEntry{id: id, sub: s})
	return func() { b.remove(id) }
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.subs {
		if e.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every subscriber in order. A subscriber that
// returns an error is dropped so it cannot wedge the others.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.subs[:0]
	for _, entry := range b.subs {
		if err := entry.sub.OnEvent(e); err != nil {
			log.Printf("[events] subscriber dropped after error: %v", err)
			continue
		}
		kept = append(kept, entry)
	}
	b.subs = kept
}
