package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bcnelson/pkg-groups/internal/domain"
)

// Notification is a store event as delivered to subscribers.
type Notification struct {
	ID    string       `json:"id"`
	Time  time.Time    `json:"time"`
	Event domain.Event `json:"event"`
}

// Hub fans store events out to subscribers over buffered channels. A
// subscriber whose buffer is full misses the event; Publish never blocks.
type Hub struct {
	mu     sync.Mutex
	buffer int
	next   uint64
	subs   map[uint64]chan Notification
	closed bool
	onDrop func()
}

// NewHub creates a hub whose subscriber channels hold buffer notifications.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		buffer: buffer,
		subs:   make(map[uint64]chan Notification),
	}
}

// Subscribe returns a channel of notifications and a function that removes
// the subscription and closes the channel.
func (h *Hub) Subscribe() (<-chan Notification, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Notification, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.next++
	id := h.next
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}

// Publish wraps ev in a notification and offers it to every subscriber.
func (h *Hub) Publish(ev domain.Event) Notification {
	n := Notification{
		ID:    uuid.New().String(),
		Time:  time.Now().UTC(),
		Event: ev,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
			if h.onDrop != nil {
				h.onDrop()
			}
		}
	}
	return n
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel. Later subscriptions receive an
// already closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
