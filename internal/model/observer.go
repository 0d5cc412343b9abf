package model

import "github.com/bcnelson/pkg-groups/internal/domain"

// Observer receives store events synchronously.
type Observer func(domain.Event)

type subscription struct {
	id uint64
	fn Observer
}

// observers notifies in registration order.
type observers struct {
	next uint64
	subs []subscription
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	s.observers.next++
	id := s.observers.next
	s.observers.subs = append(s.observers.subs, subscription{id: id, fn: fn})
	return func() {
		subs := s.observers.subs
		for i, sub := range subs {
			if sub.id == id {
				s.observers.subs = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

func (o *observers) notify(ev domain.Event) {
	// Snapshot so an observer may unsubscribe while being notified.
	subs := o.subs
	for _, sub := range subs {
		sub.fn(ev)
	}
}
