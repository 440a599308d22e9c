package notify

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when subscribing to a closed hub
var ErrClosed = errors.New("notification hub closed")

const subscriberBuffer = 16

type subscriber struct {
	ch     chan Event
	filter Filter
}

// Hub fans events out to in-process subscribers.
// A subscriber that is not keeping up misses events rather than blocking publishers.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Publish delivers e to every matching subscriber without blocking
func (h *Hub) Publish(ctx context.Context, e Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if !sub.filter.Match(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
		}
	}
	return nil
}

// Subscribe registers a filtered subscription that ends when ctx is done or Close is called
func (h *Hub) Subscribe(ctx context.Context, f Filter) (*Subscription, error) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer), filter: f}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	s := &Subscription{C: sub.ch}
	s.cancel = func() {
		close(done)
		h.remove(sub)
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-done:
		}
	}()
	return s, nil
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

// Subscribers returns the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
}
