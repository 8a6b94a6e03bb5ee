// Package eventbus provides a small, restricted publish/subscribe bus.
// The network controller publishes four parameterless events on a bus
// handed to it at construction (never a package-level singleton).
package eventbus

import (
	"sync"

	"github.com/klingon-tech/wallet-netctl/internal/log"
)

// Bus is a namespaced, synchronous pub/sub bus. Subscribers for an event
// are invoked in subscription order, on the publishing goroutine, so a
// controller's publish-then-mutate sequencing is observable by
// subscribers in the order it actually happened.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]subscriber
	next uint64
}

type subscriber struct {
	id uint64
	fn func()
}

// Handle identifies a single subscription so it can be removed later.
type Handle struct {
	event string
	id    uint64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]subscriber)}
}

// Subscribe registers fn to run every time eventName is published.
func (b *Bus) Subscribe(eventName string, fn func()) Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[eventName] = append(b.subs[eventName], subscriber{id: id, fn: fn})
	return Handle{event: eventName, id: id}
}

// Unsubscribe removes the subscription identified by h. Safe to call
// more than once.
func (b *Bus) Unsubscribe(h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[h.event]
	for i, s := range list {
		if s.id == h.id {
			b.subs[h.event] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Publish invokes every subscriber of eventName, in subscription order,
// synchronously. A panicking subscriber is logged and does not prevent
// the remaining subscribers from running.
func (b *Bus) Publish(eventName string) {
	b.mu.Lock()
	list := append([]subscriber(nil), b.subs[eventName]...)
	b.mu.Unlock()

	for _, s := range list {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Bus.Warn().Str("event", eventName).Interface("panic", r).Msg("subscriber panicked")
				}
			}()
			s.fn()
		}()
	}
}
