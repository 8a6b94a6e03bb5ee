// Package store provides a minimal observable-value cell and a composed
// read-only view over several named cells.
package store

import (
	"sync"

	"github.com/klingon-tech/wallet-netctl/internal/log"
)

// Store holds a single value of type S and notifies subscribers whenever
// it changes. Notification order matches subscription order and runs
// synchronously on the calling goroutine, so a panicking subscriber must
// not prevent the rest from running.
type Store[S any] struct {
	mu     sync.Mutex
	value  S
	subs   []subscriber[S]
	nextID uint64
	equal  func(a, b S) bool
}

type subscriber[S any] struct {
	id uint64
	fn func(S)
}

// Unsubscribe removes a subscriber. Calling it more than once is a no-op.
type Unsubscribe func()

// New creates a store with an initial value. equal is used by PutState to
// decide whether the value actually changed; with a nil equal no
// comparison is made and every PutState/UpdateState notifies.
func New[S any](initial S, equal func(a, b S) bool) *Store[S] {
	return &Store[S]{value: initial, equal: equal}
}

// GetState returns the current value.
func (s *Store[S]) GetState() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// PutState replaces the value wholesale and notifies subscribers iff the
// new value differs from the prior one under the store's equality.
func (s *Store[S]) PutState(next S) {
	s.mu.Lock()
	if s.equal != nil && s.equal(s.value, next) {
		s.mu.Unlock()
		return
	}
	s.value = next
	subs := append([]subscriber[S](nil), s.subs...)
	s.mu.Unlock()

	s.notify(subs, next)
}

// UpdateState applies patch to the current value and behaves like
// PutState with the patched result.
func (s *Store[S]) UpdateState(patch func(S) S) {
	s.mu.Lock()
	next := patch(s.value)
	if s.equal != nil && s.equal(s.value, next) {
		s.mu.Unlock()
		return
	}
	s.value = next
	subs := append([]subscriber[S](nil), s.subs...)
	s.mu.Unlock()

	s.notify(subs, next)
}

func (s *Store[S]) notify(subs []subscriber[S], value S) {
	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Store.Warn().Interface("panic", r).Msg("store subscriber panicked")
				}
			}()
			sub.fn(value)
		}()
	}
}

// Subscribe registers fn to be called on every future change, in
// subscription order relative to other subscribers. The returned
// Unsubscribe removes fn.
func (s *Store[S]) Subscribe(fn func(S)) Unsubscribe {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber[S]{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}
