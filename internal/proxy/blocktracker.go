package proxy

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/klingon-tech/wallet-netctl/internal/clientfactory"
)

// EventFilter controls which subscriptions an event-emitter proxy
// re-binds across a SetTarget.
type EventFilter int

const (
	// FilterNone re-binds every subscription across a swap.
	FilterNone EventFilter = iota
	// FilterSkipInternal excludes subscriptions to events whose name
	// begins with an underscore from the rebind ledger — these are
	// target-private lifecycle signals, not consumer-facing events.
	FilterSkipInternal
)

// BlockTracker is the event-emitter flavor of the swappable proxy: in
// addition to forwarding Start/Stop to the current target, every
// listener registered through the proxy is transparently
// re-registered on a new target and deregistered from the old one when
// SetTarget is called. A subscriber holding a reference to the proxy
// acquired before a swap keeps receiving events from the new target
// afterward, and never receives duplicate events from the old one.
type BlockTracker struct {
	target atomic.Pointer[clientfactory.BlockTracker]
	filter EventFilter

	mu     sync.Mutex
	ledger []*ledgerEntry
	nextID uint64
}

type ledgerEntry struct {
	id         uint64
	event      string
	fn         func(string)
	unregister func() // detaches fn from whichever target it's currently bound to
}

// NewBlockTracker creates a block tracker proxy around target, which may
// be nil.
func NewBlockTracker(target clientfactory.BlockTracker, filter EventFilter) *BlockTracker {
	p := &BlockTracker{filter: filter}
	if target != nil {
		p.target.Store(&target)
	}
	return p
}

// Start forwards to the current target.
func (p *BlockTracker) Start() {
	if t := p.current(); t != nil {
		t.Start()
	}
}

// Stop forwards to the current target.
func (p *BlockTracker) Stop() {
	if t := p.current(); t != nil {
		t.Stop()
	}
}

// On registers fn for event against the current target. Unless event is
// internal and the proxy was built with FilterSkipInternal, the
// subscription is ledgered so it survives a SetTarget.
func (p *BlockTracker) On(event string, fn func(arg string)) func() {
	internal := strings.HasPrefix(event, "_")
	skip := internal && p.filter == FilterSkipInternal

	t := p.current()
	var unregister func()
	if t != nil {
		unregister = t.On(event, fn)
	} else {
		unregister = func() {}
	}

	if skip {
		return unregister
	}

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	entry := &ledgerEntry{id: id, event: event, fn: fn, unregister: unregister}
	p.ledger = append(p.ledger, entry)
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		for i, e := range p.ledger {
			if e.id == id {
				p.ledger = append(p.ledger[:i], p.ledger[i+1:]...)
				break
			}
		}
		p.mu.Unlock()
		entry.unregister()
	}
}

// SetTarget atomically retargets the proxy. Every ledgered subscription
// is detached from the old target and re-registered on the new one, in
// its original registration order. The proxy owns the tracked target's
// start/stop lifecycle: the prior target is stopped (its polling
// goroutine torn down) before the new one is installed. The caller is
// still responsible for calling Start on the proxy after SetTarget if
// polling should resume.
func (p *BlockTracker) SetTarget(target clientfactory.BlockTracker) {
	p.mu.Lock()
	entries := append([]*ledgerEntry(nil), p.ledger...)
	p.mu.Unlock()

	for _, e := range entries {
		e.unregister()
	}

	if old := p.current(); old != nil {
		old.Stop()
	}

	if target != nil {
		p.target.Store(&target)
	} else {
		p.target.Store(nil)
	}

	for _, e := range entries {
		if target != nil {
			e.unregister = target.On(e.event, e.fn)
		} else {
			e.unregister = func() {}
		}
	}
}

func (p *BlockTracker) current() clientfactory.BlockTracker {
	t := p.target.Load()
	if t == nil {
		return nil
	}
	return *t
}
