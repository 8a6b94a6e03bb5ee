package proxy

import (
	"testing"

	"github.com/klingon-tech/wallet-netctl/internal/clientfactory"
)

type stubTracker struct {
	started   bool
	stopped   bool
	listeners map[string]map[int]func(string)
	nextID    int
}

func newStubTracker() *stubTracker {
	return &stubTracker{listeners: make(map[string]map[int]func(string))}
}

func (s *stubTracker) Start() { s.started = true }
func (s *stubTracker) Stop()  { s.stopped = true }

func (s *stubTracker) On(event string, fn func(string)) func() {
	if s.listeners[event] == nil {
		s.listeners[event] = make(map[int]func(string))
	}
	id := s.nextID
	s.nextID++
	s.listeners[event][id] = fn
	return func() { delete(s.listeners[event], id) }
}

func (s *stubTracker) emit(event, arg string) {
	for _, fn := range s.listeners[event] {
		fn(arg)
	}
}

var _ clientfactory.BlockTracker = (*stubTracker)(nil)

func TestBlockTrackerProxyForwardsStartStop(t *testing.T) {
	target := newStubTracker()
	p := NewBlockTracker(target, FilterNone)

	p.Start()
	if !target.started {
		t.Fatal("Start was not forwarded")
	}
	p.Stop()
	if !target.stopped {
		t.Fatal("Stop was not forwarded")
	}
}

func TestBlockTrackerProxyRebindsListenersAcrossSwap(t *testing.T) {
	oldTarget := newStubTracker()
	newTarget := newStubTracker()
	p := NewBlockTracker(oldTarget, FilterNone)

	var received []string
	p.On("latest", func(arg string) { received = append(received, arg) })

	oldTarget.emit("latest", "1")

	p.SetTarget(newTarget)

	// Old target's listener must be detached: events on the old target
	// are no longer delivered.
	oldTarget.emit("latest", "stale")

	// New target's listener must be attached.
	newTarget.emit("latest", "2")

	want := []string{"1", "2"}
	if len(received) != len(want) {
		t.Fatalf("got %v, want %v", received, want)
	}
	for i := range want {
		if received[i] != want[i] {
			t.Fatalf("got %v, want %v", received, want)
		}
	}
}

func TestBlockTrackerProxySkipsInternalEventsWithFilter(t *testing.T) {
	oldTarget := newStubTracker()
	newTarget := newStubTracker()
	p := NewBlockTracker(oldTarget, FilterSkipInternal)

	var internalCalls int
	p.On("_started", func(string) { internalCalls++ })

	p.SetTarget(newTarget)

	// The ledger should never have carried the internal subscription to
	// the new target.
	newTarget.emit("_started", "")
	if internalCalls != 0 {
		t.Fatalf("internal event was rebound despite FilterSkipInternal: calls=%d", internalCalls)
	}
}

func TestBlockTrackerProxyStopsOldTargetOnSwap(t *testing.T) {
	oldTarget := newStubTracker()
	newTarget := newStubTracker()
	p := NewBlockTracker(oldTarget, FilterNone)

	p.SetTarget(newTarget)

	if !oldTarget.stopped {
		t.Fatal("old target was not stopped on swap")
	}
}

func TestBlockTrackerProxyUnsubscribeDetaches(t *testing.T) {
	target := newStubTracker()
	p := NewBlockTracker(target, FilterNone)

	calls := 0
	unsub := p.On("latest", func(string) { calls++ })
	target.emit("latest", "1")
	unsub()
	target.emit("latest", "2")

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
