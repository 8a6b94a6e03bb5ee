package store

// NamedStore pairs a name with a store that can be read as an untyped
// value and subscribed to generically. It lets heterogeneous Store[S]
// instances be aggregated by ComposedStore without a common S.
type NamedStore interface {
	Name() string
	GetAny() any
	SubscribeAny(fn func(any)) Unsubscribe
}

// namedStore adapts a *Store[S] to NamedStore.
type namedStore[S any] struct {
	name  string
	store *Store[S]
}

// Named wraps s so it can be aggregated into a ComposedStore under name.
func Named[S any](name string, s *Store[S]) NamedStore {
	return &namedStore[S]{name: name, store: s}
}

func (n *namedStore[S]) Name() string { return n.name }

func (n *namedStore[S]) GetAny() any { return n.store.GetState() }

func (n *namedStore[S]) SubscribeAny(fn func(any)) Unsubscribe {
	return n.store.Subscribe(func(v S) { fn(v) })
}

// ComposedStore aggregates several named child stores into a single
// read-only observable of the record { name: childStore.value }. It
// recomputes and emits the whole record whenever any child changes.
type ComposedStore struct {
	inner *Store[map[string]any]
	unsub []Unsubscribe
}

// NewComposedStore builds a ComposedStore from the given children and
// immediately computes its initial value.
func NewComposedStore(children ...NamedStore) *ComposedStore {
	c := &ComposedStore{
		inner: New[map[string]any](nil, nil),
	}
	initial := c.snapshot(children)
	c.inner.PutState(initial)

	for _, child := range children {
		child := child
		unsub := child.SubscribeAny(func(any) {
			c.inner.PutState(c.snapshot(children))
		})
		c.unsub = append(c.unsub, unsub)
	}
	return c
}

func (c *ComposedStore) snapshot(children []NamedStore) map[string]any {
	rec := make(map[string]any, len(children))
	for _, child := range children {
		rec[child.Name()] = child.GetAny()
	}
	return rec
}

// GetState returns the current composite record.
func (c *ComposedStore) GetState() map[string]any {
	return c.inner.GetState()
}

// Subscribe registers fn to be called with the composite record whenever
// any child store changes.
func (c *ComposedStore) Subscribe(fn func(map[string]any)) Unsubscribe {
	return c.inner.Subscribe(fn)
}

// Close detaches the composed store from all of its children.
func (c *ComposedStore) Close() {
	for _, u := range c.unsub {
		u()
	}
	c.unsub = nil
}
