package store

import "testing"

func TestPutStateNotifiesOnChange(t *testing.T) {
	s := New(1, func(a, b int) bool { return a == b })

	var seen []int
	unsub := s.Subscribe(func(v int) { seen = append(seen, v) })
	defer unsub()

	s.PutState(2)
	s.PutState(2) // no-op: equal to prior value
	s.PutState(3)

	want := []int{2, 3}
	if len(seen) != len(want) {
		t.Fatalf("got %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("got %v, want %v", seen, want)
		}
	}
}

func TestUpdateStateShallowMerge(t *testing.T) {
	type rec struct {
		A int
		B string
	}
	s := New(rec{A: 1, B: "x"}, func(a, b rec) bool { return a == b })

	s.UpdateState(func(r rec) rec {
		r.A = 2
		return r
	})

	got := s.GetState()
	if got.A != 2 || got.B != "x" {
		t.Fatalf("got %+v, want A=2 B=x", got)
	}
}

func TestSubscribeOrderAndUnsubscribe(t *testing.T) {
	s := New(0, func(a, b int) bool { return a == b })

	var order []string
	unsubA := s.Subscribe(func(int) { order = append(order, "a") })
	s.Subscribe(func(int) { order = append(order, "b") })

	s.PutState(1)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("got %v, want [a b]", order)
	}

	unsubA()
	order = nil
	s.PutState(2)
	if len(order) != 1 || order[0] != "b" {
		t.Fatalf("got %v, want [b]", order)
	}
}

func TestSubscriberPanicDoesNotBlockOthers(t *testing.T) {
	s := New(0, func(a, b int) bool { return a == b })

	ran := false
	s.Subscribe(func(int) { panic("boom") })
	s.Subscribe(func(int) { ran = true })

	s.PutState(1)
	if !ran {
		t.Fatal("second subscriber did not run after first panicked")
	}
}

func TestNilEqualAlwaysNotifies(t *testing.T) {
	s := New(map[string]int{"a": 1}, nil)
	calls := 0
	s.Subscribe(func(map[string]int) { calls++ })

	s.PutState(map[string]int{"a": 1})
	s.PutState(map[string]int{"a": 1})

	if calls != 2 {
		t.Fatalf("calls = %d, want 2 (nil equal never suppresses notification)", calls)
	}
}
