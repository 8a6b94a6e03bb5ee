package eventbus

import "testing"

func TestPublishInSubscriptionOrder(t *testing.T) {
	b := New()
	var order []string
	b.Subscribe("ev", func() { order = append(order, "first") })
	b.Subscribe("ev", func() { order = append(order, "second") })

	b.Publish("ev")

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("got %v, want [first second]", order)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	h := b.Subscribe("ev", func() { calls++ })
	b.Publish("ev")
	b.Unsubscribe(h)
	b.Publish("ev")

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	b := New()
	h := b.Subscribe("ev", func() {})
	b.Unsubscribe(h)
	b.Unsubscribe(h) // must not panic
}

func TestPublishUnknownEventIsNoop(t *testing.T) {
	b := New()
	b.Publish("nothing-subscribed") // must not panic
}

func TestPanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	b := New()
	ran := false
	b.Subscribe("ev", func() { panic("boom") })
	b.Subscribe("ev", func() { ran = true })

	b.Publish("ev")

	if !ran {
		t.Fatal("second subscriber did not run after first panicked")
	}
}

func TestNamespacedEventsAreIndependent(t *testing.T) {
	b := New()
	var gotA, gotB bool
	b.Subscribe("a", func() { gotA = true })
	b.Subscribe("b", func() { gotB = true })

	b.Publish("a")

	if !gotA || gotB {
		t.Fatalf("gotA=%v gotB=%v, want true false", gotA, gotB)
	}
}
