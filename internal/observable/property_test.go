package observable

import (
	"testing"
	"time"
)

func receive[T any](t *testing.T, sub *Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		if !ok {
			t.Fatalf("subscription closed")
		}
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for value")
	}
	var zero T
	return zero
}

func expectNothing[T any](t *testing.T, sub *Subscription[T]) {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		if ok {
			t.Fatalf("unexpected value %v", v)
		}
	case <-time.After(20 * time.Millisecond):
	}
}

func TestProperty_SubscribeReplaysCurrentValue(t *testing.T) {
	p := NewProperty(1)
	p.Set(2)

	sub := p.Subscribe()
	defer sub.Close()

	if got := receive(t, sub); got != 2 {
		t.Fatalf("got=%d", got)
	}
	p.Set(3)
	if got := receive(t, sub); got != 3 {
		t.Fatalf("got=%d", got)
	}
}

func TestProperty_SlowSubscriberEndsOnLatest(t *testing.T) {
	p := NewProperty(0)
	sub := p.Subscribe()
	defer sub.Close()

	for i := 1; i <= 100; i++ {
		p.Set(i)
	}
	if got := receive(t, sub); got != 100 {
		t.Fatalf("got=%d", got)
	}
	expectNothing(t, sub)
}

func TestProperty_Modify(t *testing.T) {
	p := NewProperty(10)
	if got := p.Modify(func(v int) int { return v + 5 }); got != 15 {
		t.Fatalf("got=%d", got)
	}
	if p.Value() != 15 {
		t.Fatalf("value=%d", p.Value())
	}
}

func TestSubscribeMap_FiltersMissingAndRepeats(t *testing.T) {
	p := NewProperty(map[string]int{})
	sub := SubscribeMap(p, func(m map[string]int) (int, bool) {
		v, ok := m["a"]
		return v, ok
	}, func(a, b int) bool { return a == b })
	defer sub.Close()

	expectNothing(t, sub)

	p.Set(map[string]int{"a": 1})
	if got := receive(t, sub); got != 1 {
		t.Fatalf("got=%d", got)
	}

	p.Set(map[string]int{"a": 1, "b": 2})
	expectNothing(t, sub)

	p.Set(map[string]int{"b": 2})
	expectNothing(t, sub)

	p.Set(map[string]int{"a": 4})
	if got := receive(t, sub); got != 4 {
		t.Fatalf("got=%d", got)
	}
}

func TestSubscription_CloseDetaches(t *testing.T) {
	p := NewProperty("x")
	sub := p.Subscribe()
	if p.SubscriberCount() != 1 {
		t.Fatalf("count=%d", p.SubscriberCount())
	}
	sub.Close()
	sub.Close()
	if p.SubscriberCount() != 0 {
		t.Fatalf("count=%d", p.SubscriberCount())
	}
	p.Set("y")
}

func TestProperty_CloseEndsSubscriptions(t *testing.T) {
	p := NewProperty(1)
	sub := p.Subscribe()
	receive(t, sub)

	p.Close()
	select {
	case _, ok := <-sub.C():
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed")
	}

	late := p.Subscribe()
	if got := receive(t, late); got != 1 {
		t.Fatalf("got=%d", got)
	}
	if _, ok := <-late.C(); ok {
		t.Fatalf("late subscription should be closed")
	}
}
