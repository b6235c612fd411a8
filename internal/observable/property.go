package observable

import "sync"

// Property holds a value and pushes every new value to its subscribers.
// Subscribers receive the current value as soon as they subscribe.
//
// Delivery never blocks a writer: each subscription has a one slot mailbox
// and an undelivered value is overwritten by the next one, so a slow reader
// skips intermediate values but always ends on the latest.
type Property[T any] struct {
	mu     sync.RWMutex
	value  T
	nextID uint64
	sinks  map[uint64]sink[T]
	closed bool
}

type sink[T any] struct {
	deliver func(T)
	close   func()
}

func NewProperty[T any](initial T) *Property[T] {
	return &Property[T]{
		value: initial,
		sinks: make(map[uint64]sink[T]),
	}
}

// Value returns the current value.
func (p *Property[T]) Value() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set replaces the value and notifies subscribers.
func (p *Property[T]) Set(v T) {
	p.Modify(func(T) T { return v })
}

// Modify applies fn to the current value under the write lock, publishes the
// result and returns it. Concurrent Modify calls are serialised.
func (p *Property[T]) Modify(fn func(T) T) T {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = fn(p.value)
	if !p.closed {
		for _, s := range p.sinks {
			s.deliver(p.value)
		}
	}
	return p.value
}

// Close ends every subscription. The value stays readable.
func (p *Property[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, s := range p.sinks {
		s.close()
		delete(p.sinks, id)
	}
}

// Subscribe streams the current value and all later values.
func (p *Property[T]) Subscribe() *Subscription[T] {
	return SubscribeMap(p, func(v T) (T, bool) { return v, true }, nil)
}

// SubscribeMap streams project(value) for the current and all later values.
// Values for which project reports false are dropped. When equal is not nil,
// a projected value equal to the last delivered one is dropped too.
func SubscribeMap[T, U any](p *Property[T], project func(T) (U, bool), equal func(a, b U) bool) *Subscription[U] {
	sub := newSubscription[U]()

	var (
		last    U
		hasLast bool
	)
	deliver := func(v T) {
		u, ok := project(v)
		if !ok {
			return
		}
		if equal != nil && hasLast && equal(last, u) {
			return
		}
		last, hasLast = u, true
		sub.push(u)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	deliver(p.value)
	if p.closed {
		sub.closeChannel()
		return sub
	}

	id := p.nextID
	p.nextID++
	p.sinks[id] = sink[T]{deliver: deliver, close: sub.closeChannel}
	sub.cancel = func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if s, ok := p.sinks[id]; ok {
			delete(p.sinks, id)
			s.close()
		}
	}
	return sub
}

// SubscriberCount returns the number of open subscriptions.
func (p *Property[T]) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sinks)
}
