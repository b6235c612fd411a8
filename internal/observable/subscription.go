package observable

import "sync"

// Subscription is a live view on a Property. Read values from C until it is
// closed, and call Close when no longer interested.
type Subscription[T any] struct {
	ch        chan T
	cancel    func()
	closeOnce sync.Once
}

func newSubscription[T any]() *Subscription[T] {
	return &Subscription[T]{ch: make(chan T, 1)}
}

func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close detaches the subscription and closes C. Safe to call more than once.
func (s *Subscription[T]) Close() {
	if s.cancel != nil {
		s.cancel()
		return
	}
	s.closeChannel()
}

// push is only called with the owning property's lock held, which makes it
// the single sender. After the drain the buffer is empty, so the send
// cannot block.
func (s *Subscription[T]) push(v T) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- v
}

func (s *Subscription[T]) closeChannel() {
	s.closeOnce.Do(func() { close(s.ch) })
}
