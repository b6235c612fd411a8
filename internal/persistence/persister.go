package persistence

import (
	"context"
	"sync"
	"time"

	"mazi-recorder/internal/observable"
	"mazi-recorder/pkg/logger"
)

const saveTimeout = 10 * time.Second

// Persister writes the whole value of a property to a provider whenever it
// settles on a new value. Repeated equal values are skipped and bursts of
// changes within the quiet period end up as one write of the final value.
// Failed writes are logged and otherwise ignored.
type Persister[T any] struct {
	provider Provider
	key      string
	prop     *observable.Property[T]
	equal    func(a, b T) bool
	log      *logger.Logger

	debouncer *Debouncer
	sub       *observable.Subscription[T]
	loopDone  chan struct{}
	closeOnce sync.Once

	// lastSaved is only touched by tasks on the debouncer worker.
	lastSaved T
}

func NewPersister[T any](prop *observable.Property[T], provider Provider, key string, delay time.Duration, equal func(a, b T) bool, log *logger.Logger) *Persister[T] {
	p := &Persister[T]{
		provider:  provider,
		key:       key,
		prop:      prop,
		equal:     equal,
		log:       logger.OrNop(log),
		debouncer: NewDebouncer(delay),
		loopDone:  make(chan struct{}),
		lastSaved: prop.Value(),
	}
	p.sub = observable.SubscribeMap(prop, func(v T) (T, bool) { return v, true }, equal)
	go p.loop()
	return p
}

func (p *Persister[T]) loop() {
	defer close(p.loopDone)
	for v := range p.sub.C() {
		value := v
		p.debouncer.Trigger(func() { p.save(value) })
	}
}

func (p *Persister[T]) save(v T) {
	if p.equal(p.lastSaved, v) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := SaveJSON(ctx, p.provider, p.key, v); err != nil {
		p.log.Errorf("failed to store %s in %s: %v", p.key, p.provider.Name(), err)
		return
	}
	p.lastSaved = v
	p.log.Debugf("stored %s in %s", p.key, p.provider.Name())
}

// Flush saves the current value now instead of waiting for the quiet period.
func (p *Persister[T]) Flush() {
	v := p.prop.Value()
	p.debouncer.Trigger(func() { p.save(v) })
	p.debouncer.Flush()
}

// Close stops observing the property and saves the current value.
func (p *Persister[T]) Close() {
	p.closeOnce.Do(func() {
		p.sub.Close()
		<-p.loopDone
		p.Flush()
		p.debouncer.Stop()
	})
}
