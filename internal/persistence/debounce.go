package persistence

import (
	"sync"
	"time"
)

// Debouncer runs the most recently triggered task once no new trigger has
// arrived for the quiet period. Tasks run one at a time on a single worker
// goroutine, in trigger order.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	gen     uint64
	stopped bool

	queue chan func()
	wg    sync.WaitGroup
}

func NewDebouncer(delay time.Duration) *Debouncer {
	d := &Debouncer{
		delay: delay,
		queue: make(chan func(), 16),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Debouncer) run() {
	defer d.wg.Done()
	for task := range d.queue {
		task()
	}
}

// Trigger replaces any pending task with task and restarts the quiet period.
func (d *Debouncer) Trigger(task func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = task
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil || d.stopped {
		d.mu.Unlock()
		return
	}
	task := d.pending
	d.pending = nil
	d.queue <- task
	d.mu.Unlock()
}

// Flush runs the pending task now, if any, and waits for it and everything
// queued before it to finish.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	task := d.pending
	d.pending = nil

	done := make(chan struct{})
	d.queue <- func() {
		if task != nil {
			task()
		}
		close(done)
	}
	d.mu.Unlock()
	<-done
}

// Stop flushes the pending task and shuts the worker down. Later triggers
// are ignored.
func (d *Debouncer) Stop() {
	d.Flush()
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}
