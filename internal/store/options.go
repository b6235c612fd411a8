package store

import (
	"time"

	"mazi-recorder/pkg/logger"
)

// DefaultDebounce is the quiet period before a changed collection is written.
const DefaultDebounce = time.Second

type options struct {
	debounce time.Duration
	log      *logger.Logger
	now      func() time.Time
}

type Option func(*options)

func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock replaces time.Now for creation dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		debounce: DefaultDebounce,
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
