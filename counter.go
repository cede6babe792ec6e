package directio

import "sync/atomic"

// Counter is a thread-safe accumulator for progress reporting, typically
// bytes or records. The zero value is ready to use.
type Counter struct {
	total atomic.Int64
	onAdd func(delta, total int64)
}

// CounterOption configures a Counter.
type CounterOption func(*Counter)

// WithChangeHook sets a function called after every Add with the delta and
// the new total. The hook may be invoked concurrently.
func WithChangeHook(hook func(delta, total int64)) CounterOption {
	return func(c *Counter) {
		c.onAdd = hook
	}
}

// NewCounter creates a Counter.
func NewCounter(opts ...CounterOption) *Counter {
	c := &Counter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add increments the counter by delta. Calls on a nil Counter are ignored.
func (c *Counter) Add(delta int64) {
	if c == nil {
		return
	}
	total := c.total.Add(delta)
	if c.onAdd != nil {
		c.onAdd(delta, total)
	}
}

// Count returns the current total.
func (c *Counter) Count() int64 {
	if c == nil {
		return 0
	}
	return c.total.Load()
}
