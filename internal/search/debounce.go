package search

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period after the last keystroke before a search runs.
const DefaultDebounce = 800 * time.Millisecond

// Debouncer delivers only the last value triggered within a quiet period of delay.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// NewDebouncer returns a debouncer calling fn on its own goroutine after delay of silence.
func NewDebouncer[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Trigger (re)arms the timer with value. A pending value is replaced.
func (d *Debouncer[T]) Trigger(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if seq != d.seq {
			// Re-armed after this timer fired but before it got the lock
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		d.fn(value)
	})
}

// pending reports whether a value is waiting for the timer.
func (d *Debouncer[T]) pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop disarms the timer, dropping any pending value.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
