// Package debounce stabilizes a fast-changing input into a settled value.
//
// Every raw update restarts the quiet window; the emit callback sees only
// the final value of a burst, never the intermediate keystrokes.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuiet is the reference quiet window for search input.
const DefaultQuiet = 300 * time.Millisecond

// Debouncer emits the latest raw value once a full quiet window elapses with
// no newer update. Safe for concurrent use.
type Debouncer struct {
	mu     sync.Mutex
	quiet  time.Duration
	emit   func(string)
	timer  *time.Timer
	gen    int
	raw    string
	closed bool
}

// New creates a Debouncer with the given quiet window. A non-positive quiet
// uses the default. emit runs on a timer goroutine after the window elapses.
func New(quiet time.Duration, emit func(string)) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Debouncer{quiet: quiet, emit: emit}
}

// Update records a new raw value and restarts the quiet window, cancelling
// any pending emission from an earlier value.
func (d *Debouncer) Update(raw string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.raw = raw
	d.gen++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		d.fire(gen)
	})
}

// fire emits the settled value if no newer update superseded gen. The
// generation check re-reads current state at execution time; a timer that
// lost the race to Stop is dropped here.
func (d *Debouncer) fire(gen int) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	settled := d.raw
	emit := d.emit
	d.mu.Unlock()

	if emit != nil {
		emit(settled)
	}
}

// Close cancels any pending emission. No emission ever happens after Close
// returns. Safe to call more than once.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
