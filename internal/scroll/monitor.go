// Package scroll detects proximity to the end of loaded content.
//
// The monitor works in scroll-position mode: each observation reports how
// far the bottom of the viewport is from the end of the list, and when that
// distance drops below the configured look-ahead the registered callback
// fires. Firing is edge-triggered per crossing; the consumer's own guard is
// still expected to deduplicate (the feed controller drops triggers while a
// fetch is outstanding).
package scroll

import "sync"

// DefaultLookAhead is the distance, in rows, at which the near-end signal
// fires before the viewport reaches the last loaded row.
const DefaultLookAhead = 10

// Monitor raises a near-end signal as the viewport approaches the end of the
// content. Safe for concurrent use.
type Monitor struct {
	mu        sync.Mutex
	lookAhead int
	callback  func()
	below     bool
	lastTotal int
}

// NewMonitor creates a monitor firing callback when the viewport comes
// within lookAhead rows of the end. A non-positive lookAhead uses the
// default.
func NewMonitor(lookAhead int, callback func()) *Monitor {
	if lookAhead <= 0 {
		lookAhead = DefaultLookAhead
	}
	return &Monitor{lookAhead: lookAhead, callback: callback}
}

// Observe feeds the monitor one scroll sample: visibleTo is the exclusive
// index of the last visible row, total the number of loaded rows. The
// callback fires once when the distance to the end crosses below the
// look-ahead, and rearms when the distance rises again or the content grows.
func (m *Monitor) Observe(visibleTo, total int) {
	m.mu.Lock()

	if m.callback == nil {
		m.mu.Unlock()
		return
	}

	// New content rearms the trigger even while hovering at the boundary.
	if total != m.lastTotal {
		m.below = false
		m.lastTotal = total
	}

	distance := total - visibleTo

	var fire bool
	if distance < m.lookAhead {
		fire = !m.below
		m.below = true
	} else {
		m.below = false
	}

	cb := m.callback
	m.mu.Unlock()

	if fire {
		cb()
	}
}

// Rearm clears the fired edge so the next observation below the look-ahead
// fires again, even at an unchanged distance. Consumers call it when their
// own state allows a new fetch, such as after a page lands without growing a
// filtered view.
func (m *Monitor) Rearm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.below = false
}

// Detach releases the callback. Observations after Detach are no-ops. Safe
// to call more than once.
func (m *Monitor) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = nil
}
