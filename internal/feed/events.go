package feed

// EventKind identifies a controller state-change notification.
type EventKind int

const (
	// EventFetchStarted is published when a page fetch is issued.
	EventFetchStarted EventKind = iota
	// EventPageApplied is published after a fetched page is appended.
	EventPageApplied
	// EventFetchFailed is published when a fetch resolves with an error.
	EventFetchFailed
	// EventExhausted is published when the final page has been applied.
	EventExhausted
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventFetchStarted:
		return "fetch_started"
	case EventPageApplied:
		return "page_applied"
	case EventFetchFailed:
		return "fetch_failed"
	case EventExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Event describes a single controller transition. Subscribers receive events
// in the order the transitions occurred.
type Event struct {
	Kind EventKind

	// Page is the 1-based page the event refers to.
	Page int

	// Total is the accumulated record count after the transition.
	Total int

	// Err is set for EventFetchFailed.
	Err error
}
