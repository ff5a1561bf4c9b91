// Package feed owns the incremental accumulation of roster pages.
//
// A Controller is a small state machine (Idle, Fetching, Exhausted) around an
// append-only record slice. Its single invariant worth stating up front: at
// most one fetch is in flight at any time. Triggers arriving while a fetch is
// outstanding are dropped, never queued.
package feed

import (
	"context"
	"sync"

	"github.com/rshade/rosterfeed/internal/logging"
	"github.com/rshade/rosterfeed/internal/roster"
)

// State is the controller's position in its fetch lifecycle.
type State int

const (
	// StateIdle means no fetch is outstanding and more pages may remain.
	StateIdle State = iota
	// StateFetching means exactly one fetch is outstanding.
	StateFetching
	// StateExhausted means the final page has been applied. Terminal.
	StateExhausted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Controller accumulates roster pages from a Fetcher. All accumulated state
// is owned by the controller and mutated only through Apply; readers get
// snapshots. Safe for concurrent use.
type Controller struct {
	fetcher roster.Fetcher

	mu       sync.Mutex
	records  []roster.Record
	nextPage int
	state    State
	hasMore  bool
	lastErr  error
	closed   bool
	started  bool
	gen      int

	subs    map[int]func(Event)
	nextSub int
}

// NewController creates an idle controller positioned at page 1 with no
// accumulated records.
func NewController(fetcher roster.Fetcher) *Controller {
	return &Controller{
		fetcher:  fetcher,
		nextPage: 1,
		state:    StateIdle,
		hasMore:  true,
		subs:     make(map[int]func(Event)),
	}
}

// InFlight is a token for one issued fetch. The holder resolves it (a
// blocking call) and hands the resulting Completion back to Apply.
type InFlight struct {
	fetcher roster.Fetcher
	page    int
	gen     int
}

// Page returns the 1-based page this fetch was issued for.
func (f *InFlight) Page() int {
	return f.page
}

// Resolve performs the fetch. It blocks for the fetcher's duration and never
// touches controller state; the caller applies the returned Completion.
func (f *InFlight) Resolve(ctx context.Context) Completion {
	page, err := f.fetcher.FetchPage(ctx, f.page)
	return Completion{page: f.page, gen: f.gen, result: page, err: err}
}

// Completion is the outcome of a resolved fetch, tagged with the generation
// of the trigger that issued it so stale completions can be discarded.
type Completion struct {
	page   int
	gen    int
	result roster.Page
	err    error
}

// Page returns the 1-based page this completion belongs to.
func (c Completion) Page() int {
	return c.page
}

// Err returns the fetch error, if any.
func (c Completion) Err() error {
	return c.err
}

// Start issues the initial page-1 fetch. It fires at most once per
// controller; later calls return nil. Scroll triggers use TriggerLoad.
func (c *Controller) Start(ctx context.Context) *InFlight {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	return c.TriggerLoad(ctx)
}

// TriggerLoad requests the next page. Unless the controller is Idle with more
// pages available, the guard drops the trigger and returns nil. This is
// what keeps the in-flight fetch count at one: repeated scroll signals while
// Fetching fall through here without effect.
func (c *Controller) TriggerLoad(ctx context.Context) *InFlight {
	c.mu.Lock()

	if c.closed || c.state != StateIdle || !c.hasMore {
		c.mu.Unlock()
		return nil
	}

	c.state = StateFetching
	c.lastErr = nil
	c.gen++
	inflight := &InFlight{fetcher: c.fetcher, page: c.nextPage, gen: c.gen}
	total := len(c.records)
	c.mu.Unlock()

	logging.FromContext(ctx).Debug().
		Str("component", "feed").
		Int("page", inflight.page).
		Msg("fetch issued")

	c.publish(Event{Kind: EventFetchStarted, Page: inflight.page, Total: total})
	return inflight
}

// Apply folds a completion into the accumulated state. The transition reads
// current state at call time rather than anything captured when the fetch
// was issued, so a completion arriving after Close, or from a superseded
// generation, is ignored outright.
func (c *Controller) Apply(comp Completion) {
	c.mu.Lock()

	if c.closed || c.state != StateFetching || comp.gen != c.gen {
		c.mu.Unlock()
		return
	}

	if comp.err != nil {
		// Recover to Idle with hasMore unchanged; a later trigger retries
		// the same page. Accumulated records are untouched.
		c.state = StateIdle
		c.lastErr = comp.err
		total := len(c.records)
		c.mu.Unlock()

		c.publish(Event{Kind: EventFetchFailed, Page: comp.page, Total: total, Err: comp.err})
		return
	}

	c.records = append(c.records, comp.result.Records...)
	c.nextPage++
	c.hasMore = comp.result.HasMore
	if c.hasMore {
		c.state = StateIdle
	} else {
		c.state = StateExhausted
	}

	state := c.state
	total := len(c.records)
	c.mu.Unlock()

	c.publish(Event{Kind: EventPageApplied, Page: comp.page, Total: total})
	if state == StateExhausted {
		c.publish(Event{Kind: EventExhausted, Page: comp.page, Total: total})
	}
}

// Subscribe registers a callback for controller events. Callbacks run on the
// goroutine that caused the transition, outside the controller lock. The
// returned function removes the subscription.
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// publish delivers an event to current subscribers.
func (c *Controller) publish(ev Event) {
	c.mu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Close tears the controller down. In-flight fetches are not cancelled, but
// their completions will be ignored by Apply.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Records returns the accumulated records. The slice is append-only: already
// returned elements are never modified, and the slice header changes exactly
// when new records are appended, so callers may use it as a change key.
func (c *Controller) Records() []roster.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records
}

// Len returns the number of accumulated records.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Loading reports whether a fetch is outstanding.
func (c *Controller) Loading() bool {
	return c.State() == StateFetching
}

// HasMore reports whether further pages remain.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// NextPage returns the page the next successful trigger will fetch.
func (c *Controller) NextPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextPage
}

// LastErr returns the most recent fetch error, cleared when a new fetch is
// issued. Presentation surfaces this as a transient banner.
func (c *Controller) LastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
