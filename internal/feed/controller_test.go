package feed_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/friendsofgo/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/rosterfeed/internal/feed"
	"github.com/rshade/rosterfeed/internal/roster"
)

// fakeFetcher serves deterministic pages and records every call. An optional
// per-page error injector fails specific pages.
type fakeFetcher struct {
	mu       sync.Mutex
	pageSize int
	total    int
	calls    []int
	failPage int
	failErr  error

	// inflight tracks concurrent FetchPage calls for the guard property.
	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newFakeFetcher(total, pageSize int) *fakeFetcher {
	return &fakeFetcher{total: total, pageSize: pageSize}
}

func (f *fakeFetcher) FetchPage(_ context.Context, page int) (roster.Page, error) {
	cur := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		maxSeen := f.maxInflight.Load()
		if cur <= maxSeen || f.maxInflight.CompareAndSwap(maxSeen, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, page)
	failPage, failErr := f.failPage, f.failErr
	f.mu.Unlock()

	if failPage == page && failErr != nil {
		return roster.Page{}, failErr
	}

	start := (page - 1) * f.pageSize
	end := start + f.pageSize
	if end > f.total {
		end = f.total
	}

	records := make([]roster.Record, 0, end-start)
	for i := start; i < end; i++ {
		records = append(records, roster.Record{ID: i + 1, Name: "n", Email: "e"})
	}

	return roster.Page{Records: records, HasMore: page*f.pageSize < f.total}, nil
}

func (f *fakeFetcher) callPages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

// resolveAndApply runs a fetch to completion.
func resolveAndApply(t *testing.T, ctrl *feed.Controller, inflight *feed.InFlight) {
	t.Helper()
	require.NotNil(t, inflight)
	ctrl.Apply(inflight.Resolve(context.Background()))
}

func TestController_InitialState(t *testing.T) {
	ctrl := feed.NewController(newFakeFetcher(100, 50))

	assert.Equal(t, feed.StateIdle, ctrl.State())
	assert.Equal(t, 1, ctrl.NextPage())
	assert.Equal(t, 0, ctrl.Len())
	assert.True(t, ctrl.HasMore())
	assert.False(t, ctrl.Loading())
}

func TestController_StartIssuesPageOneOnce(t *testing.T) {
	fetcher := newFakeFetcher(100, 50)
	ctrl := feed.NewController(fetcher)
	ctx := context.Background()

	first := ctrl.Start(ctx)
	require.NotNil(t, first)
	assert.Equal(t, 1, first.Page())

	// A second Start never issues another fetch, even after the first
	// completes.
	assert.Nil(t, ctrl.Start(ctx))
	ctrl.Apply(first.Resolve(ctx))
	assert.Nil(t, ctrl.Start(ctx))

	assert.Equal(t, []int{1}, fetcher.callPages())
}

func TestController_GuardDropsTriggerWhileFetching(t *testing.T) {
	ctrl := feed.NewController(newFakeFetcher(100, 50))
	ctx := context.Background()

	inflight := ctrl.TriggerLoad(ctx)
	require.NotNil(t, inflight)
	assert.Equal(t, feed.StateFetching, ctrl.State())
	assert.True(t, ctrl.Loading())

	// Triggers while Fetching are dropped, never queued.
	for i := 0; i < 5; i++ {
		assert.Nil(t, ctrl.TriggerLoad(ctx))
	}

	ctrl.Apply(inflight.Resolve(ctx))
	assert.Equal(t, feed.StateIdle, ctrl.State())

	// Once Idle again, the next trigger goes through.
	assert.NotNil(t, ctrl.TriggerLoad(ctx))
}

func TestController_AccumulatesPagesInOrder(t *testing.T) {
	const (
		total    = 250
		pageSize = 50
	)
	ctrl := feed.NewController(newFakeFetcher(total, pageSize))
	ctx := context.Background()

	for k := 1; k <= 4; k++ {
		resolveAndApply(t, ctrl, ctrl.TriggerLoad(ctx))
		assert.Equal(t, k*pageSize, ctrl.Len())
		assert.True(t, ctrl.HasMore())
		assert.Equal(t, k+1, ctrl.NextPage())
	}

	// Final page exhausts the feed.
	resolveAndApply(t, ctrl, ctrl.TriggerLoad(ctx))
	assert.Equal(t, total, ctrl.Len())
	assert.False(t, ctrl.HasMore())
	assert.Equal(t, feed.StateExhausted, ctrl.State())

	// Records are in ascending ID order with no gaps.
	records := ctrl.Records()
	for i, r := range records {
		assert.Equal(t, i+1, r.ID)
	}

	// Exhausted is terminal.
	assert.Nil(t, ctrl.TriggerLoad(ctx))
	assert.Equal(t, feed.StateExhausted, ctrl.State())
}

func TestController_EndToEndScrollScenario(t *testing.T) {
	fetcher := newFakeFetcher(10000, 50)
	ctrl := feed.NewController(fetcher)
	ctx := context.Background()

	// Page 1 loads.
	first := ctrl.Start(ctx)
	comp := first.Resolve(ctx)

	// A scroll signal arrives while loading: no second fetch issued.
	assert.Nil(t, ctrl.TriggerLoad(ctx))
	assert.Equal(t, []int{1}, fetcher.callPages())

	ctrl.Apply(comp)
	assert.Equal(t, 50, ctrl.Len())

	// Trigger again after resolution: second fetch issued.
	resolveAndApply(t, ctrl, ctrl.TriggerLoad(ctx))
	assert.Equal(t, 100, ctrl.Len())
	assert.Equal(t, []int{1, 2}, fetcher.callPages())
}

func TestController_ConcurrentTriggersSingleInFlight(t *testing.T) {
	fetcher := newFakeFetcher(10000, 50)
	ctrl := feed.NewController(fetcher)
	ctx := context.Background()

	// Hammer the trigger from many goroutines while resolving whatever
	// gets through. The fetcher records the max concurrent fetches.
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if inflight := ctrl.TriggerLoad(ctx); inflight != nil {
					ctrl.Apply(inflight.Resolve(ctx))
				}
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, fetcher.maxInflight.Load(), int32(1),
		"more than one fetch in flight")

	// Pages were fetched strictly sequentially.
	pages := fetcher.callPages()
	for i, p := range pages {
		assert.Equal(t, i+1, p)
	}
	assert.Equal(t, len(pages)*50, ctrl.Len())
}

func TestController_FetchFailureRecoversToIdle(t *testing.T) {
	fetcher := newFakeFetcher(200, 50)
	fetcher.failPage = 2
	fetcher.failErr = errors.New("boom")

	ctrl := feed.NewController(fetcher)
	ctx := context.Background()

	resolveAndApply(t, ctrl, ctrl.TriggerLoad(ctx))
	require.Equal(t, 50, ctrl.Len())

	// Page 2 fails: back to Idle, records intact, hasMore unchanged.
	failing := ctrl.TriggerLoad(ctx)
	ctrl.Apply(failing.Resolve(ctx))

	assert.Equal(t, feed.StateIdle, ctrl.State())
	assert.Equal(t, 50, ctrl.Len())
	assert.True(t, ctrl.HasMore())
	require.Error(t, ctrl.LastErr())

	// A later trigger retries the same page.
	fetcher.mu.Lock()
	fetcher.failErr = nil
	fetcher.mu.Unlock()

	retry := ctrl.TriggerLoad(ctx)
	require.NotNil(t, retry)
	assert.Equal(t, 2, retry.Page())
	ctrl.Apply(retry.Resolve(ctx))

	assert.Equal(t, 100, ctrl.Len())
	assert.NoError(t, ctrl.LastErr())
}

func TestController_ApplyAfterCloseIgnored(t *testing.T) {
	ctrl := feed.NewController(newFakeFetcher(100, 50))
	ctx := context.Background()

	inflight := ctrl.TriggerLoad(ctx)
	comp := inflight.Resolve(ctx)

	ctrl.Close()
	ctrl.Apply(comp)

	assert.Equal(t, 0, ctrl.Len())
	assert.Nil(t, ctrl.TriggerLoad(ctx))
}

func TestController_SubscribersReceiveEvents(t *testing.T) {
	ctrl := feed.NewController(newFakeFetcher(50, 50))
	ctx := context.Background()

	var mu sync.Mutex
	var kinds []feed.EventKind
	unsubscribe := ctrl.Subscribe(func(ev feed.Event) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, ev.Kind)
	})

	resolveAndApply(t, ctrl, ctrl.TriggerLoad(ctx))

	mu.Lock()
	got := append([]feed.EventKind(nil), kinds...)
	mu.Unlock()

	// Single page dataset: started, applied, exhausted.
	assert.Equal(t, []feed.EventKind{
		feed.EventFetchStarted,
		feed.EventPageApplied,
		feed.EventExhausted,
	}, got)

	// After unsubscribe, no further events arrive.
	unsubscribe()
	ctrl.TriggerLoad(ctx)

	mu.Lock()
	assert.Len(t, kinds, 3)
	mu.Unlock()
}

func TestController_RecordsSliceIdentityStableWhenUnchanged(t *testing.T) {
	ctrl := feed.NewController(newFakeFetcher(100, 50))
	ctx := context.Background()

	resolveAndApply(t, ctrl, ctrl.TriggerLoad(ctx))

	a := ctrl.Records()
	b := ctrl.Records()
	require.NotEmpty(t, a)
	assert.Same(t, &a[0], &b[0], "snapshot identity must hold between appends")

	resolveAndApply(t, ctrl, ctrl.TriggerLoad(ctx))
	c := ctrl.Records()
	assert.NotEqual(t, len(a), len(c))
}

func TestEventKind_String(t *testing.T) {
	tests := []struct {
		kind feed.EventKind
		want string
	}{
		{feed.EventFetchStarted, "fetch_started"},
		{feed.EventPageApplied, "page_applied"},
		{feed.EventFetchFailed, "fetch_failed"},
		{feed.EventExhausted, "exhausted"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", feed.StateIdle.String())
	assert.Equal(t, "fetching", feed.StateFetching.String())
	assert.Equal(t, "exhausted", feed.StateExhausted.String())
}
