package tui

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/rosterfeed/internal/feed"
	"github.com/rshade/rosterfeed/internal/roster"
)

// countingFetcher wraps a Source and counts issued fetches.
type countingFetcher struct {
	src   *roster.Source
	calls atomic.Int32
}

func (f *countingFetcher) FetchPage(ctx context.Context, page int) (roster.Page, error) {
	f.calls.Add(1)
	return f.src.FetchPage(ctx, page)
}

// newTestModel builds a browse model over a small instant-fetch dataset and
// applies the initial page load.
func newTestModel(t *testing.T, total, pageSize int) (*BrowseModel, *feed.Controller, *countingFetcher) {
	t.Helper()

	fetcher := &countingFetcher{src: roster.NewSource(total, pageSize, roster.WithDelay(0))}
	ctrl := feed.NewController(fetcher)
	m := NewBrowseModel(context.Background(), ctrl, Options{
		SkeletonRows:  18,
		LookAheadRows: 5,
		Debounce:      20 * time.Millisecond,
	})

	inflight := ctrl.Start(context.Background())
	require.NotNil(t, inflight)
	m.Update(fetchResolvedMsg{comp: inflight.Resolve(context.Background())})

	return m, ctrl, fetcher
}

// runCmd executes a command tree and feeds every produced message back into
// the model, returning the number of fetch completions applied.
func runCmd(t *testing.T, m *BrowseModel, cmd tea.Cmd) int {
	t.Helper()
	if cmd == nil {
		return 0
	}

	applied := 0
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			applied += runCmd(t, m, sub)
		}
	case fetchResolvedMsg:
		m.Update(msg)
		applied++
	default:
	}
	return applied
}

// followFetches executes a command tree like runCmd but also feeds each
// follow-up command from an applied completion back into the walk, so a
// chain of fetches runs to completion. Settled-search messages are dropped;
// the caller pre-seeds settledCh so their wait never blocks.
func followFetches(t *testing.T, m *BrowseModel, cmd tea.Cmd) int {
	t.Helper()
	if cmd == nil {
		return 0
	}

	applied := 0
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			applied += followFetches(t, m, sub)
		}
	case fetchResolvedMsg:
		_, next := m.Update(msg)
		applied += 1 + followFetches(t, m, next)
	case searchSettledMsg:
	default:
	}
	return applied
}

func TestBrowseModel_FilteredNearEndKeepsPaginating(t *testing.T) {
	m, ctrl, fetcher := newTestModel(t, 200, 50)
	require.Equal(t, int32(1), fetcher.calls.Load())

	// A settled search matching nothing leaves the derived view at its end
	// with an unchanged total from then on.
	_, cmd := m.Update(searchSettledMsg{value: "no-such-record"})
	require.Equal(t, feed.StateFetching, ctrl.State(), "near-end filtered view requests more data")

	// Satisfy the re-armed settled listener so the walk below never blocks.
	m.settledCh <- "no-such-record"

	// Each applied page rearms the near-end signal, so loading continues
	// through the remaining pages instead of stalling after one.
	applied := followFetches(t, m, cmd)
	assert.Equal(t, 3, applied)
	assert.Equal(t, int32(4), fetcher.calls.Load())
	assert.Equal(t, feed.StateExhausted, ctrl.State())
	assert.False(t, ctrl.HasMore())
	assert.Zero(t, m.DisplayCount())
	assert.Equal(t, 200, ctrl.Len())
}

func TestBrowseModel_FirstPageMovesToListState(t *testing.T) {
	m, ctrl, _ := newTestModel(t, 120, 50)

	assert.Equal(t, ViewStateList, m.State())
	assert.Equal(t, 50, m.DisplayCount())
	assert.Equal(t, feed.StateIdle, ctrl.State())

	// No skeletons once the fetch has settled.
	assert.Equal(t, 50, m.RowCount())
}

func TestBrowseModel_ScrollToEndTriggersNextFetch(t *testing.T) {
	m, ctrl, fetcher := newTestModel(t, 120, 50)
	require.Equal(t, int32(1), fetcher.calls.Load())

	// Jump to the last loaded row: the monitor fires and a fetch starts.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	assert.Equal(t, feed.StateFetching, ctrl.State())

	// Skeleton rows are appended while the fetch is outstanding.
	assert.Equal(t, 50, m.DisplayCount())
	assert.Equal(t, 50+18, m.RowCount())

	// Resolving the command applies page 2 and drops the skeletons.
	applied := runCmd(t, m, cmd)
	require.Equal(t, 1, applied)
	assert.Equal(t, 100, m.DisplayCount())
	assert.Equal(t, 100, m.RowCount())
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestBrowseModel_TriggerWhileLoadingIssuesNoSecondFetch(t *testing.T) {
	m, ctrl, fetcher := newTestModel(t, 200, 50)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	require.Equal(t, feed.StateFetching, ctrl.State())
	calls := fetcher.calls.Load()

	// More scroll input while the fetch is in flight: dropped by the guard.
	_, extra := m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	assert.Nil(t, extra)
	_, extra = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Nil(t, extra)
	assert.Equal(t, calls, fetcher.calls.Load())

	runCmd(t, m, cmd)
	assert.Equal(t, calls+1, fetcher.calls.Load())
}

func TestBrowseModel_ExhaustionStopsFetching(t *testing.T) {
	m, ctrl, fetcher := newTestModel(t, 100, 50)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	runCmd(t, m, cmd)
	require.Equal(t, 100, m.DisplayCount())
	require.Equal(t, feed.StateExhausted, ctrl.State())

	calls := fetcher.calls.Load()
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	runCmd(t, m, cmd)
	assert.Equal(t, calls, fetcher.calls.Load(), "exhausted feed must not fetch")
}

func TestBrowseModel_SortKeyCyclesDirective(t *testing.T) {
	m, _, _ := newTestModel(t, 100, 50)

	first := m.display[0].ID
	require.Equal(t, 1, first)

	// none -> name asc -> name desc -> id asc -> id desc -> none.
	directives := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
		directives = append(directives, m.Directive().String())
	}
	assert.Equal(t, []string{"name ↑", "name ↓", "id ↑", "id ↓", "none"}, directives)
	assert.Equal(t, 1, m.display[0].ID, "back to accumulation order")
}

func TestBrowseModel_SettledSearchFiltersDisplay(t *testing.T) {
	m, _, _ := newTestModel(t, 100, 50)

	m.Update(searchSettledMsg{value: "alice"})

	assert.Equal(t, "alice", m.SearchSettled())
	require.NotZero(t, m.DisplayCount())
	for _, r := range m.display {
		hay := strings.ToLower(r.Name + " " + r.Email)
		assert.Contains(t, hay, "alice")
	}

	// Clearing via esc restores the full view.
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 50, m.DisplayCount())
}

func TestBrowseModel_SearchInputDebounces(t *testing.T) {
	m, _, _ := newTestModel(t, 100, 50)

	// Focus the search box.
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	require.True(t, m.showSearch)

	// Burst of keystrokes: raw updates land per key, nothing settles yet.
	for _, r := range "ali" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	assert.Equal(t, "", m.SearchSettled())

	// After the quiet window the settled value arrives on the channel.
	require.Eventually(t, func() bool {
		select {
		case v := <-m.settledCh:
			m.Update(searchSettledMsg{value: v})
			return true
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, "ali", m.SearchSettled())
}

func TestBrowseModel_QuitTearsDown(t *testing.T) {
	m, ctrl, _ := newTestModel(t, 200, 50)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.NotNil(t, cmd)
	assert.Equal(t, ViewStateQuitting, m.State())

	// The controller ignores triggers and late completions after teardown.
	assert.Nil(t, ctrl.TriggerLoad(context.Background()))
	assert.Empty(t, m.View())
}

func TestBrowseModel_FetchFailureShowsBannerAndRetries(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	src := roster.NewSource(200, 50,
		roster.WithDelay(0),
		roster.WithFailFunc(func(page int) error {
			if page == 2 && fail.Load() {
				return assert.AnError
			}
			return nil
		}))
	ctrl := feed.NewController(src)
	m := NewBrowseModel(context.Background(), ctrl, Options{LookAheadRows: 5})

	inflight := ctrl.Start(context.Background())
	m.Update(fetchResolvedMsg{comp: inflight.Resolve(context.Background())})

	// Page 2 fails: transient banner, records intact, back to Idle.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	runCmd(t, m, cmd)

	require.Error(t, m.fetchErr)
	assert.Contains(t, m.View(), "Fetch failed")
	assert.Equal(t, 50, m.DisplayCount())
	assert.Equal(t, feed.StateIdle, ctrl.State())

	// Scrolling again retries and clears the banner.
	fail.Store(false)
	m.Update(tea.KeyMsg{Type: tea.KeyHome})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	runCmd(t, m, cmd)

	assert.NoError(t, m.fetchErr)
	assert.Equal(t, 100, m.DisplayCount())
	assert.NotContains(t, m.View(), "Fetch failed")
}

func TestBrowseModel_ViewSections(t *testing.T) {
	m, _, _ := newTestModel(t, 200, 50)

	view := m.View()
	assert.Contains(t, view, "rosterfeed")
	assert.Contains(t, view, "50 shown / 50 loaded")
	assert.Contains(t, view, "sort: none")

	// Skeletons render with the shimmer glyph while the page-2 fetch is
	// outstanding, and the status bar names the page being loaded.
	m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	assert.Contains(t, m.View(), "░")
	assert.Contains(t, m.View(), "Loading page 2")
}

func TestBrowseModel_ZeroSkeletonRowsDisablesPlaceholders(t *testing.T) {
	fetcher := &countingFetcher{src: roster.NewSource(200, 50, roster.WithDelay(0))}
	ctrl := feed.NewController(fetcher)
	m := NewBrowseModel(context.Background(), ctrl, Options{SkeletonRows: 0, LookAheadRows: 5})

	inflight := ctrl.Start(context.Background())
	require.NotNil(t, inflight)
	m.Update(fetchResolvedMsg{comp: inflight.Resolve(context.Background())})

	// A configured zero stays zero: no placeholders during the next fetch.
	m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	require.Equal(t, feed.StateFetching, ctrl.State())
	assert.Equal(t, 50, m.DisplayCount())
	assert.Equal(t, 50, m.RowCount())
}

func TestBrowseModel_RenderRowRoles(t *testing.T) {
	m, _, _ := newTestModel(t, 100, 50)

	admin := m.renderRow(row{rec: roster.Record{ID: 10, Name: "a", Email: "a@x", Role: roster.RoleAdmin}}, false)
	member := m.renderRow(row{rec: roster.Record{ID: 20, Name: "b", Email: "b@x", Role: roster.RoleMember}}, false)

	assert.Contains(t, admin, "Admin")
	assert.Contains(t, member, "Member")

	// Selection styling wins over the role highlight.
	selected := m.renderRow(row{rec: roster.Record{ID: 10, Role: roster.RoleAdmin}}, true)
	assert.Contains(t, selected, "Admin")
}

func TestBrowseModel_WindowResizeKeepsCursorVisible(t *testing.T) {
	m, _, _ := newTestModel(t, 100, 50)

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 12})
	m.Update(tea.KeyMsg{Type: tea.KeyEnd})

	cursor := m.list.Cursor()
	assert.GreaterOrEqual(t, cursor, m.list.VisibleFrom())
	assert.Less(t, cursor, m.list.VisibleTo())
}
