package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/rosterfeed/internal/debounce"
	"github.com/rshade/rosterfeed/internal/feed"
	"github.com/rshade/rosterfeed/internal/query"
	"github.com/rshade/rosterfeed/internal/roster"
	"github.com/rshade/rosterfeed/internal/scroll"
	listview "github.com/rshade/rosterfeed/internal/tui/list"
)

// ViewState represents the browse view's lifecycle.
type ViewState int

const (
	// ViewStateLoading is the initial state while page 1 is fetched.
	ViewStateLoading ViewState = iota
	// ViewStateList is the interactive list.
	ViewStateList
	// ViewStateQuitting means the program is exiting.
	ViewStateQuitting
)

// Key bindings.
const (
	keyQuit  = "q"
	keyCtrlC = "ctrl+c"
	keyEnter = "enter"
	keyEsc   = "esc"
	keySlash = "/"
	keyS     = "s"
)

// Default dimensions before the first WindowSizeMsg arrives.
const (
	defaultWidth  = 100
	defaultHeight = 30

	// chromeHeight is the number of lines reserved around the list view
	// (header, status bar, search line, help line).
	chromeHeight = 5
)

// row is one rendered list entry: either a real record or a skeleton
// placeholder kept out of the derived data entirely.
type row struct {
	rec      roster.Record
	skeleton bool
}

// fetchResolvedMsg delivers a completed page fetch back to the update loop.
type fetchResolvedMsg struct {
	comp feed.Completion
}

// searchSettledMsg delivers a debounced search term.
type searchSettledMsg struct {
	value string
}

// Options tunes the browse model.
type Options struct {
	// SkeletonRows is the number of placeholder rows appended while a
	// fetch is outstanding. Zero disables placeholders; the config layer
	// supplies the default.
	SkeletonRows int

	// LookAheadRows is the scroll monitor threshold.
	LookAheadRows int

	// Debounce is the search quiet window.
	Debounce time.Duration
}

// BrowseModel is the Bubble Tea model for the incremental roster browser.
// It wires the feed controller, query engine, scroll monitor, and search
// debouncer together; all of those remain usable headless.
type BrowseModel struct {
	ctx     context.Context //nolint:containedctx // Bubble Tea models carry their command context.
	ctrl    *feed.Controller
	engine  *query.Engine
	deb     *debounce.Debouncer
	monitor *scroll.Monitor

	list      *listview.Model[row]
	textInput textinput.Model
	loading   *LoadingState

	// settledCh carries debounced search terms from the debouncer's timer
	// goroutine into the update loop.
	settledCh chan string

	// wantLoad is set by the monitor callback during Observe, which runs
	// synchronously inside Update.
	wantLoad bool

	searchSettled string
	directive     query.Directive
	display       []roster.Record

	skeletonRows int
	state        ViewState
	fetchErr     error
	showSearch   bool
	width        int
	height       int
}

// NewBrowseModel creates the browse model around a feed controller. The
// controller's initial page-1 fetch is issued from Init.
func NewBrowseModel(ctx context.Context, ctrl *feed.Controller, opts Options) *BrowseModel {
	if opts.SkeletonRows < 0 {
		opts.SkeletonRows = 0
	}

	ti := textinput.New()
	ti.Placeholder = "name or email"
	ti.CharLimit = 64
	ti.Width = 32

	m := &BrowseModel{
		ctx:          ctx,
		ctrl:         ctrl,
		engine:       query.NewEngine(),
		loading:      NewLoadingState(),
		textInput:    ti,
		settledCh:    make(chan string, 1),
		skeletonRows: opts.SkeletonRows,
		state:        ViewStateLoading,
		width:        defaultWidth,
		height:       defaultHeight,
	}

	m.list = listview.New(nil, defaultHeight-chromeHeight, defaultWidth, m.renderRow)
	m.monitor = scroll.NewMonitor(opts.LookAheadRows, func() { m.wantLoad = true })
	m.deb = debounce.New(opts.Debounce, m.emitSettled)

	return m
}

// Init issues the initial page load and arms the spinner and settled-search
// listeners.
func (m *BrowseModel) Init() tea.Cmd {
	return tea.Batch(
		m.loading.Init(),
		m.waitForSettled(),
		m.resolveCmd(m.ctrl.Start(m.ctx)),
	)
}

// Update handles messages and drives the pagination pipeline.
func (m *BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := msg.Height - chromeHeight
		if listHeight < 1 {
			listHeight = 1
		}
		m.list.Update(tea.WindowSizeMsg{Width: msg.Width, Height: listHeight})
		return m, m.checkScroll()

	case spinner.TickMsg:
		if m.state == ViewStateLoading || m.ctrl.Loading() {
			return m, m.loading.Update(msg)
		}
		return m, nil

	case fetchResolvedMsg:
		return m.handleFetchResolved(msg)

	case searchSettledMsg:
		return m.handleSearchSettled(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

// handleFetchResolved applies a completion and re-derives the view.
func (m *BrowseModel) handleFetchResolved(msg fetchResolvedMsg) (tea.Model, tea.Cmd) {
	m.ctrl.Apply(msg.comp)
	m.fetchErr = m.ctrl.LastErr()

	if m.state == ViewStateLoading {
		m.state = ViewStateList
	}

	// An applied page rearms the near-end signal; a filter can keep the
	// derived total unchanged while more pages remain. Failed fetches do not
	// rearm, so retry stays scroll-driven.
	if msg.comp.Err() == nil {
		m.monitor.Rearm()
	}

	m.refresh()
	cmd := m.checkScroll()
	return m, cmd
}

// handleSearchSettled adopts a debounced search term.
func (m *BrowseModel) handleSearchSettled(msg searchSettledMsg) (tea.Model, tea.Cmd) {
	m.searchSettled = msg.value
	m.refresh()

	// A shrunken filtered view can already sit near its end; give the
	// monitor a chance to request more data.
	cmd := m.checkScroll()
	return m, tea.Batch(m.waitForSettled(), cmd)
}

// handleKeyMsg routes keyboard input.
func (m *BrowseModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == keyCtrlC {
		return m.quit()
	}

	if m.showSearch {
		return m.handleSearchInput(msg)
	}

	switch msg.String() {
	case keyQuit:
		return m.quit()

	case keySlash:
		m.showSearch = true
		m.textInput.Focus()
		return m, textinput.Blink

	case keyS:
		m.directive = m.directive.Next()
		m.refresh()
		return m, nil

	case keyEsc:
		if m.textInput.Value() != "" || m.searchSettled != "" {
			m.textInput.SetValue("")
			m.deb.Update("")
			m.searchSettled = ""
			m.refresh()
		}
		return m, nil

	default:
		m.list.Update(msg)
		return m, m.checkScroll()
	}
}

// handleSearchInput feeds keystrokes to the search box. The raw value
// reaches the debouncer synchronously on every keystroke; the derived view
// only changes when the settled value arrives.
func (m *BrowseModel) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEnter, keyEsc:
		m.showSearch = false
		m.textInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	m.deb.Update(m.textInput.Value())
	return m, cmd
}

// quit tears down the owned resources and exits. The debouncer cancels its
// pending timer, the monitor detaches, and the controller ignores any fetch
// still in flight.
func (m *BrowseModel) quit() (tea.Model, tea.Cmd) {
	m.deb.Close()
	m.monitor.Detach()
	m.ctrl.Close()
	m.state = ViewStateQuitting
	return m, tea.Quit
}

// refresh re-derives the display list and rebuilds the rendered rows,
// appending skeleton placeholders while a fetch is outstanding.
func (m *BrowseModel) refresh() {
	m.display = m.engine.Derive(m.ctrl.Records(), m.searchSettled, m.directive)

	rows := make([]row, 0, len(m.display)+m.skeletonRows)
	for _, r := range m.display {
		rows = append(rows, row{rec: r})
	}
	if m.ctrl.Loading() {
		for i := 0; i < m.skeletonRows; i++ {
			rows = append(rows, row{skeleton: true})
		}
	}

	m.list.SetItems(rows)
}

// checkScroll feeds the monitor the current viewport position and issues a
// load when the near-end signal fired. Returns the resolve command for the
// issued fetch, or nil.
func (m *BrowseModel) checkScroll() tea.Cmd {
	m.monitor.Observe(m.list.VisibleTo(), len(m.display))

	if !m.wantLoad {
		return nil
	}
	m.wantLoad = false

	inflight := m.ctrl.TriggerLoad(m.ctx)
	if inflight == nil {
		return nil
	}
	m.loading.SetMessage(fmt.Sprintf("Loading page %d...", inflight.Page()))

	// Show skeletons for the fetch that just started.
	m.refresh()
	return tea.Batch(m.resolveCmd(inflight), m.loading.Init())
}

// resolveCmd wraps an in-flight fetch in a Bubble Tea command.
func (m *BrowseModel) resolveCmd(inflight *feed.InFlight) tea.Cmd {
	if inflight == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return fetchResolvedMsg{comp: inflight.Resolve(ctx)}
	}
}

// waitForSettled returns a command that blocks for the next debounced
// search term. Re-armed after each delivery.
func (m *BrowseModel) waitForSettled() tea.Cmd {
	ch := m.settledCh
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return searchSettledMsg{value: v}
	}
}

// emitSettled hands a settled value to the update loop, replacing any value
// the loop has not picked up yet. Runs on the debouncer's timer goroutine,
// so it must never block.
func (m *BrowseModel) emitSettled(v string) {
	for {
		select {
		case m.settledCh <- v:
			return
		default:
			select {
			case <-m.settledCh:
			default:
			}
		}
	}
}

// State returns the view state.
func (m *BrowseModel) State() ViewState {
	return m.state
}

// DisplayCount returns the size of the derived display list (excluding
// skeleton rows).
func (m *BrowseModel) DisplayCount() int {
	return len(m.display)
}

// RowCount returns the number of rendered rows including skeletons.
func (m *BrowseModel) RowCount() int {
	return m.list.ItemCount()
}

// SearchSettled returns the settled search term in effect.
func (m *BrowseModel) SearchSettled() string {
	return m.searchSettled
}

// Directive returns the active sort directive.
func (m *BrowseModel) Directive() query.Directive {
	return m.directive
}
