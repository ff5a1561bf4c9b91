package listview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// RenderFunc renders one row. The selected parameter indicates whether the
// row is under the cursor.
type RenderFunc[T any] func(item T, selected bool) string

// Model is a scrolling list over a row set that grows as pages arrive. It
// renders the rows falling inside the terminal viewport and keeps the
// cursor visible as the set is replaced underneath it.
type Model[T any] struct {
	// items is the current row set, replaced wholesale via SetItems.
	items []T

	// renderFunc renders a single row.
	renderFunc RenderFunc[T]

	// cursor is the selected row index (0-based).
	cursor int

	// visibleFrom is the first visible row index.
	visibleFrom int

	// visibleTo is the last visible row index (exclusive).
	visibleTo int

	// height and width are the viewport dimensions.
	height int
	width  int
}

// New creates a list model over items with the given viewport dimensions.
func New[T any](items []T, height, width int, renderFunc RenderFunc[T]) *Model[T] {
	m := &Model[T]{
		items:      items,
		renderFunc: renderFunc,
		height:     height,
		width:      width,
	}
	m.updateVisibleRange()
	return m
}

// Init implements tea.Model.
func (m *Model[T]) Init() tea.Cmd {
	return nil
}

// Update handles keyboard and resize messages.
func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.handleKeyMsg(msg)
		return m, nil
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.width = msg.Width
		m.updateVisibleRange()
		return m, nil
	}

	return m, nil
}

// handleKeyMsg processes navigation input.
//
//nolint:exhaustive // Key handling inherently branches per navigation key.
func (m *Model[T]) handleKeyMsg(msg tea.KeyMsg) {
	if len(m.items) == 0 {
		return
	}

	switch msg.Type {
	case tea.KeyUp:
		m.MoveCursor(-1)

	case tea.KeyDown:
		m.MoveCursor(1)

	case tea.KeyPgUp:
		m.MoveCursor(-m.height)

	case tea.KeyPgDown:
		m.MoveCursor(m.height)

	case tea.KeyHome:
		m.SetCursor(0)

	case tea.KeyEnd:
		m.SetCursor(len(m.items) - 1)

	case tea.KeyRunes:
		// Vim-style navigation.
		if len(msg.Runes) > 0 {
			switch msg.Runes[0] {
			case 'j':
				m.MoveCursor(1)
			case 'k':
				m.MoveCursor(-1)
			}
		}

	default:
	}
}

// SetItems replaces the row set. The cursor is clamped to the new bounds so
// a shrinking filtered view never leaves it dangling.
func (m *Model[T]) SetItems(items []T) {
	m.items = items
	if m.cursor >= len(items) {
		m.cursor = len(items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.updateVisibleRange()
}

// MoveCursor moves the cursor by delta rows, clamped to the row set.
func (m *Model[T]) MoveCursor(delta int) {
	m.SetCursor(m.cursor + delta)
}

// SetCursor positions the cursor, clamped to valid bounds.
func (m *Model[T]) SetCursor(index int) {
	if len(m.items) == 0 {
		m.cursor = 0
		m.updateVisibleRange()
		return
	}

	switch {
	case index < 0:
		m.cursor = 0
	case index >= len(m.items):
		m.cursor = len(m.items) - 1
	default:
		m.cursor = index
	}

	m.updateVisibleRange()
}

// updateVisibleRange recalculates the viewport window so the cursor stays
// visible, centering it when the row set allows.
func (m *Model[T]) updateVisibleRange() {
	if len(m.items) == 0 {
		m.visibleFrom = 0
		m.visibleTo = 0
		return
	}

	half := m.height / 2

	from := m.cursor - half
	to := m.cursor + half

	if from < 0 {
		from = 0
		to = m.height
	}

	if to > len(m.items) {
		to = len(m.items)
		from = to - m.height
		if from < 0 {
			from = 0
		}
	}

	m.visibleFrom = from
	m.visibleTo = to
}

// View renders the visible rows.
func (m *Model[T]) View() string {
	if len(m.items) == 0 {
		return ""
	}

	var sb strings.Builder
	for i := m.visibleFrom; i < m.visibleTo; i++ {
		if i > m.visibleFrom {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderFunc(m.items[i], i == m.cursor))
	}

	return sb.String()
}

// ItemCount returns the number of rows.
func (m *Model[T]) ItemCount() int {
	return len(m.items)
}

// Cursor returns the selected row index.
func (m *Model[T]) Cursor() int {
	return m.cursor
}

// VisibleFrom returns the first visible row index (inclusive).
func (m *Model[T]) VisibleFrom() int {
	return m.visibleFrom
}

// VisibleTo returns the last visible row index (exclusive).
func (m *Model[T]) VisibleTo() int {
	return m.visibleTo
}

// Height returns the viewport height.
func (m *Model[T]) Height() int {
	return m.height
}

// Width returns the viewport width.
func (m *Model[T]) Width() int {
	return m.width
}

// SelectedItem returns the row under the cursor, or nil when empty.
func (m *Model[T]) SelectedItem() *T {
	if len(m.items) == 0 || m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	return &m.items[m.cursor]
}
