package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/rosterfeed/internal/roster"
)

// Column widths for roster rows.
const (
	colWidthID    = 6
	colWidthName  = 24
	colWidthEmail = 34
	colWidthRole  = 8
)

// View renders the browse screen.
func (m *BrowseModel) View() string {
	switch m.state {
	case ViewStateQuitting:
		return ""
	case ViewStateLoading:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderHeader(),
			RenderLoading(m.loading),
		)
	case ViewStateList:
		return m.renderList()
	default:
		return ""
	}
}

// renderList assembles the list screen sections.
func (m *BrowseModel) renderList() string {
	var sections []string

	sections = append(sections, m.renderHeader())

	if m.fetchErr != nil {
		banner := ErrorStyle.Render(fmt.Sprintf("Fetch failed: %v (scroll to retry)", m.fetchErr))
		sections = append(sections, banner)
	}

	sections = append(sections, m.list.View())
	sections = append(sections, m.renderStatusBar())

	if m.showSearch {
		sections = append(sections, LabelStyle.Render("Search: ")+m.textInput.View())
	}

	sections = append(sections, HelpStyle.Render("↑/↓ scroll · / search · s sort · esc clear · q quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title bar.
func (m *BrowseModel) renderHeader() string {
	return HeaderStyle.Render("rosterfeed")
}

// renderStatusBar summarizes shown/loaded counts, sort, and fetch state.
func (m *BrowseModel) renderStatusBar() string {
	var state string
	switch {
	case m.ctrl.Loading():
		state = m.loading.message
	case !m.ctrl.HasMore():
		state = "all loaded"
	default:
		state = "idle"
	}

	parts := []string{
		fmt.Sprintf("%d shown / %d loaded", len(m.display), m.ctrl.Len()),
		fmt.Sprintf("sort: %s", m.directive),
		state,
	}
	if m.searchSettled != "" {
		parts = append(parts, fmt.Sprintf("search: %q", m.searchSettled))
	}

	return StatusBarStyle.Render(strings.Join(parts, "  │  "))
}

// renderRow renders one list row. Skeleton rows mirror the real column
// layout so the list does not shift when a fetch completes.
func (m *BrowseModel) renderRow(r row, selected bool) string {
	if r.skeleton {
		line := fmt.Sprintf("%s  %s  %s  %s",
			strings.Repeat("░", colWidthID),
			strings.Repeat("░", colWidthName),
			strings.Repeat("░", colWidthEmail),
			strings.Repeat("░", colWidthRole),
		)
		return SkeletonStyle.Render(line)
	}

	line := fmt.Sprintf("%*d  %-*s  %-*s  ",
		colWidthID, r.rec.ID,
		colWidthName, truncate(r.rec.Name, colWidthName),
		colWidthEmail, truncate(r.rec.Email, colWidthEmail),
	)
	role := fmt.Sprintf("%-*s", colWidthRole, r.rec.Role.String())

	if selected {
		return SelectedRowStyle.Render(line + role)
	}
	if r.rec.Role == roster.RoleAdmin {
		role = AdminStyle.Render(role)
	}
	return line + role
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
