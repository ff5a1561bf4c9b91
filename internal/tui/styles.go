package tui

import "github.com/charmbracelet/lipgloss"

// Shared lipgloss styles for the browse view.
var (
	// HeaderStyle renders the title bar.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	// LabelStyle renders field labels in the status bar.
	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// StatusBarStyle renders the bottom status line.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	// SelectedRowStyle highlights the row under the cursor.
	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	// SkeletonStyle dims placeholder rows shown while a fetch is pending.
	SkeletonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// ErrorStyle renders the transient fetch-error banner.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("160")).
			Padding(0, 1)

	// HelpStyle renders the key-binding hint line.
	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	// AdminStyle marks admin roles in the role column.
	AdminStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)
