// Package listview provides the scrolling list component for the rosterfeed
// TUI.
//
// The model holds the full accumulated row set and tracks which slice of it
// the terminal viewport shows. Key features:
//   - Keyboard navigation (up/down, pgup/pgdn, home/end, vim j/k)
//   - Items replaceable in place as pages are appended or the derived view
//     changes, with the cursor clamped to the new bounds
//   - Visible-range reporting, which the scroll monitor uses to detect
//     proximity to the end of loaded content
package listview
