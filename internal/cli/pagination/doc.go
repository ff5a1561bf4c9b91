// Package pagination provides utilities for CLI pagination, sorting, and result formatting.
//
// This package contains the shared pagination logic used by headless commands,
// including:
//   - Params: CLI flag parsing and validation
//   - Meta: Response metadata for paginated results
//   - Sorter: Sorting over roster records with field validation
package pagination
