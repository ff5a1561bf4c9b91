package pagination

import (
	"errors"
	"fmt"
	"strings"
)

// Validation limits for the page-based flags.
const (
	DefaultPage      = 1
	MinPage          = 1
	DefaultPageSize  = 50
	MinPageSize      = 1
	MaxPageSize      = 1000
	DefaultSortField = ""
	DefaultSortOrder = "asc"
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"
)

// Common validation errors.
var (
	ErrInvalidPage       = errors.New("page must be >= 1")
	ErrInvalidPageSize   = errors.New("page-size must be between 1 and 1000")
	ErrInvalidSortOrder  = errors.New("sort order must be 'asc' or 'desc'")
	ErrInvalidSortFormat = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'name:desc')")
	ErrEmptySortField    = errors.New("sort field cannot be empty")
	ErrInvalidSortField  = errors.New("invalid sort field")
)

// Params holds the CLI pagination flags and provides validation.
type Params struct {
	// Page is the 1-based page number.
	Page int

	// PageSize is the number of records per page.
	PageSize int

	// SortField is the field name to sort by (e.g., "name", "id").
	SortField string

	// SortOrder is the sort direction: "asc" or "desc".
	SortOrder string
}

// NewParams creates a Params with default values.
func NewParams() *Params {
	return &Params{
		Page:      DefaultPage,
		PageSize:  DefaultPageSize,
		SortField: DefaultSortField,
		SortOrder: DefaultSortOrder,
	}
}

// Validate checks that the pagination parameters are in range.
func (p Params) Validate() error {
	if p.Page < MinPage {
		return ErrInvalidPage
	}
	if p.PageSize < MinPageSize || p.PageSize > MaxPageSize {
		return ErrInvalidPageSize
	}
	if p.SortOrder != SortOrderAsc && p.SortOrder != SortOrderDesc {
		return fmt.Errorf("%w: got %q", ErrInvalidSortOrder, p.SortOrder)
	}
	return nil
}

// sortPartsMax is the maximum number of parts in a sort string (field:order).
const sortPartsMax = 2

// ParseSort parses a sort string in the format "field" or "field:order".
// Examples: "name", "id:desc", "email:asc"
// Returns the field name and order, or an error if invalid.
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(sortStr string) (field, order string, err error) {
	if sortStr == "" {
		return DefaultSortField, DefaultSortOrder, nil
	}

	parts := strings.Split(sortStr, ":")
	switch len(parts) {
	case 1:
		// Just field name, use default order
		field = strings.TrimSpace(parts[0])
		order = DefaultSortOrder
	case sortPartsMax:
		// Field and order specified
		field = strings.TrimSpace(parts[0])
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	if field == "" {
		return "", "", ErrEmptySortField
	}

	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}

	return field, order, nil
}

// Offset returns the 0-based index of the first record on the requested page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ClampPage caps the requested page to the last page of a result set of the
// given size, so the window and its metadata describe the same page. Pages
// already in range, and any page over an empty set, are returned unchanged.
func (p Params) ClampPage(totalItems int) Params {
	if last := p.TotalPages(totalItems); last >= MinPage && p.Page > last {
		p.Page = last
	}
	return p
}

// TotalPages calculates the number of pages a result set of the given size
// spans. Returns 0 for an empty set.
func (p Params) TotalPages(totalItems int) int {
	if totalItems == 0 || p.PageSize <= 0 {
		return 0
	}
	pages := totalItems / p.PageSize
	if totalItems%p.PageSize > 0 {
		pages++
	}
	return pages
}
