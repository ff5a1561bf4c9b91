package pagination

import (
	"sort"

	"github.com/rshade/rosterfeed/internal/roster"
)

// Sorter defines the interface for sorting roster records.
type Sorter interface {
	// Sort sorts a slice of records by the specified field and order.
	Sort(records []roster.Record, field, order string) []roster.Record
	// IsValidField checks if the given field name is valid for sorting.
	IsValidField(field string) bool
	// GetValidFields returns a list of valid field names for sorting.
	GetValidFields() []string
}

// RecordSorter implements Sorter for roster.Record.
type RecordSorter struct {
	validFields map[string]bool
}

// NewRecordSorter creates a new RecordSorter with valid sort fields.
func NewRecordSorter() *RecordSorter {
	return &RecordSorter{
		validFields: map[string]bool{
			"id":    true,
			"name":  true,
			"email": true,
			"role":  true,
		},
	}
}

// IsValidField checks if the field is valid for sorting.
func (s *RecordSorter) IsValidField(field string) bool {
	return s.validFields[field]
}

// GetValidFields returns all valid sort fields.
func (s *RecordSorter) GetValidFields() []string {
	fields := make([]string, 0, len(s.validFields))
	for field := range s.validFields {
		fields = append(fields, field)
	}
	sort.Strings(fields) // Return in consistent order
	return fields
}

// Sort sorts records by the specified field and order.
// Returns a new sorted slice; does not modify the original.
// If field is invalid, returns the original slice unchanged.
func (s *RecordSorter) Sort(records []roster.Record, field, order string) []roster.Record {
	if !s.IsValidField(field) {
		return records
	}

	sorted := make([]roster.Record, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		// For descending order, swap i and j in comparisons to maintain stability
		if order == SortOrderDesc {
			i, j = j, i
		}

		switch field {
		case "id":
			return sorted[i].ID < sorted[j].ID
		case "name":
			return sorted[i].Name < sorted[j].Name
		case "email":
			return sorted[i].Email < sorted[j].Email
		case "role":
			return sorted[i].Role < sorted[j].Role
		default:
			return false
		}
	})

	return sorted
}

// Window applies the page window to a slice of records. Pages beyond the end
// of the slice are capped to the last available page.
func (p Params) Window(records []roster.Record) []roster.Record {
	if len(records) == 0 {
		return records
	}

	offset := p.Offset()
	if offset >= len(records) {
		pageSize := p.PageSize
		if pageSize <= 0 {
			pageSize = len(records)
		}
		offset = ((len(records) - 1) / pageSize) * pageSize
	}

	end := offset + p.PageSize
	if p.PageSize <= 0 || end > len(records) {
		end = len(records)
	}

	return records[offset:end]
}
