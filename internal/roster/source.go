package roster

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/friendsofgo/errors"
	"golang.org/x/sync/singleflight"

	"github.com/rshade/rosterfeed/internal/logging"
)

// Default dataset partitioning.
const (
	DefaultTotalRecords = 10000
	DefaultPageSize     = 50
	DefaultFetchDelay   = 500 * time.Millisecond
)

// ErrInvalidPage is returned when a page number below 1 is requested.
var ErrInvalidPage = errors.New("page number must be >= 1")

// Fetcher returns one page of roster records. Implementations are expected
// to honor ctx cancellation while the fetch is pending.
type Fetcher interface {
	FetchPage(ctx context.Context, page int) (Page, error)
}

// FailFunc lets tests inject fetch failures per page. Returning a non-nil
// error fails the fetch after the simulated delay has elapsed.
type FailFunc func(page int) error

// Source is an in-memory Fetcher over a synthesized dataset. It simulates
// network latency and collapses concurrent fetches of the same page, so a
// misbehaving caller cannot issue the same page twice in parallel.
type Source struct {
	total    int
	pageSize int
	delay    time.Duration
	failFn   FailFunc
	group    singleflight.Group
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithDelay overrides the simulated per-fetch latency.
func WithDelay(d time.Duration) SourceOption {
	return func(s *Source) { s.delay = d }
}

// WithFailFunc installs a per-page failure injector.
func WithFailFunc(fn FailFunc) SourceOption {
	return func(s *Source) { s.failFn = fn }
}

// NewSource creates a Source over total synthesized records served pageSize
// at a time. Non-positive arguments fall back to the package defaults.
func NewSource(total, pageSize int, opts ...SourceOption) *Source {
	if total <= 0 {
		total = DefaultTotalRecords
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	s := &Source{
		total:    total,
		pageSize: pageSize,
		delay:    DefaultFetchDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TotalRecords returns the size of the synthesized dataset.
func (s *Source) TotalRecords() int {
	return s.total
}

// PageSize returns the number of records per page.
func (s *Source) PageSize() int {
	return s.pageSize
}

// FetchPage returns the requested 1-based page after the simulated delay.
// Pages past the end of the dataset return an empty record set with
// HasMore=false rather than an error.
func (s *Source) FetchPage(ctx context.Context, page int) (Page, error) {
	if page < 1 {
		return Page{}, errors.Wrapf(ErrInvalidPage, "got %d", page)
	}

	log := logging.FromContext(ctx)

	v, err, shared := s.group.Do(fmt.Sprintf("page-%d", page), func() (interface{}, error) {
		if s.delay > 0 {
			timer := time.NewTimer(s.delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return Page{}, errors.Wrap(ctx.Err(), "fetch cancelled")
			}
		}

		if s.failFn != nil {
			if failErr := s.failFn(page); failErr != nil {
				return Page{}, errors.Wrapf(failErr, "fetch page %d", page)
			}
		}

		return s.buildPage(page), nil
	})
	if err != nil {
		return Page{}, err
	}

	result, ok := v.(Page)
	if !ok {
		return Page{}, errors.New("unexpected singleflight result type")
	}

	log.Debug().
		Str("component", "roster").
		Int("page", page).
		Int("records", len(result.Records)).
		Bool("has_more", result.HasMore).
		Bool("shared", shared).
		Msg("fetched page")

	return result, nil
}

// buildPage synthesizes the records for a 1-based page index.
func (s *Source) buildPage(page int) Page {
	start := (page - 1) * s.pageSize
	end := start + s.pageSize
	if end > s.total {
		end = s.total
	}

	var records []Record
	if start < s.total {
		records = make([]Record, 0, end-start)
		for i := start; i < end; i++ {
			records = append(records, synthesize(i+1))
		}
	}

	return Page{
		Records: records,
		HasMore: page*s.pageSize < s.total,
	}
}

// Name pools for synthesized records. Mixed casing is deliberate so the
// dataset exercises case-insensitive matching.
var (
	firstNames = []string{
		"Alice", "bob", "Carl", "dana", "Elena", "frank", "Grace", "hugo",
		"Irene", "jack", "Karen", "leo", "Mona", "nate", "Olga", "pete",
		"Quinn", "rosa", "Sam", "tina", "Uma", "victor", "Wendy", "xavier",
	}
	lastNames = []string{
		"Adler", "Brooks", "Chen", "Diaz", "Ennis", "Fischer", "Gupta",
		"Hale", "Ivanov", "Jensen", "Kim", "Lopez", "Moreau", "Novak",
		"Okafor", "Park", "Quist", "Rossi", "Silva", "Tran",
	}
)

// synthesize builds a deterministic record for an ID.
func synthesize(id int) Record {
	first := firstNames[(id-1)%len(firstNames)]
	last := lastNames[(id-1)/len(firstNames)%len(lastNames)]

	role := RoleMember
	// Roughly one admin per ten members.
	if id%10 == 0 {
		role = RoleAdmin
	}

	return Record{
		ID:    id,
		Name:  fmt.Sprintf("%s %s", first, last),
		Email: fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), id),
		Role:  role,
	}
}
