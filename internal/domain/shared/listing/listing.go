// Package listing provides a single, reusable filter-and-paginate contract
// shared by every list surface (pending reviews, history tabs, rosters).
// Filtering is pure: the input slice is never mutated and the same inputs
// always produce the same result.
package listing

import (
	"strings"

	"github.com/toms/backend/internal/domain/shared/valueobject"
)

// EmptyKind distinguishes the two empty states a list surface must render
// differently: an empty source collection versus a filter that matched nothing.
type EmptyKind int

const (
	// EmptyNone means the page contains at least one item
	EmptyNone EmptyKind = iota
	// EmptyNoRecords means the source collection itself is empty
	EmptyNoRecords
	// EmptyNoMatches means records exist but none match the active filter
	EmptyNoMatches
)

// Options holds the filter and pagination inputs for a query
type Options struct {
	// Search is matched case-insensitively against every string the
	// field accessor yields for a record
	Search string
	// Range, when non-nil, keeps only records whose interval overlaps it
	Range *valueobject.DateRange
	// Page is 1-based; out-of-range values are clamped, never an error
	Page int
	// PageSize defaults to DefaultPageSize when not positive
	PageSize int
}

// DefaultPageSize is used when Options.PageSize is not positive
const DefaultPageSize = 10

// Result is one page of a filtered collection plus the counts the UI
// derives "showing X-Y of Z" and page controls from
type Result[T any] struct {
	Items      []T
	Total      int
	Page       int
	PageSize   int
	TotalPages int
	// From and To are 1-based display positions within the filtered set,
	// both zero when the page is empty
	From  int
	To    int
	Empty EmptyKind
}

// FieldsFunc yields the searchable strings of a record
type FieldsFunc[T any] func(record T) []string

// IntervalFunc yields the date interval of a record for range filtering
type IntervalFunc[T any] func(record T) valueobject.DateRange

// Query filters records by free-text search and date-range overlap, then
// returns the requested page. A nil fields or interval accessor disables
// the corresponding filter.
func Query[T any](records []T, opts Options, fields FieldsFunc[T], interval IntervalFunc[T]) Result[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}

	filtered := filter(records, opts, fields, interval)
	total := len(filtered)

	totalPages := total / opts.PageSize
	if total%opts.PageSize > 0 {
		totalPages++
	}

	// Clamp to the last valid page instead of erroring
	page := opts.Page
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	result := Result[T]{
		Items:      []T{},
		Total:      total,
		Page:       page,
		PageSize:   opts.PageSize,
		TotalPages: totalPages,
	}

	if total == 0 {
		if len(records) == 0 {
			result.Empty = EmptyNoRecords
		} else {
			result.Empty = EmptyNoMatches
		}
		result.Page = 1
		return result
	}

	offset := (page - 1) * opts.PageSize
	end := offset + opts.PageSize
	if end > total {
		end = total
	}

	result.Items = filtered[offset:end]
	result.From = offset + 1
	result.To = end
	return result
}

func filter[T any](records []T, opts Options, fields FieldsFunc[T], interval IntervalFunc[T]) []T {
	term := strings.ToLower(strings.TrimSpace(opts.Search))

	out := make([]T, 0, len(records))
	for _, record := range records {
		if term != "" && fields != nil && !matchesTerm(fields(record), term) {
			continue
		}
		if opts.Range != nil && interval != nil {
			iv := interval(record)
			if !iv.IsZero() && !iv.Overlaps(*opts.Range) {
				continue
			}
		}
		out = append(out, record)
	}
	return out
}

func matchesTerm(values []string, term string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// State tracks the previously applied options so a change to the search
// term, date range, or page size resets the page back to 1. Each list
// surface holds its own State; it is deliberately not shared.
type State struct {
	prev Options
	used bool
}

// Normalize returns the options to actually apply, resetting the page to 1
// whenever a filter input changed since the previous call.
func (s *State) Normalize(opts Options) Options {
	if s.used && filterChanged(s.prev, opts) {
		opts.Page = 1
	}
	s.prev = opts
	s.used = true
	return opts
}

func filterChanged(prev, next Options) bool {
	if prev.Search != next.Search || prev.PageSize != next.PageSize {
		return true
	}
	if (prev.Range == nil) != (next.Range == nil) {
		return true
	}
	if prev.Range != nil && next.Range != nil {
		if !prev.Range.Start().Equal(next.Range.Start()) || !prev.Range.End().Equal(next.Range.End()) {
			return true
		}
	}
	return false
}
