// Package pagination computes page windows over an ordered collection.
//
// Page numbers are 1-indexed and taken as given: a page before the first or
// past the last produces a window with no rows rather than an error.
package pagination

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the page size used when none, or an invalid one, is given.
	DefaultLimit = 10
	// MaxLimit is the largest page size a caller may ask for.
	MaxLimit = 50
)

// maxStart bounds Start so that Start+limit never overflows.
const maxStart = math.MaxInt - MaxLimit

// Window describes the [Start, End) slice shown on one page.
type Window struct {
	Page       int
	Limit      int
	Start      int
	End        int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// ParseLimit turns a raw limit parameter into the effective limit. Anything
// that is not an integer in [1, MaxLimit] falls back to DefaultLimit.
func ParseLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultLimit
	}
	return ClampLimit(n)
}

// ClampLimit applies the same policy as ParseLimit to an already numeric limit.
func ClampLimit(n int) int {
	if n <= 0 || n > MaxLimit {
		return DefaultLimit
	}
	return n
}

// New computes the window for page over total rows. limit is clamped first.
// Pages too far out for the row arithmetic saturate instead of wrapping.
func New(total, page, limit int) Window {
	if total < 0 {
		total = 0
	}
	limit = ClampLimit(limit)

	w := Window{
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
	switch {
	case page > 1 && page-1 > maxStart/limit:
		w.Start = maxStart
	case page < 1-maxStart/limit:
		w.Start = -maxStart
	default:
		w.Start = (page - 1) * limit
	}
	w.End = w.Start + limit
	w.HasNext = page < w.TotalPages
	w.HasPrev = page > 1
	return w
}

// Bounds clips the window to [0, total) and returns the offset and row count
// to fetch. ok is false when the window holds no rows.
func (w Window) Bounds(total int) (offset, count int, ok bool) {
	start, end := w.Start, w.End
	if start < 0 {
		start = 0
	}
	if end > total {
		end = total
	}
	if start >= end {
		return 0, 0, false
	}
	return start, end - start, true
}

// NextPage is the page number after w.
func (w Window) NextPage() int { return w.Page + 1 }

// PrevPage is the page number before w.
func (w Window) PrevPage() int { return w.Page - 1 }
