// Package pagination provides types for zero-based paginated queries with
// derived result metadata.
//
// Requests are validated, never silently corrected: an out-of-range page
// size is an error, and a page index beyond the last page yields an empty
// item list with true totals rather than a clamped page.
package pagination

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest indicates a page request outside the configured bounds.
var ErrInvalidRequest = errors.New("invalid page request")

// PageRequest identifies one page of a result set. Page is zero-based.
type PageRequest struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// ApplyDefaults fills an unset (zero) Size with the configured default.
// A zero Page is already the first page and needs no defaulting.
func (r *PageRequest) ApplyDefaults(cfg Config) {
	if r.Size == 0 {
		r.Size = cfg.DefaultPageSize
	}
}

// Validate checks the request against the configured bounds.
// It never adjusts values; callers decide whether to apply defaults first.
func (r PageRequest) Validate(cfg Config) error {
	if r.Page < 0 {
		return fmt.Errorf("%w: page %d is negative", ErrInvalidRequest, r.Page)
	}
	if r.Size < 1 {
		return fmt.Errorf("%w: size %d below minimum 1", ErrInvalidRequest, r.Size)
	}
	if r.Size > cfg.MaxPageSize {
		return fmt.Errorf("%w: size %d exceeds maximum %d", ErrInvalidRequest, r.Size, cfg.MaxPageSize)
	}
	return nil
}

// Offset returns the number of records preceding the requested page.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// ResultPage holds one page of items plus metadata derived from the total
// count and page size. The boolean fields are never stored or settable
// independently; NewResultPage is the only constructor.
type ResultPage[T any] struct {
	Items      []T  `json:"items"`
	TotalItems int  `json:"totalItems"`
	TotalPages int  `json:"totalPages"`
	PageIndex  int  `json:"pageIndex"`
	IsFirst    bool `json:"isFirst"`
	IsLast     bool `json:"isLast"`
	IsEmpty    bool `json:"isEmpty"`
}

// NewResultPage derives page metadata from the item slice, total count,
// zero-based page index, and page size. A request past the last page
// produces an empty Items with IsLast true and the totals intact.
func NewResultPage[T any](items []T, totalItems, pageIndex, size int) ResultPage[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if size > 0 {
		totalPages = totalItems / size
		if totalItems%size != 0 {
			totalPages++
		}
	}

	return ResultPage[T]{
		Items:      items,
		TotalItems: totalItems,
		TotalPages: totalPages,
		PageIndex:  pageIndex,
		IsFirst:    pageIndex == 0,
		IsLast:     pageIndex >= totalPages-1,
		IsEmpty:    len(items) == 0,
	}
}
