// Package paging implements fixed-size page cursors and the page-button
// strip shared by the feed and the country modal.
package paging

const (
	FeedPageSize  = 10
	ModalPageSize = 5
)

// Cursor is a 1-based page over a list of known length.
type Cursor struct {
	Page int
	Size int
}

// TotalPages is ceil(n/size); zero items means zero pages.
func (c Cursor) TotalPages(n int) int {
	if n <= 0 || c.Size <= 0 {
		return 0
	}
	return (n + c.Size - 1) / c.Size
}

// Bounds returns the half-open [start,end) slice bounds of the current page.
// Pages past the end, and pages below 1, yield an empty range rather than an
// error.
func (c Cursor) Bounds(n int) (int, int) {
	if c.Page < 1 || c.Size <= 0 {
		return 0, 0
	}
	start := (c.Page - 1) * c.Size
	if start >= n {
		return n, n
	}
	end := start + c.Size
	if end > n {
		end = n
	}
	return start, end
}

// Slice returns the current page of items; it may be empty.
func Slice[T any](c Cursor, items []T) []T {
	start, end := c.Bounds(len(items))
	return items[start:end]
}

// ButtonKind distinguishes the entries of a page strip.
type ButtonKind int

const (
	ButtonPrev ButtonKind = iota
	ButtonPage
	ButtonEllipsis
	ButtonNext
)

// Button is one entry of the page strip. Page is the target page for
// prev/next/page buttons and 0 for ellipses.
type Button struct {
	Kind   ButtonKind
	Page   int
	Active bool
}

// Buttons lays out the strip for current of total pages: prev, the first and
// last pages, current±1, an ellipsis where pages are skipped, and next. One
// page or fewer produces no strip.
func Buttons(current, total int) []Button {
	if total <= 1 {
		return nil
	}

	var out []Button
	if current > 1 {
		out = append(out, Button{Kind: ButtonPrev, Page: current - 1})
	}
	for i := 1; i <= total; i++ {
		switch {
		case i == 1 || i == total || (i >= current-1 && i <= current+1):
			out = append(out, Button{Kind: ButtonPage, Page: i, Active: i == current})
		case (i == current-2 && current > 3) || (i == current+2 && current < total-2):
			out = append(out, Button{Kind: ButtonEllipsis})
		}
	}
	if current < total {
		out = append(out, Button{Kind: ButtonNext, Page: current + 1})
	}
	return out
}
