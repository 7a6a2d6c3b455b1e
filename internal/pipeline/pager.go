package pipeline

import "fmt"

// PageInfo is what the pagination control is given to render. It holds no
// authoritative state: every action returns a message for the pipeline to
// apply, and the control is refreshed from the next View.
type PageInfo struct {
	CurrentPage int
	TotalRows   int
	PageSize    PageSize
}

// MaxPage returns the last page number.
func (p PageInfo) MaxPage() int {
	return MaxPage(p.TotalRows, p.PageSize)
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool {
	return p.CurrentPage > 1
}

// HasNext reports whether a next page exists.
func (p PageInfo) HasNext() bool {
	return p.CurrentPage < p.MaxPage()
}

// Goto requests page n. Out-of-range values are clamped by the pipeline.
func (p PageInfo) Goto(n int) PageChanged {
	return PageChanged{Page: n}
}

func (p PageInfo) First() PageChanged { return p.Goto(1) }
func (p PageInfo) Last() PageChanged  { return p.Goto(p.MaxPage()) }
func (p PageInfo) Prev() PageChanged  { return p.Goto(p.CurrentPage - 1) }
func (p PageInfo) Next() PageChanged  { return p.Goto(p.CurrentPage + 1) }

// WithPageSize requests a new page size.
func (p PageInfo) WithPageSize(size PageSize) PageSizeChanged {
	return PageSizeChanged{PageSize: size}
}

// Range returns the 1-based numbers of the first and last row on the current
// page; both are 0 when there are no rows.
func (p PageInfo) Range() (first, last int) {
	if p.TotalRows == 0 {
		return 0, 0
	}
	if p.PageSize <= PageSizeAll {
		return 1, p.TotalRows
	}
	first = (p.CurrentPage-1)*int(p.PageSize) + 1
	last = first + int(p.PageSize) - 1
	if last > p.TotalRows {
		last = p.TotalRows
	}
	return first, last
}

// String renders e.g. "21-25 of 25 (page 3/3)".
func (p PageInfo) String() string {
	first, last := p.Range()
	return fmt.Sprintf("%d-%d of %d (page %d/%d)", first, last, p.TotalRows, p.CurrentPage, p.MaxPage())
}

// nextPageSize cycles through sizes, wrapping around; an unknown current
// size starts from the first entry.
func nextPageSize(sizes []PageSize, cur PageSize) PageSize {
	if len(sizes) == 0 {
		return cur
	}
	for i, s := range sizes {
		if s == cur {
			return sizes[(i+1)%len(sizes)]
		}
	}
	return sizes[0]
}

// CyclePageSize requests the size after the current one in sizes.
func (p PageInfo) CyclePageSize(sizes []PageSize) PageSizeChanged {
	return p.WithPageSize(nextPageSize(sizes, p.PageSize))
}
