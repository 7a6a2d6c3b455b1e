package pipeline

// MaxPage is the number of pages needed for total rows, never less than 1.
// PageSizeAll always yields a single page.
func MaxPage(total int, size PageSize) int {
	if size <= PageSizeAll || total <= 0 {
		return 1
	}
	n := int(size)
	return (total + n - 1) / n
}

// ClampPage forces page into [1, MaxPage(total, size)].
func ClampPage(page, total int, size PageSize) int {
	if page < 1 {
		return 1
	}
	if last := MaxPage(total, size); page > last {
		return last
	}
	return page
}

// Paginate returns the rows of the current page as a new slice. Bounds are
// clamped into the collection, so an out-of-range page yields no rows rather
// than an error; Pipeline clamps the page before calling this.
func Paginate(rows []*Row, state PaginationState) []*Row {
	size := int(state.PageSize)
	if state.PageSize <= PageSizeAll {
		size = len(rows)
	}

	page := state.CurrentPage
	if page < 1 {
		page = 1
	}

	start := clampInt((page-1)*size, 0, len(rows))
	end := clampInt(start+size, 0, len(rows))

	out := make([]*Row, end-start)
	copy(out, rows[start:end])
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
