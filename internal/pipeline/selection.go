package pipeline

// Selection tracks the selected rows by identity under one SelectMode.
// Every method that needs positions takes the current post-sort/filter
// collection; rows are never selected by index.
type Selection struct {
	mode     SelectMode
	selected map[*Row]struct{}
	anchor   *Row
}

// NewSelection returns an empty selection in mode.
func NewSelection(mode SelectMode) *Selection {
	return &Selection{
		mode:     mode,
		selected: make(map[*Row]struct{}),
	}
}

// Mode returns the selection mode.
func (s *Selection) Mode() SelectMode {
	return s.mode
}

// Anchor returns the range anchor, or nil.
func (s *Selection) Anchor() *Row {
	return s.anchor
}

// Len returns the number of selected rows.
func (s *Selection) Len() int {
	return len(s.selected)
}

// IsSelected reports whether row is selected.
func (s *Selection) IsSelected(row *Row) bool {
	_, ok := s.selected[row]
	return ok
}

// Clear drops the selection and the anchor.
func (s *Selection) Clear() {
	s.selected = make(map[*Row]struct{})
	s.anchor = nil
}

// Click applies a row click. It reports whether the click was consumed
// (mode none and rows outside collection are ignored).
func (s *Selection) Click(collection []*Row, row *Row, mods Modifiers) bool {
	if s.mode == SelectNone || indexOf(collection, row) < 0 {
		return false
	}

	switch s.mode {
	case SelectSingle:
		if len(s.selected) == 1 && s.IsSelected(row) {
			s.Clear()
			return true
		}
		s.selected = map[*Row]struct{}{row: {}}

	case SelectMulti:
		s.toggle(row)

	case SelectRange:
		switch {
		case mods.Shift:
			from := indexOf(collection, s.anchor)
			if s.anchor == nil || from < 0 {
				s.plainRangeClick(row)
				return true
			}
			to := indexOf(collection, row)
			if from > to {
				from, to = to, from
			}
			for _, r := range collection[from : to+1] {
				s.selected[r] = struct{}{}
			}
		case mods.CtrlOrMeta:
			s.toggle(row)
		default:
			s.plainRangeClick(row)
		}
	}
	return true
}

func (s *Selection) plainRangeClick(row *Row) {
	s.selected = map[*Row]struct{}{row: {}}
	s.anchor = row
}

func (s *Selection) toggle(row *Row) {
	if s.IsSelected(row) {
		delete(s.selected, row)
		return
	}
	s.selected[row] = struct{}{}
}

// ToggleAll is the header "select all" control: with nothing selected it
// selects the whole collection, otherwise (fully or partially selected) it
// clears. Only multi and range modes allow it; it reports whether it acted.
func (s *Selection) ToggleAll(collection []*Row) bool {
	if s.mode != SelectMulti && s.mode != SelectRange {
		return false
	}
	if len(s.selected) > 0 {
		s.Clear()
		return true
	}
	for _, r := range collection {
		s.selected[r] = struct{}{}
	}
	return true
}

// AllSelected reports whether every row of a non-empty collection is selected.
func (s *Selection) AllSelected(collection []*Row) bool {
	if len(collection) == 0 {
		return false
	}
	for _, r := range collection {
		if !s.IsSelected(r) {
			return false
		}
	}
	return true
}

// Rows returns the selected rows in collection order.
func (s *Selection) Rows(collection []*Row) []*Row {
	out := make([]*Row, 0, len(s.selected))
	for _, r := range collection {
		if s.IsSelected(r) {
			out = append(out, r)
		}
	}
	return out
}

func indexOf(collection []*Row, row *Row) int {
	if row == nil {
		return -1
	}
	for i, r := range collection {
		if r == row {
			return i
		}
	}
	return -1
}
