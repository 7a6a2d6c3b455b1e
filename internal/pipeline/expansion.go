package pipeline

import "sort"

// Expansion tracks which rows have their detail panel open, as positions in
// the post-sort/filter (pre-pagination) collection. Changing pages never
// touches it; reordering goes through Remap.
type Expansion struct {
	positions map[int]struct{}
}

// NewExpansion returns an empty tracker.
func NewExpansion() *Expansion {
	return &Expansion{positions: make(map[int]struct{})}
}

// Toggle flips position pos. Positions outside [0, size) are ignored; it
// reports whether the position is now expanded.
func (e *Expansion) Toggle(pos, size int) bool {
	if pos < 0 || pos >= size {
		return false
	}
	if _, ok := e.positions[pos]; ok {
		delete(e.positions, pos)
		return false
	}
	e.positions[pos] = struct{}{}
	return true
}

// IsExpanded reports whether pos is expanded.
func (e *Expansion) IsExpanded(pos int) bool {
	_, ok := e.positions[pos]
	return ok
}

// Positions returns the expanded positions in ascending order.
func (e *Expansion) Positions() []int {
	out := make([]int, 0, len(e.positions))
	for p := range e.positions {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Len returns the number of expanded rows.
func (e *Expansion) Len() int {
	return len(e.positions)
}

// Clear collapses everything.
func (e *Expansion) Clear() {
	e.positions = make(map[int]struct{})
}

// Seed expands every row of collection that carries _showDetails=true.
func (e *Expansion) Seed(collection []*Row) {
	for i, r := range collection {
		if r.ShowDetails() {
			e.positions[i] = struct{}{}
		}
	}
}

// Remap moves each expanded position from oldCollection to the new position
// of the same row in newCollection, found by identity. Rows no longer present
// are dropped.
func (e *Expansion) Remap(oldCollection, newCollection []*Row) {
	if len(e.positions) == 0 {
		return
	}

	index := make(map[*Row]int, len(newCollection))
	for i, r := range newCollection {
		index[r] = i
	}

	remapped := make(map[int]struct{}, len(e.positions))
	for pos := range e.positions {
		if pos < 0 || pos >= len(oldCollection) {
			continue
		}
		if newPos, ok := index[oldCollection[pos]]; ok {
			remapped[newPos] = struct{}{}
		}
	}
	e.positions = remapped
}
