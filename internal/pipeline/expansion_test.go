package pipeline

import (
	"slices"
	"testing"
)

func TestExpansion_RemapAfterFilter(t *testing.T) {
	rows := numberedRows(5)
	e := NewExpansion()
	e.Toggle(2, len(rows))

	// the two rows before row 2 disappear
	narrowed := []*Row{rows[2], rows[3], rows[4]}
	e.Remap(rows, narrowed)

	if got := e.Positions(); !slices.Equal(got, []int{0}) {
		t.Fatalf("positions = %v, want [0]", got)
	}
}

func TestExpansion_RemapAfterReorder(t *testing.T) {
	rows := numberedRows(4)
	e := NewExpansion()
	e.Toggle(0, len(rows))
	e.Toggle(3, len(rows))

	reversed := []*Row{rows[3], rows[2], rows[1], rows[0]}
	e.Remap(rows, reversed)

	if got := e.Positions(); !slices.Equal(got, []int{0, 3}) {
		t.Fatalf("positions = %v, want [0 3]", got)
	}
	if !e.IsExpanded(3) || !e.IsExpanded(0) {
		t.Fatal("both rows should stay expanded")
	}

	e.Remap(reversed, []*Row{rows[1], rows[3]})
	if got := e.Positions(); !slices.Equal(got, []int{1}) {
		t.Fatalf("positions = %v, want [1] (rows[0] dropped, rows[3] moved)", got)
	}
}

func TestExpansion_RemapDropsMissing(t *testing.T) {
	rows := numberedRows(3)
	e := NewExpansion()
	e.Toggle(1, len(rows))

	e.Remap(rows, []*Row{rows[0], rows[2]})
	if e.Len() != 0 {
		t.Fatalf("removed row should be dropped, got %v", e.Positions())
	}
}

func TestExpansion_ToggleBounds(t *testing.T) {
	e := NewExpansion()
	if e.Toggle(-1, 3) || e.Toggle(3, 3) {
		t.Fatal("out-of-range positions must be ignored")
	}
	if !e.Toggle(1, 3) {
		t.Fatal("toggle should open the panel")
	}
	if e.Toggle(1, 3) {
		t.Fatal("second toggle should close the panel")
	}
	if e.Len() != 0 {
		t.Fatalf("expected nothing expanded, got %v", e.Positions())
	}
}

func TestExpansion_Seed(t *testing.T) {
	rows := makeRows(
		map[string]any{"id": 1},
		map[string]any{"id": 2, KeyShowDetails: true},
		map[string]any{"id": 3, KeyShowDetails: "yes"},
	)
	e := NewExpansion()
	e.Seed(rows)

	if got := e.Positions(); !slices.Equal(got, []int{1}) {
		t.Fatalf("positions = %v, want [1]", got)
	}
}
