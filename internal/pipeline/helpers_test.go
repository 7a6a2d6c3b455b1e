package pipeline

import (
	"fmt"
	"strings"
	"testing"
)

// helper to build rows from maps
func makeRows(ms ...map[string]any) []*Row {
	out := make([]*Row, len(ms))
	for i, m := range ms {
		out[i] = NewRow(m)
	}
	return out
}

// helper to build n rows {id: i, name: "row<i>"}
func numberedRows(n int) []*Row {
	out := make([]*Row, n)
	for i := range out {
		out[i] = NewRow(map[string]any{"id": i, "name": fmt.Sprintf("row%02d", i)})
	}
	return out
}

// column renders one key of every row, for compact comparisons
func column(rows []*Row, key string) string {
	vals := make([]string, len(rows))
	for i, r := range rows {
		vals[i] = r.String(key)
	}
	return strings.Join(vals, ",")
}

func assertSameRows(t *testing.T, got, want []*Row) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("row %d: got %p (%v), want %p (%v)", i, got[i], got[i].Values(), want[i], want[i].Values())
		}
	}
}
