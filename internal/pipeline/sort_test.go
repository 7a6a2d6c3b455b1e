package pipeline

import (
	"encoding/json"
	"math"
	"testing"
)

func TestSort_SingleKey(t *testing.T) {
	rows := makeRows(
		map[string]any{"name": "B", "age": 2},
		map[string]any{"name": "A", "age": 1},
	)
	got := Sort(rows, []SortCriterion{{Key: "name", Order: Asc}})

	if c := column(got, "name"); c != "A,B" {
		t.Fatalf("got %s, want A,B", c)
	}
	if c := column(got, "age"); c != "1,2" {
		t.Fatalf("got ages %s, want 1,2", c)
	}
}

func TestSort_MultiKeyTieBreak(t *testing.T) {
	rows := makeRows(
		map[string]any{"age": 1, "name": "B"},
		map[string]any{"age": 1, "name": "A"},
		map[string]any{"age": 0, "name": "C"},
	)
	got := Sort(rows, []SortCriterion{{Key: "age", Order: Asc}, {Key: "name", Order: Asc}})

	if c := column(got, "name"); c != "C,A,B" {
		t.Fatalf("got %s, want C,A,B", c)
	}
}

func TestSort_NoCriteriaReturnsCopy(t *testing.T) {
	rows := numberedRows(5)
	got := Sort(rows, nil)

	assertSameRows(t, got, rows)
	got[0] = nil
	if rows[0] == nil {
		t.Fatal("Sort must return a new slice")
	}
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	rows := makeRows(
		map[string]any{"n": 3},
		map[string]any{"n": 1},
		map[string]any{"n": 2},
	)
	before := append([]*Row(nil), rows...)

	Sort(rows, []SortCriterion{{Key: "n", Order: Asc}})

	assertSameRows(t, rows, before)
}

func TestSort_Stable(t *testing.T) {
	rows := makeRows(
		map[string]any{"group": "x", "id": 1},
		map[string]any{"group": "y", "id": 2},
		map[string]any{"group": "x", "id": 3},
		map[string]any{"group": "y", "id": 4},
		map[string]any{"group": "x", "id": 5},
	)

	asc := Sort(rows, []SortCriterion{{Key: "group", Order: Asc}})
	if c := column(asc, "id"); c != "1,3,5,2,4" {
		t.Fatalf("asc: got %s, want 1,3,5,2,4", c)
	}

	// desc reverses the key but not the source-order tie-break
	desc := Sort(rows, []SortCriterion{{Key: "group", Order: Desc}})
	if c := column(desc, "id"); c != "2,4,1,3,5" {
		t.Fatalf("desc: got %s, want 2,4,1,3,5", c)
	}
}

func TestSort_NilSortsLastBothDirections(t *testing.T) {
	rows := makeRows(
		map[string]any{"id": "a", "v": nil},
		map[string]any{"id": "b", "v": 2},
		map[string]any{"id": "c"},
		map[string]any{"id": "d", "v": 1},
	)

	asc := Sort(rows, []SortCriterion{{Key: "v", Order: Asc}})
	if c := column(asc, "id"); c != "d,b,a,c" {
		t.Fatalf("asc: got %s, want d,b,a,c", c)
	}

	desc := Sort(rows, []SortCriterion{{Key: "v", Order: Desc}})
	if c := column(desc, "id"); c != "b,d,a,c" {
		t.Fatalf("desc: got %s, want b,d,a,c", c)
	}
}

func TestSort_UnknownKeyKeepsOrder(t *testing.T) {
	rows := numberedRows(4)
	got := Sort(rows, []SortCriterion{{Key: "missing", Order: Desc}})
	assertSameRows(t, got, rows)
}

func TestSort_NumbersBeforeStrings(t *testing.T) {
	rows := makeRows(
		map[string]any{"id": "s", "v": "text"},
		map[string]any{"id": "n10", "v": 10},
		map[string]any{"id": "n9", "v": 9.5},
	)

	asc := Sort(rows, []SortCriterion{{Key: "v", Order: Asc}})
	if c := column(asc, "id"); c != "n9,n10,s" {
		t.Fatalf("asc: got %s, want n9,n10,s", c)
	}

	desc := Sort(rows, []SortCriterion{{Key: "v", Order: Desc}})
	if c := column(desc, "id"); c != "s,n10,n9" {
		t.Fatalf("desc: got %s, want s,n10,n9", c)
	}
}

func TestSort_CaseInsensitiveStrings(t *testing.T) {
	rows := makeRows(
		map[string]any{"v": "banana"},
		map[string]any{"v": "Apple"},
		map[string]any{"v": "cherry"},
	)
	got := Sort(rows, []SortCriterion{{Key: "v", Order: Asc}})
	if c := column(got, "v"); c != "Apple,banana,cherry" {
		t.Fatalf("got %s", c)
	}
}

func TestSort_MixedNumericKinds(t *testing.T) {
	rows := makeRows(
		map[string]any{"v": json.Number("3")},
		map[string]any{"v": int64(1)},
		map[string]any{"v": uint8(2)},
		map[string]any{"v": float32(0.5)},
	)
	got := Sort(rows, []SortCriterion{{Key: "v", Order: Asc}})
	if c := column(got, "v"); c != "0.5,1,2,3" {
		t.Fatalf("got %s, want 0.5,1,2,3", c)
	}
}

func TestSort_Idempotent(t *testing.T) {
	rows := makeRows(
		map[string]any{"a": 2, "b": "x"},
		map[string]any{"a": 1, "b": "y"},
		map[string]any{"a": 2, "b": "a"},
		map[string]any{"a": nil, "b": "z"},
	)
	criteria := []SortCriterion{{Key: "a", Order: Desc}, {Key: "b", Order: Asc}}

	once := Sort(rows, criteria)
	twice := Sort(once, criteria)
	assertSameRows(t, twice, once)
}

func TestToggleSort_PlainClick(t *testing.T) {
	var c []SortCriterion

	c = ToggleSort(c, "name", false)
	if len(c) != 1 || c[0] != (SortCriterion{Key: "name", Order: Asc}) {
		t.Fatalf("first click: got %v", c)
	}

	c = ToggleSort(c, "name", false)
	if len(c) != 1 || c[0].Order != Desc {
		t.Fatalf("second click: got %v", c)
	}

	c = ToggleSort(c, "name", false)
	if len(c) != 0 {
		t.Fatalf("third click should clear, got %v", c)
	}
}

func TestToggleSort_PlainClickReplacesMultiSort(t *testing.T) {
	c := []SortCriterion{{Key: "name", Order: Asc}, {Key: "age", Order: Desc}}

	got := ToggleSort(c, "name", false)
	if len(got) != 1 || got[0] != (SortCriterion{Key: "name", Order: Asc}) {
		t.Fatalf("got %v, want [name:asc]", got)
	}
	if len(c) != 2 {
		t.Fatal("input criteria must not be modified")
	}
}

func TestToggleSort_ModifierClick(t *testing.T) {
	c := []SortCriterion{{Key: "name", Order: Asc}}

	c = ToggleSort(c, "age", true)
	if len(c) != 2 || c[1] != (SortCriterion{Key: "age", Order: Asc}) {
		t.Fatalf("add: got %v", c)
	}

	c = ToggleSort(c, "age", true)
	if len(c) != 2 || c[1].Order != Desc || c[0].Order != Asc {
		t.Fatalf("cycle: got %v", c)
	}

	c = ToggleSort(c, "age", true)
	if len(c) != 1 || c[0].Key != "name" {
		t.Fatalf("remove: got %v", c)
	}

	c = ToggleSort(c, "name", true)
	c = ToggleSort(c, "name", true)
	if c != nil {
		t.Fatalf("removing the last criterion should clear, got %v", c)
	}
}

func TestParseSortCriteria(t *testing.T) {
	got, err := ParseSortCriteria("name:asc, age:DESC,city")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []SortCriterion{{"name", Asc}, {"age", Desc}, {"city", Asc}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("criterion %d: got %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := ParseSortCriteria("name:sideways"); err == nil {
		t.Fatal("expected error for invalid order")
	}
}

func TestSort_NaNSortsLast(t *testing.T) {
	nan := math.NaN()
	vals := []any{5.0, nan, 3.0, 1.0, nan, 4.0, 2.0, 0.0, 9.0, nan, 7.0, 6.0, 8.0, 12.0, 11.0, 10.0}
	ms := make([]map[string]any, len(vals))
	for i, v := range vals {
		ms[i] = map[string]any{"n": v}
	}
	rows := makeRows(ms...)

	asc := Sort(rows, []SortCriterion{{Key: "n", Order: Asc}})
	if c := column(asc, "n"); c != "0,1,2,3,4,5,6,7,8,9,10,11,12,NaN,NaN,NaN" {
		t.Fatalf("asc: got %s", c)
	}
	desc := Sort(rows, []SortCriterion{{Key: "n", Order: Desc}})
	if c := column(desc, "n"); c != "12,11,10,9,8,7,6,5,4,3,2,1,0,NaN,NaN,NaN" {
		t.Fatalf("desc: got %s", c)
	}
}

func TestSort_LargeIntegersExact(t *testing.T) {
	rows := makeRows(
		map[string]any{"id": int64(9007199254740993)},
		map[string]any{"id": int64(9007199254740992)},
	)
	got := Sort(rows, []SortCriterion{{Key: "id", Order: Asc}})
	if c := column(got, "id"); c != "9007199254740992,9007199254740993" {
		t.Fatalf("int64: got %s", c)
	}

	rows = makeRows(
		map[string]any{"id": json.Number("9007199254740993")},
		map[string]any{"id": json.Number("9007199254740992")},
		map[string]any{"id": json.Number("18446744073709551615")},
		map[string]any{"id": json.Number("18446744073709551614")},
	)
	got = Sort(rows, []SortCriterion{{Key: "id", Order: Asc}})
	want := "9007199254740992,9007199254740993,18446744073709551614,18446744073709551615"
	if c := column(got, "id"); c != want {
		t.Fatalf("json.Number: got %s, want %s", c, want)
	}
}

func TestCompareValues_MixedIntegerKinds(t *testing.T) {
	tests := []struct {
		a, b any
		want int
	}{
		{int64(-1), uint64(0), -1},
		{uint64(1 << 63), int64(math.MaxInt64), 1},
		{int64(math.MaxInt64), uint64(1 << 63), -1},
		{uint8(3), int(3), 0},
		{int64(9007199254740993), 9007199254740992.0, 0},
		{json.Number("2.5"), 2, 1},
	}
	for _, tt := range tests {
		if got := CompareValues(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareValues(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
