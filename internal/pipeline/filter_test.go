package pipeline

import "testing"

func TestFilter_RestrictedKeys(t *testing.T) {
	rows := makeRows(
		map[string]any{"name": "Anna"},
		map[string]any{"name": "Ben"},
	)
	got := Filter(rows, FilterState{Text: "an", RestrictedKeys: []string{"name"}})

	if len(got) != 1 || got[0] != rows[0] {
		t.Fatalf("expected only Anna, got %s", column(got, "name"))
	}
}

func TestFilter_EmptyTextIsNoOp(t *testing.T) {
	rows := numberedRows(4)

	for _, text := range []string{"", "   ", "\t"} {
		got := Filter(rows, FilterState{Text: text, RestrictedKeys: []string{"nothing"}})
		assertSameRows(t, got, rows)
	}
}

func TestFilter_CaseInsensitive(t *testing.T) {
	rows := makeRows(
		map[string]any{"city": "London"},
		map[string]any{"city": "Tokyo"},
	)
	got := Filter(rows, FilterState{Text: "  LON "})
	if column(got, "city") != "London" {
		t.Fatalf("got %s, want London", column(got, "city"))
	}
}

func TestFilter_AllColumns(t *testing.T) {
	rows := makeRows(
		map[string]any{"name": "Alice", "age": 42},
		map[string]any{"name": "Bob", "age": 7},
		map[string]any{"name": "Carol", "age": nil},
	)

	got := Filter(rows, FilterState{Text: "42"})
	if column(got, "name") != "Alice" {
		t.Fatalf("numeric match: got %s", column(got, "name"))
	}

	got = Filter(rows, FilterState{Text: "o"})
	if column(got, "name") != "Bob,Carol" {
		t.Fatalf("got %s, want Bob,Carol", column(got, "name"))
	}
}

func TestFilter_IgnoresReservedKeys(t *testing.T) {
	rows := makeRows(
		map[string]any{"name": "x", KeyDetails: "secret", KeyRowVariant: "danger"},
		map[string]any{"name": "secret"},
	)
	got := Filter(rows, FilterState{Text: "secret"})
	if len(got) != 1 || got[0] != rows[1] {
		t.Fatalf("reserved keys must not match, got %d rows", len(got))
	}

	got = Filter(rows, FilterState{Text: "danger"})
	if len(got) != 0 {
		t.Fatalf("row variant must not match, got %d rows", len(got))
	}
}

func TestFilter_NilNeverMatches(t *testing.T) {
	rows := makeRows(
		map[string]any{"a": nil, "b": "keep"},
		map[string]any{"b": "keep"},
	)
	// "<nil>" is what fmt would print for a nil value
	got := Filter(rows, FilterState{Text: "nil", RestrictedKeys: []string{"a"}})
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}

	got = Filter(rows, FilterState{Text: "nil"})
	if len(got) != 0 {
		t.Fatalf("expected no matches over all columns, got %d", len(got))
	}
}

func TestFilter_UnknownRestrictedKey(t *testing.T) {
	rows := makeRows(
		map[string]any{"name": "Anna"},
		map[string]any{"name": "Hannah"},
	)

	got := Filter(rows, FilterState{Text: "an", RestrictedKeys: []string{"nope"}})
	if len(got) != 0 {
		t.Fatalf("only unknown key: expected 0 rows, got %d", len(got))
	}

	got = Filter(rows, FilterState{Text: "an", RestrictedKeys: []string{"nope", "name"}})
	if len(got) != 2 {
		t.Fatalf("unknown key should be skipped, got %d rows", len(got))
	}
}

func TestFilter_PreservesOrderAndIdempotent(t *testing.T) {
	rows := Sort(numberedRows(20), []SortCriterion{{Key: "id", Order: Desc}})
	state := FilterState{Text: "1"}

	once := Filter(rows, state)
	if column(once, "id") != "19,18,17,16,15,14,13,12,11,10,1" {
		t.Fatalf("order not preserved: %s", column(once, "id"))
	}

	twice := Filter(once, state)
	assertSameRows(t, twice, once)
}
