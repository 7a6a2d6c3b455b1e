package pipeline

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"testing"
)

// recorder collects outbound events in delivery order
type recorder struct {
	events []Event
}

func (r *recorder) record(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) names() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Name()
	}
	return out
}

func (r *recorder) lastSelection(t *testing.T) []*Row {
	t.Helper()
	for i := len(r.events) - 1; i >= 0; i-- {
		if sel, ok := r.events[i].(RowSelected); ok {
			return sel.Rows
		}
	}
	t.Fatal("no row-selected event recorded")
	return nil
}

func newTestPipeline(t *testing.T, rows []*Row, opts ...Option) (*Pipeline, *recorder) {
	t.Helper()
	p := New(append([]Option{WithID("t1")}, opts...)...)
	p.SetSourceRows(rows)
	rec := &recorder{}
	p.Subscribe(rec.record)
	return p, rec
}

func TestPipeline_InitialView(t *testing.T) {
	rows := numberedRows(25)
	p, _ := newTestPipeline(t, rows)

	v := p.View()
	if v.TableID != "t1" || v.SourceLen != 25 {
		t.Fatalf("unexpected view header: %+v", v.Pagination)
	}
	if keys := FieldKeys(v.Fields); !slices.Equal(keys, []string{"id", "name"}) {
		t.Fatalf("inferred fields = %v", keys)
	}
	assertSameRows(t, v.Rows, rows[:10])
	if v.Pagination.CurrentPage != 1 || v.Pagination.TotalRows != 25 {
		t.Fatalf("pagination = %+v", v.Pagination)
	}
}

func TestPipeline_GeneratesIDWhenUnset(t *testing.T) {
	a, b := New(), New()
	if a.ID() == "" || a.ID() == b.ID() {
		t.Fatalf("expected distinct generated ids, got %q and %q", a.ID(), b.ID())
	}
}

func TestPipeline_PageClampedAfterFilter(t *testing.T) {
	p, _ := newTestPipeline(t, numberedRows(25))

	p.SetPage(3)
	if got := p.View().Pagination.CurrentPage; got != 3 {
		t.Fatalf("page = %d, want 3", got)
	}

	p.SetFilterText("row0")
	v := p.View()
	if v.Pagination.CurrentPage != 1 || v.Pagination.TotalRows != 10 {
		t.Fatalf("pagination after filter = %+v", v.Pagination)
	}
	if len(v.Rows) != 10 {
		t.Fatalf("visible = %d, want 10", len(v.Rows))
	}
}

func TestPipeline_SetPageClamps(t *testing.T) {
	p, _ := newTestPipeline(t, numberedRows(25))

	p.SetPage(99)
	if got := p.View().Pagination.CurrentPage; got != 3 {
		t.Fatalf("page = %d, want 3", got)
	}
	p.SetPage(-4)
	if got := p.View().Pagination.CurrentPage; got != 1 {
		t.Fatalf("page = %d, want 1", got)
	}
}

func TestPipeline_ScenarioRangeSelection(t *testing.T) {
	rows := numberedRows(10)
	p, rec := newTestPipeline(t, rows, WithSelectMode(SelectRange))

	filtered := p.View().Filtered
	p.ClickRow(filtered[2], Modifiers{})
	p.ClickRow(filtered[6], Modifiers{Shift: true})

	got := rec.lastSelection(t)
	assertSameRows(t, got, filtered[2:7])
	assertSameRows(t, p.View().Selected, filtered[2:7])
}

func TestPipeline_SelectionClearedOnSort(t *testing.T) {
	rows := numberedRows(5)
	p, rec := newTestPipeline(t, rows, WithSelectMode(SelectMulti))

	p.ClickRow(rows[1], Modifiers{})
	p.ClickRow(rows[3], Modifiers{})
	if len(rec.lastSelection(t)) != 2 {
		t.Fatal("expected two selected rows")
	}

	if err := p.SetSortCriteria([]SortCriterion{{Key: "id", Order: Desc}}); err != nil {
		t.Fatalf("SetSortCriteria() error = %v", err)
	}
	if len(p.View().Selected) != 0 {
		t.Fatal("sort change must clear the selection")
	}
	if got := rec.lastSelection(t); len(got) != 0 {
		t.Fatalf("expected an empty row-selected event, got %d rows", len(got))
	}
}

func TestPipeline_SelectionClearedOnFilter(t *testing.T) {
	rows := numberedRows(5)
	p, rec := newTestPipeline(t, rows, WithSelectMode(SelectMulti))

	p.ClickRow(rows[0], Modifiers{})

	// still matches every row, but any filter change clears
	p.SetFilterText("row")
	if len(p.View().Selected) != 0 || len(rec.lastSelection(t)) != 0 {
		t.Fatal("filter change must clear the selection")
	}

	p.ClickRow(rows[0], Modifiers{})
	p.SetFilterKeys([]string{"name"})
	if len(p.View().Selected) != 0 {
		t.Fatal("restricting filter keys must clear the selection")
	}
}

func TestPipeline_SelectionSurvivesPaging(t *testing.T) {
	rows := numberedRows(25)
	p, _ := newTestPipeline(t, rows, WithSelectMode(SelectMulti))

	p.ClickRow(rows[0], Modifiers{})
	p.SetPage(3)
	p.ClickRow(rows[22], Modifiers{})

	assertSameRows(t, p.View().Selected, []*Row{rows[0], rows[22]})
}

func TestPipeline_ClearWithoutSelectionIsSilent(t *testing.T) {
	p, rec := newTestPipeline(t, numberedRows(5), WithSelectMode(SelectMulti))

	p.SetFilterText("row0")
	for _, name := range rec.names() {
		if name == "row-selected" {
			t.Fatal("no event expected when there was nothing to clear")
		}
	}
}

func TestPipeline_ClickOutsideFilteredIgnored(t *testing.T) {
	rows := numberedRows(5)
	p, rec := newTestPipeline(t, rows, WithSelectMode(SelectMulti))

	p.SetFilterText("row01")
	if p.ClickRow(rows[3], Modifiers{}) {
		t.Fatal("click on a filtered-out row must be ignored")
	}
	if len(rec.events) != 0 {
		t.Fatalf("unexpected events %v", rec.names())
	}
}

func TestPipeline_SelectedSubsetOfFiltered(t *testing.T) {
	rows := numberedRows(30)
	p, _ := newTestPipeline(t, rows, WithSelectMode(SelectRange))

	p.ToggleAll()
	p.SetPage(2)
	p.ClickRow(rows[4], Modifiers{CtrlOrMeta: true})
	p.SetFilterText("1")
	p.ClickRow(p.View().Filtered[0], Modifiers{})
	p.ClickRow(p.View().Filtered[4], Modifiers{Shift: true})

	v := p.View()
	for _, sel := range v.Selected {
		if indexOf(v.Filtered, sel) < 0 {
			t.Fatalf("selected row %v is not in the filtered collection", sel.Values())
		}
	}
	if len(v.Selected) != 5 {
		t.Fatalf("selected = %d, want 5", len(v.Selected))
	}
}

func TestPipeline_ToggleAllUsesFiltered(t *testing.T) {
	rows := numberedRows(20)
	p, rec := newTestPipeline(t, rows, WithSelectMode(SelectMulti))

	p.SetFilterText("row1")
	if !p.ToggleAll() {
		t.Fatal("select-all should act in multi mode")
	}
	if got := rec.lastSelection(t); len(got) != 10 {
		t.Fatalf("selected = %d, want the 10 filtered rows", len(got))
	}
}

func TestPipeline_SetSelectMode(t *testing.T) {
	rows := numberedRows(5)
	p, rec := newTestPipeline(t, rows, WithSelectMode(SelectMulti))
	p.ClickRow(rows[0], Modifiers{})

	if err := p.SetSelectMode(SelectSingle); err != nil {
		t.Fatalf("SetSelectMode() error = %v", err)
	}
	if p.View().SelectMode != SelectSingle || len(rec.lastSelection(t)) != 0 {
		t.Fatal("mode switch should clear the selection")
	}
	if err := p.SetSelectMode("lasso"); !errors.Is(err, ErrInvalidSelectMode) {
		t.Fatalf("SetSelectMode(lasso) error = %v", err)
	}
	if p.View().SelectMode != SelectSingle {
		t.Fatal("invalid mode must leave the mode unchanged")
	}
}

func TestPipeline_ScenarioExpansionRemap(t *testing.T) {
	rows := makeRows(
		map[string]any{"name": "alpha"},
		map[string]any{"name": "beta"},
		map[string]any{"name": "gamma x"},
		map[string]any{"name": "delta x"},
	)
	p, _ := newTestPipeline(t, rows)

	if !p.ToggleExpand(2) {
		t.Fatal("row 2 should open")
	}
	p.SetFilterText("x")

	v := p.View()
	if !slices.Equal(v.Expanded, []int{0}) {
		t.Fatalf("expanded = %v, want [0]", v.Expanded)
	}
	if v.Filtered[0] != rows[2] {
		t.Fatal("position 0 should now hold the expanded row")
	}

	p.SetFilterText("")
	if got := p.View().Expanded; !slices.Equal(got, []int{2}) {
		t.Fatalf("expanded after clearing filter = %v, want [2]", got)
	}
}

func TestPipeline_ExpansionFollowsSort(t *testing.T) {
	rows := numberedRows(25)
	p, _ := newTestPipeline(t, rows)

	p.ToggleExpand(0)
	_ = p.SetSortCriteria([]SortCriterion{{Key: "id", Order: Desc}})

	v := p.View()
	if !slices.Equal(v.Expanded, []int{24}) {
		t.Fatalf("expanded = %v, want [24]", v.Expanded)
	}
	if !v.IsExpanded(24) || v.IsExpanded(0) {
		t.Fatal("IsExpanded disagrees with Expanded")
	}
}

func TestPipeline_ExpansionSurvivesPaging(t *testing.T) {
	p, _ := newTestPipeline(t, numberedRows(25))

	p.ToggleExpand(13)
	p.SetPage(2)
	p.SetPage(1)
	_ = p.SetPageSize(5)

	if got := p.View().Expanded; !slices.Equal(got, []int{13}) {
		t.Fatalf("expanded = %v, want [13]", got)
	}
}

func TestPipeline_ShowDetailsSeedsExpansion(t *testing.T) {
	rows := makeRows(
		map[string]any{"id": 2},
		map[string]any{"id": 1, KeyShowDetails: true},
	)
	p, _ := newTestPipeline(t, rows, WithFields([]Field{{Key: "id", Label: "ID", Sortable: true}}))

	if got := p.View().Expanded; !slices.Equal(got, []int{1}) {
		t.Fatalf("expanded = %v, want [1]", got)
	}

	_ = p.SetSortCriteria([]SortCriterion{{Key: "id", Order: Asc}})
	if got := p.View().Expanded; !slices.Equal(got, []int{0}) {
		t.Fatalf("expanded after sort = %v, want [0]", got)
	}
}

func TestPipeline_ViewIsIdempotent(t *testing.T) {
	p, _ := newTestPipeline(t, numberedRows(12), WithSelectMode(SelectMulti))
	p.ToggleExpand(3)
	p.ClickRow(p.View().Filtered[1], Modifiers{})

	a, b := p.View(), p.View()
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two views without a mutation in between must be equal")
	}

	a.Rows[0] = nil
	a.Expanded[0] = 99
	if c := p.View(); c.Rows[0] == nil || c.Expanded[0] != 3 {
		t.Fatal("mutating a view must not leak into the pipeline")
	}
}

func TestPipeline_SortEvents(t *testing.T) {
	p, rec := newTestPipeline(t, numberedRows(3))

	if !p.ClickHeader("name", false) {
		t.Fatal("header click should sort")
	}
	want := []string{"sort-field-updated", "sort-order-updated", "sort-changed"}
	if !slices.Equal(rec.names(), want) {
		t.Fatalf("events = %v, want %v", rec.names(), want)
	}
	if sc := rec.events[2].(SortChanged); sc.Field != "name" || sc.Order != Asc {
		t.Fatalf("sort-changed = %+v", sc)
	}

	p.ClickHeader("name", false)
	if sc := rec.events[len(rec.events)-1].(SortChanged); sc.Order != Desc {
		t.Fatalf("second click should flip to desc, got %+v", sc)
	}
}

func TestPipeline_ClickHeaderModifierAddsKey(t *testing.T) {
	rows := makeRows(
		map[string]any{"a": 1, "b": 2},
		map[string]any{"a": 1, "b": 1},
		map[string]any{"a": 0, "b": 3},
	)
	p, _ := newTestPipeline(t, rows)

	p.ClickHeader("a", false)
	p.ClickHeader("b", true)

	v := p.View()
	if len(v.Sort) != 2 {
		t.Fatalf("sort = %v", v.Sort)
	}
	if column(v.Rows, "b") != "3,1,2" {
		t.Fatalf("rows = %s, want 3,1,2", column(v.Rows, "b"))
	}
	if order, rank, ok := v.SortOrderOf("b"); !ok || rank != 1 || order != Asc {
		t.Fatalf("SortOrderOf(b) = %v %d %v", order, rank, ok)
	}
}

func TestPipeline_ClickHeaderIgnoresUnsortable(t *testing.T) {
	fields := []Field{
		{Key: "id", Label: "ID", Sortable: true},
		{Key: "name", Label: "Name", Sortable: false},
	}
	p, rec := newTestPipeline(t, numberedRows(3), WithFields(fields))

	if p.ClickHeader("name", false) || p.ClickHeader("missing", false) {
		t.Fatal("unsortable and unknown headers must be ignored")
	}
	if len(rec.events) != 0 || len(p.View().Sort) != 0 {
		t.Fatal("ignored clicks must not change state")
	}
}

func TestPipeline_WithSortableFalse(t *testing.T) {
	p, _ := newTestPipeline(t, numberedRows(3), WithSortable(false))
	if p.ClickHeader("id", false) {
		t.Fatal("inferred fields should inherit sortable=false")
	}
}

func TestPipeline_SortFieldMessages(t *testing.T) {
	p, rec := newTestPipeline(t, numberedRows(5))

	if err := p.Handle(SortOrderChanged{Value: Desc}); err != nil {
		t.Fatalf("Handle(order) error = %v", err)
	}
	if len(p.View().Sort) != 0 {
		t.Fatal("order without a field must not sort")
	}
	if upd := rec.events[1].(SortOrderUpdated); upd.Value != Desc {
		t.Fatalf("order update = %+v", upd)
	}

	if err := p.Handle(SortFieldChanged{Value: "id"}); err != nil {
		t.Fatalf("Handle(field) error = %v", err)
	}
	if column(p.View().Rows, "id") != "4,3,2,1,0" {
		t.Fatalf("remembered order not applied: %s", column(p.View().Rows, "id"))
	}

	if err := p.Handle(SortOrderChanged{Value: Asc}); err != nil {
		t.Fatalf("Handle(order) error = %v", err)
	}
	if column(p.View().Rows, "id") != "0,1,2,3,4" {
		t.Fatalf("order change not applied: %s", column(p.View().Rows, "id"))
	}

	if err := p.Handle(SortFieldChanged{Value: SortNone}); err != nil {
		t.Fatalf("Handle(none) error = %v", err)
	}
	if len(p.View().Sort) != 0 {
		t.Fatal("\"none\" must clear the sort")
	}
	if upd := rec.events[len(rec.events)-3].(SortFieldUpdated); upd.Value != SortNone {
		t.Fatalf("field update = %+v", upd)
	}
}

func TestPipeline_InvalidInputLeavesStateUnchanged(t *testing.T) {
	p, rec := newTestPipeline(t, numberedRows(25))
	p.SetPage(2)
	before := p.View()

	if err := p.SetPageSize(-1); !errors.Is(err, ErrInvalidPageSize) {
		t.Fatalf("SetPageSize(-1) error = %v", err)
	}
	if err := p.Handle(SortOrderChanged{Value: "sideways"}); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("bad order error = %v", err)
	}
	if err := p.SetSortCriteria([]SortCriterion{{Key: "id", Order: Asc}, {Key: "name", Order: "up"}}); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("bad criteria error = %v", err)
	}
	if err := p.Handle(nil); !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("nil message error = %v", err)
	}

	if !reflect.DeepEqual(before, p.View()) {
		t.Fatal("rejected input must not change the view")
	}
	if len(rec.events) != 0 {
		t.Fatalf("unexpected events %v", rec.names())
	}
}

func TestPipeline_PageSizeMessageResetsPage(t *testing.T) {
	p, _ := newTestPipeline(t, numberedRows(25))

	_ = p.Handle(PageChanged{Page: 2})
	if err := p.Handle(PageSizeChanged{PageSize: 5}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	v := p.View()
	if v.Pagination.CurrentPage != 1 || len(v.Rows) != 5 {
		t.Fatalf("pagination = %+v, rows = %d", v.Pagination, len(v.Rows))
	}

	_ = p.Handle(PageSizeChanged{PageSize: PageSizeAll})
	if v := p.View(); len(v.Rows) != 25 || v.PageInfo().MaxPage() != 1 {
		t.Fatalf("All should show every row, got %d", len(v.Rows))
	}
}

func TestPipeline_FilterFieldsAddressedByTable(t *testing.T) {
	rows := makeRows(
		map[string]any{"name": "Anna", "city": "Oslo"},
		map[string]any{"name": "Ben", "city": "Annecy"},
	)
	p, _ := newTestPipeline(t, rows)
	_ = p.Handle(FilterChanged{Value: "ann"})

	other := FilterFieldsChanged{TableID: "t2", Items: []FieldToggle{{Key: "name", Checked: true}}}
	if err := p.Handle(other); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(p.View().Filtered) != 2 {
		t.Fatal("message for another table must be ignored")
	}

	mine := FilterFieldsChanged{TableID: "t1", Items: []FieldToggle{
		{Key: "name", Checked: true},
		{Key: "city", Checked: false},
	}}
	_ = p.Handle(mine)
	v := p.View()
	if !slices.Equal(v.Filter.RestrictedKeys, []string{"name"}) {
		t.Fatalf("restricted keys = %v", v.Filter.RestrictedKeys)
	}
	if column(v.Filtered, "name") != "Anna" {
		t.Fatalf("filtered = %s, want Anna", column(v.Filtered, "name"))
	}
}

func TestPipeline_ResetAll(t *testing.T) {
	rows := numberedRows(25)
	p, rec := newTestPipeline(t, rows, WithSelectMode(SelectMulti), WithPageSize(5))

	_ = p.SetSortCriteria([]SortCriterion{{Key: "id", Order: Desc}})
	p.SetFilterText("row1")
	_ = p.SetPageSize(2)
	p.SetPage(3)
	p.ToggleExpand(1)
	p.ClickRow(p.View().Filtered[0], Modifiers{})

	p.ResetAll()
	v := p.View()
	if len(v.Sort) != 0 || v.Filter.Active() || len(v.Selected) != 0 || len(v.Expanded) != 0 {
		t.Fatalf("state not reset: %+v", v)
	}
	if v.Pagination.CurrentPage != 1 || v.Pagination.PageSize != 5 {
		t.Fatalf("pagination = %+v, want page 1 of size 5", v.Pagination)
	}
	assertSameRows(t, v.Rows, rows[:5])

	names := rec.names()
	if names[len(names)-1] != "sort-changed" {
		t.Fatalf("reset should announce the cleared sort, got %v", names)
	}
}

func TestPipeline_MalformedFieldsWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	p := New(WithLogger(logger), WithFieldsJSON([]byte(`[{"label": "no key"}`)))
	p.SetSourceRows(numberedRows(3))
	p.SetFilterText("row")
	p.SetPage(1)

	if n := strings.Count(buf.String(), "level=WARN"); n != 1 {
		t.Fatalf("got %d warnings, want 1:\n%s", n, buf.String())
	}
	if keys := FieldKeys(p.View().Fields); !slices.Equal(keys, []string{"id", "name"}) {
		t.Fatalf("fields should be inferred, got %v", keys)
	}
}

func TestPipeline_FieldsJSON(t *testing.T) {
	p := New(WithFieldsJSON([]byte(`["name", {"key": "id", "label": "#", "sortable": false}]`)))
	p.SetSourceRows(numberedRows(2))

	fields := p.View().Fields
	if len(fields) != 2 || fields[0].Key != "name" || fields[1].Label != "#" || fields[1].Sortable {
		t.Fatalf("fields = %+v", fields)
	}

	p.SetFields(nil)
	if keys := FieldKeys(p.View().Fields); !slices.Equal(keys, []string{"id", "name"}) {
		t.Fatalf("clearing fields should fall back to inference, got %v", keys)
	}
}

func TestPipeline_SetSourceRowsResets(t *testing.T) {
	p, rec := newTestPipeline(t, numberedRows(5), WithSelectMode(SelectMulti))
	p.ClickRow(p.View().Filtered[0], Modifiers{})
	p.ToggleExpand(2)

	fresh := append(numberedRows(3), nil)
	p.SetSourceRows(fresh)

	v := p.View()
	if v.SourceLen != 3 {
		t.Fatalf("nil rows should be dropped, source = %d", v.SourceLen)
	}
	if len(v.Selected) != 0 || len(v.Expanded) != 0 {
		t.Fatal("new rows reset selection and expansion")
	}
	if len(rec.lastSelection(t)) != 0 {
		t.Fatal("clearing the selection should be announced")
	}
}

func TestPipeline_Unsubscribe(t *testing.T) {
	p := New()
	p.SetSourceRows(numberedRows(3))

	var n int
	unsubscribe := p.Subscribe(func(Event) { n++ })
	p.ClickHeader("id", false)
	unsubscribe()
	p.ClickHeader("id", false)

	if n != 3 {
		t.Fatalf("got %d events, want 3", n)
	}
}
