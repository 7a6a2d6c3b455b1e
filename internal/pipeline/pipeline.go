package pipeline

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/imgajeed76/tabula/internal/util"
)

// DefaultPageSize is used when no page size option is given.
const DefaultPageSize PageSize = 10

// stage is the first transform a mutation invalidates. Later stages always
// re-run; earlier ones are reused.
type stage int

const (
	stagePaginate stage = iota
	stageFilter
	stageSort
)

func (s stage) String() string {
	switch s {
	case stageSort:
		return "sort"
	case stageFilter:
		return "filter"
	default:
		return "paginate"
	}
}

// Pipeline owns the source rows and all control state of one table, and
// keeps the derived collections consistent with them. It is not safe for
// concurrent use; drive it from a single goroutine (an event loop).
type Pipeline struct {
	id     string
	logger *slog.Logger

	defaultSortable bool
	defaultPageSize PageSize
	fields          []Field
	explicitFields  bool

	source       []*Row
	sortCriteria []SortCriterion
	pendingOrder Order
	filter       FilterState
	page         int
	pageSize     PageSize
	selection    *Selection
	expansion    *Expansion

	// derived, replaced wholesale by recompute
	sorted   []*Row
	filtered []*Row
	visible  []*Row

	subscribers map[int]func(Event)
	nextSubID   int

	pendingFieldsJSON []byte
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithID sets the table identity used for message routing.
func WithID(id string) Option {
	return func(p *Pipeline) { p.id = id }
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSortable sets the default sortability of fields that don't say.
func WithSortable(sortable bool) Option {
	return func(p *Pipeline) { p.defaultSortable = sortable }
}

// WithPageSize sets the initial (and reset) page size. Invalid sizes are
// ignored.
func WithPageSize(size PageSize) Option {
	return func(p *Pipeline) {
		if size.Valid() {
			p.defaultPageSize = size
			p.pageSize = size
		}
	}
}

// WithSelectMode sets the selection mode.
func WithSelectMode(mode SelectMode) Option {
	return func(p *Pipeline) {
		if parsed, err := ParseSelectMode(string(mode)); err == nil {
			p.selection = NewSelection(parsed)
		}
	}
}

// WithFields sets explicit fields instead of inferring them from the rows.
func WithFields(fields []Field) Option {
	return func(p *Pipeline) {
		if len(fields) > 0 {
			p.fields = slices.Clone(fields)
			p.explicitFields = true
		}
	}
}

// WithFieldsJSON sets explicit fields from a JSON description; see
// SetFieldsJSON for the fallback on malformed input.
func WithFieldsJSON(data []byte) Option {
	return func(p *Pipeline) { p.pendingFieldsJSON = data }
}

// New creates a pipeline with no rows.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		id:              util.NewULID(),
		logger:          slog.Default(),
		defaultSortable: true,
		defaultPageSize: DefaultPageSize,
		pageSize:        DefaultPageSize,
		pendingOrder:    Asc,
		page:            1,
		selection:       NewSelection(SelectNone),
		expansion:       NewExpansion(),
		subscribers:     make(map[int]func(Event)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.pendingFieldsJSON != nil {
		p.applyFieldsJSON(p.pendingFieldsJSON)
		p.pendingFieldsJSON = nil
	}
	p.recompute(stageSort)
	return p
}

// ID returns the table identity.
func (p *Pipeline) ID() string {
	return p.id
}

// Subscribe registers fn for outbound events and returns a function that
// removes it.
func (p *Pipeline) Subscribe(fn func(Event)) (unsubscribe func()) {
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	return func() { delete(p.subscribers, id) }
}

func (p *Pipeline) emit(events ...Event) {
	if len(p.subscribers) == 0 {
		return
	}
	ids := make([]int, 0, len(p.subscribers))
	for id := range p.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, ev := range events {
		for _, id := range ids {
			if fn, ok := p.subscribers[id]; ok {
				fn(ev)
			}
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Recompute
// ═══════════════════════════════════════════════════════════════════════════

// recompute runs the stages from `from` down to pagination, each at most
// once: sort, filter (plus expansion remap), page clamp, paginate.
func (p *Pipeline) recompute(from stage) {
	previous := p.filtered

	if from >= stageSort {
		p.sorted = Sort(p.source, p.sortCriteria)
	}
	if from >= stageFilter {
		p.filtered = Filter(p.sorted, p.filter)
		p.expansion.Remap(previous, p.filtered)
	}

	p.page = ClampPage(p.page, len(p.filtered), p.pageSize)
	p.visible = Paginate(p.filtered, p.paginationState())

	p.logger.Debug("table recomputed",
		"table", p.id,
		"from", from.String(),
		"source", len(p.source),
		"filtered", len(p.filtered),
		"page", p.page,
		"page_size", p.pageSize.String(),
	)
}

func (p *Pipeline) paginationState() PaginationState {
	return PaginationState{
		CurrentPage: p.page,
		PageSize:    p.pageSize,
		TotalRows:   len(p.filtered),
	}
}

// clearSelection drops the selection and notifies subscribers when that
// changed anything.
func (p *Pipeline) clearSelection() {
	hadSelection := p.selection.Len() > 0 || p.selection.Anchor() != nil
	p.selection.Clear()
	if hadSelection {
		p.emit(RowSelected{Rows: []*Row{}})
	}
}

func (p *Pipeline) emitSort() {
	field, order := SortNone, p.pendingOrder
	if len(p.sortCriteria) > 0 {
		field, order = p.sortCriteria[0].Key, p.sortCriteria[0].Order
	}
	p.emit(
		SortFieldUpdated{Value: field},
		SortOrderUpdated{Value: order},
		SortChanged{Field: field, Order: order},
	)
}

func (p *Pipeline) emitSelection() {
	p.emit(RowSelected{Rows: p.selection.Rows(p.filtered)})
}

// ═══════════════════════════════════════════════════════════════════════════
// Mutations
// ═══════════════════════════════════════════════════════════════════════════

// SetSourceRows replaces the source rows. Selection and expansion are reset
// since the new rows are unrelated to the old ones; rows flagged with
// _showDetails start expanded. The slice is copied, the rows are not.
func (p *Pipeline) SetSourceRows(rows []*Row) {
	source := make([]*Row, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			source = append(source, r)
		}
	}

	p.source = source
	if !p.explicitFields {
		p.fields = InferFields(source, p.defaultSortable)
	}
	p.expansion.Clear()
	p.filtered = nil
	p.recompute(stageSort)
	p.expansion.Seed(p.filtered)
	p.clearSelection()
}

// SetFields replaces the explicit fields. An empty list switches back to
// inferring fields from the rows.
func (p *Pipeline) SetFields(fields []Field) {
	if len(fields) == 0 {
		p.explicitFields = false
		p.fields = InferFields(p.source, p.defaultSortable)
		return
	}
	p.fields = slices.Clone(fields)
	p.explicitFields = true
}

// SetFieldsJSON sets explicit fields from JSON. Malformed input is not
// fatal: a single warning is logged and fields are inferred from the rows.
func (p *Pipeline) SetFieldsJSON(data []byte) {
	p.applyFieldsJSON(data)
}

func (p *Pipeline) applyFieldsJSON(data []byte) {
	fields, err := ParseFields(data, p.defaultSortable)
	if err != nil {
		p.logger.Warn("ignoring field configuration, inferring columns from rows",
			"table", p.id, "error", err)
		p.explicitFields = false
		p.fields = InferFields(p.source, p.defaultSortable)
		return
	}
	p.SetFields(fields)
}

// SetSortCriteria replaces the sort. Orders are validated before anything
// changes. A different sort clears the selection.
func (p *Pipeline) SetSortCriteria(criteria []SortCriterion) error {
	for _, c := range criteria {
		if !c.Order.Valid() {
			return fmt.Errorf("%w: %q for key %q", ErrInvalidOrder, c.Order, c.Key)
		}
	}
	if slices.Equal(criteria, p.sortCriteria) {
		return nil
	}

	if len(criteria) == 0 {
		p.sortCriteria = nil
	} else {
		p.sortCriteria = slices.Clone(criteria)
		p.pendingOrder = p.sortCriteria[0].Order
	}
	p.recompute(stageSort)
	p.clearSelection()
	p.emitSort()
	return nil
}

// ClickHeader applies a header click on key (see ToggleSort). Clicks on
// unknown or unsortable fields are ignored; it reports whether the sort
// changed.
func (p *Pipeline) ClickHeader(key string, modifier bool) bool {
	f, ok := p.field(key)
	if !ok || !f.Sortable {
		return false
	}
	next := ToggleSort(p.sortCriteria, key, modifier)
	if slices.Equal(next, p.sortCriteria) {
		return false
	}
	// ToggleSort only produces valid orders
	_ = p.SetSortCriteria(next)
	return true
}

// SetFilter replaces the whole filter state.
func (p *Pipeline) SetFilter(state FilterState) {
	if state.Text == p.filter.Text && slices.Equal(state.RestrictedKeys, p.filter.RestrictedKeys) {
		return
	}
	p.filter = FilterState{
		Text:           state.Text,
		RestrictedKeys: slices.Clone(state.RestrictedKeys),
	}
	p.recompute(stageFilter)
	p.clearSelection()
}

// SetFilterText sets the query, keeping the restricted keys.
func (p *Pipeline) SetFilterText(text string) {
	p.SetFilter(FilterState{Text: text, RestrictedKeys: p.filter.RestrictedKeys})
}

// SetFilterKeys sets the restricted keys, keeping the query. No keys means
// all columns.
func (p *Pipeline) SetFilterKeys(keys []string) {
	p.SetFilter(FilterState{Text: p.filter.Text, RestrictedKeys: keys})
}

// SetPage moves to page n, clamped into the valid range.
func (p *Pipeline) SetPage(n int) {
	p.page = n
	p.recompute(stagePaginate)
}

// SetPageSize changes the page size and returns to page 1.
func (p *Pipeline) SetPageSize(size PageSize) error {
	if !size.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	p.pageSize = size
	p.page = 1
	p.recompute(stagePaginate)
	return nil
}

// SetSelectMode switches the selection mode and clears the selection.
func (p *Pipeline) SetSelectMode(mode SelectMode) error {
	parsed, err := ParseSelectMode(string(mode))
	if err != nil {
		return err
	}
	had := p.selection.Len() > 0
	p.selection = NewSelection(parsed)
	if had {
		p.emitSelection()
	}
	return nil
}

// ClickRow applies a row click to the selection, resolved against the
// filtered collection. It reports whether the click changed anything.
func (p *Pipeline) ClickRow(row *Row, mods Modifiers) bool {
	if !p.selection.Click(p.filtered, row, mods) {
		return false
	}
	p.emitSelection()
	return true
}

// ToggleAll is the header select-all control.
func (p *Pipeline) ToggleAll() bool {
	if !p.selection.ToggleAll(p.filtered) {
		return false
	}
	p.emitSelection()
	return true
}

// ToggleExpand flips the detail panel of the row at pos in the filtered
// collection and reports whether it is now open.
func (p *Pipeline) ToggleExpand(pos int) bool {
	return p.expansion.Toggle(pos, len(p.filtered))
}

// ResetAll restores sort, filter, selection, expansion and pagination to
// their defaults in one step.
func (p *Pipeline) ResetAll() {
	p.sortCriteria = nil
	p.pendingOrder = Asc
	p.filter = FilterState{}
	p.page = 1
	p.pageSize = p.defaultPageSize
	p.expansion.Clear()
	p.recompute(stageSort)
	p.clearSelection()
	p.emitSort()
}

// Handle applies an inbound control message. FilterFieldsChanged addressed
// to another table is ignored.
func (p *Pipeline) Handle(msg Message) error {
	switch m := msg.(type) {
	case SortFieldChanged:
		if m.Value == "" || m.Value == SortNone {
			return p.SetSortCriteria(nil)
		}
		return p.SetSortCriteria([]SortCriterion{{Key: m.Value, Order: p.currentOrder()}})

	case SortOrderChanged:
		if !m.Value.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidOrder, m.Value)
		}
		if len(p.sortCriteria) == 0 {
			p.pendingOrder = m.Value
			p.emitSort()
			return nil
		}
		next := slices.Clone(p.sortCriteria)
		next[0].Order = m.Value
		return p.SetSortCriteria(next)

	case FilterChanged:
		p.SetFilterText(m.Value)
		return nil

	case FilterFieldsChanged:
		if m.TableID != p.id {
			return nil
		}
		p.SetFilterKeys(m.CheckedKeys())
		return nil

	case PageChanged:
		p.SetPage(m.Page)
		return nil

	case PageSizeChanged:
		return p.SetPageSize(m.PageSize)
	}

	if msg == nil {
		return fmt.Errorf("%w: nil", ErrUnknownMessage)
	}
	return fmt.Errorf("%w: %s", ErrUnknownMessage, msg.Name())
}

func (p *Pipeline) currentOrder() Order {
	if len(p.sortCriteria) > 0 {
		return p.sortCriteria[0].Order
	}
	return p.pendingOrder
}

func (p *Pipeline) field(key string) (Field, bool) {
	for _, f := range p.fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// ═══════════════════════════════════════════════════════════════════════════
// Snapshot
// ═══════════════════════════════════════════════════════════════════════════

// View returns a snapshot of the current state. Slices in the snapshot are
// copies; mutating them does not affect the pipeline.
func (p *Pipeline) View() View {
	v := View{
		TableID:    p.id,
		Fields:     slices.Clone(p.fields),
		Sort:       slices.Clone(p.sortCriteria),
		SortOrder:  p.currentOrder(),
		Filter:     FilterState{Text: p.filter.Text, RestrictedKeys: slices.Clone(p.filter.RestrictedKeys)},
		Pagination: p.paginationState(),
		SelectMode: p.selection.Mode(),
		Rows:       slices.Clone(p.visible),
		Filtered:   slices.Clone(p.filtered),
		Selected:   p.selection.Rows(p.filtered),
		Expanded:   p.expansion.Positions(),
		SourceLen:  len(p.source),
	}
	if p.pageSize > PageSizeAll {
		v.Offset = (p.page - 1) * int(p.pageSize)
	}
	return v
}

// View is a consistent snapshot of one recomputation.
type View struct {
	TableID    string
	Fields     []Field
	Sort       []SortCriterion
	SortOrder  Order
	Filter     FilterState
	Pagination PaginationState
	SelectMode SelectMode

	// Rows is the current page; Filtered the whole post-sort/filter
	// collection; Offset the position of Rows[0] in Filtered.
	Rows     []*Row
	Filtered []*Row
	Offset   int

	Selected  []*Row
	Expanded  []int
	SourceLen int
}

// PageInfo returns the input for a pagination control.
func (v View) PageInfo() PageInfo {
	return PageInfo{
		CurrentPage: v.Pagination.CurrentPage,
		TotalRows:   v.Pagination.TotalRows,
		PageSize:    v.Pagination.PageSize,
	}
}

// Position maps an index into Rows to a position in Filtered.
func (v View) Position(i int) int {
	return v.Offset + i
}

// IsSelected reports whether row is in the selection.
func (v View) IsSelected(row *Row) bool {
	for _, r := range v.Selected {
		if r == row {
			return true
		}
	}
	return false
}

// IsExpanded reports whether the row at filtered position pos is expanded.
func (v View) IsExpanded(pos int) bool {
	_, found := slices.BinarySearch(v.Expanded, pos)
	return found
}

// SortOrderOf returns the order of key in the active sort and its rank
// (0-based), or ok=false when key is not sorted.
func (v View) SortOrderOf(key string) (order Order, rank int, ok bool) {
	for i, c := range v.Sort {
		if c.Key == key {
			return c.Order, i, true
		}
	}
	return "", 0, false
}
