package table

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/imgajeed76/tabula/internal/pipeline"
	"github.com/imgajeed76/tabula/internal/ui/styles"
)

// ═══════════════════════════════════════════════════════════════════════════
// Constants
// ═══════════════════════════════════════════════════════════════════════════

const (
	defaultColWidth = 20
	minColWidth     = 3
	hiddenColWidth  = 3
	colGap          = 2
)

// Column display state
type colState int

const (
	colStateDefault  colState = iota // truncated to the column width limit
	colStateExpanded                 // full width
	colStateHidden                   // minimal width (just "...")
)

// Table mode
type tableMode int

const (
	tableModeNormal tableMode = iota
	tableModeFilter
)

// Exit mode - what to print after quitting the TUI
type exitMode int

const (
	exitNormal exitMode = iota
	exitJSON
	exitCSV
	exitRaw
	exitPlain
)

// DefaultPageSizes is the cycle used by the page size keys.
var DefaultPageSizes = []pipeline.PageSize{10, 25, 50, 100, pipeline.PageSizeAll}

// ═══════════════════════════════════════════════════════════════════════════
// Model
// ═══════════════════════════════════════════════════════════════════════════

// tableModel renders a pipeline and turns keys into pipeline actions. All
// row state (order, filter, page, selection, expansion) lives in the
// pipeline; the model only keeps cursor, scroll and column display state.
type tableModel struct {
	title       string
	pipe        *pipeline.Pipeline
	hub         *pipeline.Hub // routes control messages when set
	view        pipeline.View
	feed        *eventFeed
	pageSizes   []pipeline.PageSize
	maxColWidth int

	colWidths []int               // content width of each field on the page
	colStates map[string]colState // by field key, survives field changes
	cursor    int                 // row on the current page
	colCursor int                 // selected field
	scrollX   int                 // horizontal scroll offset in cells
	scrollY   int                 // vertical scroll offset in body lines
	width     int                 // terminal width
	height    int                 // terminal height
	ready     bool
	mode      tableMode
	input     textinput.Model
	exitMode  exitMode

	// Animation state for smooth scrolling
	animating   bool
	animTargetX int
	animTargetY int

	// Status message (flash notification, e.g. after yank)
	statusMsg   string
	statusErr   bool
	statusUntil time.Time
}

// eventFeed collects pipeline events between two renders. It is shared by
// every copy of the model.
type eventFeed struct {
	events []pipeline.Event
}

func (f *eventFeed) push(e pipeline.Event) {
	f.events = append(f.events, e)
}

func (f *eventFeed) drain() []pipeline.Event {
	ev := f.events
	f.events = nil
	return ev
}

// ═══════════════════════════════════════════════════════════════════════════
// Key Bindings
// ═══════════════════════════════════════════════════════════════════════════

type tableKeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Left         key.Binding
	Right        key.Binding
	ShiftUp      key.Binding
	ShiftDown    key.Binding
	ShiftLeft    key.Binding
	ShiftRight   key.Binding
	Home         key.Binding
	End          key.Binding
	PrevPage     key.Binding
	NextPage     key.Binding
	FirstPage    key.Binding
	LastPage     key.Binding
	PageSizeUp   key.Binding
	PageSizeDown key.Binding
	Sort         key.Binding
	SortAdd      key.Binding
	Filter       key.Binding
	FilterColumn key.Binding
	Select       key.Binding
	SelectToggle key.Binding
	SelectExtend key.Binding
	SelectAll    key.Binding
	Details      key.Binding
	Widen        key.Binding
	Hide         key.Binding
	Reset        key.Binding
	Quit         key.Binding
	YankCell     key.Binding
	YankRow      key.Binding
	ExportJSON   key.Binding
	ExportCSV    key.Binding
	ExportRaw    key.Binding
	ExportPlain  key.Binding
}

var tableKeys = tableKeyMap{
	Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:         key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev column")),
	Right:        key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next column")),
	ShiftUp:      key.NewBinding(key.WithKeys("shift+up"), key.WithHelp("⇧↑", "half screen up")),
	ShiftDown:    key.NewBinding(key.WithKeys("shift+down"), key.WithHelp("⇧↓", "half screen down")),
	ShiftLeft:    key.NewBinding(key.WithKeys("shift+left"), key.WithHelp("⇧←", "scroll half left")),
	ShiftRight:   key.NewBinding(key.WithKeys("shift+right"), key.WithHelp("⇧→", "scroll half right")),
	Home:         key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first row")),
	End:          key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last row")),
	PrevPage:     key.NewBinding(key.WithKeys("pgup", "p"), key.WithHelp("p", "prev page")),
	NextPage:     key.NewBinding(key.WithKeys("pgdown", "n"), key.WithHelp("n", "next page")),
	FirstPage:    key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "first page")),
	LastPage:     key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "last page")),
	PageSizeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "bigger pages")),
	PageSizeDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "smaller pages")),
	Sort:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	SortAdd:      key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "add to sort")),
	Filter:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	FilterColumn: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter this column")),
	Select:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
	SelectToggle: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle")),
	SelectExtend: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "extend")),
	SelectAll:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
	Details:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
	Widen:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "widen/default")),
	Hide:         key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "hide/default")),
	Reset:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	YankCell:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy cell")),
	YankRow:      key.NewBinding(key.WithKeys("Y"), key.WithHelp("Y", "copy row")),
	ExportJSON:   key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "print as JSON")),
	ExportCSV:    key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "print as CSV")),
	ExportRaw:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "print raw")),
	ExportPlain:  key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "print table")),
}

// ═══════════════════════════════════════════════════════════════════════════
// Entry Point
// ═══════════════════════════════════════════════════════════════════════════

// RunTableTUI launches the interactive viewer over p. It blocks until the
// user quits. If the user requests an export (J/C/R/P), the selected rows,
// or the whole filtered collection when nothing is selected, are printed
// to out after the TUI exits.
func RunTableTUI(p *pipeline.Pipeline, hub *pipeline.Hub, opts DisplayOptions) error {
	m, unsubscribe := newTableModel(p, hub, opts)
	defer unsubscribe()

	prog := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := prog.Run()
	if err != nil {
		return err
	}

	if fm, ok := finalModel.(tableModel); ok {
		return fm.export(opts.out(), opts.MaxColWidth)
	}
	return nil
}

func newTableModel(p *pipeline.Pipeline, hub *pipeline.Hub, opts DisplayOptions) (tableModel, func()) {
	feed := &eventFeed{}
	unsubscribe := p.Subscribe(feed.push)

	ti := textinput.New()
	ti.Placeholder = "filter..."
	ti.CharLimit = 200
	ti.Width = 30

	sizes := opts.PageSizes
	if len(sizes) == 0 {
		sizes = DefaultPageSizes
	}

	m := tableModel{
		title:       opts.Title,
		pipe:        p,
		hub:         hub,
		feed:        feed,
		pageSizes:   sizes,
		maxColWidth: opts.MaxColWidth,
		colStates:   make(map[string]colState),
		input:       ti,
	}
	m.refresh()
	m.input.SetValue(m.view.Filter.Text)
	return m, unsubscribe
}

// ═══════════════════════════════════════════════════════════════════════════
// Bubble Tea Interface
// ═══════════════════════════════════════════════════════════════════════════

func (m tableModel) Init() tea.Cmd {
	return nil
}

func (m tableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.clampScroll()

	case animTickMsg:
		cmd := m.updateAnimation()
		return m, cmd

	case statusClearMsg:
		if !m.statusUntil.IsZero() && time.Now().After(m.statusUntil) {
			m.statusMsg = ""
			m.statusErr = false
			m.statusUntil = time.Time{}
		}
		return m, nil

	case tea.KeyMsg:
		m.cancelAnimation()

		if m.mode == tableModeFilter {
			return m.updateFilter(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m tableModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, tableKeys.Quit):
		return m, tea.Quit

	case key.Matches(msg, tableKeys.Filter):
		m.mode = tableModeFilter
		m.input.SetValue(m.view.Filter.Text)
		m.input.CursorEnd()
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, tableKeys.FilterColumn):
		return m, m.toggleFilterColumn()

	// Cursor

	case key.Matches(msg, tableKeys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.ensureRowVisible()
		}

	case key.Matches(msg, tableKeys.Down):
		if m.cursor < len(m.view.Rows)-1 {
			m.cursor++
			m.ensureRowVisible()
		}

	case key.Matches(msg, tableKeys.Left):
		colStartX := m.getColStartX(m.colCursor)
		if colStartX < m.scrollX {
			m.scrollX -= 3
			if m.scrollX < colStartX {
				m.scrollX = colStartX
			}
			if m.scrollX < 0 {
				m.scrollX = 0
			}
		} else if m.colCursor > 0 {
			m.colCursor--
			m.ensureColVisibleFromRight()
		}

	case key.Matches(msg, tableKeys.Right):
		colEndX := m.getColEndX(m.colCursor)
		if colEndX > m.scrollX+m.viewportWidth() {
			m.scrollX += 3
			if maxX := m.getMaxScrollX(); m.scrollX > maxX {
				m.scrollX = maxX
			}
		} else if m.colCursor < len(m.view.Fields)-1 {
			m.colCursor++
			m.ensureColVisibleFromLeft()
		}

	case key.Matches(msg, tableKeys.ShiftLeft):
		return m, m.startAnimation(m.scrollX-m.halfWidth(), m.scrollY)

	case key.Matches(msg, tableKeys.ShiftRight):
		return m, m.startAnimation(m.scrollX+m.halfWidth(), m.scrollY)

	case key.Matches(msg, tableKeys.ShiftUp):
		half := m.halfScreen()
		m.cursor = m.rowAtLine(m.lineOfRow(m.cursor) - half)
		return m, m.startAnimation(m.scrollX, m.scrollY-half)

	case key.Matches(msg, tableKeys.ShiftDown):
		half := m.halfScreen()
		m.cursor = m.rowAtLine(m.lineOfRow(m.cursor) + half)
		return m, m.startAnimation(m.scrollX, m.scrollY+half)

	case key.Matches(msg, tableKeys.Home):
		m.cursor = 0
		m.scrollY = 0
		m.scrollX = 0

	case key.Matches(msg, tableKeys.End):
		if n := len(m.view.Rows); n > 0 {
			m.cursor = n - 1
			m.ensureRowVisible()
		}

	// Pagination

	case key.Matches(msg, tableKeys.PrevPage):
		return m, m.gotoPage(m.view.PageInfo().Prev())

	case key.Matches(msg, tableKeys.NextPage):
		return m, m.gotoPage(m.view.PageInfo().Next())

	case key.Matches(msg, tableKeys.FirstPage):
		return m, m.gotoPage(m.view.PageInfo().First())

	case key.Matches(msg, tableKeys.LastPage):
		return m, m.gotoPage(m.view.PageInfo().Last())

	case key.Matches(msg, tableKeys.PageSizeUp):
		return m, m.gotoPage(m.view.PageInfo().CyclePageSize(m.pageSizes))

	case key.Matches(msg, tableKeys.PageSizeDown):
		rev := slices.Clone(m.pageSizes)
		slices.Reverse(rev)
		return m, m.gotoPage(m.view.PageInfo().CyclePageSize(rev))

	// Sort

	case key.Matches(msg, tableKeys.Sort):
		return m, m.sortColumn(false)

	case key.Matches(msg, tableKeys.SortAdd):
		return m, m.sortColumn(true)

	// Selection and details

	case key.Matches(msg, tableKeys.Select):
		return m, m.clickRow(pipeline.Modifiers{})

	case key.Matches(msg, tableKeys.SelectToggle):
		return m, m.clickRow(pipeline.Modifiers{CtrlOrMeta: true})

	case key.Matches(msg, tableKeys.SelectExtend):
		return m, m.clickRow(pipeline.Modifiers{Shift: true})

	case key.Matches(msg, tableKeys.SelectAll):
		if m.view.SelectMode != pipeline.SelectMulti && m.view.SelectMode != pipeline.SelectRange {
			return m, m.setError(fmt.Sprintf("select all needs multi or range mode (now %s)", m.view.SelectMode))
		}
		m.pipe.ToggleAll()
		return m, m.refresh()

	case key.Matches(msg, tableKeys.Details):
		if m.cursor < len(m.view.Rows) {
			m.pipe.ToggleExpand(m.view.Position(m.cursor))
			cmd := m.refresh()
			m.ensureRowVisible()
			return m, cmd
		}

	case key.Matches(msg, tableKeys.Reset):
		m.pipe.ResetAll()
		m.input.SetValue("")
		m.cursor = 0
		m.scrollY = 0
		cmd := m.refresh()
		return m, tea.Batch(cmd, m.setStatus("reset"))

	// Column display

	case key.Matches(msg, tableKeys.Widen):
		m.toggleColState(colStateExpanded)

	case key.Matches(msg, tableKeys.Hide):
		m.toggleColState(colStateHidden)

	// Clipboard and export

	case key.Matches(msg, tableKeys.YankCell):
		return m, m.yankCell()

	case key.Matches(msg, tableKeys.YankRow):
		return m, m.yankRow()

	case key.Matches(msg, tableKeys.ExportJSON):
		m.exitMode = exitJSON
		return m, tea.Quit

	case key.Matches(msg, tableKeys.ExportCSV):
		m.exitMode = exitCSV
		return m, tea.Quit

	case key.Matches(msg, tableKeys.ExportRaw):
		m.exitMode = exitRaw
		return m, tea.Quit

	case key.Matches(msg, tableKeys.ExportPlain):
		m.exitMode = exitPlain
		return m, tea.Quit
	}

	return m, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Filter
// ═══════════════════════════════════════════════════════════════════════════

func (m tableModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = tableModeNormal
		m.input.Blur()
		m.input.SetValue("")
		return m, m.dispatch(pipeline.FilterChanged{Value: ""})
	case tea.KeyEnter:
		m.mode = tableModeNormal
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	// Live filter as the user types
	if m.input.Value() != m.view.Filter.Text {
		return m, tea.Batch(cmd, m.dispatch(pipeline.FilterChanged{Value: m.input.Value()}))
	}
	return m, cmd
}

// toggleFilterColumn adds or removes the current column from the columns
// the filter looks at. With none checked the filter searches every column.
func (m *tableModel) toggleFilterColumn() tea.Cmd {
	field, ok := m.currentField()
	if !ok {
		return nil
	}

	checked := make(map[string]bool, len(m.view.Filter.RestrictedKeys))
	for _, k := range m.view.Filter.RestrictedKeys {
		checked[k] = true
	}
	checked[field.Key] = !checked[field.Key]

	items := make([]pipeline.FieldToggle, 0, len(m.view.Fields))
	for _, f := range m.view.Fields {
		items = append(items, pipeline.FieldToggle{Key: f.Key, Checked: checked[f.Key]})
	}
	return m.dispatch(pipeline.FilterFieldsChanged{TableID: m.view.TableID, Items: items})
}

// ═══════════════════════════════════════════════════════════════════════════
// Pipeline actions
// ═══════════════════════════════════════════════════════════════════════════

// dispatch sends a control message to the pipeline, through the hub when
// there is one, and refreshes the snapshot.
func (m *tableModel) dispatch(msg pipeline.Message) tea.Cmd {
	var err error
	if m.hub != nil {
		err = m.hub.Send(m.view.TableID, msg)
	} else {
		err = m.pipe.Handle(msg)
	}
	if err != nil {
		return m.setError(err.Error())
	}
	return m.refresh()
}

func (m *tableModel) gotoPage(msg pipeline.Message) tea.Cmd {
	before := m.view.Pagination
	cmd := m.dispatch(msg)
	if m.view.Pagination != before {
		m.cursor = 0
		m.scrollY = 0
	}
	return cmd
}

func (m *tableModel) sortColumn(modifier bool) tea.Cmd {
	field, ok := m.currentField()
	if !ok {
		return nil
	}
	if !field.Sortable {
		return m.setError(fmt.Sprintf("%s is not sortable", field.Label))
	}
	m.pipe.ClickHeader(field.Key, modifier)
	return m.refresh()
}

func (m *tableModel) clickRow(mods pipeline.Modifiers) tea.Cmd {
	if m.cursor >= len(m.view.Rows) {
		return nil
	}
	if m.view.SelectMode == pipeline.SelectNone {
		return m.setError("selection is off (--select-mode)")
	}
	m.pipe.ClickRow(m.view.Rows[m.cursor], mods)
	return m.refresh()
}

// refresh takes a new snapshot, keeps cursor and scroll inside it and turns
// pending events into a status line.
func (m *tableModel) refresh() tea.Cmd {
	m.view = m.pipe.View()
	m.measureColumns()

	if m.colCursor >= len(m.view.Fields) {
		m.colCursor = max(len(m.view.Fields)-1, 0)
	}
	if m.cursor >= len(m.view.Rows) {
		m.cursor = max(len(m.view.Rows)-1, 0)
	}
	m.clampScroll()

	if text := describeEvents(m.feed.drain()); text != "" {
		return m.setStatus(text)
	}
	return nil
}

// describeEvents summarizes outbound events for the footer.
func describeEvents(events []pipeline.Event) string {
	var sortText, selText string
	for _, e := range events {
		switch ev := e.(type) {
		case pipeline.SortChanged:
			if ev.Field == "" {
				sortText = "sort cleared"
			} else {
				sortText = fmt.Sprintf("sorted by %s %s", ev.Field, ev.Order)
			}
		case pipeline.RowSelected:
			if len(ev.Rows) == 0 {
				selText = "selection cleared"
			} else {
				selText = fmt.Sprintf("%d selected", len(ev.Rows))
			}
		}
	}

	var parts []string
	for _, s := range []string{sortText, selText} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// export prints the rows requested on exit.
func (m tableModel) export(w io.Writer, maxColWidth int) error {
	rows := m.view.Selected
	if len(rows) == 0 {
		rows = m.view.Filtered
	}

	switch m.exitMode {
	case exitJSON:
		return PrintJSON(w, m.view.Fields, rows)
	case exitCSV:
		return PrintCSV(w, m.view.Fields, rows)
	case exitRaw:
		return PrintRaw(w, m.view.Fields, rows)
	case exitPlain:
		v := m.view
		v.Rows = rows
		v.Offset = 0
		v.Expanded = nil
		v.Pagination = pipeline.PaginationState{CurrentPage: 1, PageSize: pipeline.PageSizeAll, TotalRows: len(rows)}
		PrintPlainTable(w, v, maxColWidth)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Row / Column Helpers
// ═══════════════════════════════════════════════════════════════════════════

func (m tableModel) currentField() (pipeline.Field, bool) {
	if m.colCursor < 0 || m.colCursor >= len(m.view.Fields) {
		return pipeline.Field{}, false
	}
	return m.view.Fields[m.colCursor], true
}

func (m tableModel) currentRow() *pipeline.Row {
	if m.cursor < 0 || m.cursor >= len(m.view.Rows) {
		return nil
	}
	return m.view.Rows[m.cursor]
}

// headerLabel is a field label with its sort marker.
func (m tableModel) headerLabel(f pipeline.Field) string {
	label := f.Label
	if order, rank, ok := m.view.SortOrderOf(f.Key); ok {
		label += " " + styles.SortIndicator(order == pipeline.Desc, rank, len(m.view.Sort))
	}
	return label
}

func (m *tableModel) measureColumns() {
	m.colWidths = make([]int, len(m.view.Fields))
	for i, f := range m.view.Fields {
		m.colWidths[i] = displayWidth(m.headerLabel(f))
	}
	for _, r := range m.view.Rows {
		for i, f := range m.view.Fields {
			if n := displayWidth(cellText(r, f.Key)); n > m.colWidths[i] {
				m.colWidths[i] = n
			}
		}
	}
}

func (m *tableModel) toggleColState(state colState) {
	field, ok := m.currentField()
	if !ok {
		return
	}
	if m.colStates[field.Key] == state {
		delete(m.colStates, field.Key)
	} else {
		m.colStates[field.Key] = state
	}
	m.ensureColVisible()
}

func (m tableModel) colLimit() int {
	if m.maxColWidth > 0 {
		return m.maxColWidth
	}
	return defaultColWidth
}

func (m tableModel) getColDisplayWidth(colIdx int) int {
	if colIdx < 0 || colIdx >= len(m.view.Fields) {
		return m.colLimit()
	}

	w := m.colWidths[colIdx]
	switch m.colStates[m.view.Fields[colIdx].Key] {
	case colStateHidden:
		return hiddenColWidth
	case colStateDefault:
		if w > m.colLimit() {
			w = m.colLimit()
		}
	}
	if w < minColWidth {
		w = minColWidth
	}
	return w
}

func (m tableModel) getColStartX(colIdx int) int {
	x := 0
	for i := 0; i < colIdx && i < len(m.view.Fields); i++ {
		x += m.getColDisplayWidth(i) + colGap
	}
	return x
}

func (m tableModel) getColEndX(colIdx int) int {
	return m.getColStartX(colIdx) + m.getColDisplayWidth(colIdx)
}

func (m tableModel) getTotalWidth() int {
	return m.getColStartX(len(m.view.Fields))
}

func (m tableModel) getMaxScrollX() int {
	maxX := m.getTotalWidth() - m.viewportWidth()
	if maxX < 0 {
		return 0
	}
	return maxX
}

func (m tableModel) getMaxScrollY() int {
	maxY := m.totalLines() - m.visibleRowCount()
	if maxY < 0 {
		return 0
	}
	return maxY
}

// rowHeight is the number of body lines row i takes: one, plus its detail
// panel when expanded.
func (m tableModel) rowHeight(i int) int {
	if i < 0 || i >= len(m.view.Rows) {
		return 0
	}
	if m.view.IsExpanded(m.view.Position(i)) {
		return 1 + len(detailLines(m.view.Rows[i], m.view.Fields))
	}
	return 1
}

func (m tableModel) lineOfRow(i int) int {
	line := 0
	for j := 0; j < i && j < len(m.view.Rows); j++ {
		line += m.rowHeight(j)
	}
	return line
}

// rowAtLine returns the row whose lines include body line n, clamped to
// the page.
func (m tableModel) rowAtLine(n int) int {
	if n <= 0 || len(m.view.Rows) == 0 {
		return 0
	}
	line := 0
	for i := range m.view.Rows {
		line += m.rowHeight(i)
		if n < line {
			return i
		}
	}
	return len(m.view.Rows) - 1
}

func (m tableModel) totalLines() int {
	return m.lineOfRow(len(m.view.Rows))
}

// ═══════════════════════════════════════════════════════════════════════════
// Animation
// ═══════════════════════════════════════════════════════════════════════════

type animTickMsg time.Time

const animationFrameInterval = 16 * time.Millisecond
const animationFraction = 0.25
const animationSnapThreshold = 1

func animTick() tea.Cmd {
	return tea.Tick(animationFrameInterval, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

func (m *tableModel) startAnimation(targetX, targetY int) tea.Cmd {
	targetX = clamp(targetX, 0, m.getMaxScrollX())
	targetY = clamp(targetY, 0, m.getMaxScrollY())

	m.animTargetX = targetX
	m.animTargetY = targetY

	if targetX == m.scrollX && targetY == m.scrollY {
		m.animating = false
		return nil
	}

	// Accessible mode jumps straight to the target
	if styles.IsAccessible() {
		m.scrollX = targetX
		m.scrollY = targetY
		m.animating = false
		return nil
	}

	if !m.animating {
		m.animating = true
		return animTick()
	}
	return nil
}

func (m *tableModel) updateAnimation() tea.Cmd {
	if !m.animating {
		return nil
	}

	remainingX := m.animTargetX - m.scrollX
	remainingY := m.animTargetY - m.scrollY

	if abs(remainingX) <= animationSnapThreshold && abs(remainingY) <= animationSnapThreshold {
		m.scrollX = m.animTargetX
		m.scrollY = m.animTargetY
		m.animating = false
		return nil
	}

	m.scrollX += animStep(remainingX)
	m.scrollY += animStep(remainingY)
	return animTick()
}

func animStep(remaining int) int {
	if remaining == 0 {
		return 0
	}
	delta := int(float64(remaining) * animationFraction)
	if delta == 0 {
		if remaining > 0 {
			return 1
		}
		return -1
	}
	return delta
}

func (m *tableModel) cancelAnimation() {
	m.animating = false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ═══════════════════════════════════════════════════════════════════════════
// Status Message (flash notification)
// ═══════════════════════════════════════════════════════════════════════════

type statusClearMsg struct{}

const statusDuration = 2 * time.Second

// setStatus sets a temporary status message that auto-clears.
func (m *tableModel) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusErr = false
	m.statusUntil = time.Now().Add(statusDuration)
	return tea.Tick(statusDuration, func(t time.Time) tea.Msg {
		return statusClearMsg{}
	})
}

func (m *tableModel) setError(msg string) tea.Cmd {
	cmd := m.setStatus(msg)
	m.statusErr = true
	return cmd
}

// ═══════════════════════════════════════════════════════════════════════════
// Clipboard (yank)
// ═══════════════════════════════════════════════════════════════════════════

// yankCell copies the value under the cursor to the system clipboard.
func (m *tableModel) yankCell() tea.Cmd {
	row := m.currentRow()
	field, ok := m.currentField()
	if row == nil || !ok {
		return nil
	}
	val := row.String(field.Key)
	if err := clipboard.WriteAll(val); err != nil {
		return m.setError(fmt.Sprintf("clipboard error: %s", err))
	}
	return m.setStatus(fmt.Sprintf("Copied: %s", Truncate(cellText(row, field.Key), 40)))
}

// yankRow copies the row under the cursor (tab-separated) to the clipboard.
func (m *tableModel) yankRow() tea.Cmd {
	row := m.currentRow()
	if row == nil {
		return nil
	}
	vals := make([]string, len(m.view.Fields))
	for i, f := range m.view.Fields {
		vals[i] = row.String(f.Key)
	}
	if err := clipboard.WriteAll(strings.Join(vals, "\t")); err != nil {
		return m.setError(fmt.Sprintf("clipboard error: %s", err))
	}
	return m.setStatus(fmt.Sprintf("Copied row (%d columns)", len(vals)))
}

// ═══════════════════════════════════════════════════════════════════════════
// Scroll Helpers
// ═══════════════════════════════════════════════════════════════════════════

func (m *tableModel) ensureRowVisible() {
	visibleRows := m.visibleRowCount()
	start := m.lineOfRow(m.cursor)
	end := start + m.rowHeight(m.cursor) - 1

	if start < m.scrollY {
		m.scrollY = start
	} else if end >= m.scrollY+visibleRows {
		m.scrollY = end - visibleRows + 1
		// A detail panel taller than the screen shows from its row
		if m.scrollY > start {
			m.scrollY = start
		}
	}
}

func (m *tableModel) clampScroll() {
	m.scrollX = clamp(m.scrollX, 0, m.getMaxScrollX())
	m.scrollY = clamp(m.scrollY, 0, m.getMaxScrollY())
}

func (m *tableModel) ensureColVisible() {
	colStartX := m.getColStartX(m.colCursor)
	colEndX := m.getColEndX(m.colCursor)
	colWidth := colEndX - colStartX
	viewportWidth := m.viewportWidth()

	if colStartX < m.scrollX {
		m.scrollX = colStartX
	} else if colEndX > m.scrollX+viewportWidth {
		if colWidth <= viewportWidth {
			m.scrollX = colEndX - viewportWidth
		} else {
			m.scrollX = colStartX
		}
	}
	m.scrollX = clamp(m.scrollX, 0, m.getMaxScrollX())
}

func (m *tableModel) ensureColVisibleFromLeft() {
	m.scrollX = clamp(m.getColStartX(m.colCursor), 0, m.getMaxScrollX())
}

func (m *tableModel) ensureColVisibleFromRight() {
	colStartX := m.getColStartX(m.colCursor)
	colEndX := m.getColEndX(m.colCursor)
	viewportWidth := m.viewportWidth()

	m.scrollX = colEndX - viewportWidth
	if colEndX-colStartX <= viewportWidth && m.scrollX < colStartX {
		m.scrollX = colStartX
	}
	m.scrollX = clamp(m.scrollX, 0, m.getMaxScrollX())
}

// visibleRowCount is the number of body lines that fit: title, filter bar,
// header and separator above; page line and help below.
func (m tableModel) visibleRowCount() int {
	count := m.height - 6
	if count < 1 {
		count = 1
	}
	return count
}

func (m tableModel) viewportWidth() int {
	w := m.width - 2 - m.gutterWidth()
	if w < 1 {
		w = 1
	}
	return w
}

func (m tableModel) halfWidth() int {
	return max(m.viewportWidth()/2, 1)
}

func (m tableModel) halfScreen() int {
	return max(m.visibleRowCount()/2, 1)
}
