package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/imgajeed76/tabula/internal/pipeline"
	"github.com/imgajeed76/tabula/internal/ui/styles"
)

// ═══════════════════════════════════════════════════════════════════════════
// View
// ═══════════════════════════════════════════════════════════════════════════

func (m tableModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var sb strings.Builder

	sb.WriteString(m.renderTitle())
	sb.WriteString("\n")
	sb.WriteString(m.renderFilterBar())
	sb.WriteString("\n")
	sb.WriteString(m.renderTable())
	sb.WriteString("\n")

	// Footer
	switch {
	case m.statusMsg != "" && time.Now().Before(m.statusUntil):
		if m.statusErr {
			sb.WriteString(styles.WarningMsg(m.statusMsg))
		} else {
			sb.WriteString(styles.SuccessMsg(m.statusMsg))
		}
	case m.mode == tableModeFilter:
		sb.WriteString(styles.MutedMsg("enter confirm  esc clear"))
	default:
		sb.WriteString(styles.MutedMsg(m.helpText()))
	}

	return sb.String()
}

func (m tableModel) helpText() string {
	help := "↑↓←→ nav  n/p page  +/- size  s/S sort  / filter  f filter col  enter details"
	if m.view.SelectMode != pipeline.SelectNone {
		help += "  space/x/v select"
		if m.view.SelectMode == pipeline.SelectMulti || m.view.SelectMode == pipeline.SelectRange {
			help += "  a all"
		}
	}
	return help + "  e/H width  r reset  y copy  J/C/R/P print  q quit"
}

func (m tableModel) renderTitle() string {
	v := m.view
	var title string
	if v.Filter.Active() {
		title = fmt.Sprintf("%s: %d/%d rows, %d columns", m.title, len(v.Filtered), v.SourceLen, len(v.Fields))
	} else {
		title = fmt.Sprintf("%s: %d rows, %d columns", m.title, v.SourceLen, len(v.Fields))
	}

	var sb strings.Builder
	sb.WriteString(styles.Render(styles.HeaderStyle, title))

	var info []string
	if len(v.Sort) > 0 {
		keys := make([]string, len(v.Sort))
		for i, c := range v.Sort {
			keys[i] = c.String()
		}
		info = append(info, "sort "+strings.Join(keys, ","))
	}
	if v.SelectMode != pipeline.SelectNone {
		info = append(info, fmt.Sprintf("%s select: %d", v.SelectMode, len(v.Selected)))
	}
	var colInfo []string
	for _, f := range v.Fields {
		switch m.colStates[f.Key] {
		case colStateExpanded:
			colInfo = append(colInfo, f.Key+"+")
		case colStateHidden:
			colInfo = append(colInfo, f.Key+"-")
		}
	}
	if len(colInfo) > 0 {
		info = append(info, strings.Join(colInfo, ", "))
	}
	if len(info) > 0 {
		sb.WriteString(styles.MutedMsg(fmt.Sprintf("  [%s]", strings.Join(info, "; "))))
	}
	return sb.String()
}

func (m tableModel) renderFilterBar() string {
	v := m.view
	var scope string
	if len(v.Filter.RestrictedKeys) > 0 {
		scope = " in " + strings.Join(v.Filter.RestrictedKeys, ", ")
	}

	switch {
	case m.mode == tableModeFilter:
		return "/" + m.input.View() + styles.MutedMsg(scope)
	case v.Filter.Text != "":
		return styles.MutedMsg(fmt.Sprintf("filter: %s%s", v.Filter.Text, scope))
	case scope != "":
		return styles.MutedMsg("filter columns:" + strings.TrimPrefix(scope, " in"))
	}
	return ""
}

// ═══════════════════════════════════════════════════════════════════════════
// Render Table
// ═══════════════════════════════════════════════════════════════════════════

func (m tableModel) renderTable() string {
	var sb strings.Builder

	if len(m.view.Fields) == 0 {
		return "No columns"
	}

	viewportWidth := m.viewportWidth()
	gutterPad := strings.Repeat(" ", m.gutterWidth())

	sb.WriteString(gutterPad)
	sb.WriteString(applyViewport(m.buildFullHeaderLine(), m.scrollX, viewportWidth))
	sb.WriteString("\n")
	sb.WriteString(gutterPad)
	sb.WriteString(applyViewport(m.buildFullSeparatorLine(), m.scrollX, viewportWidth))
	sb.WriteString("\n")

	body := m.bodyLines(viewportWidth)
	visibleRows := m.visibleRowCount()
	end := min(m.scrollY+visibleRows, len(body))
	for i := m.scrollY; i < end; i++ {
		sb.WriteString(body[i])
		sb.WriteString("\n")
	}
	if len(m.view.Rows) == 0 {
		sb.WriteString(styles.MutedMsg("  (no matching rows)"))
		sb.WriteString("\n")
	}

	// Page line and scroll indicators
	info := m.view.PageInfo()
	page := info.String() + "  size " + info.PageSize.String()
	var indicators []string
	if m.scrollX > 0 {
		indicators = append(indicators, "◀")
	}
	if m.scrollX+viewportWidth < m.getTotalWidth() {
		indicators = append(indicators, "▶")
	}
	if m.scrollY > 0 {
		indicators = append(indicators, "▲")
	}
	if m.scrollY+visibleRows < len(body) {
		indicators = append(indicators, "▼")
	}
	if len(indicators) > 0 {
		page += "  " + strings.Join(indicators, " ")
	}
	sb.WriteString(styles.MutedMsg(page))

	return sb.String()
}

// bodyLines renders every row of the page and the detail panels of
// expanded rows, gutter included.
func (m tableModel) bodyLines(viewportWidth int) []string {
	lines := make([]string, 0, len(m.view.Rows))
	for i, r := range m.view.Rows {
		expanded := m.view.IsExpanded(m.view.Position(i))
		isCursor := i == m.cursor

		row := m.buildFullRowLine(r, isCursor, m.view.IsSelected(r))
		lines = append(lines, m.gutter(isCursor, expanded, m.view.IsSelected(r))+applyViewport(row, m.scrollX, viewportWidth))

		if expanded {
			pad := strings.Repeat(" ", m.gutterWidth()+2)
			for _, d := range detailLines(r, m.view.Fields) {
				lines = append(lines, pad+styles.Render(styles.DetailStyle, applyViewport(d, 0, viewportWidth-2)))
			}
		}
	}
	return lines
}

// gutterWidth is the fixed left margin: cursor and expansion markers, plus
// the selection marker when selection is on.
func (m tableModel) gutterWidth() int {
	if m.view.SelectMode == pipeline.SelectNone {
		return 3
	}
	return 5
}

func (m tableModel) gutter(isCursor, expanded, selected bool) string {
	accessible := styles.IsAccessible()

	cur := " "
	if isCursor {
		cur = ">"
	}
	exp := styles.SymbolCollapsed
	if expanded {
		exp = styles.SymbolExpanded
	}
	if accessible {
		exp = "+"
		if expanded {
			exp = "-"
		}
	}
	out := cur + styles.Mute(exp) + " "

	if m.view.SelectMode != pipeline.SelectNone {
		sel := styles.SymbolUnchecked
		if selected {
			sel = styles.SymbolChecked
		}
		if accessible {
			sel = " "
			if selected {
				sel = "*"
			}
		}
		if selected {
			sel = styles.Render(styles.HelpKey, sel)
		} else {
			sel = styles.Mute(sel)
		}
		out += sel + " "
	}
	return out
}

func (m tableModel) buildFullHeaderLine() string {
	var sb strings.Builder

	for i, f := range m.view.Fields {
		colWidth := m.getColDisplayWidth(i)

		var displayName string
		if m.colStates[f.Key] == colStateHidden {
			displayName = PadOrTruncate("...", colWidth)
		} else {
			displayName = padStyled(m.headerLabel(f), colWidth)
		}

		style := lipgloss.NewStyle().Bold(true).Foreground(styles.Info)
		if !f.Sortable {
			style = style.Foreground(styles.TextSecondary)
		}
		if i == m.colCursor {
			style = styles.HeaderStyle
		}
		sb.WriteString(styles.Render(style, displayName))
		sb.WriteString(strings.Repeat(" ", colGap))
	}

	return sb.String()
}

func (m tableModel) buildFullSeparatorLine() string {
	var sb strings.Builder

	for i := range m.view.Fields {
		sep := strings.Repeat("─", m.getColDisplayWidth(i))
		if i == m.colCursor {
			sb.WriteString(styles.Render(styles.HelpKey, sep))
		} else {
			sb.WriteString(styles.Render(styles.BorderStyle, sep))
		}
		sb.WriteString(strings.Repeat(" ", colGap))
	}

	return sb.String()
}

func (m tableModel) buildFullRowLine(row *pipeline.Row, isCursor, isSelected bool) string {
	var sb strings.Builder
	query := strings.ToLower(m.view.Filter.Text)

	for i, f := range m.view.Fields {
		colWidth := m.getColDisplayWidth(i)

		val := cellText(row, f.Key)
		var displayVal string
		if m.colStates[f.Key] == colStateHidden {
			displayVal = PadOrTruncate("...", colWidth)
		} else {
			displayVal = PadOrTruncate(val, colWidth)
		}

		hasMatch := query != "" && m.filterCovers(f.Key) && strings.Contains(strings.ToLower(val), query)

		switch {
		case isCursor && i == m.colCursor:
			sb.WriteString(styles.Render(styles.CursorCellStyle, displayVal))
		case isCursor:
			sb.WriteString(styles.Render(styles.CursorStyle, displayVal))
		case isSelected:
			sb.WriteString(styles.Render(styles.SelectedStyle, displayVal))
		case hasMatch:
			sb.WriteString(styles.Render(styles.WarningStyle.Underline(true), displayVal))
		default:
			sb.WriteString(styles.Variant(cellVariant(row, f), displayVal))
		}
		sb.WriteString(strings.Repeat(" ", colGap))
	}

	return sb.String()
}

// filterCovers reports whether the filter looks at key.
func (m tableModel) filterCovers(key string) bool {
	if len(m.view.Filter.RestrictedKeys) == 0 {
		return true
	}
	for _, k := range m.view.Filter.RestrictedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// padStyled pads a possibly styled label to width, truncating the plain
// text when it does not fit.
func padStyled(s string, width int) string {
	if displayWidth(s) > width {
		return PadOrTruncate(stripStyles(s), width)
	}
	return PadOrTruncate(s, width)
}
