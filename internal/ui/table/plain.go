package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/imgajeed76/tabula/internal/pipeline"
	"github.com/imgajeed76/tabula/internal/source"
	"github.com/imgajeed76/tabula/internal/ui/styles"
	"github.com/imgajeed76/tabula/internal/util"
	"github.com/mattn/go-runewidth"
)

// PrintJSON writes rows as a JSON array of objects in field order.
func PrintJSON(w io.Writer, fields []pipeline.Field, rows []*pipeline.Row) error {
	return source.WriteJSON(w, fields, rows)
}

// PrintCSV writes rows as CSV with a header line of field keys.
func PrintCSV(w io.Writer, fields []pipeline.Field, rows []*pipeline.Row) error {
	return source.WriteCSV(w, fields, rows)
}

// PrintRaw writes rows as tab-separated values, one line per row, with
// control characters escaped so every row stays on one line.
func PrintRaw(w io.Writer, fields []pipeline.Field, rows []*pipeline.Row) error {
	vals := make([]string, len(fields))
	for _, r := range rows {
		for i, f := range fields {
			vals[i] = util.EscapeControl(r.String(f.Key))
		}
		if _, err := fmt.Fprintln(w, strings.Join(vals, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// PrintPlainTable prints the current page of v as an aligned table for
// non-TTY output. maxColWidth truncates long cells; 0 shows full content.
// Expanded rows are followed by their detail lines.
func PrintPlainTable(w io.Writer, v pipeline.View, maxColWidth int) {
	if len(v.Fields) == 0 {
		fmt.Fprintln(w, "(0 rows)")
		return
	}

	headers := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		headers[i] = f.Label
		if order, rank, ok := v.SortOrderOf(f.Key); ok {
			headers[i] += " " + styles.SortIndicator(order == pipeline.Desc, rank, len(v.Sort))
		}
	}

	colWidths := make([]int, len(v.Fields))
	for i, h := range headers {
		colWidths[i] = displayWidth(h)
	}
	for _, r := range v.Rows {
		for i, f := range v.Fields {
			if n := runewidth.StringWidth(cellText(r, f.Key)); n > colWidths[i] {
				colWidths[i] = n
			}
		}
	}
	if maxColWidth > 0 {
		for i := range colWidths {
			if colWidths[i] > maxColWidth {
				colWidths[i] = maxColWidth
			}
		}
	}

	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		fmt.Fprint(w, styles.Render(styles.HeaderStyle, PadOrTruncate(h, colWidths[i])))
	}
	fmt.Fprintln(w)

	for i, cw := range colWidths {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		fmt.Fprint(w, styles.Render(styles.BorderStyle, strings.Repeat("─", cw)))
	}
	fmt.Fprintln(w)

	for i, r := range v.Rows {
		for j, f := range v.Fields {
			if j > 0 {
				fmt.Fprint(w, "  ")
			}
			fmt.Fprint(w, styles.Variant(cellVariant(r, f), PadOrTruncate(cellText(r, f.Key), colWidths[j])))
		}
		fmt.Fprintln(w)

		if v.IsExpanded(v.Position(i)) {
			for _, line := range detailLines(r, v.Fields) {
				fmt.Fprintln(w, styles.Render(styles.DetailStyle, "    "+line))
			}
		}
	}

	fmt.Fprintln(w)
	info := v.PageInfo()
	switch {
	case info.MaxPage() > 1:
		fmt.Fprintf(w, "(%s)\n", info.String())
	case v.Filter.Active():
		fmt.Fprintf(w, "(%d of %d rows)\n", info.TotalRows, v.SourceLen)
	default:
		fmt.Fprintf(w, "(%d rows)\n", info.TotalRows)
	}
}

// cellText is the single-line display form of a cell.
func cellText(r *pipeline.Row, key string) string {
	return util.EscapeControl(r.String(key))
}

// cellVariant picks the most specific variant for a cell: the cell's own,
// then the row's, then the column's.
func cellVariant(r *pipeline.Row, f pipeline.Field) string {
	if v := r.CellVariant(f.Key); v != "" {
		return v
	}
	if v := r.Variant(); v != "" {
		return v
	}
	return f.Variant
}

// detailLines renders the detail panel of an expanded row: the _details
// value when present, otherwise every data key not shown as a column.
func detailLines(r *pipeline.Row, fields []pipeline.Field) []string {
	if v, ok := r.Get(pipeline.KeyDetails); ok && v != nil {
		return strings.Split(pipeline.Stringify(v), "\n")
	}

	shown := make(map[string]bool, len(fields))
	for _, f := range fields {
		shown[f.Key] = true
	}
	var lines []string
	for _, k := range r.DataKeys() {
		if shown[k] {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", k, cellText(r, k)))
	}
	if len(lines) == 0 {
		lines = []string{"(no details)"}
	}
	return lines
}

// displayWidth is the visible width of s, ignoring ANSI styling.
func displayWidth(s string) int {
	return ansi.StringWidth(s)
}

// Truncate shortens a string to fit width columns, adding "..." if needed.
func Truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width > 3 {
		return runewidth.Truncate(s, width, "...")
	}
	return runewidth.Truncate(s, width, "")
}

// PadOrTruncate pads or truncates to exact width. Styled input is padded
// by its visible width and never truncated.
func PadOrTruncate(s string, width int) string {
	if strings.Contains(s, "\x1b[") {
		if n := displayWidth(s); n < width {
			return s + strings.Repeat(" ", width-n)
		}
		return s
	}
	if runewidth.StringWidth(s) > width {
		s = Truncate(s, width)
	}
	return runewidth.FillRight(s, width)
}
