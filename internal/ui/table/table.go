// Package table renders a pipeline: an interactive TUI (sort, filter,
// pagination, selection, row details, smooth scrolling), plain text tables,
// JSON, CSV and raw tab-separated output.
//
// This package is used by both `tabula view` and `tabula query`.
package table

import (
	"io"
	"os"

	"github.com/imgajeed76/tabula/internal/pipeline"
	"golang.org/x/term"
)

// DisplayOptions controls how results are rendered.
type DisplayOptions struct {
	// Title is shown in the interactive TUI header.
	Title string
	// JSON outputs the current page as a JSON array of objects.
	JSON bool
	// CSV outputs the current page as CSV.
	CSV bool
	// Raw outputs the current page as tab-separated values (for piping).
	Raw bool
	// NoPager forces plain table output even on a TTY.
	NoPager bool
	// MaxColWidth caps column width in table output; 0 uses the default.
	MaxColWidth int
	// PageSizes is the cycle of the TUI page size keys.
	PageSizes []pipeline.PageSize
	// Out receives non-interactive output; defaults to stdout.
	Out io.Writer
}

func (o DisplayOptions) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

// Interactive reports whether Display would start the TUI.
func (o DisplayOptions) Interactive() bool {
	if o.JSON || o.CSV || o.Raw || o.NoPager {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Display picks the right output mode based on options and environment,
// then renders p. Non-interactive modes print the current page. hub may be
// nil; when set, the TUI routes its control messages through it.
func Display(p *pipeline.Pipeline, hub *pipeline.Hub, opts DisplayOptions) error {
	v := p.View()
	out := opts.out()

	switch {
	case opts.Raw:
		return PrintRaw(out, v.Fields, v.Rows)
	case opts.JSON:
		return PrintJSON(out, v.Fields, v.Rows)
	case opts.CSV:
		return PrintCSV(out, v.Fields, v.Rows)
	}

	if !opts.Interactive() || v.SourceLen == 0 {
		PrintPlainTable(out, v, opts.MaxColWidth)
		return nil
	}

	return RunTableTUI(p, hub, opts)
}
