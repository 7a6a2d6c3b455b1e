package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/imgajeed76/tabula/internal/pipeline"
)

func TestApplyViewport(t *testing.T) {
	tests := []struct {
		in           string
		start, width int
		want         string
	}{
		{"abcdef", 0, 3, "abc"},
		{"abcdef", 2, 3, "cde"},
		{"abc", 1, 4, "bc  "},
		{"abc", 5, 2, "  "},
		{"abc", -1, 2, "ab"},
		{"日本語", 2, 2, "本"},
	}
	for _, tt := range tests {
		if got := applyViewport(tt.in, tt.start, tt.width); got != tt.want {
			t.Errorf("applyViewport(%q, %d, %d) = %q, want %q", tt.in, tt.start, tt.width, got, tt.want)
		}
	}
	if got := applyViewport("abc", 0, 0); got != "" {
		t.Fatalf("zero width = %q", got)
	}
}

func TestApplyViewport_KeepsStyles(t *testing.T) {
	styled := "ab" + "\x1b[31m" + "cdef" + "\x1b[0m" + "gh"

	got := applyViewport(styled, 3, 4)
	if plain := ansi.Strip(got); plain != "defg" {
		t.Fatalf("visible text = %q, want defg", plain)
	}
	if !strings.Contains(got, "\x1b[31m") {
		t.Fatalf("styles should carry into the slice: %q", got)
	}
	if w := ansi.StringWidth(got); w != 4 {
		t.Fatalf("width = %d, want 4", w)
	}
}

func TestPadOrTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"abc", 5, "abc  "},
		{"abcdefgh", 6, "abc..."},
		{"abcdef", 2, "ab"},
		{"日本語テキスト", 8, "日本... "},
	}
	for _, tt := range tests {
		got := PadOrTruncate(tt.in, tt.width)
		if got != tt.want {
			t.Errorf("PadOrTruncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}

	styled := lipgloss.NewStyle().Bold(true).Render("x")
	if w := displayWidth(PadOrTruncate(styled, 4)); w != 4 {
		t.Fatalf("styled padding width = %d, want 4", w)
	}
}

func TestPrintPlainTable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	p := pipeline.New(pipeline.WithPageSize(2))
	p.SetSourceRows([]*pipeline.Row{
		pipeline.NewOrderedRow([]string{"name", "city"}, map[string]any{"name": "Anna", "city": "Bern"}),
		pipeline.NewOrderedRow([]string{"name", "city"}, map[string]any{"name": "Ben", "city": nil}),
		pipeline.NewOrderedRow([]string{"name", "city"}, map[string]any{"name": "Cleo", "city": "Oslo\nCentrum"}),
	})
	if err := p.SetSortCriteria([]pipeline.SortCriterion{{Key: "name", Order: pipeline.Desc}}); err != nil {
		t.Fatal(err)
	}
	p.ToggleExpand(0)

	var buf bytes.Buffer
	PrintPlainTable(&buf, p.View(), 0)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	if !strings.HasPrefix(lines[0], "Name ▼") {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "Cleo") {
		t.Fatalf("first row = %q, want Cleo (name desc)", lines[2])
	}
	if !strings.Contains(lines[2], `Oslo\nCentrum`) {
		t.Fatalf("newlines should be escaped in cells: %q", lines[2])
	}
	if strings.TrimSpace(lines[3]) != "(no details)" {
		t.Fatalf("expanded row without extra keys = %q", lines[3])
	}
	if !strings.HasPrefix(lines[4], "Ben") {
		t.Fatalf("second row = %q, want Ben", lines[4])
	}
	if last := lines[len(lines)-1]; last != "(1-2 of 3 (page 1/2))" {
		t.Fatalf("footer = %q", last)
	}
}

func TestPrintPlainTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	PrintPlainTable(&buf, pipeline.New().View(), 0)
	if buf.String() != "(0 rows)\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestPrintRaw(t *testing.T) {
	rows := []*pipeline.Row{pipeline.NewRow(map[string]any{"a": "x\ty", "b": 2})}
	fields := []pipeline.Field{{Key: "a"}, {Key: "b"}}

	var buf bytes.Buffer
	if err := PrintRaw(&buf, fields, rows); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "x\\ty\t2\n" {
		t.Fatalf("raw = %q", buf.String())
	}
}

func TestCellVariantPrecedence(t *testing.T) {
	f := pipeline.Field{Key: "a", Variant: "info"}
	if got := cellVariant(pipeline.NewRow(map[string]any{"a": 1}), f); got != "info" {
		t.Fatalf("column variant = %q", got)
	}
	r := pipeline.NewRow(map[string]any{"a": 1, pipeline.KeyRowVariant: "warning"})
	if got := cellVariant(r, f); got != "warning" {
		t.Fatalf("row variant = %q", got)
	}
	r = pipeline.NewRow(map[string]any{
		"a":                      1,
		pipeline.KeyRowVariant:   "warning",
		pipeline.KeyCellVariants: map[string]any{"a": "danger"},
	})
	if got := cellVariant(r, f); got != "danger" {
		t.Fatalf("cell variant = %q", got)
	}
}
