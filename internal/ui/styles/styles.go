package styles

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

// Symbols - Unicode with ASCII fallbacks
const (
	SymbolSuccess   = "✓"
	SymbolError     = "✗"
	SymbolWarning   = "⚠"
	SymbolInfo      = "●"
	SymbolArrow     = "→"
	SymbolAsc       = "▲"
	SymbolDesc      = "▼"
	SymbolExpanded  = "▾"
	SymbolCollapsed = "▸"
	SymbolChecked   = "■"
	SymbolUnchecked = "□"
)

var forceNoColor atomic.Bool

// SetNoColor disables colors for the rest of the process (--no-color).
func SetNoColor(v bool) {
	forceNoColor.Store(v)
}

// NoColor checks if colors should be disabled
func NoColor() bool {
	return forceNoColor.Load() || os.Getenv("NO_COLOR") != "" || os.Getenv("TABULA_NO_COLOR") != ""
}

// IsAccessible checks if accessibility mode is enabled
// When enabled: no animations, no spinner, ASCII symbols
func IsAccessible() bool {
	return os.Getenv("TABULA_ACCESSIBLE") == "1" || os.Getenv("TABULA_ACCESSIBLE") == "true"
}

// Base text styles
var (
	Bold      = lipgloss.NewStyle().Bold(true)
	Dim       = lipgloss.NewStyle().Foreground(Muted)
	Underline = lipgloss.NewStyle().Underline(true)
)

// Semantic styles - use these instead of raw colors
var (
	// Message types
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	InfoStyle    = lipgloss.NewStyle().Foreground(Info)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)

	// Table display
	HeaderStyle     = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	SortStyle       = lipgloss.NewStyle().Foreground(Info)
	BorderStyle     = lipgloss.NewStyle().Foreground(BgBorder)
	DetailStyle     = lipgloss.NewStyle().Foreground(TextSecondary)
	CursorStyle     = lipgloss.NewStyle().Background(BgHighlight).Foreground(TextPrimary)
	CursorCellStyle = lipgloss.NewStyle().Background(Accent).Foreground(TextPrimary)

	// Interactive TUI
	SelectedStyle = lipgloss.NewStyle().
			Background(BgSelected).
			Foreground(TextPrimary)

	// Help bar
	HelpKey   = lipgloss.NewStyle().Foreground(Accent)
	HelpValue = lipgloss.NewStyle().Foreground(Muted)
)

// ═══════════════════════════════════════════════════════════════════════════
// Render functions - centralized formatting with NoColor support
// ═══════════════════════════════════════════════════════════════════════════

// render applies a style if colors are enabled
func render(s lipgloss.Style, text string) string {
	if NoColor() {
		return text
	}
	return s.Render(text)
}

// Render applies s unless colors are disabled.
func Render(s lipgloss.Style, text string) string {
	return render(s, text)
}

// VariantStyle maps a row or cell variant tag to a style. Unknown tags get
// the zero style.
func VariantStyle(variant string) lipgloss.Style {
	switch strings.ToLower(variant) {
	case "success":
		return lipgloss.NewStyle().Foreground(ColorVariantSuccess)
	case "warning":
		return lipgloss.NewStyle().Foreground(ColorVariantWarning)
	case "danger", "error":
		return lipgloss.NewStyle().Foreground(ColorVariantDanger)
	case "info":
		return lipgloss.NewStyle().Foreground(ColorVariantInfo)
	case "secondary", "muted":
		return lipgloss.NewStyle().Foreground(ColorVariantMuted)
	case "primary", "active":
		return lipgloss.NewStyle().Foreground(ColorVariantPrimary).Bold(true)
	default:
		return lipgloss.NewStyle()
	}
}

// Variant renders text in the style of a variant tag.
func Variant(variant, text string) string {
	if variant == "" {
		return text
	}
	return render(VariantStyle(variant), text)
}

// SortIndicator renders the header marker for a sorted column. rank is
// 0-based; it is only shown when more than one column is sorted.
func SortIndicator(desc bool, rank, total int) string {
	sym := SymbolAsc
	if desc {
		sym = SymbolDesc
	}
	if IsAccessible() {
		sym = "^"
		if desc {
			sym = "v"
		}
	}
	if total > 1 {
		sym = fmt.Sprintf("%s%d", sym, rank+1)
	}
	return render(SortStyle, sym)
}

// ═══════════════════════════════════════════════════════════════════════════
// Message formatters - structured output
// ═══════════════════════════════════════════════════════════════════════════

// SuccessMsg formats a success message with checkmark
func SuccessMsg(msg string) string {
	symbol := SymbolSuccess
	if NoColor() {
		symbol = "+"
	}
	return fmt.Sprintf("%s %s", render(SuccessStyle, symbol), msg)
}

// ErrorMsg formats an error message
func ErrorMsg(title string) string {
	return render(ErrorStyle, "Error: "+title)
}

// WarningMsg formats a warning message
func WarningMsg(msg string) string {
	symbol := SymbolWarning
	if NoColor() {
		symbol = "!"
	}
	return fmt.Sprintf("%s %s", render(WarningStyle, symbol), msg)
}

// InfoMsg formats an info message
func InfoMsg(msg string) string {
	return render(InfoStyle, msg)
}

// MutedMsg formats muted/secondary text
func MutedMsg(msg string) string {
	return render(MutedStyle, msg)
}

// ═══════════════════════════════════════════════════════════════════════════
// Section formatters - consistent output structure
// ═══════════════════════════════════════════════════════════════════════════

// SectionHeader formats a section header
func SectionHeader(title string) string {
	return render(Bold, title)
}

// HelpLine formats a help line (key description)
func HelpLine(key, description string) string {
	return fmt.Sprintf("  %s %s", render(HelpKey, key), render(MutedStyle, description))
}

// Indent returns text indented by n spaces
func Indent(text string, n int) string {
	prefix := strings.Repeat(" ", n)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// ═══════════════════════════════════════════════════════════════════════════
// Color functions - simple string coloring (non-printf versions)
// ═══════════════════════════════════════════════════════════════════════════

func Yellow(s string) string      { return render(WarningStyle, s) }
func Green(s string) string       { return render(SuccessStyle, s) }
func Red(s string) string         { return render(ErrorStyle, s) }
func Cyan(s string) string        { return render(InfoStyle, s) }
func Mute(s string) string        { return render(MutedStyle, s) }
func SuccessText(s string) string { return render(SuccessStyle, s) }
func WarningText(s string) string { return render(WarningStyle, s) }
func ErrorText(s string) string   { return render(ErrorStyle, s) }

// Printf-style color functions
func Yellowf(format string, a ...any) string  { return Yellow(fmt.Sprintf(format, a...)) }
func Greenf(format string, a ...any) string   { return Green(fmt.Sprintf(format, a...)) }
func Redf(format string, a ...any) string     { return Red(fmt.Sprintf(format, a...)) }
func Cyanf(format string, a ...any) string    { return Cyan(fmt.Sprintf(format, a...)) }
func Mutef(format string, a ...any) string    { return Mute(fmt.Sprintf(format, a...)) }
func Boldf(format string, a ...any) string    { return Bold.Render(fmt.Sprintf(format, a...)) }
func Errorf(format string, a ...any) string   { return ErrorText(fmt.Sprintf(format, a...)) }
func Successf(format string, a ...any) string { return SuccessText(fmt.Sprintf(format, a...)) }
func Warningf(format string, a ...any) string { return WarningText(fmt.Sprintf(format, a...)) }
