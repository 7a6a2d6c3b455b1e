package styles

import "github.com/charmbracelet/lipgloss"

// Color palette, dark mode optimized
var (
	// Primary semantic colors
	Accent  = lipgloss.Color("#7C3AED") // violet-500 - highlights, interactive
	Success = lipgloss.Color("#10B981") // emerald-500
	Warning = lipgloss.Color("#F59E0B") // amber-500
	Error   = lipgloss.Color("#EF4444") // red-500
	Info    = lipgloss.Color("#3B82F6") // blue-500
	Muted   = lipgloss.Color("#6B7280") // gray-500 - secondary text

	// Text colors
	TextPrimary   = lipgloss.Color("#F9FAFB") // gray-50 - main text
	TextSecondary = lipgloss.Color("#9CA3AF") // gray-400 - descriptions
	TextTertiary  = lipgloss.Color("#6B7280") // gray-500 - hints

	// Background colors
	BgHighlight = lipgloss.Color("#1F2937") // gray-800 - cursor row
	BgSelected  = lipgloss.Color("#312E81") // indigo-900 - selected rows
	BgBorder    = lipgloss.Color("#374151") // gray-700 - borders
)

// Row and cell variant colors
var (
	ColorVariantSuccess = Success
	ColorVariantWarning = Warning
	ColorVariantDanger  = Error
	ColorVariantInfo    = Info
	ColorVariantMuted   = Muted
	ColorVariantPrimary = Accent
)
