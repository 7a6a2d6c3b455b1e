package util

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors used throughout tabula
var (
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrNotConnected      = errors.New("not connected to database")
	ErrNoDatabaseURL     = errors.New("no database URL configured")
)

// TabulaError is a structured error with context and suggestions
type TabulaError struct {
	Title       string   // Short error title
	Message     string   // Detailed message
	Context     string   // What was being attempted
	Causes      []string // Possible causes
	Suggestions []string // Actionable suggestions with commands
	Err         error    // Wrapped error
}

func (e *TabulaError) Error() string {
	if e.Err != nil {
		return e.Title + ": " + e.Err.Error()
	}
	return e.Title
}

func (e *TabulaError) Unwrap() error {
	return e.Err
}

// Format returns a nicely formatted error message
func (e *TabulaError) Format() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Error: %s\n", e.Title))

	if e.Message != "" {
		sb.WriteString(fmt.Sprintf("\n  %s\n", e.Message))
	}
	if e.Context != "" {
		sb.WriteString(fmt.Sprintf("\n  %s\n", e.Context))
	}
	if e.Err != nil && e.Message == "" {
		sb.WriteString(fmt.Sprintf("\n  %s\n", e.Err))
	}

	if len(e.Causes) > 0 {
		sb.WriteString("\n  Possible causes:\n")
		for _, cause := range e.Causes {
			sb.WriteString(fmt.Sprintf("    • %s\n", cause))
		}
	}

	if len(e.Suggestions) > 0 {
		sb.WriteString("\n  Try:\n")
		for _, sug := range e.Suggestions {
			sb.WriteString(fmt.Sprintf("    $ %s\n", sug))
		}
	}

	return sb.String()
}

// NewError creates a new TabulaError
func NewError(title string) *TabulaError {
	return &TabulaError{Title: title}
}

// WithMessage adds a detailed message
func (e *TabulaError) WithMessage(msg string) *TabulaError {
	e.Message = msg
	return e
}

// WithContext adds context about what was being attempted
func (e *TabulaError) WithContext(ctx string) *TabulaError {
	e.Context = ctx
	return e
}

// WithCauses adds possible causes
func (e *TabulaError) WithCauses(causes ...string) *TabulaError {
	e.Causes = append(e.Causes, causes...)
	return e
}

// WithSuggestion adds an actionable suggestion
func (e *TabulaError) WithSuggestion(sug string) *TabulaError {
	e.Suggestions = append(e.Suggestions, sug)
	return e
}

// WithSuggestions adds multiple suggestions
func (e *TabulaError) WithSuggestions(sugs ...string) *TabulaError {
	e.Suggestions = append(e.Suggestions, sugs...)
	return e
}

// Wrap wraps an underlying error
func (e *TabulaError) Wrap(err error) *TabulaError {
	e.Err = err
	return e
}

// ══════════════════════════════════════════════════════════════════════════
// Pre-built error constructors for common cases
// ══════════════════════════════════════════════════════════════════════════

// UnsupportedFormatError is returned when a row source has an unknown extension
func UnsupportedFormatError(path string) *TabulaError {
	return NewError(fmt.Sprintf("Cannot read '%s'", path)).
		WithMessage("Row files must be JSON, CSV or TOML").
		WithSuggestions(
			"tabula view rows.json          # JSON array of objects",
			"tabula view --format csv -     # CSV on stdin",
		).
		Wrap(ErrUnsupportedFormat)
}

// InvalidFlagError is returned when a flag value cannot be parsed
func InvalidFlagError(flag, value string, err error) *TabulaError {
	return NewError(fmt.Sprintf("Invalid value for --%s: %q", flag, value)).
		Wrap(err)
}

// DatabaseConnectionError returns a structured error for DB connection issues
func DatabaseConnectionError(url string, err error) *TabulaError {
	return NewError("Cannot connect to database").
		WithContext(RedactURL(url)).
		WithCauses(
			"Database server is not running",
			"Invalid connection credentials",
			"Network connectivity issues",
		).
		WithSuggestions(
			"tabula config database.url <url>  # Set the default URL",
			"tabula query --url <url> '...'    # Pass a URL explicitly",
		).
		Wrap(err)
}

// NoDatabaseURLError is returned when query runs without a URL
func NoDatabaseURLError() *TabulaError {
	return NewError("No database URL").
		WithMessage("tabula query needs a PostgreSQL connection URL").
		WithSuggestions(
			"tabula query --url postgres://user@host/db 'SELECT ...'",
			"tabula config database.url postgres://user@host/db",
		).
		Wrap(ErrNoDatabaseURL)
}

// RedactURL hides the password of a connection URL for display.
func RedactURL(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}
	user, _, hasPass := strings.Cut(userinfo, ":")
	if !hasPass {
		return url
	}
	return scheme + "://" + user + ":***@" + host
}
