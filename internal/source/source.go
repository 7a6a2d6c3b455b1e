// Package source loads row collections from files and streams.
//
// Every loader keeps the column order of its input: JSON object key order,
// the CSV header, or TOML key order.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/imgajeed76/tabula/internal/pipeline"
	"github.com/imgajeed76/tabula/internal/util"
)

// Format identifies a row file encoding.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatTOML Format = "toml"
)

// ParseFormat parses a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatJSON, FormatCSV, FormatTOML:
		return f, nil
	case "auto":
		return FormatAuto, nil
	}
	return "", fmt.Errorf("%w: %q", util.ErrUnsupportedFormat, s)
}

// Table is a loaded row collection plus the optional field configuration
// that came with it, as JSON suitable for pipeline.WithFieldsJSON.
type Table struct {
	Name   string
	Rows   []*pipeline.Row
	Fields []byte
}

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv", ".tsv":
		return FormatCSV, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", util.UnsupportedFormatError(path)
}

// sniffFormat guesses the format of stream input from its first bytes.
func sniffFormat(head []byte) Format {
	head = bytes.TrimLeft(head, " \t\r\n\ufeff")
	switch {
	case bytes.HasPrefix(head, []byte("[[")), bytes.HasPrefix(head, []byte("fields")):
		return FormatTOML
	case len(head) > 0 && (head[0] == '[' || head[0] == '{'):
		return FormatJSON
	default:
		return FormatCSV
	}
}

// LoadFile reads the rows at path. "-" reads stdin.
func LoadFile(path string, format Format) (*Table, error) {
	if path == "-" {
		t, err := Load(os.Stdin, format)
		if err != nil {
			return nil, err
		}
		t.Name = "stdin"
		return t, nil
	}

	if format == FormatAuto {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var opts []csvOption
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		opts = append(opts, withComma('\t'))
	}

	t, err := load(f, format, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Name = filepath.Base(path)
	return t, nil
}

// Load reads rows from r. FormatAuto sniffs the input.
func Load(r io.Reader, format Format) (*Table, error) {
	return load(r, format)
}

func load(r io.Reader, format Format, opts ...csvOption) (*Table, error) {
	br := bufio.NewReader(r)
	if format == FormatAuto {
		head, _ := br.Peek(512)
		format = sniffFormat(head)
		slog.Debug("sniffed input format", "format", string(format))
	}

	var (
		t   *Table
		err error
	)
	switch format {
	case FormatJSON:
		t, err = loadJSON(br)
	case FormatCSV:
		t, err = loadCSV(br, opts...)
	case FormatTOML:
		t, err = loadTOML(br)
	default:
		return nil, fmt.Errorf("%w: %q", util.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("rows loaded", "format", string(format), "rows", len(t.Rows), "fields", t.Fields != nil)
	return t, nil
}
