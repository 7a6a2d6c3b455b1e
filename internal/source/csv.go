package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/imgajeed76/tabula/internal/pipeline"
	"github.com/imgajeed76/tabula/internal/util"
)

type csvOption func(*csv.Reader)

func withComma(c rune) csvOption {
	return func(r *csv.Reader) { r.Comma = c }
}

// loadCSV reads a header row followed by data rows. Cells that parse as
// numbers become numbers, empty cells become nil, everything else stays a
// string. Bytes that are not UTF-8 are read as Latin-1.
func loadCSV(r io.Reader, opts ...csvOption) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	for _, opt := range opts {
		opt(cr)
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	keys := headerKeys(header)

	t := &Table{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV line %d: %w", line, err)
		}
		if isEmptyRecord(record) {
			continue
		}

		values := make(map[string]any, len(keys))
		for i, key := range keys {
			if i < len(record) {
				values[key] = parseCell(record[i])
			}
		}
		t.Rows = append(t.Rows, pipeline.NewOrderedRow(keys, values))
	}
	return t, nil
}

// headerKeys cleans the header into unique keys: blanks become column_N,
// repeats get a _2, _3... suffix.
func headerKeys(header []string) []string {
	keys := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.TrimSpace(util.ToValidUTF8(h))
		if i == 0 {
			key = strings.TrimPrefix(key, "\ufeff")
		}
		if key == "" {
			key = fmt.Sprintf("column_%d", i+1)
		}
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s_%d", key, n)
		}
		keys[i] = key
	}
	return keys
}

func parseCell(raw string) any {
	s := strings.TrimSpace(util.ToValidUTF8(raw))
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	// ParseFloat also accepts "Inf" and "NaN", which are words in a CSV
	if f, err := strconv.ParseFloat(s, 64); err == nil && looksNumeric(s) {
		return f
	}
	return s
}

func looksNumeric(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && !strings.ContainsRune("+-.eE", r) {
			return false
		}
	}
	return true
}

func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
