package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Field describes one column.
type Field struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Sortable bool   `json:"sortable"`
	Variant  string `json:"variant,omitempty"`
}

// fieldSpec is the decoded form of a field entry; Sortable is optional and
// falls back to the table-wide flag.
type fieldSpec struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Sortable *bool  `json:"sortable"`
	Variant  string `json:"variant"`
}

var titleCaser = cases.Title(language.Und)

// LabelFromKey derives a display label: "first_name", "first-name" and
// "firstName" all become "First Name".
func LabelFromKey(key string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(key)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()

	return titleCaser.String(strings.Join(words, " "))
}

// ParseFields decodes a JSON field list. Entries are either a bare key
// string or an object {key, label, sortable, variant}. Anything else yields
// ErrMalformedFields.
func ParseFields(data []byte, defaultSortable bool) ([]Field, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFields, err)
	}

	fields := make([]Field, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, entry := range raw {
		entry = bytes.TrimSpace(entry)

		var spec fieldSpec
		if len(entry) > 0 && entry[0] == '"' {
			if err := json.Unmarshal(entry, &spec.Key); err != nil {
				return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedFields, i, err)
			}
		} else if err := json.Unmarshal(entry, &spec); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedFields, i, err)
		}

		if spec.Key == "" {
			return nil, fmt.Errorf("%w: entry %d has no key", ErrMalformedFields, i)
		}
		if seen[spec.Key] {
			continue
		}
		seen[spec.Key] = true

		f := Field{
			Key:      spec.Key,
			Label:    spec.Label,
			Sortable: defaultSortable,
			Variant:  spec.Variant,
		}
		if spec.Sortable != nil {
			f.Sortable = *spec.Sortable
		}
		if f.Label == "" {
			f.Label = LabelFromKey(f.Key)
		}
		fields = append(fields, f)
	}

	return fields, nil
}

// InferFields builds fields from the keys of the first row, skipping
// reserved metadata keys.
func InferFields(rows []*Row, defaultSortable bool) []Field {
	if len(rows) == 0 || rows[0] == nil {
		return nil
	}
	keys := rows[0].DataKeys()
	fields := make([]Field, len(keys))
	for i, k := range keys {
		fields[i] = Field{Key: k, Label: LabelFromKey(k), Sortable: defaultSortable}
	}
	return fields
}

// FieldKeys returns the keys of fields in order.
func FieldKeys(fields []Field) []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}
