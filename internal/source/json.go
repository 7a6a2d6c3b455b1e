package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/imgajeed76/tabula/internal/pipeline"
)

// jsonDocument is the object form: {"fields": [...], "rows": [...]}
type jsonDocument struct {
	Fields json.RawMessage   `json:"fields"`
	Rows   []json.RawMessage `json:"rows"`
}

// loadJSON accepts either a bare array of row objects or a document object
// with "rows" and an optional "fields" list.
func loadJSON(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &Table{}, nil
	}

	t := &Table{}
	var items []json.RawMessage
	if data[0] == '{' {
		var doc jsonDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
		items = doc.Rows
		if len(doc.Fields) > 0 && !bytes.Equal(doc.Fields, []byte("null")) {
			t.Fields = doc.Fields
		}
	} else if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	t.Rows = make([]*pipeline.Row, 0, len(items))
	for i, item := range items {
		row, err := decodeOrderedObject(item)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// decodeOrderedObject decodes one JSON object into a row, keeping key order.
// Numbers stay json.Number so large integers survive.
func decodeOrderedObject(data []byte) (*pipeline.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected a JSON object")
	}

	var keys []string
	values := make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		if _, dup := values[key]; !dup {
			keys = append(keys, key)
		}
		values[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return pipeline.NewOrderedRow(keys, values), nil
}
