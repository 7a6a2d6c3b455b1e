package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/imgajeed76/tabula/internal/pipeline"
)

// loadTOML reads rows from an array of tables:
//
//	fields = ["name", { key = "age", label = "Age (years)" }]
//
//	[[rows]]
//	name = "Anna"
//	age = 31
func loadTOML(r io.Reader) (*Table, error) {
	var doc map[string]any
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode TOML: %w", err)
	}

	t := &Table{}
	if fields, ok := doc["fields"]; ok {
		data, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("fields: %w", err)
		}
		t.Fields = data
	}

	raw, ok := doc["rows"]
	if !ok {
		return t, nil
	}
	tables, ok := raw.([]map[string]any)
	if !ok {
		return nil, errors.New("rows must be an array of tables ([[rows]])")
	}

	// MetaData keys come in file order; use them for column order
	var order []string
	seen := make(map[string]bool)
	for _, key := range md.Keys() {
		if len(key) == 2 && key[0] == "rows" && !seen[key[1]] {
			seen[key[1]] = true
			order = append(order, key[1])
		}
	}

	t.Rows = make([]*pipeline.Row, 0, len(tables))
	for _, tbl := range tables {
		keys := make([]string, 0, len(tbl))
		for _, k := range order {
			if _, ok := tbl[k]; ok {
				keys = append(keys, k)
			}
		}
		if len(keys) < len(tbl) {
			var extra []string
			for k := range tbl {
				if !seen[k] {
					extra = append(extra, k)
				}
			}
			sort.Strings(extra)
			keys = append(keys, extra...)
		}
		t.Rows = append(t.Rows, pipeline.NewOrderedRow(keys, tbl))
	}
	return t, nil
}
