package source

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/imgajeed76/tabula/internal/pipeline"
)

// WriteJSON writes rows as a JSON array of objects limited to fields, in
// field order.
func WriteJSON(w io.Writer, fields []pipeline.Field, rows []*pipeline.Row) error {
	out := make([]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		obj, err := encodeOrdered(fields, r)
		if err != nil {
			return err
		}
		out = append(out, obj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// encodeOrdered renders one row as a JSON object whose keys follow fields.
func encodeOrdered(fields []pipeline.Field, r *pipeline.Row) (json.RawMessage, error) {
	buf := []byte{'{'}
	for i, f := range fields {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, _ := r.Get(f.Key)
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// WriteCSV writes a header of field keys followed by one record per row.
func WriteCSV(w io.Writer, fields []pipeline.Field, rows []*pipeline.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(pipeline.FieldKeys(fields)); err != nil {
		return err
	}

	record := make([]string, len(fields))
	for _, r := range rows {
		for i, f := range fields {
			record[i] = r.String(f.Key)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
