// Package pipeline turns an immutable set of source rows plus the table's
// control state (multi-column sort, text filter, pagination window, row
// selection and detail expansion) into the ordered window of rows to show.
//
// The transform stages (Sort, Filter, Paginate) are pure functions over
// their inputs. Pipeline owns all mutable state and recomputes a consistent
// View after every mutation.
package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Reserved per-row metadata keys. They are never shown as columns and never
// take part in the all-columns filter.
const (
	KeyRowVariant   = "_rowVariant"
	KeyCellVariants = "_cellVariants"
	KeyShowDetails  = "_showDetails"
	KeyDetails      = "_details"
)

var reservedKeys = map[string]bool{
	KeyRowVariant:   true,
	KeyCellVariants: true,
	KeyShowDetails:  true,
	KeyDetails:      true,
}

// IsReservedKey reports whether key holds row metadata rather than data.
func IsReservedKey(key string) bool {
	return reservedKeys[key]
}

// Row is one opaque record. Rows are always handled as *Row and compared by
// pointer; two rows with equal contents are still different rows.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow creates a row from a map. Keys are ordered alphabetically since map
// order carries no meaning.
func NewRow(values map[string]any) *Row {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return NewOrderedRow(keys, values)
}

// NewOrderedRow creates a row whose keys keep the given order (e.g. the
// header order of a CSV file). Keys missing from values read as nil.
func NewOrderedRow(keys []string, values map[string]any) *Row {
	r := &Row{
		keys:   make([]string, 0, len(keys)),
		values: make(map[string]any, len(values)),
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		r.keys = append(r.keys, k)
	}
	for k, v := range values {
		r.values[k] = v
	}
	return r
}

// Get returns the value stored under key. A missing key reports ok=false and
// behaves exactly like a nil value everywhere in the pipeline.
func (r *Row) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the row's keys in row order, reserved keys included.
func (r *Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// DataKeys returns the row's keys without reserved metadata keys.
func (r *Row) DataKeys() []string {
	out := make([]string, 0, len(r.keys))
	for _, k := range r.keys {
		if !IsReservedKey(k) {
			out = append(out, k)
		}
	}
	return out
}

// Values returns a copy of the row's data.
func (r *Row) Values() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// String returns the display form of the value at key ("" for nil).
func (r *Row) String(key string) string {
	v, _ := r.Get(key)
	return Stringify(v)
}

// ShowDetails reports whether the row asks for its detail panel to start open.
func (r *Row) ShowDetails() bool {
	v, _ := r.Get(KeyShowDetails)
	b, ok := v.(bool)
	return ok && b
}

// Variant returns the row's cosmetic variant tag, if any.
func (r *Row) Variant() string {
	v, _ := r.Get(KeyRowVariant)
	s, _ := v.(string)
	return s
}

// CellVariant returns the variant tag set for the cell at key through the
// _cellVariants map, if any.
func (r *Row) CellVariant(key string) string {
	v, _ := r.Get(KeyCellVariants)
	switch m := v.(type) {
	case map[string]string:
		return m[key]
	case map[string]any:
		s, _ := m[key].(string)
		return s
	}
	return ""
}

// MarshalJSON encodes the row's data as an object.
func (r *Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.values)
}

// Stringify converts a cell value into the text used for display, filtering
// and non-numeric ordering.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// isNil treats both missing keys and explicit nil values as absent.
func isNil(v any, ok bool) bool {
	return !ok || v == nil
}

// lowerString is the case-insensitive form used by Sort and Filter.
func lowerString(v any) string {
	return strings.ToLower(Stringify(v))
}
