package pipeline

import "strings"

// Filter returns the rows matching state, in the order given. An empty
// (after trimming) query returns a copy of rows unchanged.
//
// Matching is a case-insensitive substring test. With RestrictedKeys a row
// matches when any of those keys contains the query; otherwise the row's
// non-reserved values are joined with single spaces and tested as one
// string. Nil and missing values never match.
func Filter(rows []*Row, state FilterState) []*Row {
	query := strings.ToLower(strings.TrimSpace(state.Text))
	if query == "" {
		out := make([]*Row, len(rows))
		copy(out, rows)
		return out
	}

	out := make([]*Row, 0, len(rows))
	for _, r := range rows {
		if rowMatches(r, query, state.RestrictedKeys) {
			out = append(out, r)
		}
	}
	return out
}

func rowMatches(r *Row, query string, restricted []string) bool {
	if len(restricted) > 0 {
		for _, key := range restricted {
			v, ok := r.Get(key)
			if isNil(v, ok) {
				continue
			}
			if strings.Contains(lowerString(v), query) {
				return true
			}
		}
		return false
	}

	var sb strings.Builder
	for _, key := range r.DataKeys() {
		v, ok := r.Get(key)
		if isNil(v, ok) {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(lowerString(v))
	}
	return strings.Contains(sb.String(), query)
}
