package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/imgajeed76/tabula/internal/pipeline"
	"github.com/imgajeed76/tabula/internal/util"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// writePrefixes are statement keywords that modify data or schema.
var writePrefixes = []string{
	"INSERT", "UPDATE", "DELETE", "MERGE", "DROP", "CREATE", "ALTER",
	"TRUNCATE", "GRANT", "REVOKE", "COPY", "VACUUM", "REINDEX", "CALL",
}

// IsWriteQuery reports whether sql starts with a data or schema modifying
// keyword. It is a guard for friendlier errors; the read-only transaction
// is what actually enforces it.
func IsWriteQuery(sql string) bool {
	upper := strings.ToUpper(strings.TrimSpace(stripLeadingComments(sql)))
	for _, p := range writePrefixes {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}

func stripLeadingComments(sql string) string {
	for {
		sql = strings.TrimSpace(sql)
		switch {
		case strings.HasPrefix(sql, "--"):
			_, rest, ok := strings.Cut(sql, "\n")
			if !ok {
				return ""
			}
			sql = rest
		case strings.HasPrefix(sql, "/*"):
			_, rest, ok := strings.Cut(sql, "*/")
			if !ok {
				return ""
			}
			sql = rest
		default:
			return sql
		}
	}
}

// Result is a query result as pipeline rows.
type Result struct {
	Columns  []string
	Rows     []*pipeline.Row
	Duration time.Duration
}

// QueryRows runs sql in a read-only transaction and converts every result
// row into a pipeline row keyed by column name, in column order.
func (db *DB) QueryRows(ctx context.Context, sql string, args ...any) (*Result, error) {
	start := time.Now()
	res := &Result{}

	err := db.WithReadOnlyTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		res.Columns = columnNames(rows.FieldDescriptions())
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return err
			}
			m := make(map[string]any, len(values))
			for i, v := range values {
				m[res.Columns[i]] = normalizeValue(v)
			}
			res.Rows = append(res.Rows, pipeline.NewOrderedRow(res.Columns, m))
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	slog.Debug("query finished", "rows", len(res.Rows), "columns", len(res.Columns), "duration", res.Duration)
	return res, nil
}

// columnNames makes result column names unique: a second "id" becomes "id_2".
func columnNames(fds []pgconn.FieldDescription) []string {
	names := make([]string, len(fds))
	seen := make(map[string]int, len(fds))
	for i, fd := range fds {
		name := fd.Name
		if name == "" || name == "?column?" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		names[i] = name
	}
	return names
}

// normalizeValue maps driver values onto the types the pipeline orders
// and displays well: numbers stay numeric, text stays text.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		// uuid
		return fmt.Sprintf("%x-%x-%x-%x-%x", val[0:4], val[4:6], val[6:8], val[8:10], val[10:16])
	case []byte:
		if isPrintable(val) {
			return util.ToValidUTF8(string(val))
		}
		return fmt.Sprintf("[%d bytes]", len(val))
	case string:
		return val
	case time.Time:
		return val
	case pgtype.Time:
		if !val.Valid {
			return nil
		}
		d := time.Duration(val.Microseconds) * time.Microsecond
		return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	case pgtype.Interval:
		if !val.Valid {
			return nil
		}
		return fmt.Sprintf("%d mons %d days %s", val.Months, val.Days, time.Duration(val.Microseconds)*time.Microsecond)
	case map[string]any, []any:
		// json/jsonb and arrays
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return v
	}
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 32 && c != '\n' && c != '\r' && c != '\t' {
			return false
		}
	}
	return true
}
