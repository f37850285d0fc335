package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Result is a fully read result set, or the outcome of a statement that returns no rows
type Result struct {
	Columns      []string
	Rows         [][]any
	RowsAffected int64
}

// RecordCount returns the number of rows read
func (r *Result) RecordCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Row returns row i keyed by lower-cased column name
func (r *Result) Row(i int) map[string]any {
	row := make(map[string]any, len(r.Columns))
	for j, col := range r.Columns {
		row[strings.ToLower(col)] = r.Rows[i][j]
	}
	return row
}

// Value returns the value in column col of row i, or nil when out of range
func (r *Result) Value(i, col int) any {
	if r == nil || i >= len(r.Rows) || col >= len(r.Rows[i]) {
		return nil
	}
	return r.Rows[i][col]
}

// Scalar returns the first column of the first row
func (r *Result) Scalar() (any, bool) {
	if r.RecordCount() == 0 || len(r.Rows[0]) == 0 {
		return nil, false
	}
	return r.Rows[0][0], true
}

// Strings returns column col of every row as strings
func (r *Result) Strings(col int) []string {
	out := make([]string, 0, r.RecordCount())
	for i := range r.Rows {
		out = append(out, AsString(r.Value(i, col)))
	}
	return out
}

// AsString renders a driver value as text; nil becomes ""
func AsString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.DateTime)
	default:
		return fmt.Sprint(x)
	}
}

// AsInt64 converts a driver value to an integer
func AsInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case uint64:
		return int64(x), true
	case uint32:
		return int64(x), true
	case float64:
		return int64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// normalize copies driver-owned byte slices so rows outlive the cursor
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
