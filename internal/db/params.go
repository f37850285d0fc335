package db

import (
	"strconv"
	"strings"

	"github.com/tordrt/datadict/internal/dict"
)

// placeholders returns the byte offsets of every ? outside quoted literals
// and identifiers. With backslash set, \ inside '...' or "..." escapes the
// next byte.
func placeholders(sql string, backslash bool) []int {
	var (
		offsets []int
		quote   byte
	)
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case quote != 0:
			if backslash && ch == '\\' && quote != '`' {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case ch == '?':
			offsets = append(offsets, i)
		}
	}
	return offsets
}

// CountPlaceholders returns the number of positional ? markers in sql,
// reading string literals by standard SQL rules
func CountPlaceholders(sql string) int {
	return len(placeholders(sql, false))
}

// CountDialectPlaceholders is CountPlaceholders with the string escaping of d
func CountDialectPlaceholders(d *dict.Dialect, sql string) int {
	return len(placeholders(sql, d.BackslashEscapes))
}

// CheckParameters validates params against the placeholders in sql.
// With no placeholders it returns an empty list whatever was passed.
// Otherwise the counts must match and booleans are coerced to 0 or 1.
func CheckParameters(sql string, params []any) (string, []any, error) {
	return checkParameters(sql, params, CountPlaceholders(sql))
}

// CheckDialectParameters is CheckParameters with the string escaping of d
func CheckDialectParameters(d *dict.Dialect, sql string, params []any) (string, []any, error) {
	return checkParameters(sql, params, CountDialectPlaceholders(d, sql))
}

func checkParameters(sql string, params []any, expected int) (string, []any, error) {
	if expected == 0 {
		return sql, []any{}, nil
	}
	if expected != len(params) {
		return "", nil, &ParameterCountError{
			Expected: expected,
			Actual:   len(params),
			SQL:      sql,
			Params:   params,
		}
	}

	out := make([]any, len(params))
	for i, p := range params {
		if b, ok := p.(bool); ok {
			if b {
				out[i] = 1
			} else {
				out[i] = 0
			}
			continue
		}
		out[i] = p
	}
	return sql, out, nil
}

// rebindDollar rewrites ? markers as $1, $2, ...
func rebindDollar(sql string) string {
	offsets := placeholders(sql, false)
	if len(offsets) == 0 {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql) + len(offsets)*2)
	last := 0
	for n, off := range offsets {
		b.WriteString(sql[last:off])
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n + 1))
		last = off + 1
	}
	b.WriteString(sql[last:])
	return b.String()
}
