package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/datadict/internal/dict"
)

func TestCountPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want int
	}{
		{name: "none", sql: "SELECT * FROM bug", want: 0},
		{name: "two", sql: "SELECT * FROM bug WHERE id = ? AND status = ?", want: 2},
		{name: "inside string literal", sql: "SELECT * FROM bug WHERE summary = 'why?' AND id = ?", want: 1},
		{name: "escaped quote", sql: "SELECT 'it''s ?' , ?", want: 1},
		{name: "quoted identifier", sql: "SELECT \"a?\" FROM t WHERE `b?` = ?", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountPlaceholders(tt.sql))
		})
	}
}

func TestCountDialectPlaceholders(t *testing.T) {
	tests := []struct {
		name    string
		dialect *dict.Dialect
		sql     string
		want    int
	}{
		{name: "mysql backslash quote", dialect: dict.MySQL, sql: `SELECT id FROM bug WHERE summary = 'it\'s' AND id = ?`, want: 1},
		{name: "mysql backslash double quote", dialect: dict.MySQL, sql: `SELECT "say \"why?\"" , ?`, want: 1},
		{name: "mysql escaped backslash", dialect: dict.MySQL, sql: `SELECT 'C:\\' , ?`, want: 1},
		{name: "mysql doubled quote", dialect: dict.MySQL, sql: "SELECT 'it''s ?' , ?", want: 1},
		{name: "mysql backtick keeps backslash", dialect: dict.MySQL, sql: "SELECT `a\\` FROM t WHERE id = ?", want: 1},
		{name: "postgres backslash is literal", dialect: dict.Postgres, sql: `SELECT 'C:\' , ?`, want: 1},
		{name: "sqlite backslash is literal", dialect: dict.SQLite, sql: `SELECT 'C:\' , ?, ?`, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountDialectPlaceholders(tt.dialect, tt.sql))
		})
	}
}

func TestCheckParameters(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		params     []any
		wantParams []any
	}{
		{
			name:       "no placeholders drops stray params",
			sql:        "SELECT COUNT(*) FROM bug",
			params:     []any{1, "x"},
			wantParams: []any{},
		},
		{
			name:       "no placeholders and no params",
			sql:        "SELECT 1",
			params:     nil,
			wantParams: []any{},
		},
		{
			name:       "order preserved",
			sql:        "UPDATE bug SET summary = ?, status = ? WHERE id = ?",
			params:     []any{"crash", 50, int64(7)},
			wantParams: []any{"crash", 50, int64(7)},
		},
		{
			name:       "booleans coerced",
			sql:        "INSERT INTO project (enabled, view_state, name) VALUES (?, ?, ?)",
			params:     []any{true, false, "main"},
			wantParams: []any{1, 0, "main"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, got, err := CheckParameters(tt.sql, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.wantParams, got)

			// running it again on its own output changes nothing
			sql2, again, err := CheckParameters(sql, got)
			require.NoError(t, err)
			assert.Equal(t, sql, sql2)
			assert.Equal(t, got, again)
		})
	}
}

func TestCheckParametersMismatch(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		params   []any
		expected int
		actual   int
	}{
		{name: "too few", sql: "SELECT * FROM bug WHERE id = ? AND status = ?", params: []any{1}, expected: 2, actual: 1},
		{name: "too many", sql: "SELECT * FROM bug WHERE id = ?", params: []any{1, 2, 3}, expected: 1, actual: 3},
		{name: "none given", sql: "DELETE FROM bug WHERE id = ?", params: nil, expected: 1, actual: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := CheckParameters(tt.sql, tt.params)
			require.ErrorIs(t, err, ErrParameterCountMismatch)

			var pce *ParameterCountError
			require.ErrorAs(t, err, &pce)
			assert.Equal(t, tt.expected, pce.Expected)
			assert.Equal(t, tt.actual, pce.Actual)
			assert.Equal(t, tt.sql, pce.SQL)
			assert.Equal(t, tt.params, pce.Params)
		})
	}
}

func TestRebindDollar(t *testing.T) {
	assert.Equal(t,
		"SELECT * FROM bug WHERE id = $1 AND summary <> '?' AND status = $2",
		rebindDollar("SELECT * FROM bug WHERE id = ? AND summary <> '?' AND status = ?"))
	assert.Equal(t, "SELECT 1", rebindDollar("SELECT 1"))
}
