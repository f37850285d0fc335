package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/datadict/internal/schema"
)

func intPtr(n int) *int { return &n }

func TestMapPortableType(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		dialect *Dialect
		want    string
		wantErr bool
	}{
		{name: "mysql char", code: "C", dialect: MySQL, want: "VARCHAR"},
		{name: "mysql long text", code: "XL", dialect: MySQL, want: "LONGTEXT"},
		{name: "mysql boolean", code: "L", dialect: MySQL, want: "TINYINT"},
		{name: "mysql blob", code: "B", dialect: MySQL, want: "LONGBLOB"},
		{name: "postgres timestamp", code: "T", dialect: Postgres, want: "TIMESTAMP"},
		{name: "postgres blob", code: "B", dialect: Postgres, want: "BYTEA"},
		{name: "postgres boolean is integer", code: "L", dialect: Postgres, want: "SMALLINT"},
		{name: "sqlite bigint", code: "I8", dialect: SQLite, want: "BIGINT"},
		{name: "lower case code", code: "i2", dialect: SQLite, want: "SMALLINT"},
		{name: "unknown code", code: "Q", dialect: MySQL, wantErr: true},
		{name: "empty code", code: "", dialect: Postgres, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapPortableType(tt.code, tt.dialect)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownPortableType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapPortableTypeIsTotal(t *testing.T) {
	for _, d := range []*Dialect{MySQL, Postgres, SQLite} {
		for code := range portableCodes {
			_, err := d.MapType(code)
			assert.NoError(t, err, "%s has no mapping for %s", d.Name, code)
		}
	}
}

func TestNativeType(t *testing.T) {
	tests := []struct {
		name    string
		field   schema.FieldDescriptor
		dialect *Dialect
		want    string
	}{
		{
			name:    "char with size",
			field:   schema.FieldDescriptor{Type: schema.Char, Code: "C", Size: intPtr(64)},
			dialect: MySQL,
			want:    "VARCHAR(64)",
		},
		{
			name:    "size and precision",
			field:   schema.FieldDescriptor{Type: schema.Int, Code: "I", Size: intPtr(10), Precision: intPtr(2)},
			dialect: Postgres,
			want:    "INTEGER(10,2)",
		},
		{
			name:    "integer without size passes through",
			field:   schema.FieldDescriptor{Type: schema.Int, Code: "I"},
			dialect: MySQL,
			want:    "INTEGER",
		},
		{
			name:    "large type ignores size",
			field:   schema.FieldDescriptor{Type: schema.Text, Code: "X", Size: intPtr(10)},
			dialect: MySQL,
			want:    "TEXT",
		},
		{
			name:    "code derived from type",
			field:   schema.FieldDescriptor{Type: schema.Timestamp},
			dialect: SQLite,
			want:    "DATETIME",
		},
		{
			name:    "postgres serial",
			field:   schema.FieldDescriptor{Type: schema.BigInt, Code: "I8", AutoIncrement: true},
			dialect: Postgres,
			want:    "BIGSERIAL",
		},
		{
			name:    "sqlite autoincrement is a rowid alias",
			field:   schema.FieldDescriptor{Type: schema.BigInt, Code: "I8", AutoIncrement: true},
			dialect: SQLite,
			want:    "INTEGER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.dialect.NativeType(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup(t *testing.T) {
	d, err := Lookup("PostgreSQL")
	require.NoError(t, err)
	assert.Same(t, Postgres, d)

	_, err = Lookup("oracle")
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestLimitClause(t *testing.T) {
	tests := []struct {
		name          string
		dialect       *Dialect
		limit, offset int
		want          string
	}{
		{name: "limit only", dialect: MySQL, limit: 10, offset: -1, want: " LIMIT 10"},
		{name: "limit and offset", dialect: SQLite, limit: 10, offset: 20, want: " LIMIT 10 OFFSET 20"},
		{name: "mysql unlimited", dialect: MySQL, limit: -1, offset: 5, want: " LIMIT 18446744073709551615 OFFSET 5"},
		{name: "postgres unlimited", dialect: Postgres, limit: -1, offset: 5, want: " LIMIT 9223372036854775807 OFFSET 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.LimitClause(tt.limit, tt.offset))
		})
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "bug_table", MySQL.Quote("bug_table"))
	assert.Equal(t, "`order by`", MySQL.Quote("order by"))
	assert.Equal(t, `"a""b"`, Postgres.Quote(`a"b`))
}
