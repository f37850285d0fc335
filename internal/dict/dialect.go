package dict

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tordrt/datadict/internal/schema"
)

// PlaceholderStyle is how a dialect writes positional parameters
type PlaceholderStyle int

const (
	// QuestionMark binds parameters as ?
	QuestionMark PlaceholderStyle = iota
	// Dollar binds parameters as $1, $2, ...
	Dollar
)

// Dialect holds the SQL syntax differences of one database engine
type Dialect struct {
	Name         string
	Placeholder  PlaceholderStyle
	MaxRows      string // row count used when a limit is negative
	TableOptions string // default CREATE TABLE suffix
	// BackslashEscapes is set when \ escapes the next byte inside '...' and "..." literals
	BackslashEscapes bool

	types      map[string]string
	serial     map[schema.PortableType]string
	identQuote string
	inlineAuto bool // sqlite: autoincrement lives on the column, not the table
}

var (
	// MySQL covers MySQL and MariaDB
	MySQL = &Dialect{
		Name:             "mysql",
		Placeholder:      QuestionMark,
		MaxRows:          "18446744073709551615",
		TableOptions:     "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		BackslashEscapes: true,
		types: map[string]string{
			"C":  "VARCHAR",
			"X":  "TEXT",
			"XL": "LONGTEXT",
			"I":  "INTEGER",
			"I2": "SMALLINT",
			"I8": "BIGINT",
			"T":  "DATETIME",
			"D":  "DATE",
			"L":  "TINYINT",
			"B":  "LONGBLOB",
			"R":  "INTEGER",
		},
		identQuote: "`",
	}

	// Postgres covers PostgreSQL
	Postgres = &Dialect{
		Name:        "postgres",
		Placeholder: Dollar,
		MaxRows:     "9223372036854775807",
		types: map[string]string{
			"C":  "VARCHAR",
			"X":  "TEXT",
			"XL": "TEXT",
			"I":  "INTEGER",
			"I2": "SMALLINT",
			"I8": "BIGINT",
			"T":  "TIMESTAMP",
			"D":  "DATE",
			"L":  "SMALLINT",
			"B":  "BYTEA",
			"R":  "SERIAL",
		},
		serial: map[schema.PortableType]string{
			schema.Int:      "SERIAL",
			schema.SmallInt: "SMALLSERIAL",
			schema.BigInt:   "BIGSERIAL",
		},
		identQuote: `"`,
	}

	// SQLite covers SQLite 3
	SQLite = &Dialect{
		Name:        "sqlite",
		Placeholder: QuestionMark,
		MaxRows:     "9223372036854775807",
		types: map[string]string{
			"C":  "VARCHAR",
			"X":  "TEXT",
			"XL": "TEXT",
			"I":  "INTEGER",
			"I2": "SMALLINT",
			"I8": "BIGINT",
			"T":  "DATETIME",
			"D":  "DATE",
			"L":  "TINYINT",
			"B":  "BLOB",
			"R":  "INTEGER",
		},
		identQuote: `"`,
		inlineAuto: true,
	}
)

var dialects = map[string]*Dialect{
	"mysql":      MySQL,
	"mysqli":     MySQL,
	"mariadb":    MySQL,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pgsql":      Postgres,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
}

// Lookup returns the dialect registered under name
func Lookup(name string) (*Dialect, error) {
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
	return d, nil
}

func (d *Dialect) String() string {
	return d.Name
}

var bareIdent = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Quote returns name ready for use as an identifier.
// Plain names are returned unchanged.
func (d *Dialect) Quote(name string) string {
	if bareIdent.MatchString(name) {
		return name
	}
	return d.identQuote + strings.ReplaceAll(name, d.identQuote, d.identQuote+d.identQuote) + d.identQuote
}

// LimitClause renders the LIMIT/OFFSET suffix for a query.
// A negative limit selects every remaining row; a non-positive offset is omitted.
func (d *Dialect) LimitClause(limit, offset int) string {
	rows := d.MaxRows
	if limit >= 0 {
		rows = strconv.Itoa(limit)
	}
	clause := " LIMIT " + rows
	if offset > 0 {
		clause += " OFFSET " + strconv.Itoa(offset)
	}
	return clause
}

// QuoteString renders s as a SQL string literal
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
