package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/tordrt/datadict/internal/dict"
	"github.com/tordrt/datadict/internal/schema"
)

// Querier runs statements; Conn implements it so introspection is counted
// and traced like any other query
type Querier interface {
	Execute(ctx context.Context, query string, params ...any) (*Result, error)
}

// Extractor reads the live schema of one dialect
type Extractor interface {
	Tables(ctx context.Context, q Querier) ([]string, error)
	Columns(ctx context.Context, q Querier, table string) ([]schema.Column, error)
	// Indexes returns every index except the primary key
	Indexes(ctx context.Context, q Querier, table string) ([]schema.Index, error)
	PrimaryKey(ctx context.Context, q Querier, table string) ([]string, error)
}

var extractors = map[*dict.Dialect]Extractor{
	dict.MySQL:    &MySQLExtractor{},
	dict.Postgres: &PostgresExtractor{},
	dict.SQLite:   &SQLiteExtractor{},
}

func extractorFor(d *dict.Dialect) Extractor {
	return extractors[d]
}

// ExtractSchema extracts the complete schema for specified tables
// If tables is empty, extracts all tables in the database
func ExtractSchema(ctx context.Context, c *Conn, tables []string, withCounts bool) (*schema.Schema, error) {
	tableNames := tables
	if len(tableNames) == 0 {
		var err error
		tableNames, err = c.Tables(ctx, false)
		if err != nil {
			return nil, err
		}
	}

	var extracted []schema.Table
	for _, tableName := range tableNames {
		table, err := extractTable(ctx, c, tableName, withCounts)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		extracted = append(extracted, *table)
	}

	return &schema.Schema{Tables: extracted}, nil
}

// extractTable extracts all information for a single table
func extractTable(ctx context.Context, c *Conn, tableName string, withCounts bool) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	columns, err := c.ColumnDetails(ctx, tableName)
	if err != nil {
		return nil, err
	}
	table.Columns = columns

	pk, err := c.PrimaryKey(ctx, tableName)
	if err != nil {
		return nil, err
	}
	table.PrimaryKey = pk

	indexes, err := c.Indexes(ctx, tableName)
	if err != nil {
		return nil, err
	}
	for _, idx := range indexes {
		table.Indexes = append(table.Indexes, idx)
	}
	sort.Slice(table.Indexes, func(i, j int) bool {
		return table.Indexes[i].Name < table.Indexes[j].Name
	})

	if withCounts {
		n, err := c.RowCount(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to count rows: %w", err)
		}
		table.RowCount = &n
	}

	return table, nil
}

// optionalString returns nil for a NULL driver value
func optionalString(v any) *string {
	if v == nil {
		return nil
	}
	s := AsString(v)
	return &s
}
