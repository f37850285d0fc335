package db

import (
	"context"
	"strings"

	"github.com/tordrt/datadict/internal/schema"
)

// PostgresExtractor reads the schema of the current PostgreSQL schema (search_path)
type PostgresExtractor struct{}

func (e *PostgresExtractor) Tables(ctx context.Context, q Querier) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	res, err := q.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	return res.Strings(0), nil
}

func (e *PostgresExtractor) Columns(ctx context.Context, q Querier, table string) ([]schema.Column, error) {
	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			column_default,
			character_maximum_length
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ?
		ORDER BY ordinal_position
	`

	res, err := q.Execute(ctx, query, strings.ToLower(table))
	if err != nil {
		return nil, err
	}

	columns := make([]schema.Column, 0, res.RecordCount())
	for i := range res.Rows {
		col := schema.Column{
			Name:         AsString(res.Value(i, 0)),
			Type:         AsString(res.Value(i, 1)),
			Nullable:     AsString(res.Value(i, 2)) == "YES",
			DefaultValue: optionalString(res.Value(i, 3)),
		}
		if n, ok := AsInt64(res.Value(i, 4)); ok {
			col.Type += "(" + AsString(n) + ")"
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func (e *PostgresExtractor) Indexes(ctx context.Context, q Querier, table string) ([]schema.Index, error) {
	query := `
		SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			string_agg(a.attname::text, ',' ORDER BY array_position(ix.indkey::int2[], a.attnum)) AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = current_schema()
			AND t.relname = ?
			AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`

	res, err := q.Execute(ctx, query, strings.ToLower(table))
	if err != nil {
		return nil, err
	}

	indexes := make([]schema.Index, 0, res.RecordCount())
	for i := range res.Rows {
		unique, _ := res.Value(i, 1).(bool)
		indexes = append(indexes, schema.Index{
			Name:     AsString(res.Value(i, 0)),
			IsUnique: unique,
			Columns:  strings.Split(AsString(res.Value(i, 2)), ","),
		})
	}
	return indexes, nil
}

func (e *PostgresExtractor) PrimaryKey(ctx context.Context, q Querier, table string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = current_schema()
			AND tc.table_name = ?
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`

	res, err := q.Execute(ctx, query, strings.ToLower(table))
	if err != nil {
		return nil, err
	}
	return res.Strings(0), nil
}
