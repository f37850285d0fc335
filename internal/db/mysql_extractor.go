package db

import (
	"context"
	"strings"

	"github.com/tordrt/datadict/internal/schema"
)

// MySQLExtractor reads the schema of the connected MySQL database
type MySQLExtractor struct{}

func (e *MySQLExtractor) Tables(ctx context.Context, q Querier) ([]string, error) {
	res, err := q.Execute(ctx, "SHOW TABLES")
	if err != nil {
		return nil, err
	}
	return res.Strings(0), nil
}

func (e *MySQLExtractor) Columns(ctx context.Context, q Querier, table string) ([]schema.Column, error) {
	query := `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable,
			c.column_default
		FROM information_schema.columns c
		WHERE c.table_schema = DATABASE() AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	res, err := q.Execute(ctx, query, table)
	if err != nil {
		return nil, err
	}

	columns := make([]schema.Column, 0, res.RecordCount())
	for i := range res.Rows {
		columns = append(columns, schema.Column{
			Name:         AsString(res.Value(i, 0)),
			Type:         AsString(res.Value(i, 1)),
			Nullable:     AsString(res.Value(i, 2)) == "YES",
			DefaultValue: optionalString(res.Value(i, 3)),
		})
	}
	return columns, nil
}

func (e *MySQLExtractor) Indexes(ctx context.Context, q Querier, table string) ([]schema.Index, error) {
	query := `
		SELECT
			s.index_name,
			MIN(s.non_unique) AS non_unique,
			GROUP_CONCAT(s.column_name ORDER BY s.seq_in_index) AS column_names
		FROM information_schema.statistics s
		WHERE s.table_schema = DATABASE()
			AND s.table_name = ?
			AND s.index_name != 'PRIMARY'
		GROUP BY s.index_name
		ORDER BY s.index_name
	`

	res, err := q.Execute(ctx, query, table)
	if err != nil {
		return nil, err
	}

	indexes := make([]schema.Index, 0, res.RecordCount())
	for i := range res.Rows {
		nonUnique, _ := AsInt64(res.Value(i, 1))
		indexes = append(indexes, schema.Index{
			Name:     AsString(res.Value(i, 0)),
			IsUnique: nonUnique == 0,
			Columns:  strings.Split(AsString(res.Value(i, 2)), ","),
		})
	}
	return indexes, nil
}

func (e *MySQLExtractor) PrimaryKey(ctx context.Context, q Querier, table string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE()
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`

	res, err := q.Execute(ctx, query, table)
	if err != nil {
		return nil, err
	}
	return res.Strings(0), nil
}
