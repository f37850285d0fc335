package db

import (
	"context"

	"github.com/tordrt/datadict/internal/schema"
)

// SQLiteExtractor reads the schema of a SQLite database
type SQLiteExtractor struct{}

func (e *SQLiteExtractor) Tables(ctx context.Context, q Querier) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	res, err := q.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	return res.Strings(0), nil
}

func (e *SQLiteExtractor) Columns(ctx context.Context, q Querier, table string) ([]schema.Column, error) {
	query := `SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`

	res, err := q.Execute(ctx, query, table)
	if err != nil {
		return nil, err
	}

	columns := make([]schema.Column, 0, res.RecordCount())
	for i := range res.Rows {
		notNull, _ := AsInt64(res.Value(i, 2))
		pk, _ := AsInt64(res.Value(i, 4))
		columns = append(columns, schema.Column{
			Name:         AsString(res.Value(i, 0)),
			Type:         AsString(res.Value(i, 1)),
			Nullable:     notNull == 0 && pk == 0,
			DefaultValue: optionalString(res.Value(i, 3)),
		})
	}
	return columns, nil
}

func (e *SQLiteExtractor) Indexes(ctx context.Context, q Querier, table string) ([]schema.Index, error) {
	query := `
		SELECT name, "unique"
		FROM pragma_index_list(?)
		WHERE origin != 'pk' AND name NOT LIKE 'sqlite_autoindex%'
		ORDER BY name
	`

	res, err := q.Execute(ctx, query, table)
	if err != nil {
		return nil, err
	}

	indexes := make([]schema.Index, 0, res.RecordCount())
	for i := range res.Rows {
		name := AsString(res.Value(i, 0))
		unique, _ := AsInt64(res.Value(i, 1))

		cols, err := q.Execute(ctx, `SELECT name FROM pragma_index_info(?) ORDER BY seqno`, name)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, schema.Index{
			Name:     name,
			IsUnique: unique == 1,
			Columns:  cols.Strings(0),
		})
	}
	return indexes, nil
}

func (e *SQLiteExtractor) PrimaryKey(ctx context.Context, q Querier, table string) ([]string, error) {
	res, err := q.Execute(ctx, `SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`, table)
	if err != nil {
		return nil, err
	}
	return res.Strings(0), nil
}
