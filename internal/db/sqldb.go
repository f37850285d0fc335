package db

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
)

// currvalQuery reads the serial value of a table's id column on PostgreSQL
const currvalQuery = "SELECT currval(pg_get_serial_sequence($1, 'id'))"

// sqlDriver adapts a database/sql driver to Driver on a single connection
type sqlDriver struct {
	driverName string
	dsn        func(Config) (string, error)
	serialIDs  bool // read insert ids from the table sequence

	db     *sql.DB
	lastID int64
	hasID  bool
}

func (d *sqlDriver) Connect(ctx context.Context, cfg Config) error {
	if !slices.Contains(sql.Drivers(), d.driverName) {
		return fmt.Errorf("%w: %s", ErrDriverNotInstalled, d.driverName)
	}

	dsn, err := d.dsn(cfg)
	if err != nil {
		return fmt.Errorf("failed to build connection string: %w", err)
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	d.db = db
	return nil
}

func (d *sqlDriver) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i := range values {
			values[i] = normalize(values[i])
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	res.RowsAffected = int64(len(res.Rows))
	return res, nil
}

func (d *sqlDriver) Exec(ctx context.Context, query string, args ...any) (*Result, error) {
	r, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if n, err := r.RowsAffected(); err == nil {
		res.RowsAffected = n
	}
	if !d.serialIDs {
		if id, err := r.LastInsertId(); err == nil && id > 0 {
			d.lastID, d.hasID = id, true
		}
	}
	return res, nil
}

func (d *sqlDriver) LastInsertID(ctx context.Context, table string) (int64, bool) {
	if !d.serialIDs {
		return d.lastID, d.hasID
	}
	var id int64
	if err := d.db.QueryRowContext(ctx, currvalQuery, table).Scan(&id); err != nil {
		return 0, false
	}
	return id, true
}

func (d *sqlDriver) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}
