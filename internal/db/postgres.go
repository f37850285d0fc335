package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/tordrt/datadict/internal/dict"
)

func init() {
	newPgx := func() Driver { return &pgxDriver{} }
	Register("pgx", dict.Postgres, newPgx)
	Register("postgres", dict.Postgres, newPgx)
	Register("pq", dict.Postgres, func() Driver {
		return &sqlDriver{driverName: "postgres", dsn: postgresDSN, serialIDs: true}
	})

	errorCoders = append(errorCoders,
		func(err error) (string, bool) {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				return pgErr.Code, true
			}
			return "", false
		},
		func(err error) (string, bool) {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) {
				return string(pqErr.Code), true
			}
			return "", false
		},
	)
}

// postgresDSN returns cfg.DSN or a postgres:// URL built from the connection fields
func postgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	host, port := cfg.Host, cfg.Port
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	if len(cfg.Params) > 0 {
		q := url.Values{}
		for k, v := range cfg.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// pgxDriver talks to PostgreSQL over one native pgx connection
type pgxDriver struct {
	conn *pgx.Conn
}

func (d *pgxDriver) Connect(ctx context.Context, cfg Config) error {
	dsn, err := postgresDSN(cfg)
	if err != nil {
		return err
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return fmt.Errorf("failed to ping database: %w", err)
	}

	d.conn = conn
	return nil
}

func (d *pgxDriver) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	rows, err := d.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	res := &Result{Columns: make([]string, len(fields))}
	for i, fd := range fields {
		res.Columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
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

func (d *pgxDriver) Exec(ctx context.Context, query string, args ...any) (*Result, error) {
	tag, err := d.conn.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &Result{RowsAffected: tag.RowsAffected()}, nil
}

func (d *pgxDriver) LastInsertID(ctx context.Context, table string) (int64, bool) {
	var id int64
	if err := d.conn.QueryRow(ctx, currvalQuery, table).Scan(&id); err != nil {
		return 0, false
	}
	return id, true
}

func (d *pgxDriver) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close(context.Background())
}
