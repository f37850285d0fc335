package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tordrt/datadict/internal/dict"
	"github.com/tordrt/datadict/internal/logger"
	"github.com/tordrt/datadict/internal/schema"
)

// Conn is one live database connection with its introspection caches.
// A Conn is not safe for concurrent use.
type Conn struct {
	name      string
	driver    Driver
	dialect   *dict.Dialect
	extractor Extractor
	log       *logger.Logger

	connected bool
	connErr   error

	tables    []string
	columns   map[string][]string
	queries   int
	lastError string
}

// Option configures a Conn
type Option func(*Conn)

// WithLogger sets the logger statements are traced to
func WithLogger(l *logger.Logger) Option {
	return func(c *Conn) {
		c.log = l
	}
}

// New creates an unconnected Conn for a registered driver
func New(driverName string, opts ...Option) (*Conn, error) {
	reg, err := lookup(driverName)
	if err != nil {
		return nil, err
	}
	return newConn(strings.ToLower(driverName), reg.factory(), reg.dialect, opts...), nil
}

// Open creates a Conn and connects it
func Open(ctx context.Context, cfg Config, opts ...Option) (*Conn, error) {
	c, err := New(cfg.Driver, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx, cfg); err != nil {
		return nil, err
	}
	return c, nil
}

func newConn(name string, d Driver, dialect *dict.Dialect, opts ...Option) *Conn {
	c := &Conn{
		name:      name,
		driver:    d,
		dialect:   dialect,
		extractor: extractorFor(dialect),
		log:       logger.Discard(),
		columns:   make(map[string][]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the native connection. After a failed attempt every
// later call, Connect included, fails with the same error.
func (c *Conn) Connect(ctx context.Context, cfg Config) error {
	if c.connErr != nil {
		return c.connErr
	}
	if c.connected {
		return nil
	}

	if err := c.driver.Connect(ctx, cfg); err != nil {
		if errors.Is(err, ErrDriverNotInstalled) {
			c.connErr = err
		} else {
			c.connErr = fmt.Errorf("%w: %s: %w", ErrConnectionFailed, c.name, err)
		}
		c.log.WithError(err).WithField("driver", c.name).Error("failed to connect")
		return c.connErr
	}

	c.connected = true
	c.log.WithField("driver", c.name).Debug("connected")
	return nil
}

func (c *Conn) ready() error {
	if c.connErr != nil {
		return c.connErr
	}
	if !c.connected {
		return fmt.Errorf("%w: %s: not connected", ErrConnectionFailed, c.name)
	}
	return nil
}

var (
	// leading blanks, parentheses and comments are skipped
	rowsStatement = regexp.MustCompile(`(?is)^(?:\s|\(|--[^\n]*|/\*.*?\*/)*(SELECT|SHOW|PRAGMA|WITH|EXPLAIN|DESCRIBE|DESC|VALUES)\b`)
	returning     = regexp.MustCompile(`(?i)\bRETURNING\b`)
)

func returnsRows(query string) bool {
	return rowsStatement.MatchString(query) || returning.MatchString(query)
}

// Execute runs one statement. A parameter count mismatch is returned as
// *ParameterCountError before anything is sent. A statement the database
// rejects is returned as *QueryError and its message kept for LastError.
func (c *Conn) Execute(ctx context.Context, query string, params ...any) (*Result, error) {
	c.lastError = ""
	if err := c.ready(); err != nil {
		return nil, err
	}

	query, args, err := CheckDialectParameters(c.dialect, query, params)
	if err != nil {
		return nil, err
	}
	if c.dialect.Placeholder == dict.Dollar {
		query = rebindDollar(query)
	}

	c.queries++
	start := time.Now()

	var res *Result
	if returnsRows(query) {
		res, err = c.driver.Query(ctx, query, args...)
	} else {
		res, err = c.driver.Exec(ctx, query, args...)
	}

	entry := c.log.WithFields(logrus.Fields{
		"query":    c.queries,
		"duration": time.Since(start),
	})
	if err != nil {
		c.lastError = err.Error()
		entry.WithError(err).Debug(query)
		return nil, &QueryError{SQL: query, Code: nativeCode(err), Err: err}
	}
	entry.Debug(query)
	return res, nil
}

// SelectLimit runs a query restricted to limit rows starting at offset.
// A negative limit returns every row after offset.
func (c *Conn) SelectLimit(ctx context.Context, query string, limit, offset int, params ...any) (*Result, error) {
	query = strings.TrimRight(strings.TrimSpace(query), ";")
	return c.Execute(ctx, query+c.dialect.LimitClause(limit, offset), params...)
}

// Tables returns the lower-cased table names
func (c *Conn) Tables(ctx context.Context, useCache bool) ([]string, error) {
	if useCache && c.tables != nil {
		return slices.Clone(c.tables), nil
	}

	names, err := c.extractor.Tables(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	tables := make([]string, 0, len(names))
	for _, n := range names {
		tables = append(tables, strings.ToLower(n))
	}
	c.tables = tables
	return slices.Clone(tables), nil
}

// Columns returns the lower-cased column names of table in table order
func (c *Conn) Columns(ctx context.Context, table string, useCache bool) ([]string, error) {
	key := strings.ToLower(table)
	if cached, ok := c.columns[key]; ok && useCache {
		return slices.Clone(cached), nil
	}

	details, err := c.extractor.Columns(ctx, c, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	names := make([]string, 0, len(details))
	for _, col := range details {
		names = append(names, strings.ToLower(col.Name))
	}
	c.columns[key] = names
	return slices.Clone(names), nil
}

// ColumnDetails returns type, nullability and default of each column, uncached
func (c *Conn) ColumnDetails(ctx context.Context, table string) ([]schema.Column, error) {
	cols, err := c.extractor.Columns(ctx, c, table)
	if err != nil {
		return nil, fmt.Errorf("failed to describe columns of %s: %w", table, err)
	}
	for i := range cols {
		cols[i].Name = strings.ToLower(cols[i].Name)
	}
	return cols, nil
}

// Indexes returns the non-primary indexes of table keyed by lower-cased name
func (c *Conn) Indexes(ctx context.Context, table string) (map[string]schema.Index, error) {
	list, err := c.extractor.Indexes(ctx, c, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes of %s: %w", table, err)
	}
	indexes := make(map[string]schema.Index, len(list))
	for _, idx := range list {
		idx.Name = strings.ToLower(idx.Name)
		for i, col := range idx.Columns {
			idx.Columns[i] = strings.ToLower(strings.TrimSpace(col))
		}
		indexes[idx.Name] = idx
	}
	return indexes, nil
}

// PrimaryKey returns the lower-cased primary key columns of table
func (c *Conn) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	pk, err := c.extractor.PrimaryKey(ctx, c, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key of %s: %w", table, err)
	}
	for i := range pk {
		pk[i] = strings.ToLower(pk[i])
	}
	return pk, nil
}

// TableExists reports whether table exists, using the table cache
func (c *Conn) TableExists(ctx context.Context, table string) (bool, error) {
	tables, err := c.Tables(ctx, true)
	if err != nil {
		return false, err
	}
	return slices.Contains(tables, strings.ToLower(table)), nil
}

// ColumnExists reports whether table has column, using the column cache
func (c *Conn) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	exists, err := c.TableExists(ctx, table)
	if err != nil || !exists {
		return false, err
	}
	columns, err := c.Columns(ctx, table, true)
	if err != nil {
		return false, err
	}
	return slices.Contains(columns, strings.ToLower(column)), nil
}

// IndexExists reports whether table has a non-primary index named index
func (c *Conn) IndexExists(ctx context.Context, table, index string) (bool, error) {
	exists, err := c.TableExists(ctx, table)
	if err != nil || !exists {
		return false, err
	}
	indexes, err := c.Indexes(ctx, table)
	if err != nil {
		return false, err
	}
	_, ok := indexes[strings.ToLower(index)]
	return ok, nil
}

// RowCount returns the number of rows in table
func (c *Conn) RowCount(ctx context.Context, table string) (int64, error) {
	res, err := c.Execute(ctx, "SELECT COUNT(*) FROM "+c.dialect.Quote(table))
	if err != nil {
		return 0, err
	}
	v, _ := res.Scalar()
	n, ok := AsInt64(v)
	if !ok {
		return 0, fmt.Errorf("unexpected row count %v for %s", v, table)
	}
	return n, nil
}

var versionQueries = map[string]string{
	"mysql":    "SELECT VERSION()",
	"postgres": "SHOW server_version",
	"sqlite":   "SELECT sqlite_version()",
}

// ServerVersion returns the version string reported by the database
func (c *Conn) ServerVersion(ctx context.Context) (string, error) {
	res, err := c.Execute(ctx, versionQueries[c.dialect.Name])
	if err != nil {
		return "", err
	}
	v, _ := res.Scalar()
	return AsString(v), nil
}

var databaseQueries = map[string]string{
	"mysql":    "SELECT SCHEMA_NAME FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?",
	"postgres": "SELECT datname FROM pg_database WHERE datname = ?",
}

// DatabaseExists reports whether the server has a database called name.
// A SQLite file is its own database, so it always exists.
func (c *Conn) DatabaseExists(ctx context.Context, name string) (bool, error) {
	query, ok := databaseQueries[c.dialect.Name]
	if !ok {
		return true, c.ready()
	}
	res, err := c.Execute(ctx, query, name)
	if err != nil {
		return false, err
	}
	return res.RecordCount() > 0, nil
}

// CreateDatabase creates database name on the server. On SQLite it does nothing.
func (c *Conn) CreateDatabase(ctx context.Context, name string) error {
	if _, ok := databaseQueries[c.dialect.Name]; !ok {
		return c.ready()
	}
	_, err := c.Execute(ctx, "CREATE DATABASE "+c.dialect.Quote(name))
	return err
}

// InsertID returns the key generated by the most recent insert into table
func (c *Conn) InsertID(ctx context.Context, table string) (int64, bool) {
	if c.ready() != nil {
		return 0, false
	}
	return c.driver.LastInsertID(ctx, table)
}

// LastError returns the native message of the last failed statement,
// or "" when the last Execute succeeded
func (c *Conn) LastError() string {
	return c.lastError
}

// ResetCaches drops the cached table and column lists
func (c *Conn) ResetCaches() {
	c.tables = nil
	c.columns = make(map[string][]string)
}

// QueryCount returns the number of statements sent to the database
func (c *Conn) QueryCount() int {
	return c.queries
}

// Dialect returns the SQL dialect of the connection
func (c *Conn) Dialect() *dict.Dialect {
	return c.dialect
}

// DriverName returns the registry name of the driver
func (c *Conn) DriverName() string {
	return c.name
}

// Close closes the native connection
func (c *Conn) Close() error {
	if !c.connected {
		return nil
	}
	c.connected = false
	return c.driver.Close()
}
