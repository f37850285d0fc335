package migrate

import (
	"context"
	"fmt"

	"github.com/tordrt/datadict/internal/db"
)

// Env is what preconditions and update functions run against
type Env struct {
	Conn   *db.Conn
	Tables TableNames
}

// Table resolves {name} placeholders in a table argument
func (e Env) Table(name string) string {
	return e.Tables.Resolve(name)
}

// Check inspects the live schema
type Check func(ctx context.Context, env Env) (bool, error)

// Precondition guards a step
type Precondition struct {
	Description string
	Check       Check
	// Strict fails the step on a false condition instead of skipping it
	Strict bool
}

// Required returns a strict copy of p
func (p *Precondition) Required() *Precondition {
	cp := *p
	cp.Strict = true
	return &cp
}

// TableExists holds when table exists
func TableExists(table string) *Precondition {
	return &Precondition{
		Description: fmt.Sprintf("table %s exists", table),
		Check: func(ctx context.Context, env Env) (bool, error) {
			return env.Conn.TableExists(ctx, env.Table(table))
		},
	}
}

// TableMissing holds when table does not exist
func TableMissing(table string) *Precondition {
	return Not(TableExists(table))
}

// ColumnExists holds when table has column
func ColumnExists(table, column string) *Precondition {
	return &Precondition{
		Description: fmt.Sprintf("column %s.%s exists", table, column),
		Check: func(ctx context.Context, env Env) (bool, error) {
			return env.Conn.ColumnExists(ctx, env.Table(table), column)
		},
	}
}

// ColumnMissing holds when table lacks column
func ColumnMissing(table, column string) *Precondition {
	return Not(ColumnExists(table, column))
}

// IndexExists holds when table has an index named index
func IndexExists(table, index string) *Precondition {
	return &Precondition{
		Description: fmt.Sprintf("index %s on %s exists", index, table),
		Check: func(ctx context.Context, env Env) (bool, error) {
			return env.Conn.IndexExists(ctx, env.Table(table), index)
		},
	}
}

// IndexMissing holds when table has no index named index
func IndexMissing(table, index string) *Precondition {
	return Not(IndexExists(table, index))
}

// Not negates p
func Not(p *Precondition) *Precondition {
	return &Precondition{
		Description: "not " + p.Description,
		Check: func(ctx context.Context, env Env) (bool, error) {
			ok, err := p.Check(ctx, env)
			return !ok, err
		},
		Strict: p.Strict,
	}
}
