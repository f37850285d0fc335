package migrate

import (
	"fmt"
	"strings"

	"github.com/tordrt/datadict/internal/dict"
)

// Operation is one kind of migration step. The set of operations is closed:
// only the types in this file implement it.
type Operation interface {
	// Name returns the operation name used in logs and reports
	Name() string
	operation()
}

// Step is one entry of an ordered migration list
type Step struct {
	Op Operation
	// When guards the step; a false condition skips it unless the
	// precondition is strict
	When *Precondition
}

// CreateTable creates a table and its indexes from a definition string
type CreateTable struct {
	Table   string
	Fields  string
	Options dict.TableOptions
}

// AddColumn adds the columns of a definition string
type AddColumn struct {
	Table  string
	Fields string
}

// AlterColumn changes existing columns. TableFields is the complete new
// table definition, needed by dialects that rebuild the table.
type AlterColumn struct {
	Table       string
	Fields      string
	TableFields string
}

// DropColumn drops columns
type DropColumn struct {
	Table   string
	Columns []string
}

// RenameColumn renames a column. Fields is the complete definition of the
// renamed column, needed by dialects that re-specify it.
type RenameColumn struct {
	Table  string
	Old    string
	New    string
	Fields string
}

// DropTable drops a table
type DropTable struct {
	Table string
}

// RenameTable renames a table
type RenameTable struct {
	Old string
	New string
}

// CreateIndex creates an index, or drops it when Options.Drop is set
type CreateIndex struct {
	Index   string
	Table   string
	Columns []string
	Options dict.IndexOptions
}

// DropIndex drops an index
type DropIndex struct {
	Index string
	Table string
}

// InsertData inserts a row; Values is "(cols...) VALUES (...)"
type InsertData struct {
	Table  string
	Values string
}

// UpdateFunction runs a registered Go function instead of generated SQL
type UpdateFunction struct {
	Function string
	Args     []string
}

// ChangeTable creates Table or reconciles its live columns with Fields
type ChangeTable struct {
	Table   string
	Fields  string
	Options dict.TableOptions
	DropOld bool
}

func (CreateTable) Name() string    { return "CreateTable" }
func (AddColumn) Name() string      { return "AddColumn" }
func (AlterColumn) Name() string    { return "AlterColumn" }
func (DropColumn) Name() string     { return "DropColumn" }
func (RenameColumn) Name() string   { return "RenameColumn" }
func (DropTable) Name() string      { return "DropTable" }
func (RenameTable) Name() string    { return "RenameTable" }
func (CreateIndex) Name() string    { return "CreateIndex" }
func (DropIndex) Name() string      { return "DropIndex" }
func (InsertData) Name() string     { return "InsertData" }
func (UpdateFunction) Name() string { return "UpdateFunction" }
func (ChangeTable) Name() string    { return "ChangeTable" }

func (CreateTable) operation()    {}
func (AddColumn) operation()      {}
func (AlterColumn) operation()    {}
func (DropColumn) operation()     {}
func (RenameColumn) operation()   {}
func (DropTable) operation()      {}
func (RenameTable) operation()    {}
func (CreateIndex) operation()    {}
func (DropIndex) operation()      {}
func (InsertData) operation()     {}
func (UpdateFunction) operation() {}
func (ChangeTable) operation()    {}

// label is a short human description of a step
func label(op Operation) string {
	switch op := op.(type) {
	case CreateTable:
		return "create table " + op.Table
	case AddColumn:
		return "add columns to " + op.Table
	case AlterColumn:
		return "alter columns of " + op.Table
	case DropColumn:
		return fmt.Sprintf("drop %s from %s", strings.Join(op.Columns, ", "), op.Table)
	case RenameColumn:
		return fmt.Sprintf("rename %s.%s to %s", op.Table, op.Old, op.New)
	case DropTable:
		return "drop table " + op.Table
	case RenameTable:
		return fmt.Sprintf("rename table %s to %s", op.Old, op.New)
	case CreateIndex:
		if op.Options.Drop {
			return fmt.Sprintf("drop index %s on %s", op.Index, op.Table)
		}
		return fmt.Sprintf("create index %s on %s", op.Index, op.Table)
	case DropIndex:
		return fmt.Sprintf("drop index %s on %s", op.Index, op.Table)
	case InsertData:
		return "insert into " + op.Table
	case UpdateFunction:
		return "run " + op.Function
	case ChangeTable:
		return "change table " + op.Table
	}
	return op.Name()
}

// resolve replaces {name} table placeholders in every table argument of op
func resolve(op Operation, t TableNames) Operation {
	switch op := op.(type) {
	case CreateTable:
		op.Table = t.Resolve(op.Table)
		return op
	case AddColumn:
		op.Table = t.Resolve(op.Table)
		return op
	case AlterColumn:
		op.Table = t.Resolve(op.Table)
		return op
	case DropColumn:
		op.Table = t.Resolve(op.Table)
		return op
	case RenameColumn:
		op.Table = t.Resolve(op.Table)
		return op
	case DropTable:
		op.Table = t.Resolve(op.Table)
		return op
	case RenameTable:
		op.Old = t.Resolve(op.Old)
		op.New = t.Resolve(op.New)
		return op
	case CreateIndex:
		op.Table = t.Resolve(op.Table)
		return op
	case DropIndex:
		op.Table = t.Resolve(op.Table)
		return op
	case InsertData:
		op.Table = t.Resolve(op.Table)
		op.Values = t.Resolve(op.Values)
		return op
	case UpdateFunction:
		args := make([]string, len(op.Args))
		for i, a := range op.Args {
			args[i] = t.Resolve(a)
		}
		op.Args = args
		return op
	case ChangeTable:
		op.Table = t.Resolve(op.Table)
		return op
	}
	return op
}
