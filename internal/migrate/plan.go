package migrate

import (
	"context"
	"fmt"
)

// statements generates the SQL for one resolved operation.
// UpdateFunction has no SQL of its own.
func (r *Runner) statements(ctx context.Context, op Operation) ([]string, error) {
	g := r.gen
	switch op := op.(type) {
	case CreateTable:
		return g.CreateTableSQL(op.Table, op.Fields, op.Options)
	case AddColumn:
		return g.AddColumn(op.Table, op.Fields)
	case AlterColumn:
		return g.AlterColumn(op.Table, op.Fields, op.TableFields)
	case DropColumn:
		return g.DropColumn(op.Table, op.Columns...), nil
	case RenameColumn:
		return g.RenameColumn(op.Table, op.Old, op.New, op.Fields)
	case DropTable:
		return g.DropTable(op.Table), nil
	case RenameTable:
		return g.RenameTable(op.Old, op.New), nil
	case CreateIndex:
		return g.CreateIndex(op.Index, op.Table, op.Columns, op.Options), nil
	case DropIndex:
		return g.DropIndex(op.Index, op.Table), nil
	case InsertData:
		return g.InsertData(op.Table, op.Values), nil
	case ChangeTable:
		existing, err := r.conn.Columns(ctx, op.Table, false)
		if err != nil {
			return nil, fmt.Errorf("failed to read columns of %s: %w", op.Table, err)
		}
		return g.ChangeTable(op.Table, op.Fields, existing, op.Options, op.DropOld)
	case UpdateFunction:
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported operation %T", op)
}

// PlannedStep is what a pending step would do
type PlannedStep struct {
	Index       int
	Operation   string
	Description string
	Skipped     bool
	Statements  []string
	Function    string
}

// Plan returns the work the pending steps of steps would do without
// executing anything. Preconditions and ChangeTable read the current schema,
// so a step that depends on an earlier pending step is planned against the
// schema as it is now.
func (r *Runner) Plan(ctx context.Context, steps []Step) ([]PlannedStep, error) {
	st, err := r.store.load(ctx)
	if err != nil {
		return nil, err
	}

	var plan []PlannedStep
	for i := st.Step + 1; i < len(steps); i++ {
		op := resolve(steps[i].Op, r.tables)
		p := PlannedStep{Index: i, Operation: op.Name(), Description: label(op)}

		ok, err := r.precondition(ctx, i, steps[i], op)
		if err != nil {
			return plan, err
		}
		if !ok {
			p.Skipped = true
			plan = append(plan, p)
			continue
		}

		if uf, isFunc := op.(UpdateFunction); isFunc {
			p.Function = uf.Function
		} else {
			p.Statements, err = r.statements(ctx, op)
			if err != nil {
				return plan, &StepError{Index: i, Operation: op.Name(), Err: err}
			}
		}
		plan = append(plan, p)
	}
	return plan, nil
}
