package migrate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/datadict/internal/dict"
)

// ErrInvalidList is returned for a migration file that does not describe
// a valid step list
var ErrInvalidList = errors.New("invalid migration list")

type document struct {
	Steps []rawStep `yaml:"steps"`
}

type rawStep struct {
	Op          string            `yaml:"op"`
	Table       string            `yaml:"table"`
	Fields      string            `yaml:"fields"`
	TableFields string            `yaml:"table_fields"`
	Columns     stringList        `yaml:"columns"`
	Old         string            `yaml:"old"`
	New         string            `yaml:"new"`
	Name        string            `yaml:"name"`
	Values      string            `yaml:"values"`
	Function    string            `yaml:"function"`
	Args        stringList        `yaml:"args"`
	Options     map[string]string `yaml:"options"`
	Replace     bool              `yaml:"replace"`
	Constraints string            `yaml:"constraints"`
	Unique      bool              `yaml:"unique"`
	Drop        bool              `yaml:"drop"`
	DropOld     bool              `yaml:"drop_old"`
	When        *rawWhen          `yaml:"when"`
}

type rawWhen struct {
	TableExists   string     `yaml:"table_exists"`
	TableMissing  string     `yaml:"table_missing"`
	ColumnExists  stringList `yaml:"column_exists"`
	ColumnMissing stringList `yaml:"column_missing"`
	IndexExists   stringList `yaml:"index_exists"`
	IndexMissing  stringList `yaml:"index_missing"`
	Strict        bool       `yaml:"strict"`
}

// stringList accepts a sequence or a comma separated scalar
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var out []string
		for _, part := range strings.Split(node.Value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*l = out
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := node.Decode(&out); err != nil {
			return err
		}
		*l = out
		return nil
	}
	return fmt.Errorf("line %d: expected a list or a comma separated string", node.Line)
}

// LoadFile reads a YAML migration list from path
func LoadFile(path string) ([]Step, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration list: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML migration list. Unknown keys are rejected.
func Load(r io.Reader) ([]Step, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidList, err)
	}

	steps := make([]Step, 0, len(doc.Steps))
	for i, raw := range doc.Steps {
		step, err := raw.step()
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrInvalidList, i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (s rawStep) step() (Step, error) {
	op, err := s.operation()
	if err != nil {
		return Step{}, err
	}
	step := Step{Op: op}
	if s.When != nil {
		step.When, err = s.When.precondition()
		if err != nil {
			return Step{}, err
		}
	}
	return step, nil
}

func (s rawStep) operation() (Operation, error) {
	// Names are matched case-insensitively, with or without an SQL suffix.
	name := strings.ToLower(strings.TrimSuffix(strings.TrimSuffix(s.Op, "SQL"), "Sql"))
	tableOpts := dict.TableOptions{Replace: s.Replace, Constraints: s.Constraints, Dialect: s.Options}

	var op Operation
	switch name {
	case "createtable":
		op = CreateTable{Table: s.Table, Fields: s.Fields, Options: tableOpts}
	case "addcolumn":
		op = AddColumn{Table: s.Table, Fields: s.Fields}
	case "altercolumn":
		op = AlterColumn{Table: s.Table, Fields: s.Fields, TableFields: s.TableFields}
	case "dropcolumn":
		if len(s.Columns) == 0 {
			return nil, errors.New("DropColumn needs columns")
		}
		op = DropColumn{Table: s.Table, Columns: s.Columns}
	case "renamecolumn":
		if s.Old == "" || s.New == "" {
			return nil, errors.New("RenameColumn needs old and new")
		}
		op = RenameColumn{Table: s.Table, Old: s.Old, New: s.New, Fields: s.Fields}
	case "droptable":
		op = DropTable{Table: s.Table}
	case "renametable":
		if s.Old == "" || s.New == "" {
			return nil, errors.New("RenameTable needs old and new")
		}
		return RenameTable{Old: s.Old, New: s.New}, nil
	case "createindex":
		if s.Name == "" || len(s.Columns) == 0 {
			return nil, errors.New("CreateIndex needs name and columns")
		}
		op = CreateIndex{Index: s.Name, Table: s.Table, Columns: s.Columns,
			Options: dict.IndexOptions{Unique: s.Unique, Drop: s.Drop, Replace: s.Replace}}
	case "dropindex":
		if s.Name == "" {
			return nil, errors.New("DropIndex needs name")
		}
		op = DropIndex{Index: s.Name, Table: s.Table}
	case "insertdata":
		op = InsertData{Table: s.Table, Values: s.Values}
	case "updatefunction":
		if s.Function == "" {
			return nil, errors.New("UpdateFunction needs function")
		}
		return UpdateFunction{Function: s.Function, Args: s.Args}, nil
	case "changetable":
		op = ChangeTable{Table: s.Table, Fields: s.Fields, Options: tableOpts, DropOld: s.DropOld}
	default:
		return nil, fmt.Errorf("unknown operation %q", s.Op)
	}

	if s.Table == "" {
		return nil, fmt.Errorf("%s needs table", op.Name())
	}
	return op, nil
}

func (w rawWhen) precondition() (*Precondition, error) {
	var conds []*Precondition
	if w.TableExists != "" {
		conds = append(conds, TableExists(w.TableExists))
	}
	if w.TableMissing != "" {
		conds = append(conds, TableMissing(w.TableMissing))
	}
	pairs := []struct {
		key  string
		args stringList
		make func(table, name string) *Precondition
	}{
		{"column_exists", w.ColumnExists, ColumnExists},
		{"column_missing", w.ColumnMissing, ColumnMissing},
		{"index_exists", w.IndexExists, IndexExists},
		{"index_missing", w.IndexMissing, IndexMissing},
	}
	for _, p := range pairs {
		if p.args == nil {
			continue
		}
		if len(p.args) != 2 {
			return nil, fmt.Errorf("%s needs [table, name]", p.key)
		}
		conds = append(conds, p.make(p.args[0], p.args[1]))
	}

	if len(conds) != 1 {
		return nil, fmt.Errorf("when needs exactly one condition, got %d", len(conds))
	}
	if w.Strict {
		return conds[0].Required(), nil
	}
	return conds[0], nil
}
