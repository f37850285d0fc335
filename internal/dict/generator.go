package dict

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tordrt/datadict/internal/schema"
)

// TableOptions controls CREATE TABLE generation
type TableOptions struct {
	// Replace drops an existing table of the same name first
	Replace bool
	// Constraints is appended verbatim as a table-level clause
	Constraints string
	// Dialect overrides the table options suffix per dialect name.
	// An empty value suppresses the suffix.
	Dialect map[string]string
}

// IndexOptions selects the behavior of CreateIndex
type IndexOptions struct {
	Unique  bool
	Drop    bool // drop the index instead of creating it
	Replace bool // drop, then create
}

// Generator emits ordered DDL statements for one dialect
type Generator struct {
	d *Dialect
}

// NewGenerator creates a generator for the dialect
func NewGenerator(d *Dialect) *Generator {
	return &Generator{d: d}
}

// Dialect returns the dialect statements are generated for
func (g *Generator) Dialect() *Dialect {
	return g.d
}

// CreateTableSQL parses fields and generates the statements creating table
func (g *Generator) CreateTableSQL(table, fields string, opts TableOptions) ([]string, error) {
	def, err := ParseTable(fields)
	if err != nil {
		return nil, err
	}
	return g.CreateTable(table, def, opts)
}

// CreateTable generates one CREATE TABLE statement followed by one statement per index
func (g *Generator) CreateTable(table string, def *schema.TableDefinition, opts TableOptions) ([]string, error) {
	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("%w: table %q has no fields", ErrMalformedDefinition, table)
	}

	var stmts []string
	if opts.Replace {
		stmts = append(stmts, "DROP TABLE IF EXISTS "+g.d.Quote(table))
	}

	create, err := g.createStatement(table, def, opts)
	if err != nil {
		return nil, err
	}
	stmts = append(stmts, create)
	return append(stmts, g.indexStatements(table, def)...), nil
}

func (g *Generator) createStatement(table string, def *schema.TableDefinition, opts TableOptions) (string, error) {
	inlinePK := false
	lines := make([]string, 0, len(def.Fields)+2)
	for _, f := range def.Fields {
		col, err := g.columnSQL(f)
		if err != nil {
			return "", err
		}
		if f.AutoIncrement && g.d.inlineAuto {
			if len(def.PrimaryKey) > 1 {
				return "", fmt.Errorf("%w: %s cannot combine autoincrement %q with a composite primary key",
					ErrMalformedDefinition, g.d.Name, f.Name)
			}
			inlinePK = true
		}
		lines = append(lines, col)
	}
	if len(def.PrimaryKey) > 0 && !inlinePK {
		lines = append(lines, "PRIMARY KEY ("+g.quoteList(def.PrimaryKey)+")")
	}
	if opts.Constraints != "" {
		lines = append(lines, opts.Constraints)
	}

	stmt := "CREATE TABLE " + g.d.Quote(table) + " (\n  " + strings.Join(lines, ",\n  ") + "\n)"
	if suffix := g.tableOptions(opts); suffix != "" {
		stmt += " " + suffix
	}
	return stmt, nil
}

func (g *Generator) tableOptions(opts TableOptions) string {
	if v, ok := opts.Dialect[g.d.Name]; ok {
		return v
	}
	return g.d.TableOptions
}

func (g *Generator) indexStatements(table string, def *schema.TableDefinition) []string {
	var stmts []string
	for _, name := range def.IndexNames {
		idx := def.Indexes[name]
		stmts = append(stmts, g.CreateIndex(name, table, idx.Columns, IndexOptions{Unique: idx.IsUnique})...)
	}
	return stmts
}

// AddColumn generates one ALTER TABLE per field, then any index statements
func (g *Generator) AddColumn(table, fields string) ([]string, error) {
	def, err := ParseTable(fields)
	if err != nil {
		return nil, err
	}

	var stmts []string
	for _, f := range def.Fields {
		col, err := g.columnSQL(f)
		if err != nil {
			return nil, err
		}
		if f.PrimaryKey && !(f.AutoIncrement && g.d.inlineAuto) {
			col += " PRIMARY KEY"
		}
		stmts = append(stmts, "ALTER TABLE "+g.d.Quote(table)+" ADD COLUMN "+col)
	}
	return append(stmts, g.indexStatements(table, def)...), nil
}

// AlterColumn changes the definition of existing columns.
// SQLite cannot alter a column in place; there tableFields must hold the
// complete new table definition and the table is rebuilt from it.
func (g *Generator) AlterColumn(table, fields, tableFields string) ([]string, error) {
	def, err := ParseTable(fields)
	if err != nil {
		return nil, err
	}

	switch g.d {
	case SQLite:
		return g.rebuildTable(table, def, tableFields)
	case Postgres:
		var stmts []string
		for _, f := range def.Fields {
			stmt, err := g.postgresAlter(table, f)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		}
		return append(stmts, g.indexStatements(table, def)...), nil
	default:
		var stmts []string
		for _, f := range def.Fields {
			col, err := g.columnSQL(f)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, "ALTER TABLE "+g.d.Quote(table)+" MODIFY COLUMN "+col)
		}
		return append(stmts, g.indexStatements(table, def)...), nil
	}
}

func (g *Generator) postgresAlter(table string, f schema.FieldDescriptor) (string, error) {
	base := f
	base.AutoIncrement = false
	if base.Code == "R" {
		base.Code = "I"
	}
	typ, err := g.d.NativeType(base)
	if err != nil {
		return "", err
	}

	col := g.d.Quote(f.Name)
	actions := []string{"ALTER COLUMN " + col + " TYPE " + typ}
	if !f.AutoIncrement {
		if f.Default != nil {
			actions = append(actions, "ALTER COLUMN "+col+" SET DEFAULT "+g.defaultSQL(f))
		} else {
			actions = append(actions, "ALTER COLUMN "+col+" DROP DEFAULT")
		}
	}
	if f.NotNull {
		actions = append(actions, "ALTER COLUMN "+col+" SET NOT NULL")
	} else {
		actions = append(actions, "ALTER COLUMN "+col+" DROP NOT NULL")
	}
	return "ALTER TABLE " + g.d.Quote(table) + " " + strings.Join(actions, ", "), nil
}

func (g *Generator) rebuildTable(table string, changed *schema.TableDefinition, tableFields string) ([]string, error) {
	if strings.TrimSpace(tableFields) == "" {
		return nil, fmt.Errorf("%w: altering columns of %q on %s requires the full table definition",
			ErrMalformedDefinition, table, g.d.Name)
	}
	full, err := ParseTable(tableFields)
	if err != nil {
		return nil, err
	}
	for _, f := range changed.Fields {
		if _, ok := full.Field(f.Name); !ok {
			return nil, fmt.Errorf("%w: column %q is missing from the full definition of %q",
				ErrMalformedDefinition, f.Name, table)
		}
	}

	tmp := table + "__tmp"
	create, err := g.createStatement(tmp, full, TableOptions{})
	if err != nil {
		return nil, err
	}
	cols := g.quoteList(full.FieldNames())
	stmts := []string{
		create,
		"INSERT INTO " + g.d.Quote(tmp) + " (" + cols + ") SELECT " + cols + " FROM " + g.d.Quote(table),
		"DROP TABLE " + g.d.Quote(table),
		"ALTER TABLE " + g.d.Quote(tmp) + " RENAME TO " + g.d.Quote(table),
	}
	return append(stmts, g.indexStatements(table, full)...), nil
}

// DropColumn generates one ALTER TABLE per column
func (g *Generator) DropColumn(table string, columns ...string) []string {
	stmts := make([]string, 0, len(columns))
	for _, c := range columns {
		stmts = append(stmts, "ALTER TABLE "+g.d.Quote(table)+" DROP COLUMN "+g.d.Quote(strings.TrimSpace(c)))
	}
	return stmts
}

// RenameColumn renames a column. MySQL re-specifies the whole column, so
// fields must carry its complete definition there.
func (g *Generator) RenameColumn(table, oldName, newName, fields string) ([]string, error) {
	if g.d != MySQL {
		return []string{
			"ALTER TABLE " + g.d.Quote(table) + " RENAME COLUMN " + g.d.Quote(oldName) + " TO " + g.d.Quote(newName),
		}, nil
	}

	if strings.TrimSpace(fields) == "" {
		return nil, fmt.Errorf("%w: renaming %s.%s requires the full column definition", ErrMalformedDefinition, table, oldName)
	}
	parsed, err := ParseFields(fields)
	if err != nil {
		return nil, err
	}
	if len(parsed) != 1 {
		return nil, fmt.Errorf("%w: renaming %s.%s expects one column definition, got %d",
			ErrMalformedDefinition, table, oldName, len(parsed))
	}
	f := parsed[0]
	f.Name = newName
	col, err := g.columnSQL(f)
	if err != nil {
		return nil, err
	}
	return []string{"ALTER TABLE " + g.d.Quote(table) + " CHANGE COLUMN " + g.d.Quote(oldName) + " " + col}, nil
}

// DropTable drops a table
func (g *Generator) DropTable(table string) []string {
	return []string{"DROP TABLE " + g.d.Quote(table)}
}

// RenameTable renames a table
func (g *Generator) RenameTable(oldName, newName string) []string {
	if g.d == MySQL {
		return []string{"RENAME TABLE " + g.d.Quote(oldName) + " TO " + g.d.Quote(newName)}
	}
	return []string{"ALTER TABLE " + g.d.Quote(oldName) + " RENAME TO " + g.d.Quote(newName)}
}

// CreateIndex creates, drops or replaces an index depending on opts
func (g *Generator) CreateIndex(name, table string, columns []string, opts IndexOptions) []string {
	var stmts []string
	if opts.Drop || opts.Replace {
		if g.d == MySQL {
			stmts = append(stmts, "DROP INDEX "+g.d.Quote(name)+" ON "+g.d.Quote(table))
		} else {
			stmts = append(stmts, "DROP INDEX "+g.d.Quote(name))
		}
		if opts.Drop {
			return stmts
		}
	}

	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, g.indexColumn(c))
		}
	}

	unique := ""
	if opts.Unique {
		unique = "UNIQUE "
	}
	if g.d == MySQL {
		return append(stmts, "ALTER TABLE "+g.d.Quote(table)+" ADD "+unique+"INDEX "+g.d.Quote(name)+" ("+strings.Join(cols, ", ")+")")
	}
	return append(stmts, "CREATE "+unique+"INDEX "+g.d.Quote(name)+" ON "+g.d.Quote(table)+" ("+strings.Join(cols, ", ")+")")
}

// DropIndex drops an index
func (g *Generator) DropIndex(name, table string) []string {
	return g.CreateIndex(name, table, nil, IndexOptions{Drop: true})
}

// InsertData inserts one row; values is "(cols...) VALUES (...)"
func (g *Generator) InsertData(table, values string) []string {
	return []string{"INSERT INTO " + g.d.Quote(table) + " " + strings.TrimSpace(values)}
}

// ChangeTable brings table in line with fields given its live columns:
// missing columns are added, present ones altered and, with dropOld,
// columns absent from fields are dropped. A table without columns is created.
// SQLite leaves present columns untouched since it cannot alter them in place.
func (g *Generator) ChangeTable(table, fields string, existing []string, opts TableOptions, dropOld bool) ([]string, error) {
	def, err := ParseTable(fields)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return g.CreateTable(table, def, opts)
	}

	live := make(map[string]bool, len(existing))
	for _, c := range existing {
		live[strings.ToLower(c)] = true
	}

	var stmts []string
	for _, f := range def.Fields {
		if !live[strings.ToLower(f.Name)] {
			col, err := g.columnSQL(f)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, "ALTER TABLE "+g.d.Quote(table)+" ADD COLUMN "+col)
			continue
		}
		switch g.d {
		case SQLite:
		case Postgres:
			stmt, err := g.postgresAlter(table, f)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		default:
			col, err := g.columnSQL(f)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, "ALTER TABLE "+g.d.Quote(table)+" MODIFY COLUMN "+col)
		}
	}

	if dropOld {
		for _, c := range existing {
			if _, ok := def.Field(c); !ok {
				stmts = append(stmts, g.DropColumn(table, c)...)
			}
		}
	}
	return stmts, nil
}

// columnSQL renders one column clause
func (g *Generator) columnSQL(f schema.FieldDescriptor) (string, error) {
	typ, err := g.d.NativeType(f)
	if err != nil {
		return "", err
	}

	parts := []string{g.d.Quote(f.Name), typ}
	switch {
	case g.d == MySQL:
		if f.Unsigned {
			parts = append(parts, "UNSIGNED")
		}
		if f.NotNull {
			parts = append(parts, "NOT NULL")
		}
		if f.Default != nil {
			parts = append(parts, "DEFAULT "+g.defaultSQL(f))
		}
		if f.AutoIncrement {
			parts = append(parts, "AUTO_INCREMENT")
		}
	case f.AutoIncrement && g.d.inlineAuto:
		parts = append(parts, "NOT NULL PRIMARY KEY AUTOINCREMENT")
	default:
		if f.Default != nil && !f.AutoIncrement {
			parts = append(parts, "DEFAULT "+g.defaultSQL(f))
		}
		if f.NotNull {
			parts = append(parts, "NOT NULL")
		}
	}
	if f.Constraint != "" {
		parts = append(parts, f.Constraint)
	}
	return strings.Join(parts, " "), nil
}

func (g *Generator) defaultSQL(f schema.FieldDescriptor) string {
	v := *f.Default
	if f.DefaultRaw {
		return v
	}
	if f.Type.IsNumeric() {
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return v
		}
	}
	return QuoteString(v)
}

var prefixLength = regexp.MustCompile(`^(.*?)\s*\(\s*\d+\s*\)$`)

// indexColumn quotes an index column, keeping a MySQL prefix length and
// stripping it elsewhere
func (g *Generator) indexColumn(col string) string {
	m := prefixLength.FindStringSubmatch(col)
	if m == nil {
		return g.d.Quote(col)
	}
	if g.d == MySQL {
		return g.d.Quote(m[1]) + col[len(m[1]):]
	}
	return g.d.Quote(m[1])
}

func (g *Generator) quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = g.d.Quote(n)
	}
	return strings.Join(quoted, ", ")
}
