package schema

import "strings"

// PortableType is a column type independent of any database dialect
type PortableType int

const (
	Char PortableType = iota + 1
	Text
	LongText
	Int
	SmallInt
	BigInt
	Timestamp
	Date
	Boolean
	Blob
)

var typeNames = map[PortableType]string{
	Char:      "Char",
	Text:      "Text",
	LongText:  "LongText",
	Int:       "Int",
	SmallInt:  "SmallInt",
	BigInt:    "BigInt",
	Timestamp: "Timestamp",
	Date:      "Date",
	Boolean:   "Boolean",
	Blob:      "Blob",
}

func (t PortableType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// IsLarge reports whether the type is a large text or binary type that never takes a size
func (t PortableType) IsLarge() bool {
	return t == Text || t == LongText || t == Blob
}

// IsNumeric reports whether values of the type are rendered as bare numbers
func (t PortableType) IsNumeric() bool {
	switch t {
	case Int, SmallInt, BigInt, Boolean:
		return true
	}
	return false
}

// FieldDescriptor describes one column parsed from the definition language
type FieldDescriptor struct {
	Name          string
	Type          PortableType
	Code          string // portable code as written, e.g. "C" or "I2"
	Size          *int
	Precision     *int
	NotNull       bool
	PrimaryKey    bool
	AutoIncrement bool
	Unsigned      bool
	Default       *string
	DefaultRaw    bool // emit Default verbatim
	IndexName     *string
	Unique        bool
	Constraint    string
}

// TableDefinition is an ordered list of fields plus the keys derived from them
type TableDefinition struct {
	Fields     []FieldDescriptor
	PrimaryKey []string
	Indexes    map[string]Index
	IndexNames []string // index names in order of first appearance
}

// Field returns the field with the given name (case-insensitive)
func (d *TableDefinition) Field(name string) (FieldDescriptor, bool) {
	for _, f := range d.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// FieldNames returns the column names in definition order
func (d *TableDefinition) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Schema represents a snapshot of a live database schema
type Schema struct {
	Tables []Table
}

// Table represents a database table
type Table struct {
	Name       string
	Columns    []Column
	Indexes    []Index
	PrimaryKey []string
	RowCount   *int64
}

// Column represents a table column
type Column struct {
	Name         string
	Type         string
	Nullable     bool
	DefaultValue *string
}

// Index represents a database index
type Index struct {
	Name     string
	Columns  []string
	IsUnique bool
}
