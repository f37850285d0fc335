package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/datadict/internal/schema"
)

func TestParseFields(t *testing.T) {
	fields, err := ParseFields("id I UNSIGNED NOTNULL PRIMARY AUTOINCREMENT, name C(64) NOTNULL DEFAULT ''")
	require.NoError(t, err)
	require.Len(t, fields, 2)

	id := fields[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, schema.Int, id.Type)
	assert.True(t, id.Unsigned)
	assert.True(t, id.NotNull)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.AutoIncrement)
	assert.Nil(t, id.Default)

	name := fields[1]
	assert.Equal(t, schema.Char, name.Type)
	require.NotNil(t, name.Size)
	assert.Equal(t, 64, *name.Size)
	require.NotNil(t, name.Default)
	assert.Equal(t, "", *name.Default)
	assert.False(t, name.DefaultRaw)
}

func TestParseFieldsModifiers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, f schema.FieldDescriptor)
	}{
		{
			name:  "quoted default keeps commas and keywords",
			input: "summary C(128) DEFAULT 'a, b PRIMARY'",
			check: func(t *testing.T, f schema.FieldDescriptor) {
				require.NotNil(t, f.Default)
				assert.Equal(t, "a, b PRIMARY", *f.Default)
				assert.False(t, f.PrimaryKey)
			},
		},
		{
			name:  "escaped quote in default",
			input: "note C(20) DEF 'it''s'",
			check: func(t *testing.T, f schema.FieldDescriptor) {
				assert.Equal(t, "it's", *f.Default)
			},
		},
		{
			name:  "bare index",
			input: "project_id I INDEX",
			check: func(t *testing.T, f schema.FieldDescriptor) {
				require.NotNil(t, f.IndexName)
				assert.Equal(t, "idx_project_id", *f.IndexName)
			},
		},
		{
			name:  "named index",
			input: "project_id I INDEX idx_project",
			check: func(t *testing.T, f schema.FieldDescriptor) {
				assert.Equal(t, "idx_project", *f.IndexName)
			},
		},
		{
			name:  "index followed by modifier",
			input: "project_id I INDEX NOTNULL",
			check: func(t *testing.T, f schema.FieldDescriptor) {
				assert.Equal(t, "idx_project_id", *f.IndexName)
				assert.True(t, f.NotNull)
			},
		},
		{
			name:  "quoted name",
			input: "`user name` C(32)",
			check: func(t *testing.T, f schema.FieldDescriptor) {
				assert.Equal(t, "user name", f.Name)
			},
		},
		{
			name:  "size with precision",
			input: "amount I8(12, 2)",
			check: func(t *testing.T, f schema.FieldDescriptor) {
				assert.Equal(t, 12, *f.Size)
				assert.Equal(t, 2, *f.Precision)
			},
		},
		{
			name:  "null default is raw",
			input: "closed T DEFAULT NULL",
			check: func(t *testing.T, f schema.FieldDescriptor) {
				assert.Equal(t, "NULL", *f.Default)
				assert.True(t, f.DefaultRaw)
			},
		},
		{
			name:  "noquote default",
			input: "updated D DEFAULT CURRENT_DATE NOQUOTE",
			check: func(t *testing.T, f schema.FieldDescriptor) {
				assert.Equal(t, "CURRENT_DATE", *f.Default)
				assert.True(t, f.DefaultRaw)
			},
		},
		{
			name:  "deftimestamp",
			input: "created T NOTNULL DEFTIMESTAMP",
			check: func(t *testing.T, f schema.FieldDescriptor) {
				assert.Equal(t, "CURRENT_TIMESTAMP", *f.Default)
				assert.True(t, f.DefaultRaw)
			},
		},
		{
			name:  "R is an autoincrement primary key",
			input: "id R",
			check: func(t *testing.T, f schema.FieldDescriptor) {
				assert.Equal(t, schema.Int, f.Type)
				assert.True(t, f.AutoIncrement)
				assert.True(t, f.PrimaryKey)
				assert.True(t, f.NotNull)
			},
		},
		{
			name:  "modifiers are case insensitive",
			input: "flag l notnull default 1",
			check: func(t *testing.T, f schema.FieldDescriptor) {
				assert.Equal(t, schema.Boolean, f.Type)
				assert.True(t, f.NotNull)
				assert.Equal(t, "1", *f.Default)
			},
		},
		{
			name:  "constraint value",
			input: "email C(64) CONSTRAINT 'CHECK (email <> '''')'",
			check: func(t *testing.T, f schema.FieldDescriptor) {
				assert.Equal(t, "CHECK (email <> '')", f.Constraint)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := ParseFields(tt.input)
			require.NoError(t, err)
			require.Len(t, fields, 1)
			tt.check(t, fields[0])
		})
	}
}

func TestParseFieldsErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "missing type", input: "id", wantErr: ErrMalformedDefinition},
		{name: "unknown modifier", input: "id I NOTNUL", wantErr: ErrMalformedDefinition},
		{name: "unknown type", input: "id Z", wantErr: ErrUnknownPortableType},
		{name: "char without size", input: "name C", wantErr: ErrMalformedDefinition},
		{name: "text with size", input: "body X(10)", wantErr: ErrMalformedDefinition},
		{name: "blob with size", input: "data B(10)", wantErr: ErrMalformedDefinition},
		{name: "default without value", input: "n I DEFAULT", wantErr: ErrMalformedDefinition},
		{name: "unterminated quote", input: "n C(3) DEFAULT 'abc", wantErr: ErrMalformedDefinition},
		{name: "unbalanced paren", input: "n C(3", wantErr: ErrMalformedDefinition},
		{name: "duplicate field", input: "a I, A I", wantErr: ErrMalformedDefinition},
		{name: "autoincrement without primary", input: "id I AUTOINCREMENT", wantErr: ErrMalformedDefinition},
		{name: "bad size", input: "name C(x)", wantErr: ErrMalformedDefinition},
		{name: "null after primary", input: "id I AUTOINCREMENT PRIMARY NULL", wantErr: ErrMalformedDefinition},
		{name: "null before primary", input: "id I NULL PRIMARY", wantErr: ErrMalformedDefinition},
		{name: "null serial", input: "id R NULL", wantErr: ErrMalformedDefinition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFields(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseTable(t *testing.T) {
	def, err := ParseTable(`
		id I NOTNULL PRIMARY AUTOINCREMENT,
		project_id I NOTNULL DEFAULT '0' INDEX idx_project_name,
		name C(128) NOTNULL INDEX idx_project_name UNIQUE,
		status I2 INDEX`)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "project_id", "name", "status"}, def.FieldNames())
	assert.Equal(t, []string{"id"}, def.PrimaryKey)
	assert.Equal(t, []string{"idx_project_name", "idx_status"}, def.IndexNames)

	idx := def.Indexes["idx_project_name"]
	assert.Equal(t, []string{"project_id", "name"}, idx.Columns)
	assert.True(t, idx.IsUnique)
	assert.False(t, def.Indexes["idx_status"].IsUnique)
}

func TestParseTableRejectsMultipleAutoIncrement(t *testing.T) {
	_, err := ParseTable("a I PRIMARY AUTOINCREMENT, b I PRIMARY AUTOINCREMENT")
	assert.ErrorIs(t, err, ErrMalformedDefinition)
}
