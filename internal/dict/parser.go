package dict

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/tordrt/datadict/internal/schema"
)

var definitionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:[^']|'')*'|"(?:[^"]|"")*"|` + "`[^`]*`"},
	{Name: "Punct", Pattern: `[,()]`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Word", Pattern: `[^\s,()'"` + "`" + `]+`},
})

var (
	stringToken     = definitionLexer.Symbols()["String"]
	punctToken      = definitionLexer.Symbols()["Punct"]
	whitespaceToken = definitionLexer.Symbols()["Whitespace"]
)

// modifierKeywords are the tokens that may follow a field's type
var modifierKeywords = map[string]bool{
	"NOTNULL":       true,
	"NULL":          true,
	"DEFAULT":       true,
	"DEF":           true,
	"PRIMARY":       true,
	"KEY":           true,
	"UNSIGNED":      true,
	"AUTOINCREMENT": true,
	"AUTO":          true,
	"INDEX":         true,
	"UNIQUE":        true,
	"CONSTRAINT":    true,
	"NOQUOTE":       true,
	"DEFTIMESTAMP":  true,
}

// ParseFields parses a comma separated list of "NAME TYPE [modifiers...]" clauses
func ParseFields(text string) ([]schema.FieldDescriptor, error) {
	clauses, err := splitClauses(text)
	if err != nil {
		return nil, err
	}

	fields := make([]schema.FieldDescriptor, 0, len(clauses))
	seen := make(map[string]bool)
	for _, clause := range clauses {
		f, err := parseField(clause)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(f.Name)
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrMalformedDefinition, f.Name)
		}
		seen[key] = true
		fields = append(fields, f)
	}
	return fields, nil
}

// ParseTable parses a full table definition and derives its primary key and indexes
func ParseTable(text string) (*schema.TableDefinition, error) {
	fields, err := ParseFields(text)
	if err != nil {
		return nil, err
	}
	return NewTableDefinition(fields)
}

// NewTableDefinition validates fields as one table and derives its keys
func NewTableDefinition(fields []schema.FieldDescriptor) (*schema.TableDefinition, error) {
	def := &schema.TableDefinition{
		Fields:  fields,
		Indexes: make(map[string]schema.Index),
	}

	var auto []string
	for _, f := range fields {
		if f.AutoIncrement {
			if !f.PrimaryKey {
				return nil, fmt.Errorf("%w: autoincrement field %q is not a primary key", ErrMalformedDefinition, f.Name)
			}
			auto = append(auto, f.Name)
		}
		if f.PrimaryKey {
			def.PrimaryKey = append(def.PrimaryKey, f.Name)
		}
		if f.IndexName != nil {
			idx, ok := def.Indexes[*f.IndexName]
			if !ok {
				idx.Name = *f.IndexName
				def.IndexNames = append(def.IndexNames, idx.Name)
			}
			idx.Columns = append(idx.Columns, f.Name)
			idx.IsUnique = idx.IsUnique || f.Unique
			def.Indexes[idx.Name] = idx
		}
	}
	if len(auto) > 1 {
		return nil, fmt.Errorf("%w: more than one autoincrement field (%s)", ErrMalformedDefinition, strings.Join(auto, ", "))
	}
	return def, nil
}

// splitClauses tokenizes text and splits it on commas outside quotes and parentheses
func splitClauses(text string) ([][]lexer.Token, error) {
	lex, err := definitionLexer.LexString("", text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDefinition, err)
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDefinition, err)
	}

	var (
		clauses [][]lexer.Token
		current []lexer.Token
		depth   int
	)
	for _, tok := range tokens {
		if tok.EOF() || tok.Type == whitespaceToken {
			continue
		}
		if tok.Type == punctToken {
			switch tok.Value {
			case "(":
				depth++
			case ")":
				depth--
				if depth < 0 {
					return nil, fmt.Errorf("%w: unbalanced ')' at offset %d", ErrMalformedDefinition, tok.Pos.Offset)
				}
			case ",":
				if depth == 0 {
					if len(current) > 0 {
						clauses = append(clauses, current)
					}
					current = nil
					continue
				}
			}
		}
		current = append(current, tok)
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced '('", ErrMalformedDefinition)
	}
	if len(current) > 0 {
		clauses = append(clauses, current)
	}
	return clauses, nil
}

func parseField(clause []lexer.Token) (schema.FieldDescriptor, error) {
	var f schema.FieldDescriptor

	if clause[0].Type == punctToken {
		return f, fmt.Errorf("%w: field has no name near offset %d", ErrMalformedDefinition, clause[0].Pos.Offset)
	}
	f.Name = unquote(clause[0])
	if len(clause) < 2 || clause[1].Type == punctToken || clause[1].Type == stringToken {
		return f, fmt.Errorf("%w: field %q has no type", ErrMalformedDefinition, f.Name)
	}

	f.Code = strings.ToUpper(clause[1].Value)
	t, err := LookupCode(f.Code)
	if err != nil {
		return f, fmt.Errorf("field %q: %w", f.Name, err)
	}
	f.Type = t
	if f.Code == "R" {
		f.AutoIncrement = true
		f.PrimaryKey = true
		f.NotNull = true
	}

	rest := clause[2:]
	if len(rest) > 0 && rest[0].Type == punctToken && rest[0].Value == "(" {
		n, err := parseSize(&f, rest)
		if err != nil {
			return f, err
		}
		rest = rest[n:]
	}

	if f.Type == schema.Char && f.Size == nil {
		return f, fmt.Errorf("%w: char field %q requires a size", ErrMalformedDefinition, f.Name)
	}
	if f.Type.IsLarge() && f.Size != nil {
		return f, fmt.Errorf("%w: %s field %q does not take a size", ErrMalformedDefinition, f.Type, f.Name)
	}

	noQuote, null := false, false
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		if tok.Type != stringToken && tok.Type != punctToken {
			switch strings.ToUpper(tok.Value) {
			case "NOTNULL":
				f.NotNull = true
				continue
			case "NULL":
				f.NotNull = false
				null = true
				continue
			case "PRIMARY", "KEY":
				f.PrimaryKey = true
				f.NotNull = true
				continue
			case "UNSIGNED":
				f.Unsigned = true
				continue
			case "AUTOINCREMENT", "AUTO":
				f.AutoIncrement = true
				f.NotNull = true
				continue
			case "UNIQUE":
				f.Unique = true
				continue
			case "NOQUOTE":
				noQuote = true
				continue
			case "DEFTIMESTAMP":
				ts := "CURRENT_TIMESTAMP"
				f.Default = &ts
				f.DefaultRaw = true
				continue
			case "DEFAULT", "DEF":
				if i+1 >= len(rest) || rest[i+1].Type == punctToken {
					return f, fmt.Errorf("%w: DEFAULT without a value on field %q", ErrMalformedDefinition, f.Name)
				}
				i++
				v := unquote(rest[i])
				f.Default = &v
				f.DefaultRaw = rest[i].Type != stringToken && strings.EqualFold(v, "NULL")
				continue
			case "CONSTRAINT":
				if i+1 >= len(rest) || rest[i+1].Type == punctToken {
					return f, fmt.Errorf("%w: CONSTRAINT without a value on field %q", ErrMalformedDefinition, f.Name)
				}
				i++
				f.Constraint = unquote(rest[i])
				continue
			case "INDEX":
				name := "idx_" + f.Name
				if i+1 < len(rest) && rest[i+1].Type != punctToken &&
					(rest[i+1].Type == stringToken || !modifierKeywords[strings.ToUpper(rest[i+1].Value)]) {
					i++
					name = unquote(rest[i])
				}
				f.IndexName = &name
				continue
			}
		}
		return f, fmt.Errorf("%w: unknown modifier %q on field %q", ErrMalformedDefinition, tok.Value, f.Name)
	}

	if noQuote && f.Default != nil {
		f.DefaultRaw = true
	}
	if f.Unique && f.IndexName == nil {
		name := "idx_" + f.Name
		f.IndexName = &name
	}
	if null && (f.PrimaryKey || f.AutoIncrement) {
		return f, fmt.Errorf("%w: key field %q cannot be NULL", ErrMalformedDefinition, f.Name)
	}
	if f.AutoIncrement && !f.PrimaryKey {
		return f, fmt.Errorf("%w: autoincrement field %q must be a primary key", ErrMalformedDefinition, f.Name)
	}
	return f, nil
}

// parseSize reads "(size[,precision])" and returns the number of tokens consumed
func parseSize(f *schema.FieldDescriptor, toks []lexer.Token) (int, error) {
	var nums []int
	i := 1
	for ; i < len(toks); i++ {
		tok := toks[i]
		if tok.Type == punctToken {
			if tok.Value == ")" {
				break
			}
			if tok.Value == "," {
				continue
			}
		}
		n, err := strconv.Atoi(tok.Value)
		if err != nil || tok.Type == stringToken || n < 0 {
			return 0, fmt.Errorf("%w: invalid size %q on field %q", ErrMalformedDefinition, tok.Value, f.Name)
		}
		nums = append(nums, n)
	}
	if i == len(toks) || len(nums) == 0 || len(nums) > 2 {
		return 0, fmt.Errorf("%w: invalid size on field %q", ErrMalformedDefinition, f.Name)
	}
	f.Size = &nums[0]
	if len(nums) == 2 {
		f.Precision = &nums[1]
	}
	return i + 1, nil
}

func unquote(tok lexer.Token) string {
	v := tok.Value
	if tok.Type != stringToken || len(v) < 2 {
		return v
	}
	q := v[:1]
	v = v[1 : len(v)-1]
	if q != "`" {
		v = strings.ReplaceAll(v, q+q, q)
	}
	return v
}
