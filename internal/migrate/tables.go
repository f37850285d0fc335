package migrate

import "regexp"

// TableNames maps logical table names written as {name} to physical ones
type TableNames struct {
	Prefix string
	Suffix string
}

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Table returns the physical name of a logical table
func (t TableNames) Table(name string) string {
	if t.Prefix != "" {
		name = t.Prefix + "_" + name
	}
	return name + t.Suffix
}

// Resolve replaces every {name} in s with the physical table name
func (t TableNames) Resolve(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		return t.Table(m[1 : len(m)-1])
	})
}
