package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/datadict/internal/tracker"
)

// execute runs the CLI in a clean directory without any config file
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	return "sqlite://" + filepath.Join(dir, "bugtracker.db")
}

func TestUpgradeStatusInspect(t *testing.T) {
	url := isolate(t)
	last := len(tracker.Steps()) - 1

	out, err := execute(t, "upgrade", "--db-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("Applied %d step(s), schema at step %d of %d", last+1, last, last))

	out, err = execute(t, "upgrade", "--db-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date")

	out, err = execute(t, "status", "--db-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("Step:     %d of %d\n", last, last))
	assert.Contains(t, out, "Pending:  0\n")
	assert.NotContains(t, out, "Warning")

	out, err = execute(t, "inspect", "--db-url", url, "-t", "mantis_category_table", "--row-counts")
	require.NoError(t, err)
	assert.Contains(t, out, "TABLE mantis_category_table (PK: id) [1 rows]")

	out, err = execute(t, "inspect", "--db-url", url, "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "## mantis_bug_table")
	assert.NotContains(t, out, "datadict_state")

	out, err = execute(t, "stats", "--db-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Driver:  sqlite")
	assert.Contains(t, out, "mantis_plugin_table")
}

func TestUpgradeDryRun(t *testing.T) {
	url := isolate(t)
	require.NoError(t, os.WriteFile("steps.yaml", []byte(`
steps:
  - op: CreateTableSQL
    table: "{news}"
    fields: "id I NOTNULL PRIMARY AUTOINCREMENT, headline C(64) NOTNULL DEFAULT ''"
  - op: UpdateFunction
    function: do_nothing
`), 0o644))

	out, err := execute(t, "upgrade", "--db-url", url, "--file", "steps.yaml", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "-- step 0: ")
	assert.Contains(t, out, "CREATE TABLE mantis_news_table (\n")
	assert.Contains(t, out, "-- step 1: ")
	assert.Contains(t, out, "(runs update function do_nothing)")

	out, err = execute(t, "status", "--db-url", url, "--file", "steps.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Step:     -1 of 1\n")
	assert.Contains(t, out, "Pending:  2\n")
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no database", args: []string{"status"}},
		{name: "unknown scheme", args: []string{"stats", "--db-url", "oracle://localhost/xe"}},
		{name: "output and output-dir", args: []string{"inspect", "--db-url", "sqlite://:memory:", "-o", "out.txt", "-d", "out"}},
		{name: "missing step file", args: []string{"upgrade", "--db-url", "sqlite://:memory:", "--file", "missing.yaml"}},
		{name: "unknown dialect", args: []string{"ddl", "--dialect", "oracle", "t", "id I"}},
		{name: "bad definition", args: []string{"ddl", "t", "id Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestDDL(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "sqlite create",
			args: []string{"ddl", "--dialect", "sqlite", "tag", "id I NOTNULL PRIMARY AUTOINCREMENT, name C(100) NOTNULL DEFAULT ''"},
			want: "CREATE TABLE tag (\n  id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,\n  name VARCHAR(100) DEFAULT '' NOT NULL\n);\n",
		},
		{
			name: "sqlite add column",
			args: []string{"ddl", "--dialect", "sqlite", "--add", "tag", "color C(7) NOTNULL DEFAULT ''"},
			want: "ALTER TABLE tag ADD COLUMN color VARCHAR(7) DEFAULT '' NOT NULL;\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "", want: nil},
		{input: "bug", want: []string{"bug"}},
		{input: " bug , bugnote,,", want: []string{"bug", "bugnote"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, splitList(tt.input))
		})
	}
}
