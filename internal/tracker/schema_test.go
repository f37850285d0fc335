package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/datadict/internal/db"
	"github.com/tordrt/datadict/internal/migrate"
)

func openMemory(t *testing.T) *db.Conn {
	t.Helper()
	c, err := db.Open(context.Background(), db.Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func indexOf(t *testing.T, steps []migrate.Step, function string) int {
	t.Helper()
	for i, s := range steps {
		if uf, ok := s.Op.(migrate.UpdateFunction); ok && uf.Function == function {
			return i
		}
	}
	t.Fatalf("no %s step", function)
	return -1
}

func newRunner(c *db.Conn) *migrate.Runner {
	return migrate.NewRunner(c, migrate.WithTables(DefaultTables), migrate.WithFunctions(Functions()))
}

func TestInstallFromScratch(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)
	r := newRunner(c)
	steps := Steps()

	report, err := r.Run(ctx, steps)
	require.NoError(t, err)
	assert.Equal(t, len(steps)-1, report.Last)

	cols, err := c.Columns(ctx, "mantis_bug_table", false)
	require.NoError(t, err)
	assert.Contains(t, cols, "category_id")
	assert.Contains(t, cols, "target_version")
	assert.Contains(t, cols, "date_submitted")
	assert.NotContains(t, cols, "category")
	assert.NotContains(t, cols, "date_submitted_int")

	ok, err := c.TableExists(ctx, "mantis_project_category_table")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.IndexExists(ctx, "mantis_project_table", "idx_project_id")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.IndexExists(ctx, "mantis_bugnote_table", "idx_last_mod")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IndexExists(ctx, "mantis_bug_history_table", "idx_bug_history_bug_id")
	require.NoError(t, err)
	assert.True(t, ok)

	plugin, err := c.Columns(ctx, "mantis_plugin_table", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"basename", "enabled", "protected", "priority"}, plugin)

	res, err := c.Execute(ctx, "SELECT name FROM mantis_category_table")
	require.NoError(t, err)
	assert.Equal(t, []string{"General"}, res.Strings(0))

	again, err := r.Run(ctx, steps)
	require.NoError(t, err)
	assert.Empty(t, again.Steps)

	status, err := r.Status(ctx, steps)
	require.NoError(t, err)
	assert.Zero(t, status.Pending)
	assert.False(t, status.Drift)
}

func TestUpgradeMigratesData(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)
	r := newRunner(c)
	steps := Steps()

	_, err := r.Run(ctx, steps[:indexOf(t, steps, "category_migrate")])
	require.NoError(t, err)

	_, err = c.Execute(ctx, "INSERT INTO mantis_project_category_table (project_id, category, user_id) VALUES (?, ?, ?)", 1, "crash", 0)
	require.NoError(t, err)
	_, err = c.Execute(ctx,
		"INSERT INTO mantis_bug_table (project_id, category, summary, date_submitted) VALUES (?, ?, ?, ?)",
		1, "crash", "segfault on start", "2009-02-13 23:31:30")
	require.NoError(t, err)
	_, err = c.Execute(ctx, "INSERT INTO mantis_bug_table (project_id, summary) VALUES (?, ?)", 2, "typo")
	require.NoError(t, err)

	_, err = r.Run(ctx, steps)
	require.NoError(t, err)

	res, err := c.Execute(ctx, "SELECT summary, category_id, date_submitted, due_date FROM mantis_bug_table ORDER BY id")
	require.NoError(t, err)
	require.Equal(t, 2, res.RecordCount())

	first := res.Row(0)
	categoryID, ok := db.AsInt64(first["category_id"])
	require.True(t, ok)
	assert.Equal(t, int64(2), categoryID)
	submitted, ok := db.AsInt64(first["date_submitted"])
	require.True(t, ok)
	assert.Equal(t, int64(1234567890), submitted)

	second := res.Row(1)
	categoryID, ok = db.AsInt64(second["category_id"])
	require.True(t, ok)
	assert.Equal(t, int64(1), categoryID)
	due, ok := db.AsInt64(second["due_date"])
	require.True(t, ok)
	assert.Equal(t, int64(1), due)
}

func TestUnixTime(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{name: "nil", in: nil, want: 1},
		{name: "time value", in: time.Unix(1234567890, 0), want: 1234567890},
		{name: "datetime string", in: "2009-02-13 23:31:30", want: 1234567890},
		{name: "rfc3339 string", in: "2009-02-13T23:31:30Z", want: 1234567890},
		{name: "null date", in: "1970-01-01 00:00:01", want: 1},
		{name: "zero mysql date", in: "0000-00-00 00:00:00", want: 1},
		{name: "already numeric", in: int64(1700000000), want: 1700000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unixTime(tt.in))
		})
	}
}

func TestDateMigrateArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "too few", args: []string{"{bug}", "id"}},
		{name: "mismatched columns", args: []string{"{bug}", "id", "a,b", "a_int"}},
		{name: "no columns", args: []string{"{bug}", "id", "", ""}},
	}

	c := openMemory(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DateMigrate(context.Background(), migrate.Env{Conn: c, Tables: DefaultTables}, tt.args)
			assert.Error(t, err)
		})
	}
}
