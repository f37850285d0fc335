//go:build integration
// +build integration

package integration

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/tordrt/datadict"
	"github.com/tordrt/datadict/internal/db"
	"github.com/tordrt/datadict/internal/migrate"
	"github.com/tordrt/datadict/internal/schema"
	"github.com/tordrt/datadict/internal/tracker"
)

// databaseURL returns the URL from env or the default test server
func databaseURL(env, fallback string) string {
	if url := os.Getenv(env); url != "" {
		return url
	}
	return fallback
}

// connect opens url and drops every table a previous run left behind
func connect(t *testing.T, url string) *db.Conn {
	t.Helper()
	ctx := context.Background()

	conn, err := datadict.Connect(ctx, url)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	tables, err := conn.Tables(ctx, false)
	if err != nil {
		t.Fatalf("Failed to list tables: %v", err)
	}
	dialect := conn.Dialect()
	for _, table := range tables {
		if strings.HasPrefix(table, "mantis_") || strings.HasPrefix(table, "datadict_") || strings.HasPrefix(table, "it_") {
			if _, err := conn.Execute(ctx, "DROP TABLE "+dialect.Quote(table)); err != nil {
				t.Fatalf("Failed to drop %s: %v", table, err)
			}
		}
	}
	conn.ResetCaches()
	return conn
}

// runTrackerInstall installs the tracker schema and checks what the database reports back
func runTrackerInstall(t *testing.T, conn *db.Conn) {
	t.Helper()
	ctx := context.Background()
	steps := tracker.Steps()

	report, err := datadict.Upgrade(ctx, conn, nil)
	if err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}
	if report.Last != len(steps)-1 {
		t.Errorf("Expected marker %d, got %d", len(steps)-1, report.Last)
	}

	s, err := datadict.Inspect(ctx, conn, &datadict.InspectOptions{RowCounts: true})
	if err != nil {
		t.Fatalf("Failed to inspect schema: %v", err)
	}

	verifyTablesExist(t, s, []string{
		"mantis_config_table", "mantis_bug_table", "mantis_bug_history_table", "mantis_bugnote_table",
		"mantis_project_table", "mantis_user_table", "mantis_tag_table", "mantis_bug_tag_table",
		"mantis_plugin_table", "mantis_category_table", "datadict_state",
	})
	verifyTablesMissing(t, s, []string{"mantis_project_category_table"})

	bug := findTable(s, "mantis_bug_table")
	if bug == nil {
		t.Fatal("Bug table not found")
	}
	verifyPrimaryKey(t, bug, []string{"id"})
	verifyColumns(t, bug, []string{"id", "project_id", "category_id", "target_version", "date_submitted", "last_updated", "summary"})

	verifyPrimaryKey(t, findTable(s, "mantis_config_table"), []string{"config_id", "project_id", "user_id"})
	verifyPrimaryKey(t, findTable(s, "mantis_bug_tag_table"), []string{"bug_id", "tag_id"})
	verifyColumns(t, findTable(s, "mantis_plugin_table"), []string{"basename", "enabled", "protected", "priority"})

	verifyIndex(t, s, "mantis_category_table", "idx_category_project_name", []string{"project_id", "name"})
	verifyIndex(t, s, "mantis_bugnote_table", "idx_last_mod", []string{"last_modified"})
	verifyIndex(t, s, "mantis_tag_table", "idx_tag_name", []string{"name"})

	category := findTable(s, "mantis_category_table")
	if category.RowCount == nil || *category.RowCount != 1 {
		t.Errorf("Expected the General category only, got %v rows", category.RowCount)
	}

	again, err := datadict.Upgrade(ctx, conn, nil)
	if err != nil {
		t.Fatalf("Second upgrade failed: %v", err)
	}
	if again.Applied() != 0 {
		t.Errorf("Expected second upgrade to apply nothing, applied %d", again.Applied())
	}
}

// runFailureResume checks that a failed step keeps the marker and a fixed list resumes there
func runFailureResume(t *testing.T, conn *db.Conn) {
	t.Helper()
	ctx := context.Background()
	tables := migrate.TableNames{Prefix: "it"}

	steps := []migrate.Step{
		{Op: migrate.CreateTable{Table: "{news}", Fields: "id I NOTNULL PRIMARY AUTOINCREMENT, headline C(64) NOTNULL DEFAULT ''"}},
		{Op: migrate.InsertData{Table: "{missing}", Values: "(x) VALUES (1)"}},
		{Op: migrate.AddColumn{Table: "{news}", Fields: "body XL"}},
	}
	opts := &datadict.Options{Steps: steps, Tables: &tables, StateTable: "it_state"}

	report, err := datadict.Upgrade(ctx, conn, opts)
	var stepErr *migrate.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Expected a step error, got %v", err)
	}
	if stepErr.Index != 1 || !errors.Is(err, datadict.ErrQueryFailed) {
		t.Errorf("Expected step 1 to fail with a query error, got %v", err)
	}
	if report.Last != 0 {
		t.Errorf("Expected marker 0 after failure, got %d", report.Last)
	}

	steps[1] = migrate.Step{Op: migrate.InsertData{Table: "{news}", Values: "(headline) VALUES ('hello')"}}
	report, err = datadict.Upgrade(ctx, conn, opts)
	if err != nil {
		t.Fatalf("Resumed upgrade failed: %v", err)
	}
	if report.From != 0 || report.Last != 2 {
		t.Errorf("Expected resume from 0 to 2, got %d to %d", report.From, report.Last)
	}

	res, err := conn.SelectLimit(ctx, "SELECT headline FROM it_news WHERE id > ?", 1, 0, 0)
	if err != nil {
		t.Fatalf("Failed to read back row: %v", err)
	}
	if got := res.Strings(0); len(got) != 1 || got[0] != "hello" {
		t.Errorf("Expected [hello], got %v", got)
	}
}

// verifyTablesExist checks that all expected tables are present in the schema
func verifyTablesExist(t *testing.T, s *schema.Schema, expectedTables []string) {
	t.Helper()

	for _, tableName := range expectedTables {
		if findTable(s, tableName) == nil {
			t.Errorf("Expected table %s not found in schema", tableName)
		}
	}
}

func verifyTablesMissing(t *testing.T, s *schema.Schema, tables []string) {
	t.Helper()

	for _, tableName := range tables {
		if findTable(s, tableName) != nil {
			t.Errorf("Table %s should have been dropped", tableName)
		}
	}
}

// verifyColumns checks that expected columns exist in a table
func verifyColumns(t *testing.T, table *schema.Table, expectedColumns []string) {
	t.Helper()

	if table == nil {
		t.Fatal("Table not found")
	}

	columnMap := make(map[string]bool)
	for _, col := range table.Columns {
		columnMap[col.Name] = true
	}

	for _, colName := range expectedColumns {
		if !columnMap[colName] {
			t.Errorf("Expected column %s not found in %s table", colName, table.Name)
		}
	}
}

// verifyPrimaryKey checks that a table has the expected primary key
func verifyPrimaryKey(t *testing.T, table *schema.Table, expectedPK []string) {
	t.Helper()

	if table == nil {
		t.Fatal("Table not found")
	}

	if len(table.PrimaryKey) != len(expectedPK) {
		t.Errorf("Expected primary key %v, got %v", expectedPK, table.PrimaryKey)
		return
	}

	for i, pk := range expectedPK {
		if table.PrimaryKey[i] != pk {
			t.Errorf("Expected primary key %v, got %v", expectedPK, table.PrimaryKey)
			return
		}
	}
}

// verifyIndex checks that an index exists with the expected columns
func verifyIndex(t *testing.T, s *schema.Schema, tableName, indexName string, expectedColumns []string) {
	t.Helper()

	table := findTable(s, tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
		return
	}

	for _, idx := range table.Indexes {
		if idx.Name == indexName {
			if len(idx.Columns) != len(expectedColumns) {
				t.Errorf("Expected index %s on %v, got %v", indexName, expectedColumns, idx.Columns)
				return
			}
			for i, col := range expectedColumns {
				if idx.Columns[i] != col {
					t.Errorf("Expected index %s on %v, got %v", indexName, expectedColumns, idx.Columns)
					return
				}
			}
			return
		}
	}

	t.Errorf("Expected index %s on %s table not found", indexName, tableName)
}

// findTable is a helper function to find a table by name in the schema
func findTable(s *schema.Schema, tableName string) *schema.Table {
	for i := range s.Tables {
		if s.Tables[i].Name == tableName {
			return &s.Tables[i]
		}
	}
	return nil
}
