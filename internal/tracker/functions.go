package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tordrt/datadict/internal/db"
	"github.com/tordrt/datadict/internal/migrate"
)

// Functions returns the update functions the upgrade list refers to
func Functions() migrate.Functions {
	return migrate.Functions{
		"do_nothing":       migrate.DoNothing,
		"date_migrate":     DateMigrate,
		"category_migrate": CategoryMigrate,
	}
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// unixTime converts a stored date to a unix timestamp. Dates that were
// never set become 1.
func unixTime(v any) int64 {
	var t time.Time
	switch x := v.(type) {
	case nil:
		return 1
	case time.Time:
		t = x
	default:
		s := strings.TrimSpace(db.AsString(v))
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t = parsed
				break
			}
		}
		if t.IsZero() {
			if n, ok := db.AsInt64(v); ok && n > 1 {
				return n
			}
			return 1
		}
	}
	if ts := t.Unix(); ts > 1 {
		return ts
	}
	return 1
}

func splitColumns(s string) []string {
	var cols []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// DateMigrate copies date columns into integer timestamp columns.
// Args: table, key column, comma separated source columns, comma separated
// target columns.
func DateMigrate(ctx context.Context, env migrate.Env, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("date_migrate expects table, key, source and target columns, got %d arguments", len(args))
	}
	table, key := env.Table(args[0]), args[1]
	from, to := splitColumns(args[2]), splitColumns(args[3])
	if len(from) == 0 || len(from) != len(to) {
		return fmt.Errorf("date_migrate: %d source columns for %d targets", len(from), len(to))
	}

	d := env.Conn.Dialect()
	quoted := make([]string, 0, len(from)+1)
	quoted = append(quoted, d.Quote(key))
	for _, c := range from {
		quoted = append(quoted, d.Quote(c))
	}
	res, err := env.Conn.Execute(ctx, "SELECT "+strings.Join(quoted, ", ")+" FROM "+d.Quote(table))
	if err != nil {
		return err
	}

	sets := make([]string, len(to))
	for i, c := range to {
		sets[i] = d.Quote(c) + " = ?"
	}
	update := "UPDATE " + d.Quote(table) + " SET " + strings.Join(sets, ", ") + " WHERE " + d.Quote(key) + " = ?"

	for i := 0; i < res.RecordCount(); i++ {
		params := make([]any, 0, len(to)+1)
		for j := range from {
			params = append(params, unixTime(res.Value(i, j+1)))
		}
		params = append(params, res.Value(i, 0))
		if _, err := env.Conn.Execute(ctx, update, params...); err != nil {
			return err
		}
	}
	return nil
}

// CategoryMigrate moves per-project category names into the category table
// and points every bug at the matching category row
func CategoryMigrate(ctx context.Context, env migrate.Env, _ []string) error {
	d := env.Conn.Dialect()
	category := d.Quote(env.Table("{category}"))
	bug := d.Quote(env.Table("{bug}"))

	res, err := env.Conn.Execute(ctx,
		"SELECT project_id, category, user_id FROM "+d.Quote(env.Table("{project_category}"))+" ORDER BY project_id, category")
	if err != nil {
		return err
	}

	for i := 0; i < res.RecordCount(); i++ {
		row := res.Row(i)
		name := db.AsString(row["category"])

		if _, err := env.Conn.Execute(ctx,
			"INSERT INTO "+category+" (project_id, user_id, name, status) VALUES (?, ?, ?, ?)",
			row["project_id"], row["user_id"], name, 0); err != nil {
			return err
		}
		id, ok := env.Conn.InsertID(ctx, env.Table("{category}"))
		if !ok {
			return fmt.Errorf("no id generated for category %q", name)
		}

		if _, err := env.Conn.Execute(ctx,
			"UPDATE "+bug+" SET category_id = ? WHERE project_id = ? AND category = ?",
			id, row["project_id"], name); err != nil {
			return err
		}
	}
	return nil
}
