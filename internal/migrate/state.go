package migrate

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tordrt/datadict/internal/db"
	"github.com/tordrt/datadict/internal/dict"
)

// DefaultStateTable holds the progress marker
const DefaultStateTable = "datadict_state"

const stateFields = `
	id I NOTNULL PRIMARY,
	step I NOTNULL DEFAULT '-1',
	run_id C(36) NOTNULL DEFAULT '',
	checksum C(64) NOTNULL DEFAULT '',
	updated_at I8 NOTNULL DEFAULT 0`

// State is the persisted progress of a migration list
type State struct {
	// Step is the index of the last applied step, -1 when nothing ran
	Step      int
	RunID     string
	Checksum  string
	UpdatedAt time.Time
}

type stateStore struct {
	conn  *db.Conn
	gen   *dict.Generator
	table string
}

func (s *stateStore) exists(ctx context.Context) (bool, error) {
	tables, err := s.conn.Tables(ctx, false)
	if err != nil {
		return false, fmt.Errorf("failed to list tables: %w", err)
	}
	return slices.Contains(tables, strings.ToLower(s.table)), nil
}

func (s *stateStore) load(ctx context.Context) (State, error) {
	none := State{Step: -1}
	ok, err := s.exists(ctx)
	if err != nil || !ok {
		return none, err
	}

	res, err := s.conn.Execute(ctx,
		"SELECT step, run_id, checksum, updated_at FROM "+s.gen.Dialect().Quote(s.table)+" WHERE id = ?", 1)
	if err != nil {
		return none, fmt.Errorf("failed to read migration state: %w", err)
	}
	if res.RecordCount() == 0 {
		return none, nil
	}

	row := res.Row(0)
	step, ok := db.AsInt64(row["step"])
	if !ok {
		return none, fmt.Errorf("invalid migration marker %v", row["step"])
	}
	st := State{
		Step:     int(step),
		RunID:    db.AsString(row["run_id"]),
		Checksum: db.AsString(row["checksum"]),
	}
	if ts, ok := db.AsInt64(row["updated_at"]); ok && ts > 0 {
		st.UpdatedAt = time.Unix(ts, 0).UTC()
	}
	return st, nil
}

func (s *stateStore) save(ctx context.Context, st State) error {
	ok, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		stmts, err := s.gen.CreateTableSQL(s.table, stateFields, dict.TableOptions{})
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			if _, err := s.conn.Execute(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create migration state table: %w", err)
			}
		}
		s.conn.ResetCaches()
	}

	table := s.gen.Dialect().Quote(s.table)
	res, err := s.conn.Execute(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", 1)
	if err != nil {
		return fmt.Errorf("failed to read migration state: %w", err)
	}
	v, _ := res.Scalar()
	n, _ := db.AsInt64(v)

	ts := st.UpdatedAt.Unix()
	if n == 0 {
		_, err = s.conn.Execute(ctx,
			"INSERT INTO "+table+" (id, step, run_id, checksum, updated_at) VALUES (?, ?, ?, ?, ?)",
			1, st.Step, st.RunID, st.Checksum, ts)
	} else {
		_, err = s.conn.Execute(ctx,
			"UPDATE "+table+" SET step = ?, run_id = ?, checksum = ?, updated_at = ? WHERE id = ?",
			st.Step, st.RunID, st.Checksum, ts, 1)
	}
	if err != nil {
		return fmt.Errorf("failed to save migration state: %w", err)
	}
	return nil
}
