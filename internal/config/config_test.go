package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "mantis", cfg.Tables.Prefix)
	assert.Equal(t, "_table", cfg.Tables.Suffix)
	assert.Equal(t, "datadict_state", cfg.Migrations.StateTable)
	assert.Empty(t, cfg.Database.URL)
	assert.False(t, cfg.Log.Verbose)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datadict.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: mysql
  host: db.internal
  port: 3307
  user: mantis
  name: bugtracker
  params:
    charset: utf8mb4
tables:
  prefix: bt
migrations:
  file: upgrade.yaml
`), 0o644))

	t.Setenv("DATADICT_DATABASE_USER", "admin")
	t.Setenv("DATADICT_LOG_VERBOSE", "true")

	cfg, err := Load(path, map[string]any{"database.name": "staging"})
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, "admin", cfg.Database.User)
	assert.Equal(t, "staging", cfg.Database.Name)
	assert.Equal(t, "bt", cfg.Tables.Prefix)
	assert.Equal(t, "_table", cfg.Tables.Suffix)
	assert.Equal(t, "upgrade.yaml", cfg.Migrations.File)
	assert.True(t, cfg.Log.Verbose)

	conn := cfg.Database.Connection()
	assert.Equal(t, "mysql", conn.Driver)
	assert.Equal(t, "staging", conn.Database)
	assert.Equal(t, map[string]string{"charset": "utf8mb4"}, conn.Params)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}
