package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLDSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{
			name: "from fields",
			cfg:  Config{User: "mantis", Password: "secret", Host: "db", Port: 3307, Database: "bugtracker"},
			want: "mantis:secret@tcp(db:3307)/bugtracker",
		},
		{
			name: "defaults",
			cfg:  Config{User: "root", Database: "bugtracker"},
			want: "root@tcp(127.0.0.1:3306)/bugtracker",
		},
		{
			name: "explicit dsn",
			cfg:  Config{DSN: "root:pw@tcp(localhost:3306)/bt?parseTime=true"},
			want: "root:pw@tcp(localhost:3306)/bt?parseTime=true",
		},
		{
			name:    "invalid dsn",
			cfg:     Config{DSN: "not a dsn"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mysqlDSN(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	got, err := postgresDSN(Config{User: "mantis", Password: "p@ss", Host: "pg", Database: "bugtracker",
		Params: map[string]string{"sslmode": "disable"}})
	require.NoError(t, err)
	assert.Equal(t, "postgres://mantis:p%40ss@pg:5432/bugtracker?sslmode=disable", got)
}

func TestSQLiteDSN(t *testing.T) {
	got, err := sqliteDSN(Config{})
	require.NoError(t, err)
	assert.Equal(t, ":memory:", got)

	got, err = sqliteDSN(Config{Database: "bt.db", Params: map[string]string{"_pragma": "foreign_keys(1)"}})
	require.NoError(t, err)
	assert.Equal(t, "bt.db?_pragma=foreign_keys%281%29", got)
}
