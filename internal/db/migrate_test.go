package db

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	conn, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "training.db"))
	require.NoError(t, err)
	defer conn.Close()

	version, dirty, err := MigrationVersion(conn.DB)
	require.NoError(t, err)
	require.Zero(t, version)
	require.False(t, dirty)

	require.NoError(t, RunMigrations(conn.DB))
	require.NoError(t, RunMigrations(conn.DB))

	version, dirty, err = MigrationVersion(conn.DB)
	require.NoError(t, err)
	require.Equal(t, uint(1), version)
	require.False(t, dirty)

	_, err = conn.Exec(`INSERT INTO training_data (id, content, training_data_type) VALUES ('1-ddl', 'CREATE TABLE t (a INT)', 'ddl')`)
	require.NoError(t, err)
}
