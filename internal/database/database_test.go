package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(Config{Path: filepath.Join(t.TempDir(), "paths.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func tableExists(t *testing.T, conn *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestMigrateUpAndDown(t *testing.T) {
	conn := openTestDB(t)

	version, _, err := MigrateVersion(conn)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, Migrate(conn))
	require.NoError(t, Migrate(conn), "second run is a no-op")
	assert.True(t, tableExists(t, conn, "paths"))
	assert.True(t, tableExists(t, conn, "path_points"))

	version, dirty, err := MigrateVersion(conn)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, MigrateDown(conn))
	assert.False(t, tableExists(t, conn, "paths"))
}

func TestForeignKeysCascade(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, Migrate(conn))

	_, err := conn.Exec(`INSERT INTO paths (id, user_id, session_id, start_time, end_time, point_count, flush_reason, created_at)
		VALUES ('p1', 'u1', 's1', 0, 0, 1, 'stop', 0)`)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO path_points (path_id, seq, latitude, longitude, timestamp, accuracy, quality_tier)
		VALUES ('p1', 0, 1, 2, 0, 3, 'OPTIMAL')`)
	require.NoError(t, err)

	_, err = conn.Exec(`INSERT INTO path_points (path_id, seq, latitude, longitude, timestamp, accuracy, quality_tier)
		VALUES ('missing', 0, 1, 2, 0, 3, 'OPTIMAL')`)
	assert.Error(t, err, "foreign key must be enforced")

	_, err = conn.Exec(`DELETE FROM paths WHERE id = 'p1'`)
	require.NoError(t, err)
	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM path_points`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestTransactionRollsBack(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, Migrate(conn))

	boom := errors.New("boom")
	err := Transaction(context.Background(), conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO paths (id, user_id, session_id, start_time, end_time, point_count, flush_reason, created_at)
			VALUES ('p1', 'u1', 's1', 0, 0, 1, 'stop', 0)`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM paths`).Scan(&n))
	assert.Equal(t, 0, n)

	err = Transaction(context.Background(), conn, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO paths (id, user_id, session_id, start_time, end_time, point_count, flush_reason, created_at)
			VALUES ('p2', 'u1', 's1', 0, 0, 1, 'stop', 0)`)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM paths`).Scan(&n))
	assert.Equal(t, 1, n)
}
