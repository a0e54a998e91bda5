package sqlitetypes_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/vdbetype/sqlitetypes"
	"github.com/vdbetype/sqlitetypes/internal/vdbe"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// S5 Simple projection.
func TestExplainSimpleProjection(t *testing.T) {
	db := openDB(t)
	_, err := db.Exec(`CREATE TABLE t(a INTEGER PRIMARY KEY, b TEXT NOT NULL)`)
	require.NoError(t, err)

	types, nullable, err := sqlitetypes.Explain(context.Background(), db, "SELECT a, b FROM t")
	require.NoError(t, err)
	require.Len(t, types, 2)

	require.Equal(t, vdbe.Int64, types[0].Datatype)
	require.NotNil(t, nullable[0])
	require.True(t, *nullable[0])

	require.Equal(t, vdbe.Text, types[1].Datatype)
	require.NotNil(t, nullable[1])
	require.False(t, *nullable[1])
}

// S6 Aggregate.
func TestExplainCountAggregate(t *testing.T) {
	db := openDB(t)
	_, err := db.Exec(`CREATE TABLE t(a INTEGER PRIMARY KEY, b TEXT NOT NULL)`)
	require.NoError(t, err)

	types, nullable, err := sqlitetypes.Explain(context.Background(), db, "SELECT COUNT(*) FROM t")
	require.NoError(t, err)
	require.Len(t, types, 1)
	require.Equal(t, vdbe.Int64, types[0].Datatype)
	require.NotNil(t, nullable[0])
	require.False(t, *nullable[0])
}

func TestExplainIdempotent(t *testing.T) {
	db := openDB(t)
	_, err := db.Exec(`CREATE TABLE t(a INTEGER PRIMARY KEY, b TEXT NOT NULL)`)
	require.NoError(t, err)

	types1, nullable1, err := sqlitetypes.Explain(context.Background(), db, "SELECT a, b FROM t")
	require.NoError(t, err)
	types2, nullable2, err := sqlitetypes.Explain(context.Background(), db, "SELECT a, b FROM t")
	require.NoError(t, err)

	require.Equal(t, types1, types2)
	require.Equal(t, nullable1, nullable2)
}
