package explainer

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func TestExplainDecodesProgram(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE t(a INTEGER PRIMARY KEY, b TEXT NOT NULL)`)
	require.NoError(t, err)

	program, err := Explain(context.Background(), db, "SELECT a, b FROM t")
	require.NoError(t, err)
	require.NotEmpty(t, program)

	for i, instr := range program {
		require.Equal(t, int64(i), instr.Addr)
		require.NotEmpty(t, instr.Op)
	}

	found := false
	for _, instr := range program {
		if instr.Op == "ResultRow" {
			found = true
		}
	}
	require.True(t, found, "expected a ResultRow instruction in the decoded program")
}
