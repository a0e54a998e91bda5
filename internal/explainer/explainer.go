// Package explainer runs `EXPLAIN <query>` against a live connection
// and decodes the result into a vdbe.Program the interpreter can walk.
package explainer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vdbetype/sqlitetypes/internal/vdbe"
)

// Explain runs `EXPLAIN query` and decodes every row into a
// vdbe.Instruction. SQLite's EXPLAIN output has eight columns: addr,
// opcode, p1, p2, p3, p4, p5, comment.
func Explain(ctx context.Context, db *sql.DB, query string) (vdbe.Program, error) {
	rows, err := db.QueryContext(ctx, "EXPLAIN "+query)
	if err != nil {
		return nil, fmt.Errorf("explainer: running EXPLAIN: %w", err)
	}
	defer rows.Close()

	var program vdbe.Program
	for rows.Next() {
		var addr, p1, p2, p3, p5 int64
		var op string
		var p4, comment sql.NullString
		if err := rows.Scan(&addr, &op, &p1, &p2, &p3, &p4, &p5, &comment); err != nil {
			return nil, fmt.Errorf("explainer: scanning instruction row: %w", err)
		}
		program = append(program, vdbe.Instruction{
			Addr:    addr,
			Op:      op,
			P1:      p1,
			P2:      p2,
			P3:      p3,
			P4:      p4.String,
			P5:      p5,
			Comment: comment.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("explainer: iterating instructions: %w", err)
	}
	return program, nil
}
