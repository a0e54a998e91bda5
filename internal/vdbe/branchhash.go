package vdbe

import (
	"fmt"
	"sort"
	"strings"
)

// BranchStateHash is a canonical, ordered projection of a QueryState
// used for cycle/dedup detection on branch creation. History and visit
// counts are deliberately excluded: they are path artifacts, not
// semantic state, and including them would defeat dedup on every
// loop iteration.
//
// It is encoded as an opaque comparable string rather than a numeric
// hash, trading a little memory for the certainty that two equal
// states always produce the identical key — a collision in a real
// hash would silently drop a live branch.
type BranchStateHash string

// Hash computes the BranchStateHash of a state about to be enqueued at
// target. Every projection (registers, cursor metadata, cursor
// columns) is sorted by key before encoding, per the determinism
// requirement: hashing an unordered map traversal would cause
// nondeterministic pruning.
func Hash(target int64, registers map[int64]RegDataType, cursors map[int64]CursorDataType) BranchStateHash {
	var b strings.Builder
	fmt.Fprintf(&b, "pc=%d;", target)

	regKeys := make([]int64, 0, len(registers))
	for k := range registers {
		regKeys = append(regKeys, k)
	}
	sort.Slice(regKeys, func(i, j int) bool { return regKeys[i] < regKeys[j] })
	b.WriteString("r[")
	for _, k := range regKeys {
		fmt.Fprintf(&b, "%d:%s,", k, encodeReg(registers[k]))
	}
	b.WriteString("];")

	curKeys := make([]int64, 0, len(cursors))
	for k := range cursors {
		curKeys = append(curKeys, k)
	}
	sort.Slice(curKeys, func(i, j int) bool { return curKeys[i] < curKeys[j] })

	b.WriteString("c[")
	for _, k := range curKeys {
		cur := cursors[k]
		switch cur.Kind {
		case CursorPseudo:
			fmt.Fprintf(&b, "%d:(empty=%s,pseudo=%d),", k, encodeBoolPtr(cur.Empty()), cur.PseudoReg)
		default:
			fmt.Fprintf(&b, "%d:(empty=%s),", k, encodeBoolPtr(cur.Empty()))
		}
	}
	b.WriteString("];")

	b.WriteString("cc[")
	type colKey struct {
		cursor, column int64
	}
	var colKeys []colKey
	for cIdx, cur := range cursors {
		if cur.Kind != CursorNormal {
			continue
		}
		for colIdx := range cur.Cols {
			colKeys = append(colKeys, colKey{cIdx, colIdx})
		}
	}
	sort.Slice(colKeys, func(i, j int) bool {
		if colKeys[i].cursor != colKeys[j].cursor {
			return colKeys[i].cursor < colKeys[j].cursor
		}
		return colKeys[i].column < colKeys[j].column
	})
	for _, ck := range colKeys {
		col := cursors[ck.cursor].Cols[ck.column]
		fmt.Fprintf(&b, "(%d,%d):%s,", ck.cursor, ck.column, encodeCol(col))
	}
	b.WriteString("]")

	return BranchStateHash(b.String())
}

func encodeReg(r RegDataType) string {
	if r.Kind == RegInt {
		return fmt.Sprintf("int(%d)", r.Int)
	}
	return encodeCol(r.Single)
}

func encodeCol(c ColumnType) string {
	if c.Kind == KindRecord {
		parts := make([]string, len(c.Record))
		for i, r := range c.Record {
			parts[i] = encodeCol(r)
		}
		return "rec(" + strings.Join(parts, "|") + ")"
	}
	return fmt.Sprintf("%s/%s", c.Datatype, encodeBoolPtr(c.Nullable))
}

func encodeBoolPtr(b *bool) string {
	if b == nil {
		return "?"
	}
	if *b {
		return "t"
	}
	return "f"
}
