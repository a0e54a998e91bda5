package typeinfer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vdbetype/sqlitetypes/internal/vdbe"
)

type fakeRoots map[[2]int64]map[int64]vdbe.ColumnType

func (f fakeRoots) RootBlockColumns(dbnum, rootpage int64) (map[int64]vdbe.ColumnType, bool) {
	cols, ok := f[[2]int64{dbnum, rootpage}]
	return cols, ok
}

func prog(instrs ...vdbe.Instruction) vdbe.Program {
	for i := range instrs {
		instrs[i].Addr = int64(i)
	}
	return vdbe.Program(instrs)
}

func TestSimpleResultRow(t *testing.T) {
	program := prog(
		vdbe.Instruction{Op: opInteger, P1: 7, P2: 0},
		vdbe.Instruction{Op: opResultRow, P1: 0, P2: 1},
		vdbe.Instruction{Op: opHalt},
	)

	states := Run(program, nil, nil)
	require.Len(t, states, 1)

	output, nullable := Merge(states)
	require.Equal(t, []vdbe.DataType{vdbe.Int}, output)
	require.Len(t, nullable, 1)
	require.NotNil(t, nullable[0])
	require.False(t, *nullable[0])
}

func TestLoopCutoffTerminates(t *testing.T) {
	// A tight self-loop on a conservative-fork opcode: the fall-through
	// re-enters the same instruction, and MAX_LOOP_COUNT bounds how many
	// times address 0 may be visited before the path is abandoned.
	program := prog(
		vdbe.Instruction{Op: "Next", P1: 0, P2: 0},
		vdbe.Instruction{Op: opHalt},
	)

	require.NotPanics(t, func() {
		Run(program, nil, nil)
	})
}

func TestNotNullRefinesFallThrough(t *testing.T) {
	// r[0] ends up concretely typed (Int) but with unknown nullability,
	// by way of an Add with one operand absent. NotNull then forks both
	// ways: the branch (jump taken, refined not-null) and the
	// fall-through (refined to unknown default). Both sides reach a
	// ResultRow.
	program := prog(
		vdbe.Instruction{Op: opInteger, P1: 5, P2: 5},
		vdbe.Instruction{Op: opAdd, P1: 5, P2: 99, P3: 0},
		vdbe.Instruction{Op: opNotNull, P1: 0, P2: 5},
		vdbe.Instruction{Op: opResultRow, P1: 0, P2: 1},
		vdbe.Instruction{Op: opHalt},
		vdbe.Instruction{Op: opResultRow, P1: 0, P2: 1},
		vdbe.Instruction{Op: opHalt},
	)

	states := Run(program, nil, nil)
	require.Len(t, states, 2)
}

func TestIfPosForcesBothBranchesAfterRevisit(t *testing.T) {
	// Classic OFFSET-style counter: IfPos decrements and loops back to
	// itself. Once visited more than once, both sides are forced so the
	// path can still terminate.
	program := prog(
		vdbe.Instruction{Op: opInteger, P1: 3, P2: 0},
		vdbe.Instruction{Op: opIfPos, P1: 0, P2: 1},
		vdbe.Instruction{Op: opHalt},
	)

	require.NotPanics(t, func() {
		Run(program, nil, nil)
	})
}

func TestRewindForksEmptyAndNonEmpty(t *testing.T) {
	roots := fakeRoots{
		{0, 2}: {0: vdbe.SingleColumn(vdbe.Int64, boolPtr(false))},
	}
	program := prog(
		vdbe.Instruction{Op: opOpenRead, P1: 0, P2: 2, P3: 0},
		vdbe.Instruction{Op: opRewind, P1: 0, P2: 4},
		vdbe.Instruction{Op: opColumn, P1: 0, P2: 0, P3: 1},
		vdbe.Instruction{Op: opResultRow, P1: 1, P2: 1},
		vdbe.Instruction{Op: opHalt},
	)

	states := Run(program, roots, nil)
	// The non-empty fall-through reaches ResultRow with the column's
	// declared type; the empty branch jumps straight to Halt.
	require.Len(t, states, 1)
	require.Equal(t, vdbe.Int64, states[0].Result[0].Datatype)
}

func TestNullRowPropagatesNullability(t *testing.T) {
	// S7: a left-join shaped program that reaches NullRow on a cursor
	// before Column reads from it must report nullable=true.
	roots := fakeRoots{
		{0, 5}: {0: vdbe.SingleColumn(vdbe.Text, boolPtr(false))},
	}
	program := prog(
		vdbe.Instruction{Op: opOpenRead, P1: 0, P2: 5, P3: 0},
		vdbe.Instruction{Op: opNullRow, P1: 0},
		vdbe.Instruction{Op: opColumn, P1: 0, P2: 0, P3: 1},
		vdbe.Instruction{Op: opResultRow, P1: 1, P2: 1},
		vdbe.Instruction{Op: opHalt},
	)

	states := Run(program, roots, nil)
	require.Len(t, states, 1)
	require.Equal(t, vdbe.Text, states[0].Result[0].Datatype)
	require.NotNil(t, states[0].Result[0].Nullable)
	require.True(t, *states[0].Result[0].Nullable)
}

func TestMergePrefersNonNullConcreteType(t *testing.T) {
	a := &vdbe.QueryState{Result: []vdbe.ResultColumn{{Datatype: vdbe.Null, Nullable: boolPtr(false)}}}
	b := &vdbe.QueryState{Result: []vdbe.ResultColumn{{Datatype: vdbe.Int64, Nullable: boolPtr(true)}}}

	output, nullable := Merge([]*vdbe.QueryState{a, b})
	require.Equal(t, []vdbe.DataType{vdbe.Int64}, output)
	require.True(t, *nullable[0])
}

func TestMergeORsNullability(t *testing.T) {
	a := &vdbe.QueryState{Result: []vdbe.ResultColumn{{Datatype: vdbe.Text, Nullable: boolPtr(false)}}}
	b := &vdbe.QueryState{Result: []vdbe.ResultColumn{{Datatype: vdbe.Text, Nullable: boolPtr(false)}}}

	_, nullable := Merge([]*vdbe.QueryState{a, b})
	require.False(t, *nullable[0])
}
