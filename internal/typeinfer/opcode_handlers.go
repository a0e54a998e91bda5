package typeinfer

import (
	"strings"

	"github.com/vdbetype/sqlitetypes/internal/vdbe"
)

// stepNotNull forks to p2 when r[p1] might be non-null, refining the
// branch's register to known-non-null; falls through when r[p1] might
// still be null, refining the fall-through register to unknown.
// Either side is suppressed when the static nullability rules it out.
func (r *run) stepNotNull(state *vdbe.QueryState, instr vdbe.Instruction) stepOutcome {
	p1, p2 := instr.P1, instr.P2

	reg, have := state.Registers[p1]
	mightBranch := have && reg.ToDataType() != vdbe.Null
	mightNotBranch := !have || !boolPtrFalse(reg.ToNullable())

	if mightBranch {
		r.fork(state, p2, func(branch *vdbe.QueryState) {
			if v, ok := branch.Registers[p1]; ok && v.Kind == vdbe.RegSingle && v.Single.Kind == vdbe.KindSingle {
				v.Single.Nullable = boolPtr(false)
				branch.Registers[p1] = v
			}
		})
	}

	if mightNotBranch {
		state.ProgramCounter++
		state.Registers[p1] = vdbe.SingleReg(vdbe.DefaultColumn())
		return stepJumped
	}
	r.logPath(state, nil)
	return stepHalt
}

func boolPtrFalse(b *bool) bool {
	return b != nil && !*b
}

// stepIf forks to p2 when r[p1] might be true, falls through when it
// might be false; a concrete Int register resolves this statically.
func (r *run) stepIf(state *vdbe.QueryState, instr vdbe.Instruction) stepOutcome {
	p1, p2, p3 := instr.P1, instr.P2, instr.P3

	mightBranch, mightNotBranch := true, true
	if v, ok := state.Registers[p1]; ok && v.Kind == vdbe.RegInt {
		mightBranch = v.Int != 0
		mightNotBranch = v.Int == 0
	}

	if mightBranch {
		r.fork(state, p2, func(branch *vdbe.QueryState) {
			if p3 == 0 {
				branch.Registers[p1] = vdbe.IntReg(1)
			}
		})
	}

	if mightNotBranch {
		state.ProgramCounter++
		if p3 == 0 {
			state.Registers[p1] = vdbe.IntReg(0)
		}
		return stepJumped
	}
	r.logPath(state, nil)
	return stepHalt
}

// stepIfPos mirrors stepIf but, as a workaround for large OFFSET
// clauses, forces exploration of both sides once the instruction has
// been revisited, degrading r[p1] to an unknown non-null Int64 so the
// path can still terminate.
func (r *run) stepIfPos(state *vdbe.QueryState, instr vdbe.Instruction) stepOutcome {
	p1, p2 := instr.P1, instr.P2

	mightBranch, mightNotBranch := true, true
	if v, ok := state.Registers[p1]; ok && v.Kind == vdbe.RegInt {
		mightBranch = v.Int >= 1
		mightNotBranch = v.Int < 1
	}

	loopDetected := state.VisitCount(instr.Addr) > 1

	if mightBranch || loopDetected {
		r.fork(state, p2, func(branch *vdbe.QueryState) {
			if v, ok := branch.Registers[p1]; ok && v.Kind == vdbe.RegInt {
				branch.Registers[p1] = vdbe.IntReg(v.Int - 1)
			}
		})
	}

	switch {
	case mightNotBranch:
		state.ProgramCounter++
		return stepJumped
	case loopDetected:
		state.ProgramCounter++
		if v, ok := state.Registers[p1]; ok && v.Kind == vdbe.RegInt {
			state.Registers[p1] = vdbe.SingleReg(vdbe.SingleColumn(vdbe.Int64, boolPtr(false)))
		}
		return stepJumped
	default:
		r.logPath(state, nil)
		return stepHalt
	}
}

// stepCursorScan handles Rewind/Last/Sort/SorterSort: fork to the
// empty-cursor branch when the cursor might be empty, fall through
// when it might be non-empty.
func (r *run) stepCursorScan(state *vdbe.QueryState, instr vdbe.Instruction) stepOutcome {
	p1, p2 := instr.P1, instr.P2

	if p2 == 0 {
		state.ProgramCounter++
		return stepJumped
	}

	cur, ok := state.Cursors[p1]
	if !ok {
		r.logPath(state, nil)
		return stepHalt
	}

	empty := cur.Empty()
	mightBeEmpty := empty == nil || *empty
	mightBeNonEmpty := empty == nil || !*empty

	if mightBeEmpty {
		r.fork(state, p2, func(branch *vdbe.QueryState) {
			if c, ok := branch.Cursors[p1]; ok && c.Kind == vdbe.CursorNormal {
				c.IsEmpty = boolPtr(true)
				branch.Cursors[p1] = c
			}
		})
	}

	if mightBeNonEmpty {
		state.ProgramCounter++
		return stepJumped
	}
	r.logPath(state, nil)
	return stepHalt
}

func (r *run) stepEndCoroutine(state *vdbe.QueryState, instr vdbe.Instruction) stepOutcome {
	p1 := instr.P1
	reg, ok := state.Registers[p1]
	if !ok || reg.Kind != vdbe.RegInt {
		r.logPath(state, nil)
		return stepHalt
	}
	yieldInstr, ok := r.program.At(reg.Int)
	if !ok || yieldInstr.Op != opYield {
		r.logPath(state, nil)
		return stepHalt
	}
	state.ProgramCounter = yieldInstr.P2
	delete(state.Registers, p1)
	return stepJumped
}

// stepYield exchanges the program counter with r[p1]'s stored return
// address. Yielding into another Yield instruction skips to the
// instruction after it, preventing an immediate ping-pong between two
// coroutines both paused on Yield.
func (r *run) stepYield(state *vdbe.QueryState, instr vdbe.Instruction) stepOutcome {
	p1 := instr.P1
	reg, ok := state.Registers[p1]
	if !ok || reg.Kind != vdbe.RegInt {
		r.logPath(state, nil)
		return stepHalt
	}

	target := reg.Int
	resumeAt := state.ProgramCounter

	if targetInstr, ok := r.program.At(target); ok && targetInstr.Op == opYield {
		state.ProgramCounter = target + 1
	} else {
		state.ProgramCounter = target
	}
	state.Registers[p1] = vdbe.IntReg(resumeAt)
	return stepJumped
}

func (r *run) stepColumn(state *vdbe.QueryState, instr vdbe.Instruction) {
	p1, p2, p3 := instr.P1, instr.P2, instr.P3
	cur, ok := state.Cursors[p1]
	if !ok {
		state.Registers[p3] = vdbe.SingleReg(vdbe.DefaultColumn())
		return
	}
	record := cur.SparseRecord(state.Registers)
	if col, ok := record[p2]; ok {
		state.Registers[p3] = vdbe.SingleReg(col)
	} else {
		state.Registers[p3] = vdbe.SingleReg(vdbe.DefaultColumn())
	}
}

func (r *run) stepOpenTable(state *vdbe.QueryState, instr vdbe.Instruction) {
	p1, p2, p3 := instr.P1, instr.P2, instr.P3
	if r.roots != nil && (p3 == 0 || p3 == 1) {
		if cols, ok := r.roots.RootBlockColumns(p3, p2); ok {
			state.Cursors[p1] = vdbe.NormalCursor(cols, nil)
			return
		}
	}
	state.Cursors[p1] = vdbe.NormalCursor(map[int64]vdbe.ColumnType{}, nil)
}

func (r *run) stepFunction(state *vdbe.QueryState, instr vdbe.Instruction) {
	p2, p3 := instr.P2, instr.P3
	switch instr.P4 {
	case "last_insert_rowid(0)":
		state.Registers[p3] = vdbe.SingleReg(vdbe.SingleColumn(vdbe.Int64, boolPtr(false)))
	case "date(-1)", "time(-1)", "datetime(-1)", "strftime(-1)":
		state.Registers[p3] = vdbe.SingleReg(vdbe.SingleColumn(vdbe.Text, boolPtr(p2 != 0)))
	case "julianday(-1)":
		state.Registers[p3] = vdbe.SingleReg(vdbe.SingleColumn(vdbe.Float, boolPtr(p2 != 0)))
	case "unixepoch(-1)":
		state.Registers[p3] = vdbe.SingleReg(vdbe.SingleColumn(vdbe.Int64, boolPtr(p2 != 0)))
	default:
		r.log.AddUnknownOperation(instr)
	}
}

func (r *run) stepAggStep(state *vdbe.QueryState, instr vdbe.Instruction) {
	p2, p3 := instr.P2, instr.P3
	p4 := instr.P4

	switch {
	case hasAggPrefix(p4, "count(", "row_number(", "rank(", "dense_rank(", "ntile("):
		state.Registers[p3] = vdbe.SingleReg(vdbe.SingleColumn(vdbe.Int64, boolPtr(false)))
	case strings.HasPrefix(p4, "sum("):
		if v, ok := state.Registers[p2]; ok {
			dt := v.ToDataType()
			switch dt {
			case vdbe.Int64:
				// stays Int64
			case vdbe.Int, vdbe.Bool:
				dt = vdbe.Int
			default:
				dt = vdbe.Float
			}
			state.Registers[p3] = vdbe.SingleReg(vdbe.SingleColumn(dt, v.ToNullable()))
		}
	default:
		if v, ok := state.Registers[p2]; ok {
			state.Registers[p3] = v.Clone()
		}
	}
}

func (r *run) stepAggFinal(state *vdbe.QueryState, instr vdbe.Instruction) {
	p1 := instr.P1
	if hasAggPrefix(instr.P4, "count(", "row_number(", "rank(", "dense_rank(", "ntile(") {
		state.Registers[p1] = vdbe.SingleReg(vdbe.SingleColumn(vdbe.Int64, boolPtr(false)))
	}
}

func hasAggPrefix(p4 string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(p4, p) {
			return true
		}
	}
	return false
}

// stepArithmetic combines two registers: datatype prefers the
// left-hand operand unless it is Null, nullability is OR-merged (an
// absent operand leaves the result's nullability unknown rather than
// false).
func (r *run) stepArithmetic(state *vdbe.QueryState, instr vdbe.Instruction) {
	p1, p2, p3 := instr.P1, instr.P2, instr.P3
	a, aok := state.Registers[p1]
	b, bok := state.Registers[p2]

	switch {
	case aok && bok:
		dt := a.ToDataType()
		if dt == vdbe.Null {
			dt = b.ToDataType()
		}
		state.Registers[p3] = vdbe.SingleReg(vdbe.SingleColumn(dt, orNullable(a.ToNullable(), b.ToNullable())))
	case aok:
		state.Registers[p3] = vdbe.SingleReg(vdbe.SingleColumn(a.ToDataType(), nil))
	case bok:
		state.Registers[p3] = vdbe.SingleReg(vdbe.SingleColumn(b.ToDataType(), nil))
	}
}

func orNullable(a, b *bool) *bool {
	switch {
	case a != nil && b != nil:
		v := *a || *b
		return &v
	case a != nil:
		return a
	case b != nil:
		return b
	default:
		return nil
	}
}

func (r *run) stepResultRow(state *vdbe.QueryState, instr vdbe.Instruction) {
	p1, p2 := instr.P1, instr.P2
	result := make([]vdbe.ResultColumn, 0, p2)
	for i := p1; i < p1+p2; i++ {
		if v, ok := state.Registers[i]; ok {
			result = append(result, vdbe.ResultColumn{Datatype: v.ToDataType(), Nullable: v.ToNullable()})
		} else {
			result = append(result, vdbe.ResultColumn{Datatype: vdbe.Null, Nullable: nil})
		}
	}
	state.Result = result

	r.logPath(state, result)
	r.results = append(r.results, state.Clone())
}
