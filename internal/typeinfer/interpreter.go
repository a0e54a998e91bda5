// Package typeinfer implements the abstract interpreter: a state-space
// search over a decoded VDBE program that infers, for every ResultRow
// sink reachable from the entry point, the datatype and nullability of
// each output column.
package typeinfer

import (
	"github.com/vdbetype/sqlitetypes/internal/querylog"
	"github.com/vdbetype/sqlitetypes/internal/vdbe"
)

// MaxLoopCount bounds how many times a single instruction address may
// be visited on one path. It is an approximation: large enough that
// short cycles (a handful of WHERE-clause comparisons, a LIMIT/OFFSET
// counter) finish propagating types, small enough that the search
// always terminates.
const MaxLoopCount = 2

// RootBlockLookup resolves a (database-number, root-page) pair to the
// column types SQLite's schema declares for it. *catalog.Catalog
// satisfies this without typeinfer needing to import catalog.
type RootBlockLookup interface {
	RootBlockColumns(dbnum, rootpage int64) (map[int64]vdbe.ColumnType, bool)
}

type stepOutcome int

const (
	stepAdvance stepOutcome = iota // caller increments ProgramCounter by 1
	stepJumped                     // step already set ProgramCounter
	stepHalt                       // this path is done
)

type run struct {
	program vdbe.Program
	roots   RootBlockLookup
	log     querylog.Logger

	stack   []*vdbe.QueryState
	seen    map[vdbe.BranchStateHash]bool
	results []*vdbe.QueryState
}

// Run explores every reachable path through program, starting from a
// single empty state at address 0, and returns every state that
// reached a ResultRow. ResultRow does not terminate a path, so one
// path can contribute more than one result state.
func Run(program vdbe.Program, roots RootBlockLookup, log querylog.Logger) []*vdbe.QueryState {
	if log == nil {
		log = querylog.NopLogger{}
	}
	r := &run{
		program: program,
		roots:   roots,
		log:     log,
		stack:   []*vdbe.QueryState{vdbe.NewQueryState()},
		seen:    make(map[vdbe.BranchStateHash]bool),
	}

	for len(r.stack) > 0 {
		state := r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]
		r.drive(state)
	}

	return r.results
}

func (r *run) drive(state *vdbe.QueryState) {
	for state.ProgramCounter < int64(len(r.program)) {
		instr, ok := r.program.At(state.ProgramCounter)
		if !ok {
			return
		}

		if state.VisitCount(instr.Addr) > MaxLoopCount {
			r.logPath(state, nil)
			return
		}
		state.Visit(instr.Addr)

		switch r.step(state, instr) {
		case stepHalt:
			return
		case stepJumped:
			// ProgramCounter already set by step.
		default:
			state.ProgramCounter++
		}
	}
}

func (r *run) logPath(state *vdbe.QueryState, result []vdbe.ResultColumn) {
	if !r.log.Enabled() {
		return
	}
	history := make([]vdbe.Instruction, len(state.History))
	for i, addr := range state.History {
		if instr, ok := r.program.At(addr); ok {
			history[i] = instr
		}
	}
	r.log.AddResult(history, result)
}

// fork clones state, jumps the clone to target, applies mutate (if
// any) to the clone, and enqueues it unless an equal BranchStateHash
// has already been explored.
func (r *run) fork(state *vdbe.QueryState, target int64, mutate func(*vdbe.QueryState)) {
	branch := state.Fork(target)
	if mutate != nil {
		mutate(branch)
	}
	hash := vdbe.Hash(branch.ProgramCounter, branch.Registers, branch.Cursors)
	if r.seen[hash] {
		return
	}
	r.seen[hash] = true
	r.stack = append(r.stack, branch)
}

func (r *run) step(state *vdbe.QueryState, instr vdbe.Instruction) stepOutcome {
	p1, p2, p3 := instr.P1, instr.P2, instr.P3

	switch {
	case instr.Op == opInit || instr.Op == opGoto:
		state.ProgramCounter = p2
		return stepJumped

	case instr.Op == opGosub:
		state.Registers[p1] = vdbe.IntReg(state.ProgramCounter)
		state.ProgramCounter = p2
		return stepJumped

	case conservativeForkOps[instr.Op]:
		r.fork(state, p2, nil)
		state.ProgramCounter++
		return stepJumped

	case instr.Op == opNotNull:
		return r.stepNotNull(state, instr)

	case instr.Op == opMustBeInt:
		if p2 != 0 {
			r.fork(state, p2, nil)
		}
		state.ProgramCounter++
		return stepJumped

	case instr.Op == opIf:
		return r.stepIf(state, instr)

	case instr.Op == opIfPos:
		return r.stepIfPos(state, instr)

	case instr.Op == opRewind || instr.Op == opLast || instr.Op == opSort || instr.Op == opSorterSort:
		return r.stepCursorScan(state, instr)

	case instr.Op == opInitCoroutine:
		state.Registers[p1] = vdbe.IntReg(p3)
		if p2 != 0 {
			state.ProgramCounter = p2
		} else {
			state.ProgramCounter++
		}
		return stepJumped

	case instr.Op == opEndCoroutine:
		return r.stepEndCoroutine(state, instr)

	case instr.Op == opReturn:
		if ret, ok := state.Registers[p1]; ok && ret.Kind == vdbe.RegInt {
			state.ProgramCounter = ret.Int + 1
			delete(state.Registers, p1)
			return stepJumped
		}
		r.logPath(state, nil)
		return stepHalt

	case instr.Op == opYield:
		return r.stepYield(state, instr)

	case instr.Op == opJump:
		r.fork(state, p1, nil)
		r.fork(state, p2, nil)
		r.fork(state, p3, nil)
		return stepAdvance

	case instr.Op == opColumn:
		r.stepColumn(state, instr)
		return stepAdvance

	case instr.Op == opSequence:
		state.Registers[p2] = vdbe.SingleReg(vdbe.SingleColumn(vdbe.Int64, boolPtr(false)))
		return stepAdvance

	case instr.Op == opRowData || instr.Op == opSorterData:
		if cur, ok := state.Cursors[p1]; ok {
			state.Registers[p2] = vdbe.SingleReg(vdbe.RecordColumn(cur.DenseRecord(state.Registers)))
		} else {
			state.Registers[p2] = vdbe.SingleReg(vdbe.RecordColumn(nil))
		}
		return stepAdvance

	case instr.Op == opMakeRecord:
		record := make([]vdbe.ColumnType, 0, p2)
		for reg := p1; reg < p1+p2; reg++ {
			if v, ok := state.Registers[reg]; ok {
				record = append(record, v.ToColumnType())
			} else {
				record = append(record, vdbe.DefaultColumn())
			}
		}
		state.Registers[p3] = vdbe.SingleReg(vdbe.RecordColumn(record))
		return stepAdvance

	case instr.Op == opInsert || instr.Op == opIdxInsert || instr.Op == opSorterInsert:
		if v, ok := state.Registers[p2]; ok && v.Kind == vdbe.RegSingle && v.Single.Kind == vdbe.KindRecord {
			if cur, ok := state.Cursors[p1]; ok && cur.Kind == vdbe.CursorNormal {
				cols := make(map[int64]vdbe.ColumnType, len(v.Single.Record))
				for i, c := range v.Single.Record {
					cols[int64(i)] = c
				}
				state.Cursors[p1] = vdbe.NormalCursor(cols, boolPtr(false))
			}
		}
		return stepAdvance

	case instr.Op == opDelete:
		if cur, ok := state.Cursors[p1]; ok && cur.Kind == vdbe.CursorNormal && cur.IsEmpty != nil && !*cur.IsEmpty {
			cur.IsEmpty = nil
			state.Cursors[p1] = cur
		}
		return stepAdvance

	case instr.Op == opOpenPseudo:
		state.Cursors[p1] = vdbe.PseudoCursor(p2)
		return stepAdvance

	case instr.Op == opOpenRead || instr.Op == opOpenWrite:
		r.stepOpenTable(state, instr)
		return stepAdvance

	case instr.Op == opOpenEphemeral || instr.Op == opOpenAutoindex || instr.Op == opSorterOpen:
		record := make([]vdbe.ColumnType, p2)
		for i := range record {
			record[i] = vdbe.NullColumn()
		}
		state.Cursors[p1] = vdbe.CursorFromDenseRecord(record, boolPtr(true))
		return stepAdvance

	case instr.Op == opVariable:
		state.Registers[p2] = vdbe.SingleReg(vdbe.NullColumn())
		return stepAdvance

	case instr.Op == opFunction:
		r.stepFunction(state, instr)
		return stepAdvance

	case instr.Op == opNullRow:
		if cur, ok := state.Cursors[p1]; ok && cur.Kind == vdbe.CursorNormal {
			for idx, col := range cur.Cols {
				if col.Kind == vdbe.KindSingle {
					col.Nullable = boolPtr(true)
					cur.Cols[idx] = col
				}
			}
		}
		return stepAdvance

	case instr.Op == opAggStep || instr.Op == opAggValue:
		r.stepAggStep(state, instr)
		return stepAdvance

	case instr.Op == opAggFinal:
		r.stepAggFinal(state, instr)
		return stepAdvance

	case instr.Op == opCast:
		if v, ok := state.Registers[p1]; ok {
			state.Registers[p1] = vdbe.SingleReg(vdbe.SingleColumn(affinityToType(int64(p2)), v.ToNullable()))
		}
		return stepAdvance

	case instr.Op == opSCopy || instr.Op == opIntCopy:
		if v, ok := state.Registers[p1]; ok {
			state.Registers[p2] = v.Clone()
		}
		return stepAdvance

	case instr.Op == opCopy:
		if p3 >= 0 {
			for i := int64(0); i <= p3; i++ {
				if v, ok := state.Registers[p1+i]; ok {
					state.Registers[p2+i] = v.Clone()
				}
			}
		}
		return stepAdvance

	case instr.Op == opMove:
		if p3 >= 1 {
			for i := int64(0); i < p3; i++ {
				src, dst := p1+i, p2+i
				if v, ok := state.Registers[src]; ok {
					state.Registers[dst] = v.Clone()
					state.Registers[src] = vdbe.SingleReg(vdbe.NullColumn())
				}
			}
		}
		return stepAdvance

	case instr.Op == opInteger:
		state.Registers[p2] = vdbe.IntReg(p1)
		return stepAdvance

	case constantOps[instr.Op]:
		state.Registers[p2] = vdbe.SingleReg(vdbe.SingleColumn(opcodeToType(instr.Op), boolPtr(false)))
		return stepAdvance

	case instr.Op == opNot:
		if v, ok := state.Registers[p1]; ok {
			state.Registers[p2] = v.Clone()
		}
		return stepAdvance

	case instr.Op == opNull:
		lo, hi := p2, p3
		if hi < lo {
			hi = lo
		}
		for idx := lo; idx <= hi; idx++ {
			state.Registers[idx] = vdbe.SingleReg(vdbe.NullColumn())
		}
		return stepAdvance

	case arithmeticOps[instr.Op]:
		r.stepArithmetic(state, instr)
		return stepAdvance

	case instr.Op == opOffsetLimit:
		state.Registers[p2] = vdbe.SingleReg(vdbe.SingleColumn(vdbe.Int64, boolPtr(false)))
		return stepAdvance

	case instr.Op == opResultRow:
		r.stepResultRow(state, instr)
		return stepAdvance

	case instr.Op == opHalt:
		r.logPath(state, nil)
		return stepHalt

	default:
		r.log.AddUnknownOperation(instr)
		return stepAdvance
	}
}

func boolPtr(v bool) *bool { return &v }
