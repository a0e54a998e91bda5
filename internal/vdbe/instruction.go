package vdbe

import "fmt"

// Instruction is a single row of SQLite's `EXPLAIN <query>` output: one
// VDBE bytecode instruction, addressed by row order.
type Instruction struct {
	Addr int64
	Op   string
	P1   int64
	P2   int64
	P3   int64
	P4   string
	P5   int64
	Comment string
}

func (i Instruction) String() string {
	return fmt.Sprintf("%-4d %-16s p1=%-6d p2=%-6d p3=%-6d p4=%-12q  %s",
		i.Addr, i.Op, i.P1, i.P2, i.P3, i.P4, i.Comment)
}

// Program is the full decoded instruction stream of one EXPLAIN call,
// indexable by address for the interpreter's dispatch loop.
type Program []Instruction

// At returns the instruction at addr, or false if addr falls off the
// end of the program.
func (p Program) At(addr int64) (Instruction, bool) {
	if addr < 0 || addr >= int64(len(p)) {
		return Instruction{}, false
	}
	return p[addr], true
}

func (p Program) String() string {
	out := ""
	for _, instr := range p {
		out += instr.String() + "\n"
	}
	return out
}
