package vdbe

// ResultColumn is one column of a ResultRow, as captured the instant
// that ResultRow is reached on a given path.
type ResultColumn struct {
	Datatype DataType
	Nullable *bool
}

// QueryState is the unit of exploration carried by the interpreter's
// work queue: one hypothetical execution path through the VDBE
// program, with its own register file, cursor file and program
// counter.
type QueryState struct {
	// Visited counts instruction visits by address, saturating at
	// MAX_LOOP_COUNT+1 worth of detection rather than overflowing.
	Visited map[int64]int

	// History is the ordered list of instruction addresses taken on
	// this path, kept for diagnostic logging only.
	History []int64

	Registers map[int64]RegDataType
	Cursors   map[int64]CursorDataType

	ProgramCounter int64

	// Result is set once this path has reached a ResultRow.
	Result []ResultColumn
}

// NewQueryState returns the single initial state an explain call seeds
// its work queue with: program counter 0, empty registers and cursors.
func NewQueryState() *QueryState {
	return &QueryState{
		Visited:        make(map[int64]int),
		History:        nil,
		Registers:      make(map[int64]RegDataType),
		Cursors:        make(map[int64]CursorDataType),
		ProgramCounter: 0,
	}
}

// VisitCount reports how many times addr has been visited on this
// path so far.
func (q *QueryState) VisitCount(addr int64) int {
	return q.Visited[addr]
}

// Visit records a visit to addr, pushing it onto history.
func (q *QueryState) Visit(addr int64) {
	q.Visited[addr]++
	q.History = append(q.History, addr)
}

// Clone deep-copies a QueryState so that forking a branch never lets
// two paths share mutable register/cursor structure.
func (q *QueryState) Clone() *QueryState {
	visited := make(map[int64]int, len(q.Visited))
	for k, v := range q.Visited {
		visited[k] = v
	}
	history := make([]int64, len(q.History))
	copy(history, q.History)
	registers := make(map[int64]RegDataType, len(q.Registers))
	for k, v := range q.Registers {
		registers[k] = v.Clone()
	}
	cursors := make(map[int64]CursorDataType, len(q.Cursors))
	for k, v := range q.Cursors {
		cursors[k] = v.Clone()
	}
	var result []ResultColumn
	if q.Result != nil {
		result = make([]ResultColumn, len(q.Result))
		copy(result, q.Result)
	}
	return &QueryState{
		Visited:        visited,
		History:        history,
		Registers:      registers,
		Cursors:        cursors,
		ProgramCounter: q.ProgramCounter,
		Result:         result,
	}
}

// Fork is a convenience for the branch-creation discipline: clone the
// state and set the clone's program counter to target.
func (q *QueryState) Fork(target int64) *QueryState {
	c := q.Clone()
	c.ProgramCounter = target
	return c
}
