package vdbe

// CursorKind discriminates CursorDataType.
type CursorKind uint8

const (
	CursorNormal CursorKind = iota
	CursorPseudo
)

// CursorDataType models one VDBE cursor: a Normal cursor backed by a
// sparse column map (with a tri-state emptiness flag), or a Pseudo
// cursor that aliases a Record held in a register.
type CursorDataType struct {
	Kind CursorKind

	// valid when Kind == CursorNormal
	Cols    map[int64]ColumnType
	IsEmpty *bool // nil = unknown, true = definitely empty, false = known non-empty

	// valid when Kind == CursorPseudo
	PseudoReg int64
}

// NormalCursor builds a Normal cursor from a sparse column map.
func NormalCursor(cols map[int64]ColumnType, isEmpty *bool) CursorDataType {
	cp := make(map[int64]ColumnType, len(cols))
	for k, v := range cols {
		cp[k] = v.Clone()
	}
	return CursorDataType{Kind: CursorNormal, Cols: cp, IsEmpty: isEmpty}
}

// CursorFromDenseRecord builds a Normal cursor from a zero-indexed
// column slice, used when opening ephemeral tables/sorters/autoindexes
// with p2 columns of unknown content.
func CursorFromDenseRecord(record []ColumnType, isEmpty *bool) CursorDataType {
	cols := make(map[int64]ColumnType, len(record))
	for i, c := range record {
		cols[int64(i)] = c.Clone()
	}
	return CursorDataType{Kind: CursorNormal, Cols: cols, IsEmpty: isEmpty}
}

// PseudoCursor builds a cursor that aliases the Record held in register
// reg.
func PseudoCursor(reg int64) CursorDataType {
	return CursorDataType{Kind: CursorPseudo, PseudoReg: reg}
}

// Empty reports the cursor's tri-state emptiness. Pseudo cursors always
// hold exactly one row.
func (c CursorDataType) Empty() *bool {
	if c.Kind == CursorPseudo {
		return boolPtr(false)
	}
	return c.IsEmpty
}

// DenseRecord reads the cursor's entire row as a zero-indexed slice,
// substituting DefaultColumn() for any missing slot. For a Pseudo
// cursor, it dereferences the backing register.
func (c CursorDataType) DenseRecord(registers map[int64]RegDataType) []ColumnType {
	switch c.Kind {
	case CursorNormal:
		n := int64(0)
		for idx := range c.Cols {
			if idx+1 > n {
				n = idx + 1
			}
		}
		out := make([]ColumnType, n)
		for i := range out {
			out[i] = DefaultColumn()
		}
		for idx, col := range c.Cols {
			out[idx] = col.Clone()
		}
		return out
	case CursorPseudo:
		if r, ok := registers[c.PseudoReg]; ok && r.Kind == RegSingle && r.Single.Kind == KindRecord {
			out := make([]ColumnType, len(r.Single.Record))
			for i, col := range r.Single.Record {
				out[i] = col.Clone()
			}
			return out
		}
		return nil
	}
	return nil
}

// SparseRecord reads the cursor's columns as a column-index map. For a
// Pseudo cursor, it dereferences the backing register's Record.
func (c CursorDataType) SparseRecord(registers map[int64]RegDataType) map[int64]ColumnType {
	switch c.Kind {
	case CursorNormal:
		out := make(map[int64]ColumnType, len(c.Cols))
		for k, v := range c.Cols {
			out[k] = v.Clone()
		}
		return out
	case CursorPseudo:
		out := make(map[int64]ColumnType)
		if r, ok := registers[c.PseudoReg]; ok && r.Kind == RegSingle && r.Single.Kind == KindRecord {
			for i, col := range r.Single.Record {
				out[int64(i)] = col.Clone()
			}
		}
		return out
	}
	return nil
}

func (c CursorDataType) Clone() CursorDataType {
	switch c.Kind {
	case CursorPseudo:
		return c
	default:
		cols := make(map[int64]ColumnType, len(c.Cols))
		for k, v := range c.Cols {
			cols[k] = v.Clone()
		}
		var isEmpty *bool
		if c.IsEmpty != nil {
			b := *c.IsEmpty
			isEmpty = &b
		}
		return CursorDataType{Kind: CursorNormal, Cols: cols, IsEmpty: isEmpty}
	}
}
