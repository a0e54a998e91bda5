package typeinfer

import "github.com/vdbetype/sqlitetypes/internal/vdbe"

// SQLite affinity bytes, as packed into Cast's p2 operand.
const (
	affNone    = 0x40 // '@'
	affBlob    = 0x41 // 'A'
	affText    = 0x42 // 'B'
	affNumeric = 0x43 // 'C'
	affInteger = 0x44 // 'D'
	affReal    = 0x45 // 'E'
)

func affinityToType(affinity int64) vdbe.DataType {
	switch affinity {
	case affBlob:
		return vdbe.Blob
	case affInteger:
		return vdbe.Int64
	case affNumeric:
		return vdbe.Numeric
	case affReal:
		return vdbe.Float
	case affText:
		return vdbe.Text
	default:
		return vdbe.Null
	}
}

// opcodeToType maps a constant-loading opcode to its datatype. Column
// intentionally falls into the Null default: its type is resolved via
// the cursor's record, not the opcode name.
func opcodeToType(op string) vdbe.DataType {
	switch op {
	case opReal:
		return vdbe.Float
	case opBlob:
		return vdbe.Blob
	case opAnd, opOr:
		return vdbe.Bool
	case opRowid, opCount:
		return vdbe.Int64
	case opString8:
		return vdbe.Text
	default:
		return vdbe.Null
	}
}
