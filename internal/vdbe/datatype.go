// Package vdbe holds the abstract data model the type inferencer runs
// over: storage types, the register/cursor value lattice, and the
// per-path query state used by the state-space search in
// internal/typeinfer.
package vdbe

import "strings"

// DataType is SQLite's closed set of storage classes as seen by the
// inferencer. Null is the bottom of the lattice; every other tag is an
// incomparable peer.
type DataType uint8

const (
	Null DataType = iota
	Int
	Int64
	Float
	Numeric
	Text
	Blob
	Bool
)

func (d DataType) String() string {
	switch d {
	case Null:
		return "NULL"
	case Int:
		return "INT"
	case Int64:
		return "INT64"
	case Float:
		return "FLOAT"
	case Numeric:
		return "NUMERIC"
	case Text:
		return "TEXT"
	case Blob:
		return "BLOB"
	case Bool:
		return "BOOL"
	default:
		return "UNKNOWN"
	}
}

// ParseDataType maps a declared column type string (as reported by
// pragma_table_info) to a DataType, following SQLite's type-affinity
// rules loosely enough for the catalog loader's purposes. Unrecognized
// or empty declarations yield Null, mirroring the Rust original's
// `datatype.parse().unwrap_or(DataType::Null)`.
func ParseDataType(declared string) DataType {
	t := strings.ToUpper(strings.TrimSpace(declared))
	switch {
	case t == "":
		return Null
	case strings.Contains(t, "INT"):
		return Int64
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return Text
	case strings.Contains(t, "BLOB"):
		return Blob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return Float
	case strings.Contains(t, "BOOL"):
		return Bool
	case strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"), strings.Contains(t, "DATE"):
		// NUMERIC declared affinity is deliberately reported as Null: the
		// inferencer's closed DataType set has no Numeric-affinity member
		// it can commit to beyond the explicit `Numeric` tag used for
		// CAST, so bare-declared NUMERIC columns fall back the same way
		// the Rust original's catalog loader does (see S2 in spec.md §8).
		return Null
	default:
		return Null
	}
}
