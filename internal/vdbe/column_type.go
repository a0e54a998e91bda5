package vdbe

// ColumnKind discriminates the ColumnType sum type. Go has no native sum
// types, so ColumnType is a discriminated struct: construct it only
// through SingleColumn/RecordColumn/NullColumn/DefaultColumn so the Kind
// tag and payload never drift apart.
type ColumnKind uint8

const (
	KindSingle ColumnKind = iota
	KindRecord
)

// ColumnType is a scalar's inferred type (Single) or a packed row value
// produced by MakeRecord/row reads (Record).
type ColumnType struct {
	Kind     ColumnKind
	Datatype DataType  // valid when Kind == KindSingle
	Nullable *bool     // valid when Kind == KindSingle; nil means unknown
	Record   []ColumnType // valid when Kind == KindRecord
}

// DefaultColumn is the zero value for a register/column: unknown
// datatype, unknown nullability. Used whenever a referenced register,
// cursor or column is missing.
func DefaultColumn() ColumnType {
	return ColumnType{Kind: KindSingle, Datatype: Null, Nullable: nil}
}

// NullColumn is a concrete SQL NULL: Null datatype, known-nullable.
func NullColumn() ColumnType {
	t := true
	return ColumnType{Kind: KindSingle, Datatype: Null, Nullable: &t}
}

// SingleColumn builds a scalar ColumnType.
func SingleColumn(dt DataType, nullable *bool) ColumnType {
	return ColumnType{Kind: KindSingle, Datatype: dt, Nullable: nullable}
}

// RecordColumn builds a packed-row ColumnType.
func RecordColumn(cols []ColumnType) ColumnType {
	return ColumnType{Kind: KindRecord, Record: cols}
}

// ToDataType coerces a ColumnType to a scalar DataType. Coercing a
// Record yields Null: records are never meaningful as scalars, this is
// an error sentinel rather than a legitimate inferred value.
func (c ColumnType) ToDataType() DataType {
	if c.Kind == KindRecord {
		return Null
	}
	return c.Datatype
}

// ToNullable coerces a ColumnType to its nullability. A Record's
// nullability is unknown, for the same reason ToDataType returns Null.
func (c ColumnType) ToNullable() *bool {
	if c.Kind == KindRecord {
		return nil
	}
	return c.Nullable
}

// Clone deep-copies a ColumnType so that forked QueryStates never share
// mutable structure.
func (c ColumnType) Clone() ColumnType {
	out := c
	if c.Nullable != nil {
		n := *c.Nullable
		out.Nullable = &n
	}
	if c.Record != nil {
		out.Record = make([]ColumnType, len(c.Record))
		for i, r := range c.Record {
			out.Record[i] = r.Clone()
		}
	}
	return out
}

// Equal reports whether two ColumnTypes carry the same tag and payload
// (structural identity, not a general equivalence relation over
// inferred types). BranchStateHash does not use it: Hash builds its key
// with encodeCol.
func (c ColumnType) Equal(o ColumnType) bool {
	if c.Kind != o.Kind {
		return false
	}
	if c.Kind == KindRecord {
		if len(c.Record) != len(o.Record) {
			return false
		}
		for i := range c.Record {
			if !c.Record[i].Equal(o.Record[i]) {
				return false
			}
		}
		return true
	}
	if c.Datatype != o.Datatype {
		return false
	}
	return boolPtrEqual(c.Nullable, o.Nullable)
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func boolPtr(v bool) *bool { return &v }
