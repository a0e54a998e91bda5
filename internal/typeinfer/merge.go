package typeinfer

import "github.com/vdbetype/sqlitetypes/internal/vdbe"

// Merge combines every result state's ResultRow projection into one
// output shape: per column, the first non-Null concrete datatype seen
// wins, and nullability is OR-merged across every state that reached
// that column.
func Merge(states []*vdbe.QueryState) ([]vdbe.DataType, []*bool) {
	var output []vdbe.DataType
	var nullable []*bool

	for _, st := range states {
		if st.Result == nil {
			continue
		}
		for idx, col := range st.Result {
			switch {
			case idx == len(output):
				output = append(output, col.Datatype)
			case output[idx] == vdbe.Null:
				output[idx] = col.Datatype
			}

			switch {
			case idx == len(nullable):
				nullable = append(nullable, col.Nullable)
			case nullable[idx] != nil && col.Nullable != nil:
				merged := *nullable[idx] || *col.Nullable
				nullable[idx] = &merged
			case nullable[idx] == nil:
				nullable[idx] = col.Nullable
			}
		}
	}

	return output, nullable
}
