// Package protocols implements value comparison over the dynamic
// cell types a table may hold. Sorting and grouping are both defined
// in terms of Lt and Eq so that group boundaries always coincide with
// sort order breaks.
package protocols

import (
	"time"

	"www.velocidex.com/golang/tabular/types"
	"www.velocidex.com/golang/tabular/utils"
)

// Comparison table
// LHS   RHS  -> Promoted
// int   int  -> lhs < rhs
// int   float -> float(lhs) < rhs
// float int  -> lhs < float(rhs)
// float float -> lhs < rhs

func intLt(lhs int64, b types.Any) bool {
	switch b.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		rhs, _ := utils.ToInt64(b)
		return lhs < rhs
	case float64, float32:
		rhs, _ := utils.ToFloat(b)
		return float64(lhs) < rhs
	}
	return false
}

// Lt establishes the sort order between two cells. Null sorts before
// everything else so missing values cluster at the front of a sorted
// run regardless of the field type. Values of incomparable types are
// never less than each other - the sort leaves their relative order
// alone.
func Lt(a types.Any, b types.Any) bool {
	if types.IsNull(a) {
		return !types.IsNull(b)
	}
	if types.IsNull(b) {
		return false
	}

	switch t := a.(type) {
	case string:
		rhs, ok := b.(string)
		if ok {
			return t < rhs
		}

	case bool:
		rhs, ok := b.(bool)
		if ok {
			return !t && rhs
		}

		// If it is integer like, coerce to int.
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		lhs, ok := utils.ToInt64(t)
		if ok {
			return intLt(lhs, b)
		}

	case float64, float32:
		lhs, _ := utils.ToFloat(t)
		rhs, ok := utils.ToFloat(b)
		if ok {
			return lhs < rhs
		}

	case time.Time:
		rhs, ok := toTime(b)
		if ok {
			return t.Before(*rhs)
		}

	case *time.Time:
		rhs, ok := toTime(b)
		if ok {
			return t.Before(*rhs)
		}

	case types.Row:
		rhs, ok := b.(types.Row)
		if ok {
			return rowLt(t, rhs)
		}
	}

	return false
}

// Compound keys compare element wise, shorter tuples first on a tie.
func rowLt(a types.Row, b types.Row) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if Lt(a[i], b[i]) {
			return true
		}
		if !Eq(a[i], b[i]) {
			return false
		}
	}
	return len(a) < len(b)
}

func toTime(a types.Any) (*time.Time, bool) {
	switch t := a.(type) {
	case time.Time:
		return &t, true
	case *time.Time:
		return t, true
	default:
		return nil, false
	}
}
