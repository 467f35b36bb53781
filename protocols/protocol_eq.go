package protocols

import (
	"reflect"
	"time"

	"www.velocidex.com/golang/tabular/types"
	"www.velocidex.com/golang/tabular/utils"
)

// Eq determines value equality between two cells. Numbers compare
// across concrete types (int(2) == float64(2.0)), Null equals only
// Null or nil, and slices (compound keys) compare element wise.
func Eq(a types.Any, b types.Any) bool {
	if types.IsNull(a) {
		return types.IsNull(b)
	}
	if types.IsNull(b) {
		return false
	}

	switch t := a.(type) {
	case string:
		rhs, ok := b.(string)
		if ok {
			return t == rhs
		}
		return false

	case bool:
		rhs, ok := b.(bool)
		if ok {
			return t == rhs
		}
		return false

	case float64, float32:
		lhs, _ := utils.ToFloat(t)
		rhs, ok := utils.ToFloat(b)
		if ok {
			return lhs == rhs
		}
		return false

	case time.Time:
		rhs, ok := toTime(b)
		if ok {
			return t.Equal(*rhs)
		}
		return false

	case *time.Time:
		rhs, ok := toTime(b)
		if ok {
			return t.Equal(*rhs)
		}
		return false
	}

	lhs, ok := utils.ToInt64(a)
	if ok {
		if rhs, ok := utils.ToInt64(b); ok {
			return lhs == rhs
		}
		if rhs, ok := utils.ToFloat(b); ok {
			return float64(lhs) == rhs
		}
		return false
	}

	if utils.IsArray(a) && utils.IsArray(b) {
		return arrayEq(a, b)
	}

	return reflect.DeepEqual(a, b)
}

func arrayEq(a types.Any, b types.Any) bool {
	value_a := reflect.ValueOf(a)
	value_b := reflect.ValueOf(b)

	if value_a.Len() != value_b.Len() {
		return false
	}

	for i := 0; i < value_a.Len(); i++ {
		if !Eq(value_a.Index(i).Interface(),
			value_b.Index(i).Interface()) {
			return false
		}
	}

	return true
}
