package utils

import (
	"fmt"
	"reflect"

	"github.com/alecthomas/repr"
	"github.com/pkg/errors"

	"www.velocidex.com/golang/tabular/types"
)

func Debug(arg interface{}) {
	if arg != nil {
		repr.Println(arg)
	} else {
		repr.Println("nil")
	}
}

func InString(hay []string, needle string) bool {
	for _, x := range hay {
		if x == needle {
			return true
		}
	}

	return false
}

func IsArray(a interface{}) bool {
	rt := reflect.TypeOf(a)
	if rt == nil {
		return false
	}
	return rt.Kind() == reflect.Slice || rt.Kind() == reflect.Array
}

// Try very hard to convert to a string
func ToString(x interface{}) (string, bool) {
	switch t := x.(type) {
	case string:
		return t, true
	case *string:
		return *t, true
	case []byte:
		return string(t), true
	default:
		return "", false
	}
}

func ToFloat(x interface{}) (float64, bool) {
	switch t := x.(type) {
	case bool:
		if t {
			return 1, true
		} else {
			return 0, true
		}
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case uint:
		return float64(t), true

	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true

	case uint32:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case int64:
		return float64(t), true
	case *float64:
		return *t, true
	case *int:
		return float64(*t), true
	case *uint:
		return float64(*t), true

	default:
		return 0, false
	}
}

// Does x resemble an int?
func IsInt(x interface{}) bool {
	switch x.(type) {
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}

	return false
}

func ToInt64(x interface{}) (int64, bool) {
	switch t := x.(type) {
	case bool:
		if t {
			return 1, true
		} else {
			return 0, true
		}
	case int:
		return int64(t), true
	case uint:
		return int64(t), true
	case uint8:
		return int64(t), true
	case int8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case int16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case int32:
		return int64(t), true
	case uint64:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true

	case *int:
		return int64(*t), true
	case *int64:
		return *t, true

	default:
		return 0, false
	}
}

// HeaderStrings converts a header row to field names. Non-string
// header cells are rendered with fmt so a numeric header still
// produces usable field names.
func HeaderStrings(header types.Row) []string {
	result := make([]string, 0, len(header))
	for _, cell := range header {
		name, ok := ToString(cell)
		if !ok {
			name = fmt.Sprintf("%v", cell)
		}
		result = append(result, name)
	}
	return result
}

// FieldIndex resolves a field name to its position in the header.
// Referencing an unknown field is a data error surfaced here, at the
// point of resolution during iteration.
func FieldIndex(header []string, name string) (int, error) {
	for idx, field := range header {
		if field == name {
			return idx, nil
		}
	}
	return 0, errors.Errorf("field %q not found in header %v", name, header)
}

// Index reads one cell of a row by position, padding short rows with
// Null rather than failing.
func Index(row types.Row, idx int) types.Any {
	if idx < 0 || idx >= len(row) {
		return types.Null{}
	}
	return row[idx]
}
