package types

import "reflect"

// Null is the missing value marker. It encodes to JSON NULL. Using
// go's nil in row cells is dangerous because it forces constant
// checking for nil pointer dereference, so transforms that need to
// pad or blank a cell return this value instead.
type Null struct{}

func (self Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func (self Null) String() string {
	return "Null"
}

// IsNull is true only for Null itself and untyped nil, not for other
// empty-ish values.
func IsNull(a Any) bool {
	switch a.(type) {
	case nil, Null, *Null:
		return true
	}
	return false
}

func IsNil(a Any) bool {
	if a == nil {
		return true
	}

	switch a.(type) {
	case Null, *Null:
		return true
	default:
		switch reflect.TypeOf(a).Kind() {
		case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Slice:
			//use of IsNil method
			return reflect.ValueOf(a).IsNil()
		}
		return false
	}
}
