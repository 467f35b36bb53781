package grouper

import (
	"github.com/pkg/errors"

	"www.velocidex.com/golang/tabular/types"
	"www.velocidex.com/golang/tabular/utils"
)

// A KeySpec is the normalized form of the dynamic key argument
// accepted by the views: a single field name, a slice of field names
// (compound key, comparing element wise), or a KeyFunc deriving the
// key from the row. The same spec drives both sorting and grouping.
type KeySpec struct {
	// Exactly one of Fields or Fn is set.
	Fields []string
	Fn     types.KeyFunc

	// A compound key yields a types.Row of the field values and
	// spreads into one output column per field.
	Compound bool
}

// ResolveKey checks the shape of a key argument. Shape problems are
// configuration errors; whether the named fields exist is not checked
// until Extractor resolves them against a real header.
func ResolveKey(key types.Any) (*KeySpec, error) {
	switch t := key.(type) {
	case string:
		return &KeySpec{Fields: []string{t}}, nil

	case []string:
		if len(t) == 0 {
			return nil, errors.New("key: empty field list")
		}
		if len(t) == 1 {
			return &KeySpec{Fields: t}, nil
		}
		return &KeySpec{Fields: t, Compound: true}, nil

	case types.KeyFunc:
		return &KeySpec{Fn: t}, nil

	case func(header []string, row types.Row) (types.Any, error):
		return &KeySpec{Fn: t}, nil

	default:
		return nil, errors.Errorf(
			"key: expected field name, field name list or key function, got %T", key)
	}
}

// Columns are the key's output column names: the field names
// themselves, or "key" for a derived key.
func (self *KeySpec) Columns() []string {
	if self.Fn != nil {
		return []string{"key"}
	}
	return self.Fields
}

// Extractor resolves the spec against a header. Field positions are
// resolved once, here, not per row; a missing field is a data error
// surfaced at this point of the iteration.
func (self *KeySpec) Extractor(header []string) (Extractor, error) {
	if self.Fn != nil {
		fn := self.Fn
		return func(row types.Row) (types.Any, error) {
			return fn(header, row)
		}, nil
	}

	idxs := make([]int, 0, len(self.Fields))
	for _, field := range self.Fields {
		idx, err := utils.FieldIndex(header, field)
		if err != nil {
			return nil, err
		}
		idxs = append(idxs, idx)
	}

	if !self.Compound {
		idx := idxs[0]
		return func(row types.Row) (types.Any, error) {
			return utils.Index(row, idx), nil
		}, nil
	}

	return func(row types.Row) (types.Any, error) {
		key := make(types.Row, 0, len(idxs))
		for _, idx := range idxs {
			key = append(key, utils.Index(row, idx))
		}
		return key, nil
	}, nil
}
