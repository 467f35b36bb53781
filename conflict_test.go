package tabular

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.velocidex.com/golang/tabular/types"
)

func TestNewConflictDropsDuplicates(t *testing.T) {
	// int 2 and float 2.0 are the same value.
	conflict := NewConflict(2, 2.0, "x", "x")
	assert.Equal(t, 2, conflict.Len())
	assert.True(t, conflict.Has(2))
	assert.True(t, conflict.Has(2.0))
	assert.True(t, conflict.Has("x"))
	assert.False(t, conflict.Has("y"))
}

func TestConflictEqualIgnoresOrder(t *testing.T) {
	assert.True(t, NewConflict(1, "x").Equal(NewConflict("x", 1)))
	assert.False(t, NewConflict(1, "x").Equal(NewConflict(1, "y")))
	assert.False(t, NewConflict(1, "x").Equal(NewConflict(1, "x", "y")))
}

func TestConflictValuesIsACopy(t *testing.T) {
	conflict := NewConflict(1, 2)
	values := conflict.Values()
	values[0] = 99
	assert.True(t, conflict.Has(1))
}

func TestConflictStringIsOrderIndependent(t *testing.T) {
	assert.Equal(t, "Conflict{1, x}", NewConflict("x", 1).String())
	assert.Equal(t, "Conflict{1, x}", NewConflict(1, "x").String())
}

func TestConflictMarshalJSON(t *testing.T) {
	serialized, err := json.Marshal(NewConflict("b", "a"))
	require.NoError(t, err)
	assert.Equal(t, `{"conflict":["a","b"]}`, string(serialized))
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(NewConflict(1, 2)))
	assert.False(t, IsConflict(1))
	assert.False(t, IsConflict(types.Null{}))
}
