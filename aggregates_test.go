package tabular

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.velocidex.com/golang/tabular/types"
)

type valueSlice struct {
	values []types.Any
	pos    int
}

func (self *valueSlice) Next(ctx context.Context) (types.Any, error) {
	if self.pos >= len(self.values) {
		return nil, types.EOF
	}
	value := self.values[self.pos]
	self.pos++
	return value, nil
}

func apply(t *testing.T, fn types.AggregateFunc, values ...types.Any) types.Any {
	result, err := fn(context.Background(), &valueSlice{values: values})
	require.NoError(t, err)
	return result
}

func TestCount(t *testing.T) {
	assert.Equal(t, int64(0), apply(t, Count))
	assert.Equal(t, int64(3), apply(t, Count, 1, types.Null{}, "x"))
}

func TestList(t *testing.T) {
	assert.Equal(t, []types.Any{}, apply(t, List))
	assert.Equal(t, []types.Any{1, "x"}, apply(t, List, 1, "x"))
}

func TestSum(t *testing.T) {
	assert.Equal(t, int64(0), apply(t, Sum))
	assert.Equal(t, int64(6), apply(t, Sum, 1, 2, 3))

	// The first float promotes the whole sum.
	assert.Equal(t, float64(3.5), apply(t, Sum, 1, 2.5))
	assert.Equal(t, float64(3.5), apply(t, Sum, 2.5, 1))

	// Nulls do not participate.
	assert.Equal(t, int64(3), apply(t, Sum, 1, types.Null{}, 2))

	_, err := Sum(context.Background(),
		&valueSlice{values: []types.Any{1, "x"}})
	assert.Error(t, err)
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, 1, apply(t, Min, 3, 1, 2))
	assert.Equal(t, 3, apply(t, Max, 3, 1, 2))

	// Mixed numeric widths compare by value.
	assert.Equal(t, int64(1), apply(t, Min, 2.5, int64(1), 3))
	assert.Equal(t, 3, apply(t, Max, 2.5, int64(1), 3))

	// Nulls are skipped; all Null collapses to Null.
	assert.Equal(t, 2, apply(t, Min, types.Null{}, 2))
	assert.Equal(t, types.Null{}, apply(t, Min, types.Null{}, types.Null{}))
	assert.Equal(t, types.Null{}, apply(t, Min))
}

func TestFirstLast(t *testing.T) {
	assert.Equal(t, 1, apply(t, First, 1, 2, 3))
	assert.Equal(t, 3, apply(t, Last, 1, 2, 3))
	assert.Equal(t, types.Null{}, apply(t, First))
	assert.Equal(t, types.Null{}, apply(t, Last))
}

func TestDistinctCount(t *testing.T) {
	assert.Equal(t, int64(0), apply(t, DistinctCount))

	// int 2 and float 2.0 are the same value.
	assert.Equal(t, int64(2), apply(t, DistinctCount, 2, 2.0, "x", "x"))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "", apply(t, Join(",")))
	assert.Equal(t, "a,1,2.5", apply(t, Join(","), "a", 1, 2.5))
}
