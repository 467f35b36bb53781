package tabular

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.velocidex.com/golang/tabular/types"
)

func TestMergeDuplicates(t *testing.T) {
	table := FromRows(
		types.Row{"foo", "bar", "baz"},
		types.Row{"A", 1, 2.7},
		types.Row{"B", 2, types.Null{}},
		types.Row{"D", 3, 9.4},
		types.Row{"B", types.Null{}, 7.8},
		types.Row{"E", types.Null{}, 5.5},
		types.Row{"D", 3, 12.3},
		types.Row{"A", 2, types.Null{}},
	)

	rows := materializeTable(t, MergeDuplicates(table, "foo"))
	require.Len(t, rows, 5)
	assert.Equal(t, types.Row{"foo", "bar", "baz"}, rows[0])

	// A: two distinct bars conflict, the single baz wins over the
	// missing one.
	assert.Equal(t, "A", rows[1][0])
	conflict, ok := rows[1][1].(Conflict)
	require.True(t, ok)
	assert.True(t, conflict.Equal(NewConflict(1, 2)))
	assert.Equal(t, 2.7, rows[1][2])

	// B: a missing value never overrides a concrete one.
	assert.Equal(t, types.Row{"B", 2, 7.8}, rows[2])

	// D: the repeated bar collapses, the differing bazes conflict.
	assert.Equal(t, "D", rows[3][0])
	assert.Equal(t, 3, rows[3][1])
	conflict, ok = rows[3][2].(Conflict)
	require.True(t, ok)
	assert.True(t, conflict.Equal(NewConflict(9.4, 12.3)))

	// E: no concrete value at all leaves the missing sentinel.
	assert.Equal(t, types.Row{"E", types.Null{}, 5.5}, rows[4])
}

func TestMergeDuplicatesCompoundKey(t *testing.T) {
	table := FromRows(
		types.Row{"foo", "bar", "baz"},
		types.Row{"a", 1, "x"},
		types.Row{"a", 1, "y"},
		types.Row{"a", 2, "z"},
	)

	rows := materializeTable(t, MergeDuplicates(table, []string{"foo", "bar"}))
	require.Len(t, rows, 3)
	assert.Equal(t, types.Row{"foo", "bar", "baz"}, rows[0])

	conflict, ok := rows[1][2].(Conflict)
	require.True(t, ok)
	assert.True(t, conflict.Equal(NewConflict("x", "y")))
	assert.Equal(t, types.Row{"a", 2, "z"}, rows[2])
}

func TestMergeDuplicatesReordersKeyFirst(t *testing.T) {
	table := FromRows(
		types.Row{"bar", "foo"},
		types.Row{1, "a"},
		types.Row{2, "b"},
	)

	assert.Equal(t, []types.Row{
		{"foo", "bar"},
		{"a", 1},
		{"b", 2},
	}, materializeTable(t, MergeDuplicates(table, "foo")))
}

func TestMergeDuplicatesCustomMissing(t *testing.T) {
	table := FromRows(
		types.Row{"foo", "bar"},
		types.Row{"a", "NA"},
		types.Row{"a", 7},
	)

	merged := MergeDuplicates(table, "foo", Missing("NA"))
	assert.Equal(t, []types.Row{
		{"foo", "bar"},
		{"a", 7},
	}, materializeTable(t, merged))
}

func TestMergeDuplicatesShortRowsContributeNothing(t *testing.T) {
	table := FromRows(
		types.Row{"foo", "bar", "baz"},
		types.Row{"a", 1},
		types.Row{"a", 1, "x"},
	)

	assert.Equal(t, []types.Row{
		{"foo", "bar", "baz"},
		{"a", 1, "x"},
	}, materializeTable(t, MergeDuplicates(table, "foo")))
}

func TestMergeDuplicatesIsIdempotent(t *testing.T) {
	table := FromRows(
		types.Row{"foo", "bar"},
		types.Row{"a", 1},
		types.Row{"a", 2},
		types.Row{"b", 3},
	)

	once := materializeTable(t, MergeDuplicates(table, "foo"))
	twice := materializeTable(t,
		MergeDuplicates(MergeDuplicates(table, "foo"), "foo"))
	assert.Equal(t, once, twice)
}

func TestMergeDuplicatesRejectsDerivedKey(t *testing.T) {
	table := FromRows(types.Row{"foo"}, types.Row{"a"})

	key := types.KeyFunc(func(header []string, row types.Row) (types.Any, error) {
		return row[0], nil
	})

	_, err := Materialize(context.Background(),
		MergeDuplicates(table, key))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "field name")
}

func TestMergeCombinesTables(t *testing.T) {
	left := FromRows(
		types.Row{"foo", "bar"},
		types.Row{1, "A"},
		types.Row{2, "B"},
	)
	right := FromRows(
		types.Row{"foo", "bar"},
		types.Row{2, "C"},
		types.Row{3, "D"},
	)

	rows := materializeTable(t, Merge("foo", []types.Table{left, right}))
	require.Len(t, rows, 4)
	assert.Equal(t, types.Row{"foo", "bar"}, rows[0])
	assert.Equal(t, types.Row{1, "A"}, rows[1])

	// Key 2 appears in both sources with differing values.
	conflict, ok := rows[2][1].(Conflict)
	require.True(t, ok)
	assert.True(t, conflict.Equal(NewConflict("B", "C")))

	assert.Equal(t, types.Row{3, "D"}, rows[3])
}

func TestMergeWidensDifferingHeaders(t *testing.T) {
	left := FromRows(
		types.Row{"foo", "bar"},
		types.Row{1, "A"},
	)
	right := FromRows(
		types.Row{"foo", "baz"},
		types.Row{1, 9.4},
		types.Row{2, 7.8},
	)

	assert.Equal(t, []types.Row{
		{"foo", "bar", "baz"},
		{1, "A", 9.4},
		{2, types.Null{}, 7.8},
	}, materializeTable(t, Merge("foo", []types.Table{left, right})))
}
