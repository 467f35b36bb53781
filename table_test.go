package tabular

import (
	"context"
	"io"
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.velocidex.com/golang/tabular/types"
)

func TestMemTableIsRestartable(t *testing.T) {
	table := FromRows(
		types.Row{"foo"},
		types.Row{"a"},
	)

	first := materializeTable(t, table)
	second := materializeTable(t, table)
	assert.Equal(t, first, second)
}

func TestViewsAreRestartable(t *testing.T) {
	table := FromRows(
		types.Row{"foo", "bar"},
		types.Row{"b", 1},
		types.Row{"a", 2},
	)

	counted := Aggregate(table, "foo", types.AggregateFunc(Count), nil)
	first := materializeTable(t, counted)
	second := materializeTable(t, counted)
	assert.Equal(t, first, second)
}

func TestCancelledContextStopsIteration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table := FromRows(types.Row{"foo"}, types.Row{"a"})
	_, err := Materialize(ctx, table)
	assert.Equal(t, context.Canceled, err)
}

func spillNames(t *testing.T, dir string) []string {
	infos, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names
}

func TestViewCloseReleasesSpillFiles(t *testing.T) {
	tempdir, err := ioutil.TempDir("", "tabular-view-test")
	require.NoError(t, err)
	defer os.RemoveAll(tempdir)

	table := FromRows(
		types.Row{"foo", "bar"},
		types.Row{"b", 1},
		types.Row{"a", 2},
		types.Row{"c", 3},
		types.Row{"a", 4},
		types.Row{"b", 5},
		types.Row{"c", 6},
	)

	counted := Aggregate(table, "foo", types.AggregateFunc(Count), nil,
		BufferSize(2), TempDir(tempdir))

	expected := []types.Row{
		{"foo", "value"},
		{"a", int64(2)},
		{"b", int64(2)},
		{"c", int64(2)},
	}
	assert.Equal(t, expected, materializeTable(t, counted))

	// The completed sort stays cached on the view, and a second
	// iteration replays the identical spilled runs.
	names := spillNames(t, tempdir)
	require.NotEmpty(t, names)
	assert.Equal(t, expected, materializeTable(t, counted))
	assert.Equal(t, names, spillNames(t, tempdir))

	// Closing the view is the release point for the cached runs.
	closer, ok := counted.(io.Closer)
	require.True(t, ok)
	require.NoError(t, closer.Close())
	assert.Empty(t, spillNames(t, tempdir))
}

func TestMergeCloseReleasesSpillFiles(t *testing.T) {
	tempdir, err := ioutil.TempDir("", "tabular-merge-test")
	require.NoError(t, err)
	defer os.RemoveAll(tempdir)

	left := FromRows(
		types.Row{"foo", "bar"},
		types.Row{4, "d"},
		types.Row{2, "b"},
		types.Row{3, "c"},
		types.Row{1, "a"},
	)
	right := FromRows(
		types.Row{"foo", "bar"},
		types.Row{8, "h"},
		types.Row{6, "f"},
		types.Row{7, "g"},
		types.Row{5, "e"},
	)

	merged := Merge("foo", []types.Table{left, right},
		BufferSize(2), TempDir(tempdir))

	rows := materializeTable(t, merged)
	assert.Len(t, rows, 9)
	require.NotEmpty(t, spillNames(t, tempdir))

	// Close reaches through the merged view to the per-source sorts.
	closer, ok := merged.(io.Closer)
	require.True(t, ok)
	require.NoError(t, closer.Close())
	assert.Empty(t, spillNames(t, tempdir))
}

func TestInvalidValueShape(t *testing.T) {
	table := FromRows(types.Row{"foo"}, types.Row{"a"})

	aggregated := SimpleAggregate(table, "foo", Count, 42)
	_, err := Materialize(context.Background(), aggregated)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "field name")
}
