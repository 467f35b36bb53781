package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/Velocidex/ordereddict"
	"github.com/stretchr/testify/require"

	"www.velocidex.com/golang/tabular"
	"www.velocidex.com/golang/tabular/types"
)

func makeTable(rows int) types.Table {
	result := []types.Row{{"foo", "bar", "baz"}}
	for i := 0; i < rows; i++ {
		result = append(result, types.Row{
			fmt.Sprintf("key%03d", i%100), i, float64(i) / 2,
		})
	}
	return tabular.FromRows(result...)
}

func drain(b *testing.B, table types.Table) {
	_, err := tabular.Materialize(context.Background(), table)
	require.NoError(b, err)
}

func BenchmarkSimpleAggregate10k(b *testing.B) {
	table := makeTable(10000)
	for n := 0; n < b.N; n++ {
		drain(b, tabular.Aggregate(table, "foo",
			types.AggregateFunc(tabular.Count), nil, tabular.NoCache()))
	}
}

func BenchmarkMultiAggregate10k(b *testing.B) {
	table := makeTable(10000)
	aggregation := ordereddict.NewDict().
		Set("count", types.AggregateFunc(tabular.Count)).
		Set("sumbar", tabular.Aggregation{
			Fields: []string{"bar"}, Fn: tabular.Sum}).
		Set("maxbaz", tabular.Aggregation{
			Fields: []string{"baz"}, Fn: tabular.Max})

	for n := 0; n < b.N; n++ {
		drain(b, tabular.Aggregate(table, "foo", aggregation, nil,
			tabular.NoCache()))
	}
}

func BenchmarkMergeDuplicates10k(b *testing.B) {
	table := makeTable(10000)
	for n := 0; n < b.N; n++ {
		drain(b, tabular.MergeDuplicates(table, "foo", tabular.NoCache()))
	}
}

func BenchmarkSortWithSpills10k(b *testing.B) {
	table := makeTable(10000)
	for n := 0; n < b.N; n++ {
		drain(b, tabular.GroupSelectFirst(table, "foo",
			tabular.BufferSize(1000), tabular.NoCache()))
	}
}
