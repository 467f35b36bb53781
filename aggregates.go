// Library aggregation functions for use with Aggregate. Each consumes
// a lazy stream of values; only those that genuinely need the whole
// group (List, Join) collect it.
package tabular

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"www.velocidex.com/golang/tabular/protocols"
	"www.velocidex.com/golang/tabular/types"
	"www.velocidex.com/golang/tabular/utils"
)

// Count counts the group's values in a single streaming pass - the
// group is never materialized just to measure its length.
func Count(ctx context.Context, values types.ValueReader) (types.Any, error) {
	count := int64(0)
	for {
		_, err := values.Next(ctx)
		if err == types.EOF {
			return count, nil
		}
		if err != nil {
			return nil, err
		}
		count++
	}
}

// List collects the group's values. This is the default aggregation.
func List(ctx context.Context, values types.ValueReader) (types.Any, error) {
	result := []types.Any{}
	for {
		value, err := values.Next(ctx)
		if err == types.EOF {
			return result, nil
		}
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}
}

// Sum adds the group's values. Integer values accumulate as int64
// until the first float promotes the sum to float64. Null values are
// skipped; anything non-numeric is an error.
func Sum(ctx context.Context, values types.ValueReader) (types.Any, error) {
	var (
		intSum   int64
		floatSum float64
		isFloat  bool
	)

	for {
		value, err := values.Next(ctx)
		if err == types.EOF {
			if isFloat {
				return floatSum, nil
			}
			return intSum, nil
		}
		if err != nil {
			return nil, err
		}

		if types.IsNull(value) {
			continue
		}

		switch {
		case !isFloat && utils.IsInt(value):
			lhs, _ := utils.ToInt64(value)
			intSum += lhs

		default:
			rhs, ok := utils.ToFloat(value)
			if !ok {
				return nil, errors.Errorf("sum: non numeric value %v", value)
			}
			if !isFloat {
				isFloat = true
				floatSum = float64(intSum)
			}
			floatSum += rhs
		}
	}
}

// Min returns the smallest value in the group, Null values skipped. A
// group with only Nulls yields Null.
func Min(ctx context.Context, values types.ValueReader) (types.Any, error) {
	return extreme(ctx, values, false)
}

// Max returns the largest value in the group, Null values skipped.
func Max(ctx context.Context, values types.ValueReader) (types.Any, error) {
	return extreme(ctx, values, true)
}

func extreme(ctx context.Context, values types.ValueReader,
	largest bool) (types.Any, error) {

	var best types.Any = types.Null{}
	found := false

	for {
		value, err := values.Next(ctx)
		if err == types.EOF {
			return best, nil
		}
		if err != nil {
			return nil, err
		}

		if types.IsNull(value) {
			continue
		}
		if !found {
			best = value
			found = true
			continue
		}
		if largest == protocols.Lt(best, value) {
			best = value
		}
	}
}

// First returns the group's first value.
func First(ctx context.Context, values types.ValueReader) (types.Any, error) {
	value, err := values.Next(ctx)
	if err == types.EOF {
		return types.Null{}, nil
	}
	return value, err
}

// Last returns the group's last value.
func Last(ctx context.Context, values types.ValueReader) (types.Any, error) {
	var last types.Any = types.Null{}
	for {
		value, err := values.Next(ctx)
		if err == types.EOF {
			return last, nil
		}
		if err != nil {
			return nil, err
		}
		last = value
	}
}

// DistinctCount counts the distinct values within the group by value
// equality.
func DistinctCount(ctx context.Context, values types.ValueReader) (types.Any, error) {
	var seen []types.Any
	for {
		value, err := values.Next(ctx)
		if err == types.EOF {
			return int64(len(seen)), nil
		}
		if err != nil {
			return nil, err
		}

		duplicate := false
		for _, member := range seen {
			if protocols.Eq(member, value) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			seen = append(seen, value)
		}
	}
}

// Join renders the group's values as text joined with sep.
func Join(sep string) types.AggregateFunc {
	return func(ctx context.Context, values types.ValueReader) (types.Any, error) {
		var parts []string
		for {
			value, err := values.Next(ctx)
			if err == types.EOF {
				return strings.Join(parts, sep), nil
			}
			if err != nil {
				return nil, err
			}
			parts = append(parts, fmt.Sprintf("%v", value))
		}
	}
}
