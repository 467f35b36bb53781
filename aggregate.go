package tabular

import (
	"context"
	"sync"

	"github.com/Velocidex/ordereddict"
	"github.com/pkg/errors"

	"www.velocidex.com/golang/tabular/grouper"
	"www.velocidex.com/golang/tabular/types"
)

// An Aggregation names the source of one aggregated output column: a
// single field, several fields (the function then receives a tuple of
// their cells per row), or - with Fields unset - the whole rows of
// the group.
type Aggregation struct {
	Fields []string
	Fn     types.AggregateFunc
}

// A NamedAggregation is one entry of the list form of the
// multi-aggregate specification.
type NamedAggregation struct {
	Name string
	Aggregation
}

// Aggregate groups rows under the key and applies aggregation
// functions. The aggregation argument dispatches on shape:
//
//   - an AggregateFunc: a simple aggregate of the value projection
//     (whole rows when value is nil), header (key..., value);
//   - an *ordereddict.Dict or []NamedAggregation: a multi-aggregate,
//     one output column per named aggregation in declaration order
//     (value is ignored);
//   - nil: a multi-aggregate with an initially empty specification,
//     to be populated via MultiAggregateView.Set.
//
// Any other shape is a configuration error, surfaced on iteration.
func Aggregate(table types.Table, key types.Any, aggregation types.Any,
	value types.Any, options ...Option) types.Table {

	switch t := aggregation.(type) {
	case nil:
		return MultiAggregate(table, key, nil, options...)

	case types.AggregateFunc:
		return SimpleAggregate(table, key, t, value, options...)

	case func(ctx context.Context, values types.ValueReader) (types.Any, error):
		return SimpleAggregate(table, key, types.AggregateFunc(t), value, options...)

	case *ordereddict.Dict:
		return MultiAggregate(table, key, t, options...)

	case []NamedAggregation:
		aggregation := ordereddict.NewDict()
		for _, entry := range t {
			aggregation.Set(entry.Name, entry.Aggregation)
		}
		return MultiAggregate(table, key, aggregation, options...)

	default:
		return &errView{err: errors.Errorf(
			"aggregate: expected an aggregation function, an "+
				"*ordereddict.Dict, a []NamedAggregation or nil, got %T", t)}
	}
}

// SimpleAggregate applies one aggregation function per group to the
// projected values (whole rows when value is nil). Output header: the
// key field name(s) ("key" for a derived key) followed by "value".
func SimpleAggregate(table types.Table, key types.Any,
	aggregation types.AggregateFunc, value types.Any,
	options ...Option) types.Table {
	return &SimpleAggregateView{
		source:      table,
		key:         key,
		aggregation: aggregation,
		value:       value,
		options:     options,
	}
}

type SimpleAggregateView struct {
	source      types.Table
	key         types.Any
	aggregation types.AggregateFunc
	value       types.Any
	options     []Option
	memo        sortMemo
}

func (self *SimpleAggregateView) Open(ctx context.Context) (types.RowReader, error) {
	aggregation := self.aggregation
	if aggregation == nil {
		aggregation = List
	}

	spec, err := grouper.ResolveKey(self.key)
	if err != nil {
		return nil, err
	}
	header := headerRow(append(append([]string{}, spec.Columns()...), "value"))

	cfg := newConfig(self.options)
	grouped, err := openGrouped(ctx,
		self.memo.table(self.source, self.key, cfg), self.key)
	if err != nil {
		return nil, err
	}

	if grouped.empty() {
		return &emptyReader{header: header}, nil
	}

	project, err := resolveValue(self.value, grouped.fields)
	if err != nil {
		grouped.Close()
		return nil, err
	}

	return &simpleAggregateReader{
		grouped:     grouped,
		aggregation: aggregation,
		project:     project,
		compound:    spec.Compound,
		header:      header,
	}, nil
}

// Close releases the cached sort behind the view.
func (self *SimpleAggregateView) Close() error {
	return self.memo.release(self.source)
}

type simpleAggregateReader struct {
	grouped     *groupedSource
	aggregation types.AggregateFunc
	project     func(types.Row) types.Any
	compound    bool
	header      types.Row
	sentHeader  bool
}

func (self *simpleAggregateReader) Next(ctx context.Context) (types.Row, error) {
	if !self.sentHeader {
		self.sentHeader = true
		return self.header, nil
	}

	key, group, err := self.grouped.grouper.Next(ctx)
	if err != nil {
		return nil, err
	}

	// The group's values are streamed to the aggregation function,
	// so aggregators like Count never materialize the group just
	// to measure it.
	value, err := self.aggregation(ctx, &groupValues{
		group:   group,
		project: self.project,
	})
	if err != nil {
		return nil, err
	}

	return keyedOutputRow(key, self.compound, value), nil
}

func (self *simpleAggregateReader) Close() error {
	return self.grouped.Close()
}

// keyedOutputRow spreads a compound key over one column per key field
// and appends the aggregated cells.
func keyedOutputRow(key types.Any, compound bool, values ...types.Any) types.Row {
	var row types.Row
	if compound {
		row = append(row, key.(types.Row)...)
	} else {
		row = append(row, key)
	}
	return append(row, values...)
}

// groupValues lazily projects one group's rows into values.
type groupValues struct {
	group   *grouper.Group
	project func(types.Row) types.Any
}

func (self *groupValues) Next(ctx context.Context) (types.Any, error) {
	row, err := self.group.Next(ctx)
	if err != nil {
		return nil, err
	}
	return self.project(row), nil
}

// MultiAggregate applies a named collection of per-field (or whole
// row) aggregation functions per group, one output column per named
// aggregation in declaration order. A nil specification starts empty.
func MultiAggregate(table types.Table, key types.Any,
	aggregation *ordereddict.Dict, options ...Option) *MultiAggregateView {
	if aggregation == nil {
		aggregation = ordereddict.NewDict()
	}
	return &MultiAggregateView{
		source:      table,
		key:         key,
		aggregation: aggregation,
		options:     options,
	}
}

// MultiAggregateView is the one deliberately mutable view: named
// aggregations may be added after construction and take effect on the
// next iteration. Mutating while an iteration is in flight is
// unsupported - the specification is snapshotted when Open is called.
type MultiAggregateView struct {
	source  types.Table
	key     types.Any
	options []Option
	memo    sortMemo

	mu          sync.Mutex
	aggregation *ordereddict.Dict
}

// Set adds (or replaces) a named aggregation. The descriptor shapes
// accepted are those of normalizeAggregation.
func (self *MultiAggregateView) Set(name string, aggregation types.Any) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.aggregation.Set(name, aggregation)
}

// Each descriptor is normalized once per iteration into a closed
// (projection, function) pair rather than re-inspected per row.
type normalizedAggregation struct {
	name  string
	value types.Any // nil, field name or field name list
	fn    types.AggregateFunc
}

func normalizeAggregation(name string, descriptor types.Any) (
	normalizedAggregation, error) {

	result := normalizedAggregation{name: name, fn: List}

	switch t := descriptor.(type) {
	case types.AggregateFunc:
		result.fn = t

	case func(ctx context.Context, values types.ValueReader) (types.Any, error):
		result.fn = types.AggregateFunc(t)

	case string:
		// Bare field name: default aggregation collects the
		// field's values into a list.
		result.value = t

	case []string:
		if len(t) == 0 {
			return result, errors.Errorf(
				"aggregate: %s: empty field list", name)
		}
		if len(t) == 1 {
			result.value = t[0]
		} else {
			result.value = t
		}

	case Aggregation:
		if len(t.Fields) == 1 {
			result.value = t.Fields[0]
		} else if len(t.Fields) > 1 {
			result.value = t.Fields
		}
		if t.Fn != nil {
			result.fn = t.Fn
		}

	case []types.Any:
		// The pair form (source field or field list, function), or a
		// bare function in a one element list meaning whole rows.
		switch len(t) {
		case 1:
			fn, err := descriptorFunc(name, t[0])
			if err != nil {
				return result, err
			}
			result.fn = fn

		case 2:
			switch field := t[0].(type) {
			case string:
				result.value = field
			case []string:
				if len(field) == 0 {
					return result, errors.Errorf(
						"aggregate: %s: empty field list", name)
				}
				if len(field) == 1 {
					result.value = field[0]
				} else {
					result.value = field
				}
			default:
				return result, errors.Errorf(
					"aggregate: %s: descriptor pair must name a field "+
						"or field list, got %T", name, field)
			}
			fn, err := descriptorFunc(name, t[1])
			if err != nil {
				return result, err
			}
			result.fn = fn

		default:
			return result, errors.Errorf(
				"aggregate: %s: descriptor list must be (function) "+
					"or (field, function)", name)
		}

	default:
		return result, errors.Errorf(
			"aggregate: %s: invalid aggregation descriptor %T", name, descriptor)
	}

	return result, nil
}

func descriptorFunc(name string, fn types.Any) (types.AggregateFunc, error) {
	switch t := fn.(type) {
	case types.AggregateFunc:
		return t, nil
	case func(ctx context.Context, values types.ValueReader) (types.Any, error):
		return types.AggregateFunc(t), nil
	default:
		return nil, errors.Errorf(
			"aggregate: %s: expected an aggregation function, got %T", name, fn)
	}
}

func (self *MultiAggregateView) Open(ctx context.Context) (types.RowReader, error) {
	// Snapshot and normalize the specification up front.
	self.mu.Lock()
	var normalized []normalizedAggregation
	var firstErr error
	for _, name := range self.aggregation.Keys() {
		descriptor, _ := self.aggregation.Get(name)
		agg, err := normalizeAggregation(name, descriptor)
		if err != nil {
			firstErr = err
			break
		}
		normalized = append(normalized, agg)
	}
	self.mu.Unlock()
	if firstErr != nil {
		return nil, firstErr
	}

	spec, err := grouper.ResolveKey(self.key)
	if err != nil {
		return nil, err
	}

	fields := append([]string{}, spec.Columns()...)
	for _, agg := range normalized {
		fields = append(fields, agg.name)
	}
	header := headerRow(fields)

	cfg := newConfig(self.options)
	grouped, err := openGrouped(ctx,
		self.memo.table(self.source, self.key, cfg), self.key)
	if err != nil {
		return nil, err
	}

	if grouped.empty() {
		return &emptyReader{header: header}, nil
	}

	// Field positions resolve against the header once, not per row.
	projections := make([]func(types.Row) types.Any, 0, len(normalized))
	for _, agg := range normalized {
		project, err := resolveValue(agg.value, grouped.fields)
		if err != nil {
			grouped.Close()
			return nil, err
		}
		projections = append(projections, project)
	}

	return &multiAggregateReader{
		grouped:     grouped,
		normalized:  normalized,
		projections: projections,
		compound:    spec.Compound,
		header:      header,
	}, nil
}

// Close releases the cached sort behind the view.
func (self *MultiAggregateView) Close() error {
	return self.memo.release(self.source)
}

type multiAggregateReader struct {
	grouped     *groupedSource
	normalized  []normalizedAggregation
	projections []func(types.Row) types.Any
	compound    bool
	header      types.Row
	sentHeader  bool
}

func (self *multiAggregateReader) Next(ctx context.Context) (types.Row, error) {
	if !self.sentHeader {
		self.sentHeader = true
		return self.header, nil
	}

	key, group, err := self.grouped.grouper.Next(ctx)
	if err != nil {
		return nil, err
	}

	// Several aggregations must each see the whole group
	// independently, so this one group is realized in memory.
	rows, err := group.Materialize(ctx)
	if err != nil {
		return nil, err
	}

	values := make([]types.Any, 0, len(self.normalized))
	for idx, agg := range self.normalized {
		value, err := agg.fn(ctx, &sliceValues{
			rows:    rows,
			project: self.projections[idx],
		})
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}

	return keyedOutputRow(key, self.compound, values...), nil
}

func (self *multiAggregateReader) Close() error {
	return self.grouped.Close()
}

// sliceValues replays a materialized group for one aggregation.
type sliceValues struct {
	rows    []types.Row
	project func(types.Row) types.Any
	pos     int
}

func (self *sliceValues) Next(ctx context.Context) (types.Any, error) {
	if self.pos >= len(self.rows) {
		return nil, types.EOF
	}
	row := self.rows[self.pos]
	self.pos++
	return self.project(row), nil
}
