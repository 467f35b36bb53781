package tabular

import (
	"context"

	"github.com/pkg/errors"

	"www.velocidex.com/golang/tabular/types"
)

// RowReduce groups rows under the key and applies reducer once per
// group, producing exactly one output row per distinct key value. The
// reducer alone governs the arity and content of its output row. The
// output header is the WithHeader option if given, otherwise the
// source's own header.
func RowReduce(table types.Table, key types.Any,
	reducer types.ReduceFunc, options ...Option) types.Table {
	return &RowReduceView{
		source:  table,
		key:     key,
		reducer: reducer,
		options: options,
	}
}

type RowReduceView struct {
	source  types.Table
	key     types.Any
	reducer types.ReduceFunc
	options []Option
	memo    sortMemo
}

func (self *RowReduceView) Open(ctx context.Context) (types.RowReader, error) {
	if self.reducer == nil {
		return nil, errors.New("rowreduce: reducer is required")
	}

	cfg := newConfig(self.options)
	grouped, err := openGrouped(ctx,
		self.memo.table(self.source, self.key, cfg), self.key)
	if err != nil {
		return nil, err
	}

	if grouped.empty() {
		if cfg.header != nil {
			return &emptyReader{header: headerRow(cfg.header)}, nil
		}
		return &emptyReader{}, nil
	}

	header := grouped.header
	if cfg.header != nil {
		header = headerRow(cfg.header)
	}

	return &rowReduceReader{
		grouped: grouped,
		reducer: self.reducer,
		header:  header,
	}, nil
}

// Close releases the cached sort behind the view.
func (self *RowReduceView) Close() error {
	return self.memo.release(self.source)
}

type rowReduceReader struct {
	grouped    *groupedSource
	reducer    types.ReduceFunc
	header     types.Row
	sentHeader bool
}

func (self *rowReduceReader) Next(ctx context.Context) (types.Row, error) {
	if !self.sentHeader {
		self.sentHeader = true
		return self.header, nil
	}

	key, group, err := self.grouped.grouper.Next(ctx)
	if err != nil {
		return nil, err
	}

	// Errors inside the reducer propagate to the caller
	// uninterpreted.
	return self.reducer(ctx, key, group)
}

func (self *rowReduceReader) Close() error {
	return self.grouped.Close()
}

// GroupSelectFirst returns the first row within each group.
func GroupSelectFirst(table types.Table, key types.Any,
	options ...Option) types.Table {
	reducer := func(ctx context.Context, key types.Any,
		rows types.RowReader) (types.Row, error) {
		return rows.Next(ctx)
	}
	return RowReduce(table, key, reducer, options...)
}

// GroupSelectMin returns the row with the minimum of the value field
// within each group. Only one row is returned per group even when
// several rows tie on the extreme value.
//
// The value re-sort destroys any key order the input had, so a
// caller's Presorted assertion never reaches the grouping stage.
func GroupSelectMin(table types.Table, key types.Any, value types.Any,
	options ...Option) types.Table {
	cfg := newConfig(options)
	opts := cfg.sortOptions()
	opts.Presorted = false
	ordered := cfg.sorter.Sort(table, value, opts)
	return GroupSelectFirst(ordered, key, append(options, notPresorted())...)
}

// GroupSelectMax returns the row with the maximum of the value field
// within each group.
func GroupSelectMax(table types.Table, key types.Any, value types.Any,
	options ...Option) types.Table {
	cfg := newConfig(options)
	opts := cfg.sortOptions()
	opts.Presorted = false
	opts.Reverse = true
	ordered := cfg.sorter.Sort(table, value, opts)
	return GroupSelectFirst(ordered, key, append(options, notPresorted())...)
}
