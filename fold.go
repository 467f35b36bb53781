package tabular

import (
	"context"

	"github.com/pkg/errors"

	"www.velocidex.com/golang/tabular/types"
)

// Fold reduces each group's values recursively: a strict left to
// right reduction with no initial value, so a group of one element
// yields that element unchanged. The output header is always
// (key, value).
//
// The reduction order is the order rows arrive from the sort step,
// which among equal keys is only as stable as the underlying sort. A
// non-associative or non-commutative fn therefore observes that
// tie-break - this is a property of the view, not a defect.
func Fold(table types.Table, key types.Any, fn types.FoldFunc,
	value types.Any, options ...Option) types.Table {
	return &FoldView{
		source:  table,
		key:     key,
		fn:      fn,
		value:   value,
		options: options,
	}
}

type FoldView struct {
	source  types.Table
	key     types.Any
	fn      types.FoldFunc
	value   types.Any
	options []Option
	memo    sortMemo
}

func (self *FoldView) Open(ctx context.Context) (types.RowReader, error) {
	if self.fn == nil {
		return nil, errors.New("fold: fn is required")
	}

	header := headerRow([]string{"key", "value"})

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

	return &foldReader{
		grouped: grouped,
		fn:      self.fn,
		project: project,
		header:  header,
	}, nil
}

// Close releases the cached sort behind the view.
func (self *FoldView) Close() error {
	return self.memo.release(self.source)
}

type foldReader struct {
	grouped    *groupedSource
	fn         types.FoldFunc
	project    func(types.Row) types.Any
	header     types.Row
	sentHeader bool
}

func (self *foldReader) Next(ctx context.Context) (types.Row, error) {
	if !self.sentHeader {
		self.sentHeader = true
		return self.header, nil
	}

	key, group, err := self.grouped.grouper.Next(ctx)
	if err != nil {
		return nil, err
	}

	values := &groupValues{group: group, project: self.project}

	// Groups are never empty, so the first value always exists and
	// seeds the accumulator.
	acc, err := values.Next(ctx)
	if err != nil {
		return nil, err
	}

	for {
		value, err := values.Next(ctx)
		if err == types.EOF {
			return types.Row{key, acc}, nil
		}
		if err != nil {
			return nil, err
		}

		acc, err = self.fn(acc, value)
		if err != nil {
			return nil, err
		}
	}
}

func (self *foldReader) Close() error {
	return self.grouped.Close()
}
