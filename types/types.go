package types

import (
	"context"
	"errors"
)

// Any is a dynamic cell value. Tables are untyped - each cell may
// hold any scalar (or nested) value.
type Any interface{}

// A Row is one ordered tuple of cell values. The first row delivered
// by any table is the header - its cells are the field names as
// strings. Data rows are not required to be the same length as the
// header; fields indexed beyond a row's length read as Null.
type Row []Any

// EOF is returned by RowReader.Next when the sequence is
// exhausted. It is a sentinel - it signals a graceful end of data,
// not a failure, and must never be wrapped.
var EOF = errors.New("EOF")

// A RowReader is a pull iterator over rows. Next returns EOF when no
// more rows are available and keeps returning EOF thereafter. Close
// releases any resources held by the iteration (e.g. temp files from
// a spilled sort) and is safe to call more than once.
type RowReader interface {
	Next(ctx context.Context) (Row, error)
	Close() error
}

// A Table is a lazy, restartable sequence of rows. Each call to Open
// replays the computation from scratch, yielding the header first and
// then the data rows. Tables hold configuration only - they buffer no
// rows themselves, so concurrent Opens of the same table produce
// independent, correct iterations.
type Table interface {
	Open(ctx context.Context) (RowReader, error)
}

// A ValueReader is a pull iterator over extracted values within one
// group. Depending on the projection requested, each value is a
// single cell, a Row of cells from several fields, or the whole row.
type ValueReader interface {
	Next(ctx context.Context) (Any, error)
}

// A KeyFunc derives a grouping key from a row. Sorting and grouping
// apply the same function so group boundaries coincide with sort
// order breaks.
type KeyFunc func(header []string, row Row) (Any, error)

// An AggregateFunc reduces a stream of values to a single value. The
// values are delivered lazily - aggregators that do not need the
// whole group at once (e.g. Count) never materialize it.
type AggregateFunc func(ctx context.Context, values ValueReader) (Any, error)

// A ReduceFunc produces one output row from a group. The rows reader
// is lazy and only valid until the next group is requested; any
// unread remainder is discarded when the caller advances.
type ReduceFunc func(ctx context.Context, key Any, rows RowReader) (Row, error)

// A FoldFunc combines an accumulated value with the next value in a
// group. Applied strictly left to right with no initial value.
type FoldFunc func(acc, value Any) (Any, error)
