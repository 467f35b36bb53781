// Implements the group by operation: partitioning a key-ordered row
// stream into maximal runs of rows sharing one key value.

package grouper

import (
	"context"

	"www.velocidex.com/golang/tabular/protocols"
	"www.velocidex.com/golang/tabular/types"
)

// An Extractor derives the grouping key from one data row. It is
// produced by resolving a key spec against the header, so both the
// sorter and the grouper apply the same derivation.
type Extractor func(row types.Row) (types.Any, error)

// A Grouper partitions an already key-ordered reader into (key,
// group) pairs, one pair per maximal run of equal consecutive
// keys. It only detects boundaries - it never sorts. The header must
// have been consumed from the reader before the grouper is attached.
type Grouper struct {
	reader  types.RowReader
	extract Extractor

	// One row of lookahead. The row that broke the previous
	// group's run becomes the first row of the next group.
	ahead    types.Row
	aheadKey types.Any
	hasAhead bool

	current *Group
	done    bool
}

func New(reader types.RowReader, extract Extractor) *Grouper {
	return &Grouper{reader: reader, extract: extract}
}

// Next advances to the following group, first draining any unread
// remainder of the current one so positional correctness is
// preserved. Returns EOF after the last group; empty groups are never
// produced.
func (self *Grouper) Next(ctx context.Context) (types.Any, *Group, error) {
	if self.current != nil {
		err := self.current.drain(ctx)
		if err != nil {
			return nil, nil, err
		}
		self.current = nil
	}

	if self.done {
		return nil, nil, types.EOF
	}

	if !self.hasAhead {
		// First call: prime the lookahead.
		err := self.fill(ctx)
		if err != nil {
			if err == types.EOF {
				self.done = true
			}
			return nil, nil, err
		}
	}

	self.current = &Group{grouper: self, key: self.aheadKey}
	return self.aheadKey, self.current, nil
}

// fill reads the next row into the lookahead slot and computes its
// key.
func (self *Grouper) fill(ctx context.Context) error {
	row, err := self.reader.Next(ctx)
	if err != nil {
		self.hasAhead = false
		return err
	}

	key, err := self.extract(row)
	if err != nil {
		self.hasAhead = false
		return err
	}

	self.ahead = row
	self.aheadKey = key
	self.hasAhead = true
	return nil
}

// A Group is a lazy reader over the rows of one run. It is only valid
// until the grouper advances; rows not consumed by then are
// discarded.
type Group struct {
	grouper  *Grouper
	key      types.Any
	finished bool
}

// Next returns the group's rows in encounter order, then EOF once the
// run ends (either a key change or the end of the input).
func (self *Group) Next(ctx context.Context) (types.Row, error) {
	if self.finished {
		return nil, types.EOF
	}

	g := self.grouper
	if !g.hasAhead {
		self.finished = true
		return nil, types.EOF
	}

	if !protocols.Eq(g.aheadKey, self.key) {
		self.finished = true
		return nil, types.EOF
	}

	row := g.ahead
	err := g.fill(ctx)
	if err != nil {
		if err == types.EOF {
			g.done = true
		} else {
			return nil, err
		}
	}
	return row, nil
}

func (self *Group) Close() error {
	self.finished = true
	return nil
}

// Materialize realizes the remaining rows of the group into a slice,
// for reducers where several aggregations must each see the whole
// group independently.
func (self *Group) Materialize(ctx context.Context) ([]types.Row, error) {
	var rows []types.Row
	for {
		row, err := self.Next(ctx)
		if err == types.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// drain consumes the rest of the run directly from the stream, so
// the next group starts at the true boundary even when the consumer
// closed this group early.
func (self *Group) drain(ctx context.Context) error {
	self.finished = true
	g := self.grouper
	for {
		if !g.hasAhead || !protocols.Eq(g.aheadKey, self.key) {
			return nil
		}
		err := g.fill(ctx)
		if err == types.EOF {
			g.done = true
			return nil
		}
		if err != nil {
			return err
		}
	}
}
