package utils

import (
	"context"

	"www.velocidex.com/golang/tabular/types"
)

// PeekReader wraps a RowReader with one row of pushback. It lets a
// view inspect the header without consuming it: Peek reads the next
// row ahead of time, and a following Next replays the same row. This
// is the explicit alternative to rewinding the source.
type PeekReader struct {
	reader  types.RowReader
	pending []types.Row
}

func NewPeekReader(reader types.RowReader) *PeekReader {
	return &PeekReader{reader: reader}
}

// Peek returns the row a subsequent Next will deliver, without
// advancing the sequence.
func (self *PeekReader) Peek(ctx context.Context) (types.Row, error) {
	if len(self.pending) == 0 {
		row, err := self.reader.Next(ctx)
		if err != nil {
			return nil, err
		}
		self.pending = append(self.pending, row)
	}
	return self.pending[0], nil
}

func (self *PeekReader) Next(ctx context.Context) (types.Row, error) {
	if len(self.pending) > 0 {
		row := self.pending[0]
		self.pending = self.pending[1:]
		return row, nil
	}
	return self.reader.Next(ctx)
}

func (self *PeekReader) Close() error {
	self.pending = nil
	return self.reader.Close()
}
