package tabular

import (
	"context"
	"encoding/json"

	"www.velocidex.com/golang/tabular/types"
)

// A MemTable holds all its rows in memory - the simplest Table. It is
// the natural entry point for small literal tables and the target of
// Materialize.
type MemTable struct {
	rows []types.Row
}

// FromRows builds an in-memory table. The first row is the header.
func FromRows(rows ...types.Row) *MemTable {
	return &MemTable{rows: rows}
}

// FromValues builds a one-column table from a field name and its
// values.
func FromValues(field string, values ...types.Any) *MemTable {
	rows := make([]types.Row, 0, len(values)+1)
	rows = append(rows, types.Row{field})
	for _, value := range values {
		rows = append(rows, types.Row{value})
	}
	return &MemTable{rows: rows}
}

func (self *MemTable) Open(ctx context.Context) (types.RowReader, error) {
	return &memTableReader{rows: self.rows}, nil
}

func (self *MemTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(self.rows)
}

type memTableReader struct {
	rows []types.Row
	pos  int
}

func (self *memTableReader) Next(ctx context.Context) (types.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if self.pos >= len(self.rows) {
		return nil, types.EOF
	}
	row := self.rows[self.pos]
	self.pos++
	return row, nil
}

func (self *memTableReader) Close() error {
	self.pos = len(self.rows)
	return nil
}

// Materialize expands a lazy table into memory, header included.
func Materialize(ctx context.Context, table types.Table) ([]types.Row, error) {
	reader, err := table.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var rows []types.Row
	for {
		row, err := reader.Next(ctx)
		if err == types.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}
