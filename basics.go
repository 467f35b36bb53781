// Supporting row-wise transforms needed by the grouping views. The
// wider family of simple transforms lives outside this package's
// scope - these are only the ones the reducers compose with.
package tabular

import (
	"bytes"
	"context"
	"encoding/gob"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"www.velocidex.com/golang/tabular/types"
	"www.velocidex.com/golang/tabular/utils"
)

// Cut projects the table onto the named fields, in the given order.
// Rows too short to reach a field read Null there. An unknown field
// name surfaces as an error when iteration resolves it.
func Cut(table types.Table, fields ...string) types.Table {
	return &cutView{source: table, fields: fields}
}

type cutView struct {
	source types.Table
	fields []string
}

func (self *cutView) Open(ctx context.Context) (types.RowReader, error) {
	reader, err := self.source.Open(ctx)
	if err != nil {
		return nil, err
	}

	header, err := reader.Next(ctx)
	if err == types.EOF {
		reader.Close()
		return &emptyReader{}, nil
	}
	if err != nil {
		reader.Close()
		return nil, err
	}

	have := utils.HeaderStrings(header)
	idxs := make([]int, 0, len(self.fields))
	for _, field := range self.fields {
		idx, err := utils.FieldIndex(have, field)
		if err != nil {
			reader.Close()
			return nil, err
		}
		idxs = append(idxs, idx)
	}

	return &cutReader{
		reader: reader,
		idxs:   idxs,
		header: headerRow(self.fields),
	}, nil
}

type cutReader struct {
	reader     types.RowReader
	idxs       []int
	header     types.Row
	sentHeader bool
}

func (self *cutReader) Next(ctx context.Context) (types.Row, error) {
	if !self.sentHeader {
		self.sentHeader = true
		return self.header, nil
	}

	row, err := self.reader.Next(ctx)
	if err != nil {
		return nil, err
	}

	out := make(types.Row, 0, len(self.idxs))
	for _, idx := range self.idxs {
		out = append(out, utils.Index(row, idx))
	}
	return out, nil
}

func (self *cutReader) Close() error {
	return self.reader.Close()
}

func (self *cutView) Close() error { return closeTable(self.source) }

// Distinct drops rows identical to one already seen, preserving
// encounter order. Identity is structural: rows are fingerprinted by
// hashing their encoded form, so equality here is by concrete value
// representation, not the looser cross-numeric-type equality used for
// grouping keys.
func Distinct(table types.Table) types.Table {
	return &distinctView{source: table}
}

type distinctView struct {
	source types.Table
}

func (self *distinctView) Open(ctx context.Context) (types.RowReader, error) {
	reader, err := self.source.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &distinctReader{
		reader: reader,
		seen:   make(map[uint64]bool),
	}, nil
}

type distinctReader struct {
	reader     types.RowReader
	seen       map[uint64]bool
	sentHeader bool
}

func (self *distinctReader) Next(ctx context.Context) (types.Row, error) {
	for {
		row, err := self.reader.Next(ctx)
		if err != nil {
			return nil, err
		}

		if !self.sentHeader {
			// The header passes through untouched.
			self.sentHeader = true
			return row, nil
		}

		fingerprint, err := rowFingerprint(row)
		if err != nil {
			return nil, err
		}
		if self.seen[fingerprint] {
			continue
		}
		self.seen[fingerprint] = true
		return row, nil
	}
}

func (self *distinctReader) Close() error {
	self.seen = nil
	return self.reader.Close()
}

func (self *distinctView) Close() error { return closeTable(self.source) }

func rowFingerprint(row types.Row) (uint64, error) {
	var buffer bytes.Buffer
	err := gob.NewEncoder(&buffer).Encode(row)
	if err != nil {
		return 0, errors.Wrap(err, "distinct: encoding row")
	}
	return xxhash.Sum64(buffer.Bytes()), nil
}

// Head passes through the header and the first n data rows.
func Head(table types.Table, n int) types.Table {
	return &headView{source: table, n: n}
}

type headView struct {
	source types.Table
	n      int
}

func (self *headView) Open(ctx context.Context) (types.RowReader, error) {
	reader, err := self.source.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &headReader{reader: reader, remaining: self.n}, nil
}

type headReader struct {
	reader     types.RowReader
	remaining  int
	sentHeader bool
}

func (self *headReader) Next(ctx context.Context) (types.Row, error) {
	if !self.sentHeader {
		row, err := self.reader.Next(ctx)
		if err != nil {
			return nil, err
		}
		self.sentHeader = true
		return row, nil
	}

	if self.remaining <= 0 {
		return nil, types.EOF
	}
	row, err := self.reader.Next(ctx)
	if err != nil {
		return nil, err
	}
	self.remaining--
	return row, nil
}

func (self *headReader) Close() error {
	return self.reader.Close()
}

func (self *headView) Close() error { return closeTable(self.source) }

// GroupCountDistinctValues groups by the key field and counts the
// distinct values of the value field within each group.
func GroupCountDistinctValues(table types.Table, key types.Any,
	value string, options ...Option) types.Table {

	var fields []string
	switch t := key.(type) {
	case string:
		fields = []string{t}
	case []string:
		fields = append(fields, t...)
	default:
		return &errView{err: errors.Errorf(
			"groupcountdistinctvalues: key must be a field name or "+
				"a list of field names, got %T", key)}
	}
	fields = append(fields, value)

	deduped := Distinct(Cut(table, fields...))
	return Aggregate(deduped, key, types.AggregateFunc(Count), nil, options...)
}
