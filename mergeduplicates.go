package tabular

import (
	"context"

	"github.com/pkg/errors"

	"www.velocidex.com/golang/tabular/protocols"
	"www.velocidex.com/golang/tabular/types"
	"www.velocidex.com/golang/tabular/utils"
)

// MergeDuplicates merges the rows sharing one key value into a single
// row. For every non-key field the distinct, present, non-missing
// values across the group decide the cell: exactly one distinct value
// is adopted; none leaves the missing sentinel; more than one
// surfaces a Conflict rather than silently picking a value. A missing
// value in one row never overrides or conflicts with a concrete value
// from another row of the same key.
//
// The key must be a field name or a list of field names - derived
// keys are not supported here, since the output columns are the key
// fields themselves. The missing sentinel is the Missing option
// (default types.Null).
func MergeDuplicates(table types.Table, key types.Any,
	options ...Option) types.Table {
	return &MergeDuplicatesView{
		source:  table,
		key:     key,
		options: options,
	}
}

type MergeDuplicatesView struct {
	source  types.Table
	key     types.Any
	options []Option
	memo    sortMemo
}

func (self *MergeDuplicatesView) Open(ctx context.Context) (types.RowReader, error) {
	var keyFields []string
	switch t := self.key.(type) {
	case string:
		keyFields = []string{t}
	case []string:
		keyFields = t
	default:
		return nil, errors.Errorf(
			"mergeduplicates: key must be a field name or a list "+
				"of field names, got %T", self.key)
	}

	cfg := newConfig(self.options)
	grouped, err := openGrouped(ctx,
		self.memo.table(self.source, self.key, cfg), self.key)
	if err != nil {
		return nil, err
	}

	if grouped.empty() {
		return &emptyReader{}, nil
	}

	// Output fields: the key first, then every non-key field in
	// header order.
	outFields := append([]string{}, keyFields...)
	var valueIdxs []int
	for idx, field := range grouped.fields {
		if !utils.InString(keyFields, field) {
			outFields = append(outFields, field)
			valueIdxs = append(valueIdxs, idx)
		}
	}

	return &mergeDuplicatesReader{
		grouped:   grouped,
		compound:  len(keyFields) > 1,
		valueIdxs: valueIdxs,
		missing:   cfg.missing,
		header:    headerRow(outFields),
	}, nil
}

// Close releases the cached sort behind the view - for a Merge, the
// merge-sorted sources.
func (self *MergeDuplicatesView) Close() error {
	return self.memo.release(self.source)
}

type mergeDuplicatesReader struct {
	grouped    *groupedSource
	compound   bool
	valueIdxs  []int
	missing    types.Any
	header     types.Row
	sentHeader bool
}

func (self *mergeDuplicatesReader) Next(ctx context.Context) (types.Row, error) {
	if !self.sentHeader {
		self.sentHeader = true
		return self.header, nil
	}

	key, group, err := self.grouped.grouper.Next(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := group.Materialize(ctx)
	if err != nil {
		return nil, err
	}

	out := keyedOutputRow(key, self.compound)
	for _, idx := range self.valueIdxs {
		out = append(out, self.mergeField(rows, idx))
	}
	return out, nil
}

// mergeField reduces one non-key field across the group's rows.
func (self *mergeDuplicatesReader) mergeField(rows []types.Row, idx int) types.Any {
	var distinct []types.Any
	for _, row := range rows {
		// Rows too short to reach the field contribute nothing -
		// absence is not a value.
		if idx >= len(row) {
			continue
		}
		cell := row[idx]
		if protocols.Eq(cell, self.missing) {
			continue
		}

		duplicate := false
		for _, member := range distinct {
			if protocols.Eq(member, cell) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			distinct = append(distinct, cell)
		}
	}

	switch len(distinct) {
	case 0:
		return self.missing
	case 1:
		return distinct[0]
	default:
		return NewConflict(distinct...)
	}
}

func (self *mergeDuplicatesReader) Close() error {
	return self.grouped.Close()
}

// Merge combines several tables describing overlapping entities into
// one authoritative table: the sources are interleaved into a single
// key-ordered stream (their headers widened to the union of fields)
// and duplicate keys are then merged, surfacing conflicts rather than
// masking them.
func Merge(key types.Any, tables []types.Table, options ...Option) types.Table {
	cfg := newConfig(options)
	merged := cfg.sorter.MergeSort(key, cfg.sortOptions(), tables...)
	return MergeDuplicates(merged, key, append(options, Presorted())...)
}
