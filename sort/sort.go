// Package sort establishes key order for the grouping views. The
// default sorter buffers rows in memory up to a threshold, spills
// sorted runs to temporary storage beyond it, and merges the runs
// back into one lazy ordered stream. A completed sort may be cached
// on the view so iterating it again replays the runs instead of
// re-reading the source.
package sort

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"

	"www.velocidex.com/golang/tabular/grouper"
	"www.velocidex.com/golang/tabular/protocols"
	"www.velocidex.com/golang/tabular/types"
	"www.velocidex.com/golang/tabular/utils"
)

// DefaultBufferSize is the number of rows buffered in memory before a
// sorted run is spilled to a temp file.
var DefaultBufferSize = 100000

type DefaultSorter struct{}

func New() types.Sorter {
	return DefaultSorter{}
}

func (self DefaultSorter) Sort(
	source types.Table, key types.Any, opts types.SortOptions) types.Table {
	return &sortView{source: source, key: key, opts: opts}
}

func (self DefaultSorter) MergeSort(
	key types.Any, opts types.SortOptions,
	sources ...types.Table) types.Table {
	ordered := make([]types.Table, 0, len(sources))
	for _, source := range sources {
		if opts.Presorted {
			ordered = append(ordered, source)
		} else {
			ordered = append(ordered, self.Sort(source, key, opts))
		}
	}
	return &mergeSortView{key: key, opts: opts, sources: ordered}
}

// A sortView is a lazy, restartable ordered view of its source. The
// key and tuning parameters are fixed at construction, so with caching
// enabled the first Open sorts and later Opens replay the completed
// runs. Close is the release point for the cached spill files.
type sortView struct {
	source types.Table
	key    types.Any
	opts   types.SortOptions

	mu     sync.Mutex
	cached *runSet
}

// The completed product of one sort: a residual in-memory run plus
// zero or more spilled runs, each individually ordered.
type runSet struct {
	header types.Row
	fields []string
	mem    []types.Row
	spills []*spillFile
}

func (self *sortView) Open(ctx context.Context) (types.RowReader, error) {
	if self.opts.NoCache {
		runs, err := self.sortRuns(ctx)
		if err != nil {
			return nil, err
		}
		return newRunReader(ctx, runs, self.key, self.opts, true)
	}

	// The whole miss path runs under the lock: concurrent Opens must
	// not each sort and then fight over which runSet survives.
	self.mu.Lock()
	defer self.mu.Unlock()

	if self.cached == nil {
		runs, err := self.sortRuns(ctx)
		if err != nil {
			return nil, err
		}
		// Cached spill files are owned by the view, not the reader:
		// Close removes them.
		self.cached = runs
	}
	return newRunReader(ctx, self.cached, self.key, self.opts, false)
}

// Close releases the cached spill files and forwards to the source so
// a whole chain of views frees its sort resources from the outermost
// Close. The view itself remains usable - the next Open re-sorts.
func (self *sortView) Close() error {
	self.mu.Lock()
	runs := self.cached
	self.cached = nil
	self.mu.Unlock()

	var result *multierror.Error
	if runs != nil {
		if err := runs.removeSpills(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if closer, ok := self.source.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// sortRuns consumes the whole source, producing ordered runs.
func (self *sortView) sortRuns(ctx context.Context) (*runSet, error) {
	spec, err := grouper.ResolveKey(self.key)
	if err != nil {
		return nil, err
	}

	reader, err := self.source.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	runs := &runSet{}

	header, err := reader.Next(ctx)
	if err == types.EOF {
		// Empty input - not even a header.
		return runs, nil
	}
	if err != nil {
		return nil, err
	}
	runs.header = header
	runs.fields = utils.HeaderStrings(header)

	extract, err := spec.Extractor(runs.fields)
	if err != nil {
		runs.removeSpills()
		return nil, err
	}

	buffersize := self.opts.BufferSize
	if buffersize == 0 {
		buffersize = DefaultBufferSize
	}

	var buffer []keyedRow
	for {
		row, err := reader.Next(ctx)
		if err == types.EOF {
			break
		}
		if err != nil {
			runs.removeSpills()
			return nil, err
		}

		key, err := extract(row)
		if err != nil {
			runs.removeSpills()
			return nil, err
		}
		buffer = append(buffer, keyedRow{key: key, row: row})

		if buffersize > 0 && len(buffer) >= buffersize {
			sortRun(buffer, self.opts.Reverse)
			spill, err := newSpillFile(self.opts.TempDir, buffer)
			if err != nil {
				runs.removeSpills()
				return nil, err
			}
			if self.opts.Logger != nil {
				self.opts.Logger.Printf(
					"sort: spilled run of %d rows to %s",
					len(buffer), spill.path)
			}
			runs.spills = append(runs.spills, spill)
			buffer = nil
		}
	}

	sortRun(buffer, self.opts.Reverse)
	runs.mem = make([]types.Row, 0, len(buffer))
	for _, kr := range buffer {
		runs.mem = append(runs.mem, kr.row)
	}

	return runs, nil
}

type keyedRow struct {
	key types.Any
	row types.Row
}

func sortRun(run []keyedRow, reverse bool) {
	sort.SliceStable(run, func(i, j int) bool {
		return rowLess(run[i].key, run[j].key, reverse)
	})
}

func rowLess(a, b types.Any, reverse bool) bool {
	if reverse {
		return protocols.Lt(b, a)
	}
	return protocols.Lt(a, b)
}
