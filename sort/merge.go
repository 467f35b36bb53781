package sort

import (
	"container/heap"
	"context"
	"io"

	"github.com/hashicorp/go-multierror"

	"www.velocidex.com/golang/tabular/grouper"
	"www.velocidex.com/golang/tabular/types"
	"www.velocidex.com/golang/tabular/utils"
)

// A runSource is one ordered stream feeding a merge: a spilled run,
// an in-memory run, or another table's reader.
type runSource interface {
	next(ctx context.Context) (types.Row, error)
	close() error
}

type memSource struct {
	rows []types.Row
	pos  int
}

func (self *memSource) next(ctx context.Context) (types.Row, error) {
	if self.pos >= len(self.rows) {
		return nil, types.EOF
	}
	row := self.rows[self.pos]
	self.pos++
	return row, nil
}

func (self *memSource) close() error { return nil }

type spillSource struct {
	run *spillRun
}

func (self *spillSource) next(ctx context.Context) (types.Row, error) {
	return self.run.next()
}

func (self *spillSource) close() error { return self.run.close() }

// mergeItem is one source's lookahead row inside the heap.
type mergeItem struct {
	row    types.Row
	key    types.Any
	src    int
	source runSource
}

type sourceHeap struct {
	items   []*mergeItem
	reverse bool
}

func (self *sourceHeap) Len() int { return len(self.items) }

func (self *sourceHeap) Less(i, j int) bool {
	a, b := self.items[i], self.items[j]
	if rowLess(a.key, b.key, self.reverse) {
		return true
	}
	if rowLess(b.key, a.key, self.reverse) {
		return false
	}
	// Tie-break on source order so the merge is stable: runs are
	// numbered in the order their rows arrived.
	return a.src < b.src
}

func (self *sourceHeap) Swap(i, j int) {
	self.items[i], self.items[j] = self.items[j], self.items[i]
}

func (self *sourceHeap) Push(x interface{}) {
	self.items = append(self.items, x.(*mergeItem))
}

func (self *sourceHeap) Pop() interface{} {
	old := self.items
	n := len(old)
	item := old[n-1]
	self.items = old[:n-1]
	return item
}

// A mergeStream interleaves several ordered sources into one ordered
// stream, pulling one row at a time.
type mergeStream struct {
	heap    *sourceHeap
	extract grouper.Extractor
	sources []runSource
}

func newMergeStream(ctx context.Context, sources []runSource,
	extract grouper.Extractor, reverse bool) (*mergeStream, error) {

	self := &mergeStream{
		heap:    &sourceHeap{reverse: reverse},
		extract: extract,
		sources: sources,
	}

	for idx, source := range sources {
		item := &mergeItem{src: idx, source: source}
		err := self.fill(ctx, item)
		if err == types.EOF {
			continue
		}
		if err != nil {
			self.Close()
			return nil, err
		}
		self.heap.items = append(self.heap.items, item)
	}
	heap.Init(self.heap)

	return self, nil
}

func (self *mergeStream) fill(ctx context.Context, item *mergeItem) error {
	row, err := item.source.next(ctx)
	if err != nil {
		return err
	}
	key, err := self.extract(row)
	if err != nil {
		return err
	}
	item.row = row
	item.key = key
	return nil
}

func (self *mergeStream) Next(ctx context.Context) (types.Row, error) {
	if self.heap.Len() == 0 {
		return nil, types.EOF
	}

	item := heap.Pop(self.heap).(*mergeItem)
	row := item.row

	err := self.fill(ctx, item)
	if err == nil {
		heap.Push(self.heap, item)
	} else if err != types.EOF {
		return nil, err
	}

	return row, nil
}

func (self *mergeStream) Close() error {
	var result *multierror.Error
	for _, source := range self.sources {
		err := source.close()
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	self.sources = nil
	self.heap.items = nil
	return result.ErrorOrNil()
}

// A sortedReader delivers the header followed by the merged runs.
type sortedReader struct {
	header     types.Row
	sentHeader bool
	stream     *mergeStream
	cleanup    func() error
	closed     bool
}

func (self *sortedReader) Next(ctx context.Context) (types.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !self.sentHeader {
		if self.header == nil {
			return nil, types.EOF
		}
		self.sentHeader = true
		return self.header, nil
	}

	if self.stream == nil {
		return nil, types.EOF
	}

	row, err := self.stream.Next(ctx)
	if err == types.EOF {
		// Exhausted: release temp resources early rather than
		// waiting for Close.
		self.release()
	}
	return row, err
}

func (self *sortedReader) release() error {
	if self.closed {
		return nil
	}
	self.closed = true

	var result *multierror.Error
	if self.stream != nil {
		if err := self.stream.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		self.stream = nil
	}
	if self.cleanup != nil {
		if err := self.cleanup(); err != nil {
			result = multierror.Append(result, err)
		}
		self.cleanup = nil
	}
	return result.ErrorOrNil()
}

func (self *sortedReader) Close() error {
	return self.release()
}

// newRunReader builds a reader over a completed runSet. When
// ownSpills is set the reader removes the spill files once it is
// exhausted or closed; otherwise they belong to the caching view.
func newRunReader(ctx context.Context, runs *runSet, key types.Any,
	opts types.SortOptions, ownSpills bool) (types.RowReader, error) {

	if runs.header == nil {
		return &sortedReader{}, nil
	}

	spec, err := grouper.ResolveKey(key)
	if err != nil {
		return nil, err
	}
	extract, err := spec.Extractor(runs.fields)
	if err != nil {
		return nil, err
	}

	sources := make([]runSource, 0, len(runs.spills)+1)
	for _, spill := range runs.spills {
		run, err := spill.open()
		if err != nil {
			for _, source := range sources {
				source.close()
			}
			return nil, err
		}
		sources = append(sources, &spillSource{run: run})
	}
	sources = append(sources, &memSource{rows: runs.mem})

	if opts.Logger != nil && len(runs.spills) > 0 {
		opts.Logger.Printf("sort: merging %d spilled runs and %d buffered rows",
			len(runs.spills), len(runs.mem))
	}

	stream, err := newMergeStream(ctx, sources, extract, opts.Reverse)
	if err != nil {
		if ownSpills {
			runs.removeSpills()
		}
		return nil, err
	}

	var cleanup func() error
	if ownSpills {
		cleanup = runs.removeSpills
	}

	return &sortedReader{
		header:  runs.header,
		stream:  stream,
		cleanup: cleanup,
	}, nil
}

// A mergeSortView interleaves several ordered sources into one
// globally ordered view. Sources with differing headers are widened
// to the union of all fields in encounter order, absent cells reading
// as Null.
type mergeSortView struct {
	key     types.Any
	opts    types.SortOptions
	sources []types.Table
}

func (self *mergeSortView) Open(ctx context.Context) (types.RowReader, error) {
	spec, err := grouper.ResolveKey(self.key)
	if err != nil {
		return nil, err
	}

	var (
		union   []string
		readers []types.RowReader
		headers [][]string
	)

	closeAll := func() {
		for _, reader := range readers {
			reader.Close()
		}
	}

	for _, source := range self.sources {
		reader, err := source.Open(ctx)
		if err != nil {
			closeAll()
			return nil, err
		}

		header, err := reader.Next(ctx)
		if err == types.EOF {
			// Empty source, nothing to contribute.
			reader.Close()
			continue
		}
		if err != nil {
			reader.Close()
			closeAll()
			return nil, err
		}

		fields := utils.HeaderStrings(header)
		for _, field := range fields {
			if !utils.InString(union, field) {
				union = append(union, field)
			}
		}
		readers = append(readers, reader)
		headers = append(headers, fields)
	}

	if len(readers) == 0 {
		return &sortedReader{}, nil
	}

	extract, err := spec.Extractor(union)
	if err != nil {
		closeAll()
		return nil, err
	}

	sources := make([]runSource, 0, len(readers))
	for idx, reader := range readers {
		sources = append(sources, &projectedSource{
			reader:  reader,
			mapping: projectionFor(union, headers[idx]),
		})
	}

	stream, err := newMergeStream(ctx, sources, extract, self.opts.Reverse)
	if err != nil {
		return nil, err
	}

	header := make(types.Row, 0, len(union))
	for _, field := range union {
		header = append(header, field)
	}

	return &sortedReader{header: header, stream: stream}, nil
}

// Close releases the sort caches of the per-source views.
func (self *mergeSortView) Close() error {
	var result *multierror.Error
	for _, source := range self.sources {
		closer, ok := source.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// projectionFor maps each union column to its position in a source
// header, -1 for fields the source does not carry.
func projectionFor(union []string, fields []string) []int {
	mapping := make([]int, len(union))
	for i, field := range union {
		mapping[i] = -1
		for j, have := range fields {
			if have == field {
				mapping[i] = j
				break
			}
		}
	}
	return mapping
}

// A projectedSource widens one source's rows to the union header.
type projectedSource struct {
	reader  types.RowReader
	mapping []int
}

func (self *projectedSource) next(ctx context.Context) (types.Row, error) {
	row, err := self.reader.Next(ctx)
	if err != nil {
		return nil, err
	}

	projected := make(types.Row, len(self.mapping))
	for i, idx := range self.mapping {
		if idx < 0 {
			projected[i] = types.Null{}
		} else {
			projected[i] = utils.Index(row, idx)
		}
	}
	return projected, nil
}

func (self *projectedSource) close() error { return self.reader.Close() }
