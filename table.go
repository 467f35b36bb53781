package tabular

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/pkg/errors"

	"www.velocidex.com/golang/tabular/grouper"
	tsort "www.velocidex.com/golang/tabular/sort"
	"www.velocidex.com/golang/tabular/types"
	"www.velocidex.com/golang/tabular/utils"
)

// An Option tunes a view. All views accept the same tail of options;
// options that do not apply to a view are ignored by it.
type Option func(*config)

type config struct {
	presorted  bool
	buffersize int
	tempdir    string
	nocache    bool
	header     []string
	missing    types.Any
	logger     *log.Logger
	sorter     types.Sorter
}

func newConfig(options []Option) *config {
	self := &config{
		missing: types.Null{},
		sorter:  tsort.New(),
	}
	for _, option := range options {
		option(self)
	}
	return self
}

func (self *config) sortOptions() types.SortOptions {
	return types.SortOptions{
		BufferSize: self.buffersize,
		TempDir:    self.tempdir,
		NoCache:    self.nocache,
		Presorted:  self.presorted,
		Logger:     self.logger,
	}
}

// Presorted asserts the input is already ordered by the grouping key,
// skipping the sort step.
func Presorted() Option {
	return func(self *config) { self.presorted = true }
}

// notPresorted overrides a caller's Presorted assertion for stages
// that re-order the rows themselves.
func notPresorted() Option {
	return func(self *config) { self.presorted = false }
}

// BufferSize sets the number of rows the sort buffers in memory
// before spilling a run to temporary storage. Negative disables
// spilling.
func BufferSize(rows int) Option {
	return func(self *config) { self.buffersize = rows }
}

// TempDir sets the directory for spilled sort runs.
func TempDir(path string) Option {
	return func(self *config) { self.tempdir = path }
}

// NoCache makes every iteration re-sort instead of replaying a
// previously completed sort of the same source and key.
func NoCache() Option {
	return func(self *config) { self.nocache = true }
}

// WithHeader overrides the output field names of RowReduce.
func WithHeader(fields ...string) Option {
	return func(self *config) { self.header = fields }
}

// Missing sets the missing-value sentinel used by MergeDuplicates.
// The default is types.Null.
func Missing(value types.Any) Option {
	return func(self *config) { self.missing = value }
}

// WithLogger directs sort diagnostics (spill and merge events) to a
// logger.
func WithLogger(logger *log.Logger) Option {
	return func(self *config) { self.logger = logger }
}

// WithSorter substitutes the sort collaborator.
func WithSorter(sorter types.Sorter) Option {
	return func(self *config) { self.sorter = sorter }
}

// errView defers a configuration error to the first iteration, which
// is where all lazily constructed views surface their problems.
type errView struct {
	err error
}

func (self *errView) Open(ctx context.Context) (types.RowReader, error) {
	return nil, self.err
}

// emptyReader yields an optional fixed header and then EOF. Views
// over an empty (headerless) source produce this.
type emptyReader struct {
	header types.Row
	sent   bool
}

func (self *emptyReader) Next(ctx context.Context) (types.Row, error) {
	if self.header != nil && !self.sent {
		self.sent = true
		return self.header, nil
	}
	return nil, types.EOF
}

func (self *emptyReader) Close() error { return nil }

// A sortMemo holds the sorted rendition of a view's source, built on
// the first Open so the sort cache is live across iterations of the
// view. Closing the view is the release point for the cached spill
// files.
type sortMemo struct {
	mu     sync.Mutex
	sorted types.Table
}

func (self *sortMemo) table(source types.Table, key types.Any,
	cfg *config) types.Table {
	if cfg.presorted {
		return source
	}

	self.mu.Lock()
	defer self.mu.Unlock()
	if self.sorted == nil {
		self.sorted = cfg.sorter.Sort(source, key, cfg.sortOptions())
	}
	return self.sorted
}

// release closes the sorted view, or the source itself when the view
// reads it directly, so sort resources are freed through the whole
// chain from the outermost Close. The view stays usable - the next
// Open re-sorts.
func (self *sortMemo) release(source types.Table) error {
	self.mu.Lock()
	sorted := self.sorted
	self.sorted = nil
	self.mu.Unlock()

	if sorted != nil {
		return closeTable(sorted)
	}
	return closeTable(source)
}

// closeTable forwards Close to tables that hold releasable resources.
func closeTable(table types.Table) error {
	if closer, ok := table.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// groupedSource is the shared plumbing of every reducing view: the
// key-ordered source opened, its header consumed, and a grouper
// attached at the same key.
type groupedSource struct {
	reader  types.RowReader
	header  types.Row
	fields  []string
	grouper *grouper.Grouper
}

func openGrouped(ctx context.Context, source types.Table,
	key types.Any) (*groupedSource, error) {

	spec, err := grouper.ResolveKey(key)
	if err != nil {
		return nil, err
	}

	opened, err := source.Open(ctx)
	if err != nil {
		return nil, err
	}

	// Peek the header so the key resolves against it before any data
	// row is consumed.
	reader := utils.NewPeekReader(opened)
	header, err := reader.Peek(ctx)
	if err == types.EOF {
		reader.Close()
		return &groupedSource{}, nil
	}
	if err != nil {
		reader.Close()
		return nil, err
	}

	fields := utils.HeaderStrings(header)
	extract, err := spec.Extractor(fields)
	if err != nil {
		reader.Close()
		return nil, err
	}

	// Consume the header; the grouper sees data rows only.
	_, _ = reader.Next(ctx)

	return &groupedSource{
		reader:  reader,
		header:  header,
		fields:  fields,
		grouper: grouper.New(reader, extract),
	}, nil
}

func (self *groupedSource) empty() bool {
	return self.grouper == nil
}

func (self *groupedSource) Close() error {
	if self.reader == nil {
		return nil
	}
	return self.reader.Close()
}

func headerRow(fields []string) types.Row {
	row := make(types.Row, 0, len(fields))
	for _, field := range fields {
		row = append(row, field)
	}
	return row
}

// resolveValue builds the value projection for a group: unset means
// whole rows, a field name means that field's cells, a list of field
// names means a tuple of those fields' cells per row.
func resolveValue(value types.Any, fields []string) (
	func(row types.Row) types.Any, error) {

	switch t := value.(type) {
	case nil:
		return func(row types.Row) types.Any { return row }, nil

	case string:
		idx, err := utils.FieldIndex(fields, t)
		if err != nil {
			return nil, err
		}
		return func(row types.Row) types.Any {
			return utils.Index(row, idx)
		}, nil

	case []string:
		idxs := make([]int, 0, len(t))
		for _, field := range t {
			idx, err := utils.FieldIndex(fields, field)
			if err != nil {
				return nil, err
			}
			idxs = append(idxs, idx)
		}
		return func(row types.Row) types.Any {
			values := make(types.Row, 0, len(idxs))
			for _, idx := range idxs {
				values = append(values, utils.Index(row, idx))
			}
			return values
		}, nil

	default:
		return nil, errors.Errorf(
			"value: expected field name or field name list, got %T", value)
	}
}
