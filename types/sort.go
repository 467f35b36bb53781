package types

import "log"

// SortOptions tune the external sort. The zero value means: sort in
// memory up to the default buffer size, spill runs to the system temp
// directory beyond that, cache the completed sort for replay.
type SortOptions struct {
	// Sort in descending key order.
	Reverse bool

	// Rows buffered in memory before a sorted run is spilled to a
	// temp file. Zero selects the default; a negative value
	// disables spilling entirely.
	BufferSize int

	// Directory for spilled runs. Empty means os.TempDir().
	TempDir string

	// Retain the completed sort inside the view so later Opens
	// replay it instead of re-sorting. Note the inverted name so
	// the zero value keeps caching on.
	NoCache bool

	// Asserts the sources given to MergeSort are each already
	// ordered by the key, skipping the per-source sort. Ignored
	// by Sort.
	Presorted bool

	// Optional diagnostics (spill and merge events). Nil is silent.
	Logger *log.Logger
}

// A Sorter is the pluggable collaborator which establishes key order
// for the grouping views. Both returned tables are lazy and
// restartable. Key is a key spec: a field name, a slice of field
// names, or a KeyFunc.
type Sorter interface {
	// Sort returns a view of source ordered by the key.
	Sort(source Table, key Any, opts SortOptions) Table

	// MergeSort interleaves several sources into one globally
	// key-ordered view. Sources with differing headers are
	// widened to the union of their fields, absent cells reading
	// as Null.
	MergeSort(key Any, opts SortOptions, sources ...Table) Table
}
