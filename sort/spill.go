package sort

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pierrec/lz4"
	"github.com/pkg/errors"

	"www.velocidex.com/golang/tabular/types"
)

func init() {
	// Cell types that may travel through a spill file inside an
	// interface slot. Scalars are predeclared by gob.
	gob.Register(types.Null{})
	gob.Register(types.Row{})
	gob.Register([]interface{}{})
	gob.Register(time.Time{})
}

// A spillFile is one sorted run written to temporary storage,
// gob-encoded and lz4-compressed.
type spillFile struct {
	path  string
	count int
}

func newSpillFile(tempdir string, run []keyedRow) (*spillFile, error) {
	if tempdir == "" {
		tempdir = os.TempDir()
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, errors.Wrap(err, "sort: naming spill file")
	}
	path := filepath.Join(tempdir, "tabular-sort-"+id.String()+".run")

	fd, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "sort: creating spill file")
	}

	compressor := lz4.NewWriter(fd)
	encoder := gob.NewEncoder(compressor)
	for _, kr := range run {
		err := encoder.Encode(kr.row)
		if err != nil {
			compressor.Close()
			fd.Close()
			os.Remove(path)
			return nil, errors.Wrapf(err, "sort: encoding row to %s", path)
		}
	}

	err = compressor.Close()
	if err == nil {
		err = fd.Close()
	}
	if err != nil {
		os.Remove(path)
		return nil, errors.Wrapf(err, "sort: flushing spill file %s", path)
	}

	return &spillFile{path: path, count: len(run)}, nil
}

func (self *spillFile) open() (*spillRun, error) {
	fd, err := os.Open(self.path)
	if err != nil {
		return nil, errors.Wrapf(err, "sort: reopening spill file %s", self.path)
	}
	return &spillRun{
		fd:      fd,
		decoder: gob.NewDecoder(lz4.NewReader(fd)),
	}, nil
}

func (self *spillFile) remove() error {
	return os.Remove(self.path)
}

// A spillRun streams one spilled run back, in order.
type spillRun struct {
	fd      *os.File
	decoder *gob.Decoder
}

func (self *spillRun) next() (types.Row, error) {
	var row types.Row
	err := self.decoder.Decode(&row)
	if err == io.EOF {
		return nil, types.EOF
	}
	if err != nil {
		return nil, errors.Wrapf(err, "sort: decoding spill file %s", self.fd.Name())
	}
	return row, nil
}

func (self *spillRun) close() error {
	return self.fd.Close()
}

func (self *runSet) removeSpills() error {
	var result *multierror.Error
	for _, spill := range self.spills {
		err := spill.remove()
		if err != nil && !os.IsNotExist(err) {
			result = multierror.Append(result, err)
		}
	}
	self.spills = nil
	return result.ErrorOrNil()
}
