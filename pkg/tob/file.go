package tob

import (
	"io"

	"github.com/bft-labs/tobread/pkg/log"
)

// File is an opened table: its immutable header and the source it was read
// from. A File is safe for concurrent reads of different columns.
type File struct {
	Header *Header

	src    Source
	logger log.Logger
}

// Option configures Open.
type Option func(*File)

// WithLogger sets the logger used by Open and by scans of the file.
func WithLogger(l log.Logger) Option {
	return func(f *File) {
		if l != nil {
			f.logger = l
		}
	}
}

// Open parses the header of src and derives its frame geometry.
func Open(src Source, opts ...Option) (*File, error) {
	f := &File{src: src, logger: log.NewNoopLogger()}
	for _, opt := range opts {
		opt(f)
	}

	h, err := ParseHeader(io.NewSectionReader(src, 0, src.Size()), src.Size())
	if err != nil {
		return nil, err
	}
	f.Header = h

	f.logger.Debug("opened table",
		log.String("format", h.Format.String()),
		log.String("table", h.TableName),
		log.String("station", h.StationName),
		log.Int("columns", len(h.Columns)),
		log.Int("frame_size", h.FrameSize),
		log.Int("intended_table_size", h.IntendedTableSize),
		log.Int64("first_frame", h.FirstFrameStart))
	return f, nil
}

// Columns returns the declared columns in record order.
func (f *File) Columns() []*Column { return f.Header.Columns }

// Column returns the first column named name.
func (f *File) Column(name string) (*Column, bool) {
	for _, c := range f.Header.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Scan returns a new scanner over the file's frames.
func (f *File) Scan() (*Scanner, error) {
	return NewScanner(f.Header, f.src, f.logger)
}

// Count returns the number of valid records in the file.
func (f *File) Count() (int, error) {
	s, err := f.Scan()
	if err != nil {
		return 0, err
	}
	for s.Next() {
	}
	return s.Count(), s.Err()
}

func (f *File) owns(c *Column) bool {
	return c != nil && c.Index >= 0 && c.Index < len(f.Header.Columns) && f.Header.Columns[c.Index] == c
}
