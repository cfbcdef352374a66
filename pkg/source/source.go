package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies how a file is stored on disk.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return "none"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ErrTooLarge is returned when a compressed file inflates past MaxInflated.
var ErrTooLarge = errors.New("source: decompressed size exceeds limit")

// MaxInflated bounds the in-memory size of a decompressed table.
const MaxInflated = 4 << 30

// File is an opened table file. It implements io.ReaderAt and Size and is
// safe for concurrent reads.
type File struct {
	r           *io.SectionReader
	f           *os.File
	compression Compression
}

// Open opens path, decompressing it into memory when it is gzip or zstd
// compressed.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	magic := make([]byte, 4)
	n, _ := f.ReadAt(magic, 0)
	c := Detect(magic[:n])
	if c == None {
		return &File{r: io.NewSectionReader(f, 0, st.Size()), f: f}, nil
	}

	defer f.Close()
	data, err := inflate(io.NewSectionReader(f, 0, st.Size()), c)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", c, path, err)
	}
	return FromBytes(data, c), nil
}

// FromBytes wraps an in-memory table.
func FromBytes(data []byte, c Compression) *File {
	return &File{r: io.NewSectionReader(bytes.NewReader(data), 0, int64(len(data))), compression: c}
}

// Detect reports the compression of a stream from its first bytes.
func Detect(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip
	default:
		return None
	}
}

func inflate(r io.Reader, c Compression) ([]byte, error) {
	var zr io.Reader
	switch c {
	case Gzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		zr = gz
	case Zstd:
		zd, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zd.Close()
		zr = zd
	default:
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(zr, MaxInflated+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxInflated {
		return nil, ErrTooLarge
	}
	return data, nil
}

// ReadAt implements io.ReaderAt.
func (s *File) ReadAt(p []byte, off int64) (int, error) {
	return s.r.ReadAt(p, off)
}

// Size returns the (decompressed) size of the table.
func (s *File) Size() int64 {
	return s.r.Size()
}

// Compression returns how the file was stored.
func (s *File) Compression() Compression {
	return s.compression
}

// Close releases the underlying file, if any.
func (s *File) Close() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}
