package tob

import (
	"fmt"
	"io"
)

// Source is random-access, read-only table bytes. ReadAt must be safe for
// concurrent use, as it is for *os.File, *bytes.Reader and *io.SectionReader.
type Source interface {
	io.ReaderAt
	Size() int64
}

// readFull fills buf from off.
func readFull(src io.ReaderAt, buf []byte, off int64) error {
	if off < 0 {
		return fmt.Errorf("%w: negative offset %d", ErrShortRead, off)
	}
	n, err := src.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: %d of %d bytes at offset %d: %v", ErrShortRead, n, len(buf), off, err)
}
