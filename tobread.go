// Package tobread reads data logger TOB1, TOB2 and TOB3 tables from disk.
//
// Example usage:
//
//	f, closer, err := tobread.OpenFile("CR1000_Table1.dat.gz")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer closer.Close()
//	col, _ := f.Column("AirTC_Avg")
//	times, values, err := tobread.ReadColumn[float32](f, col)
package tobread

import (
	"io"
	"time"

	"github.com/bft-labs/tobread/pkg/source"
	"github.com/bft-labs/tobread/pkg/tob"
)

// File is an opened table.
type File = tob.File

// Column is one declared variable of a table.
type Column = tob.Column

// Header is a parsed table header.
type Header = tob.Header

// OpenFile opens the table at path, inflating gzip or zstd files into
// memory. The returned Closer releases the file.
func OpenFile(path string, opts ...tob.Option) (*File, io.Closer, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := tob.Open(src, opts...)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	return f, src, nil
}

// ReadColumn reads every valid record of col as values of type T.
func ReadColumn[T tob.Value](f *File, col *Column) ([]time.Time, []T, error) {
	return tob.ReadColumn[T](f, col)
}
