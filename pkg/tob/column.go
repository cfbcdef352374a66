package tob

import (
	"encoding/binary"
	"fmt"
	"time"
	"unsafe"

	"github.com/bft-labs/tobread/pkg/codec"
)

// Value is the set of output representations a numeric column can be read
// as. Any type whose size equals the column's value width is accepted, so a
// float column may be read bit-for-bit as an unsigned integer.
type Value interface {
	~bool | ~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// ReadColumn decodes every valid record of col as T. T must be exactly as
// wide as the column's decoded value (codec.Encoding.ValueWidth). If a scan
// error interrupts the read, the records decoded so far are returned with it.
func ReadColumn[T Value](f *File, col *Column) ([]time.Time, []T, error) {
	if !f.owns(col) {
		return nil, nil, ErrUnknownColumn
	}
	if !col.Encoding.Numeric() {
		return nil, nil, fmt.Errorf("%w: %s is text, use ReadColumnText", ErrTypeMismatch, col.Name)
	}
	var zero T
	if w := int(unsafe.Sizeof(zero)); w != col.Encoding.ValueWidth {
		return nil, nil, fmt.Errorf("%w: %s decodes to %d bytes, %T is %d",
			ErrSizeMismatch, col.Name, col.Encoding.ValueWidth, zero, w)
	}

	s, err := f.Scan()
	if err != nil {
		return nil, nil, err
	}
	var (
		times  []time.Time
		values []T
		buf    [8]byte
	)
	for s.Next() {
		rec := s.Record()
		if err := col.Encoding.Decode(buf[:], rec.Field(col)); err != nil {
			return times, values, err
		}
		v, err := reinterpret[T](buf[:col.Encoding.ValueWidth])
		if err != nil {
			return times, values, err
		}
		times = append(times, rec.Time)
		values = append(values, v)
	}
	return times, values, s.Err()
}

// ReadColumnText decodes every valid record of a fixed-text column.
func ReadColumnText(f *File, col *Column) ([]time.Time, []string, error) {
	if !f.owns(col) {
		return nil, nil, ErrUnknownColumn
	}
	if col.Kind() != codec.FixedText {
		return nil, nil, fmt.Errorf("%w: %s is %s, not text", ErrTypeMismatch, col.Name, col.Kind())
	}

	s, err := f.Scan()
	if err != nil {
		return nil, nil, err
	}
	var (
		times  []time.Time
		values []string
	)
	for s.Next() {
		rec := s.Record()
		v, err := col.Encoding.Text(rec.Field(col))
		if err != nil {
			return times, values, err
		}
		times = append(times, rec.Time)
		values = append(values, v)
	}
	return times, values, s.Err()
}

// ReadColumnTimes decodes every valid record of a timestamp column.
func ReadColumnTimes(f *File, col *Column) ([]time.Time, []time.Time, error) {
	if !f.owns(col) {
		return nil, nil, ErrUnknownColumn
	}
	if col.Kind() != codec.Timestamp {
		return nil, nil, fmt.Errorf("%w: %s is %s, not timestamp", ErrTypeMismatch, col.Name, col.Kind())
	}

	s, err := f.Scan()
	if err != nil {
		return nil, nil, err
	}
	var times, values []time.Time
	for s.Next() {
		rec := s.Record()
		v, err := col.Encoding.Time(rec.Field(col))
		if err != nil {
			return times, values, err
		}
		times = append(times, rec.Time)
		values = append(values, v)
	}
	return times, values, s.Err()
}

// reinterpret reads b, which must be exactly as wide as T, as a T.
func reinterpret[T Value](b []byte) (T, error) {
	var v T
	if _, err := binary.Decode(b, binary.LittleEndian, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrSizeMismatch, err)
	}
	return v, nil
}
