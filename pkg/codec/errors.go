package codec

import "errors"

var (
	// ErrUnsupportedType is returned by Lookup for an unknown encoding tag.
	ErrUnsupportedType = errors.New("codec: unsupported type")

	// ErrShortValue is returned when a span is narrower than its encoding.
	ErrShortValue = errors.New("codec: short value")

	// ErrNotNumeric is returned when a fixed-text field is decoded as a number.
	ErrNotNumeric = errors.New("codec: encoding has no numeric value")

	// ErrNotTime is returned when a non-timestamp field is decoded as a time.
	ErrNotTime = errors.New("codec: encoding is not a timestamp")
)
