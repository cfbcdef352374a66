package tob

import "errors"

// Header errors abort Open.
var (
	ErrUnknownFormat       = errors.New("tob: unknown file format")
	ErrFieldCount          = errors.New("tob: wrong header field count")
	ErrColumnCount         = errors.New("tob: column lines disagree on field count")
	ErrUnknownIntervalUnit = errors.New("tob: unknown record interval unit")
	ErrUnknownResolution   = errors.New("tob: unknown frame time resolution")
	ErrHeaderValue         = errors.New("tob: invalid header value")
	ErrTruncatedHeader     = errors.New("tob: truncated header")
	ErrGeometry            = errors.New("tob: invalid frame geometry")
)

// Scan errors abort a read in progress.
var (
	ErrUnsupportedMultiRow = errors.New("tob: multi-row frames are not supported")
	ErrIncompleteFrame     = errors.New("tob: incomplete frame (no record flag set)")
	ErrMinorFrame          = errors.New("tob: minor frames are not supported")
	ErrUnorderedFrames     = errors.New("tob: frame timestamps are not ordered")
	ErrShortRead           = errors.New("tob: short read")
)

// Usage errors are raised before any frame is read.
var (
	ErrTypeMismatch  = errors.New("tob: column type mismatch")
	ErrSizeMismatch  = errors.New("tob: output size mismatch")
	ErrUnknownColumn = errors.New("tob: column does not belong to this file")
)
