package tob

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/tobread/pkg/codec"
	"github.com/bft-labs/tobread/pkg/log"
)

// Footer is the decoded 4-byte control trailer of a TOB2/TOB3 frame.
type Footer struct {
	// Offset is the minor-frame offset. Decoded but unused.
	Offset      uint16
	FileMark    bool
	CardRemoved bool
	NoRecord    bool
	MinorFrame  bool
	Validation  uint16
}

// ParseFooter decodes a frame footer.
func ParseFooter(b []byte) Footer {
	return Footer{
		Offset:      uint16(b[0]) | uint16(b[1]&0x07)<<8,
		FileMark:    b[1]&0x08 != 0,
		CardRemoved: b[1]&0x10 != 0,
		NoRecord:    b[1]&0x20 != 0,
		MinorFrame:  b[1]&0x40 != 0,
		Validation:  binary.BigEndian.Uint16(b[2:4]),
	}
}

// StopReason tells why a scan ended.
type StopReason int

const (
	// Scanning is the reason of a scan that has not ended.
	Scanning StopReason = iota
	// EndOfTable means the intended table size was reached.
	EndOfTable
	// EndOfSource means the next frame starts past the end of the source.
	EndOfSource
	// ValidationMismatch means a footer did not carry the header's stamp.
	ValidationMismatch
	// CardRemoved means the storage card was removed after the last frame read.
	CardRemoved
	// Failed means the scan stopped on an error.
	Failed
)

func (r StopReason) String() string {
	switch r {
	case Scanning:
		return "scanning"
	case EndOfTable:
		return "end of table"
	case EndOfSource:
		return "end of source"
	case ValidationMismatch:
		return "validation mismatch"
	case CardRemoved:
		return "card removed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Record is one decoded row. Data aliases the scanner's frame buffer and is
// only valid until the next call to Next.
type Record struct {
	// Index is the frame index the record was read from.
	Index int

	// Time is the record timestamp; zero when the table carries none.
	Time time.Time

	// Number is the TOB3 record number. Informational.
	Number uint32

	Data []byte
}

// Field returns the bytes of column c within the record.
func (r Record) Field(c *Column) []byte {
	return r.Data[c.Offset : c.Offset+c.Encoding.Width]
}

// Scanner walks the frames of a table in ascending offset order. It is
// transient and owns no resources; create one per read.
type Scanner struct {
	h      *Header
	src    Source
	size   int64
	logger log.Logger

	i      int
	count  int
	frame  []byte
	rec    Record
	last   time.Time
	stamp  func(row []byte) time.Time
	reason StopReason
	err    error
}

// NewScanner returns a scanner over src using geometry h. It fails with
// ErrUnsupportedMultiRow before reading anything when frames hold more than
// one record.
func NewScanner(h *Header, src Source, logger log.Logger) (*Scanner, error) {
	if h.FrameRowCount > 1 {
		return nil, fmt.Errorf("%w: %d records per frame", ErrUnsupportedMultiRow, h.FrameRowCount)
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	s := &Scanner{
		h:      h,
		src:    src,
		size:   src.Size(),
		logger: logger,
		frame:  make([]byte, h.FrameSize),
	}
	if h.Format == TOB1 {
		s.stamp = rowTimestamp(h.Columns)
	}
	return s, nil
}

// Next advances to the next valid record.
func (s *Scanner) Next() bool {
	if s.reason != Scanning {
		return false
	}
	if s.i >= s.h.IntendedTableSize {
		return s.stop(EndOfTable)
	}
	off := s.h.frameOffset(s.i)
	if off >= s.size {
		return s.stop(EndOfSource)
	}
	if err := readFull(s.src, s.frame, off); err != nil {
		return s.fail(fmt.Errorf("frame %d: %w", s.i, err))
	}

	rec := Record{Index: s.i}
	if s.h.Format >= TOB2 {
		ft := ParseFooter(s.frame[s.h.FrameSize-s.h.FrameFooterSize:])
		switch {
		case ft.Validation != s.h.ValidationStamp:
			s.logger.Debug("validation stamp mismatch, end of valid data",
				log.Int("frame", s.i),
				log.Int("stamp", int(ft.Validation)),
				log.Int("want", int(s.h.ValidationStamp)))
			return s.stop(ValidationMismatch)
		case ft.CardRemoved:
			s.logger.Debug("card removal flag, end of valid data", log.Int("frame", s.i))
			return s.stop(CardRemoved)
		case ft.NoRecord:
			return s.fail(fmt.Errorf("%w: frame %d", ErrIncompleteFrame, s.i))
		case ft.MinorFrame:
			return s.fail(fmt.Errorf("%w: frame %d", ErrMinorFrame, s.i))
		}

		rec.Time = s.frameTime()
		if s.count > 0 && rec.Time.Before(s.last) {
			return s.fail(fmt.Errorf("%w: frame %d at %s precedes %s",
				ErrUnorderedFrames, s.i, rec.Time.Format(time.RFC3339Nano), s.last.Format(time.RFC3339Nano)))
		}
		s.last = rec.Time
		if s.h.Format == TOB3 {
			rec.Number = binary.BigEndian.Uint32(s.frame[8:12])
		}
	}

	rec.Data = s.frame[s.h.FrameHeaderSize : s.h.FrameHeaderSize+s.h.FrameRowSize]
	if s.stamp != nil {
		rec.Time = s.stamp(rec.Data)
	}
	s.rec = rec
	s.i++
	s.count++
	return true
}

func (s *Scanner) frameTime() time.Time {
	sec := int64(binary.BigEndian.Uint32(s.frame[0:4]))
	ticks := time.Duration(binary.BigEndian.Uint32(s.frame[4:8]))
	return time.Unix(sec+codec.EpochOffset, 0).UTC().Add(ticks * s.h.resolution)
}

func (s *Scanner) stop(reason StopReason) bool {
	s.reason = reason
	return false
}

func (s *Scanner) fail(err error) bool {
	s.reason = Failed
	s.err = err
	return false
}

// Record returns the current record.
func (s *Scanner) Record() Record { return s.rec }

// Err returns the error that stopped the scan, if any. Reaching the end of
// valid data is not an error.
func (s *Scanner) Err() error { return s.err }

// Count returns the number of records yielded so far.
func (s *Scanner) Count() int { return s.count }

// Reason returns why the scan ended, or Scanning while it has not.
func (s *Scanner) Reason() StopReason { return s.reason }

// rowTimestamp picks the timestamp source of a TOB1 record: the first
// timestamp-encoded column, else SECONDS/NANOSECONDS integer columns.
func rowTimestamp(cols []*Column) func([]byte) time.Time {
	var sec, nsec *Column
	for _, c := range cols {
		if c.Kind() == codec.Timestamp {
			c := c
			return func(row []byte) time.Time {
				return codec.DecodeTime(row[c.Offset:c.Offset+c.Width()], c.Encoding.Order)
			}
		}
		if c.Kind() != codec.SignedInt && c.Kind() != codec.UnsignedInt {
			continue
		}
		switch strings.ToUpper(c.Name) {
		case "SECONDS":
			sec = c
		case "NANOSECONDS":
			nsec = c
		}
	}
	if sec == nil || nsec == nil {
		return nil
	}
	return func(row []byte) time.Time {
		s := codec.DecodeInt(row[sec.Offset:sec.Offset+sec.Width()], sec.Encoding.Order)
		ns := codec.DecodeInt(row[nsec.Offset:nsec.Offset+nsec.Width()], nsec.Encoding.Order)
		return time.Unix(s+codec.EpochOffset, ns).UTC()
	}
}
