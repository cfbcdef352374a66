package tob

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/tobread/pkg/codec"
)

// Format is the table file variant. Later formats extend the frame
// structure of earlier ones, so formats compare by order.
type Format int

const (
	TOB1 Format = iota + 1
	TOB2
	TOB3
)

func (f Format) String() string {
	switch f {
	case TOB1:
		return "TOB1"
	case TOB2:
		return "TOB2"
	case TOB3:
		return "TOB3"
	default:
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}
}

var formats = map[string]Format{
	"TOB1": TOB1,
	"TOB2": TOB2,
	"TOB3": TOB3,
}

const creationTimeLayout = "2006-01-02 15:04:05"

// maxHeaderLine bounds a single header line so a binary file without line
// breaks is rejected instead of buffered whole.
const maxHeaderLine = 1 << 20

var intervalUnits = map[string]float64{
	"HOUR": 3600,
	"MIN":  60,
	"SEC":  1,
	"MSEC": 1e-3,
	"USEC": 1e-6,
	"NSEC": 1e-9,
}

var resolutions = map[string]time.Duration{
	"SecMsec":    time.Millisecond,
	"Sec100Usec": 100 * time.Microsecond,
	"Sec10Usec":  10 * time.Microsecond,
	"SecUsec":    time.Microsecond,
}

// Header is the parsed table header and the frame geometry derived from it.
// It is built once by Open and never modified.
type Header struct {
	Format Format

	StationName      string
	Model            string
	SerialNumber     string
	OperatingSystem  string
	Program          string
	ProgramSignature string

	// CreationTime is zero for TOB1.
	CreationTime time.Time

	TableName string

	// RecordInterval is in seconds. Zero means an event-driven table.
	RecordInterval float64

	FrameSize       int
	FrameHeaderSize int
	FrameFooterSize int

	// IntendedTableSize is the declared frame count and the upper bound of a
	// scan. For TOB1 it is derived from the source size.
	IntendedTableSize int

	ValidationStamp uint16

	// FrameTimeResolution is seconds per sub-second tick.
	FrameTimeResolution float64

	// TOB3 only.
	RingRecord      int64
	LastCardRemoval int64
	TableChecksum   uint64

	FirstFrameStart int64
	FrameRowSize    int
	FrameRowCount   int
	FrameRowPadding int

	Columns []*Column

	resolution time.Duration
}

// Column is one declared variable of a table.
type Column struct {
	// Index is the column's position in the record.
	Index int

	Name       string
	Unit       string
	Processing string

	Encoding codec.Encoding

	// Offset is the column's byte offset within a record.
	Offset int
}

// Kind returns the semantic kind of the column's encoding.
func (c *Column) Kind() codec.Kind { return c.Encoding.Kind }

// Width returns the on-disk byte width of the column.
func (c *Column) Width() int { return c.Encoding.Width }

func (c *Column) String() string {
	return fmt.Sprintf("%s (%s, %s)", c.Name, c.Encoding.Tag, c.Unit)
}

// RecordIntervalDuration returns RecordInterval as a time.Duration.
func (h *Header) RecordIntervalDuration() time.Duration {
	return time.Duration(h.RecordInterval * float64(time.Second))
}

// Resolution returns the duration of one sub-second tick of a frame
// timestamp. Zero for TOB1.
func (h *Header) Resolution() time.Duration { return h.resolution }

// ParseHeader reads the header lines at the start of r. size is the total
// size of the source; it bounds the TOB1 record count and may be negative
// when unknown.
func ParseHeader(r io.Reader, size int64) (*Header, error) {
	lr := &lineReader{r: bufio.NewReader(r)}

	env, err := lr.fields()
	if err != nil {
		return nil, err
	}
	h := &Header{}
	if err := h.parseEnvironment(env); err != nil {
		return nil, err
	}

	if h.Format >= TOB2 {
		table, err := lr.fields()
		if err != nil {
			return nil, err
		}
		if err := h.parseTable(table); err != nil {
			return nil, err
		}
	}

	var decl [4][]string
	for i := range decl {
		if decl[i], err = lr.fields(); err != nil {
			return nil, err
		}
	}
	if err := h.parseColumns(decl[0], decl[1], decl[2], decl[3]); err != nil {
		return nil, err
	}

	h.FirstFrameStart = lr.n
	if err := h.deriveGeometry(size); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Header) parseEnvironment(f []string) error {
	if len(f) != 8 {
		return fmt.Errorf("%w: environment line has %d fields, want 8", ErrFieldCount, len(f))
	}
	format, ok := formats[f[0]]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f[0])
	}
	h.Format = format
	h.StationName = f[1]
	h.Model = f[2]
	h.SerialNumber = f[3]
	h.OperatingSystem = f[4]
	h.Program = f[5]
	h.ProgramSignature = f[6]

	if format == TOB1 {
		h.TableName = f[7]
		return nil
	}
	t, err := time.ParseInLocation(creationTimeLayout, f[7], time.UTC)
	if err != nil {
		return fmt.Errorf("%w: creation time %q: %v", ErrHeaderValue, f[7], err)
	}
	h.CreationTime = t
	return nil
}

func (h *Header) parseTable(f []string) error {
	want := 6
	if h.Format == TOB3 {
		want = 9
	}
	if len(f) != want {
		return fmt.Errorf("%w: %s table line has %d fields, want %d", ErrFieldCount, h.Format, len(f), want)
	}

	h.TableName = f[0]

	interval, err := parseInterval(f[1])
	if err != nil {
		return err
	}
	h.RecordInterval = interval

	if h.FrameSize, err = parseInt("frame size", f[2]); err != nil {
		return err
	}
	if h.IntendedTableSize, err = parseInt("intended table size", f[3]); err != nil {
		return err
	}
	stamp, err := strconv.ParseUint(f[4], 10, 16)
	if err != nil {
		return fmt.Errorf("%w: validation stamp %q", ErrHeaderValue, f[4])
	}
	h.ValidationStamp = uint16(stamp)

	res, ok := resolutions[f[5]]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownResolution, f[5])
	}
	h.resolution = res
	h.FrameTimeResolution = res.Seconds()

	if h.Format == TOB3 {
		if h.RingRecord, err = strconv.ParseInt(f[6], 10, 64); err != nil {
			return fmt.Errorf("%w: ring record %q", ErrHeaderValue, f[6])
		}
		if h.LastCardRemoval, err = strconv.ParseInt(f[7], 10, 64); err != nil {
			return fmt.Errorf("%w: last card removal %q", ErrHeaderValue, f[7])
		}
		// informational; some loggers leave it blank
		h.TableChecksum, _ = strconv.ParseUint(f[8], 10, 64)
	}
	return nil
}

func (h *Header) parseColumns(names, units, procs, tags []string) error {
	if len(names) != len(units) || len(names) != len(procs) || len(names) != len(tags) {
		return fmt.Errorf("%w: names=%d units=%d processing=%d types=%d",
			ErrColumnCount, len(names), len(units), len(procs), len(tags))
	}

	h.Columns = make([]*Column, len(names))
	offset := 0
	for i := range names {
		enc, err := codec.Lookup(tags[i])
		if err != nil {
			return fmt.Errorf("column %q: %w", names[i], err)
		}
		h.Columns[i] = &Column{
			Index:      i,
			Name:       names[i],
			Unit:       units[i],
			Processing: procs[i],
			Encoding:   enc,
			Offset:     offset,
		}
		offset += enc.Width
	}
	h.FrameRowSize = offset
	return nil
}

func parseInterval(s string) (float64, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: record interval %q", ErrHeaderValue, s)
	}
	n, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: record interval %q", ErrHeaderValue, s)
	}
	unit, ok := intervalUnits[parts[1]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownIntervalUnit, parts[1])
	}
	return n * unit, nil
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s %q", ErrHeaderValue, name, s)
	}
	return n, nil
}

// lineReader splits header lines into unquoted fields and counts the bytes
// consumed, line terminators included.
type lineReader struct {
	r *bufio.Reader
	n int64
}

func (lr *lineReader) fields() ([]string, error) {
	var line []byte
	for {
		chunk, err := lr.r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > maxHeaderLine {
			return nil, fmt.Errorf("%w: line longer than %d bytes", ErrTruncatedHeader, maxHeaderLine)
		}
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing line terminator after %d bytes", ErrTruncatedHeader, lr.n+int64(len(line)))
		}
		return nil, err
	}
	lr.n += int64(len(line))
	return splitFields(strings.TrimRight(string(line), "\r\n")), nil
}

func splitFields(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(p, "\" \t\x00")
	}
	return parts
}
