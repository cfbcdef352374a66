package tob

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bft-labs/tobread/pkg/codec"
)

const testStamp = 0xBEEF

type testColumn struct {
	name, unit, proc, tag string
}

// testTable describes a synthetic table file.
type testTable struct {
	format     string
	frameSize  int
	tableSize  int
	stamp      uint16
	resolution string
	columns    []testColumn
}

func (tt testTable) header() string {
	var b strings.Builder
	quoted := func(fields ...string) {
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(`"` + f + `"`)
		}
		b.WriteString("\r\n")
	}

	last := "2021-03-04 05:06:07"
	if tt.format == "TOB1" {
		last = "Table1"
	}
	quoted(tt.format, "Station", "CR1000", "1234", "CR1000.Std.32", "CPU:prog.CR1", "12345", last)

	res := tt.resolution
	if res == "" {
		res = "Sec100Usec"
	}
	switch tt.format {
	case "TOB2":
		fmt.Fprintf(&b, `"Table1","1 SEC",%d,%d,%d,"%s"`+"\r\n", tt.frameSize, tt.tableSize, tt.stamp, res)
	case "TOB3":
		fmt.Fprintf(&b, `"Table1","1 SEC",%d,%d,%d,"%s",7,3,98765`+"\r\n", tt.frameSize, tt.tableSize, tt.stamp, res)
	}

	var names, units, procs, tags []string
	for _, c := range tt.columns {
		names = append(names, c.name)
		units = append(units, c.unit)
		procs = append(procs, c.proc)
		tags = append(tags, c.tag)
	}
	quoted(names...)
	quoted(units...)
	quoted(procs...)
	quoted(tags...)
	return b.String()
}

// testFrame is one frame of a TOB2/TOB3 table.
type testFrame struct {
	sec, ticks uint32
	number     uint32
	row        []byte
	flags      byte
	stamp      uint16
}

func (tt testTable) controlSizes() (int, int) {
	switch tt.format {
	case "TOB2":
		return 8, 4
	case "TOB3":
		return 12, 4
	}
	return 0, 0
}

func (tt testTable) frame(fr testFrame) []byte {
	hdr, ftr := tt.controlSizes()
	b := make([]byte, tt.frameSize)
	binary.BigEndian.PutUint32(b[0:4], fr.sec)
	binary.BigEndian.PutUint32(b[4:8], fr.ticks)
	if tt.format == "TOB3" {
		binary.BigEndian.PutUint32(b[8:12], fr.number)
	}
	copy(b[hdr:], fr.row)
	foot := b[tt.frameSize-ftr:]
	foot[1] = fr.flags
	binary.BigEndian.PutUint16(foot[2:4], fr.stamp)
	return b
}

func (tt testTable) build(frames ...testFrame) []byte {
	var b bytes.Buffer
	b.WriteString(tt.header())
	for _, fr := range frames {
		b.Write(tt.frame(fr))
	}
	return b.Bytes()
}

// buildRows writes a TOB1 table of raw rows.
func (tt testTable) buildRows(rows ...[]byte) []byte {
	var b bytes.Buffer
	b.WriteString(tt.header())
	for _, r := range rows {
		b.Write(r)
	}
	return b.Bytes()
}

func loggerSeconds(t time.Time) uint32 {
	return uint32(t.Unix() - codec.EpochOffset)
}

func ieee4(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

func ascii(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

func row(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// countingSource counts ReadAt calls.
type countingSource struct {
	*bytes.Reader
	reads atomic.Int64
}

func newCountingSource(b []byte) *countingSource {
	return &countingSource{Reader: bytes.NewReader(b)}
}

func (c *countingSource) ReadAt(p []byte, off int64) (int, error) {
	c.reads.Add(1)
	return c.Reader.ReadAt(p, off)
}
