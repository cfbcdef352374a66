package tob

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/tobread/pkg/codec"
)

var twoColumns = []testColumn{
	{"Label", "", "Smp", "ASCII(8)"},
	{"AirTC", "Deg C", "Avg", "IEEE4"},
}

func TestParseHeaderTOB3(t *testing.T) {
	tt := testTable{format: "TOB3", frameSize: 12 + 12 + 4 + 4, tableSize: 10, stamp: testStamp, columns: twoColumns}
	hdr := tt.header()

	h, err := ParseHeader(strings.NewReader(hdr), -1)
	require.NoError(t, err)

	require.Equal(t, TOB3, h.Format)
	require.Equal(t, "Station", h.StationName)
	require.Equal(t, "CR1000", h.Model)
	require.Equal(t, "1234", h.SerialNumber)
	require.Equal(t, "CR1000.Std.32", h.OperatingSystem)
	require.Equal(t, "CPU:prog.CR1", h.Program)
	require.Equal(t, "12345", h.ProgramSignature)
	require.True(t, h.CreationTime.Equal(time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)))
	require.Equal(t, "Table1", h.TableName)
	require.Equal(t, 1.0, h.RecordInterval)
	require.Equal(t, time.Second, h.RecordIntervalDuration())
	require.Equal(t, 10, h.IntendedTableSize)
	require.Equal(t, uint16(testStamp), h.ValidationStamp)
	require.InDelta(t, 100e-6, h.FrameTimeResolution, 1e-12)
	require.Equal(t, 100*time.Microsecond, h.Resolution())
	require.Equal(t, int64(7), h.RingRecord)
	require.Equal(t, int64(3), h.LastCardRemoval)
	require.Equal(t, uint64(98765), h.TableChecksum)

	require.Equal(t, int64(len(hdr)), h.FirstFrameStart)
	require.Equal(t, 12, h.FrameHeaderSize)
	require.Equal(t, 4, h.FrameFooterSize)
	require.Equal(t, 12, h.FrameRowSize)
	require.Equal(t, 1, h.FrameRowCount)
	require.Equal(t, 4, h.FrameRowPadding)

	require.Len(t, h.Columns, 2)
	require.Equal(t, "Label", h.Columns[0].Name)
	require.Equal(t, codec.FixedText, h.Columns[0].Kind())
	require.Equal(t, 8, h.Columns[0].Width())
	require.Equal(t, 0, h.Columns[0].Offset)
	require.Equal(t, "AirTC", h.Columns[1].Name)
	require.Equal(t, "Deg C", h.Columns[1].Unit)
	require.Equal(t, "Avg", h.Columns[1].Processing)
	require.Equal(t, codec.Float, h.Columns[1].Kind())
	require.Equal(t, 8, h.Columns[1].Offset)
	require.Equal(t, 1, h.Columns[1].Index)
}

func TestParseHeaderTOB2(t *testing.T) {
	tt := testTable{format: "TOB2", frameSize: 8 + 4 + 4, tableSize: 5, stamp: 1, resolution: "SecMsec",
		columns: []testColumn{{"v", "", "Smp", "FP2"}, {"b", "", "Smp", "BOOL2"}}}

	h, err := ParseHeader(strings.NewReader(tt.header()), -1)
	require.NoError(t, err)
	require.Equal(t, TOB2, h.Format)
	require.Equal(t, 8, h.FrameHeaderSize)
	require.Equal(t, 4, h.FrameFooterSize)
	require.Equal(t, 4, h.FrameRowSize)
	require.Equal(t, 1, h.FrameRowCount)
	require.Equal(t, 0, h.FrameRowPadding)
	require.Equal(t, time.Millisecond, h.Resolution())
	require.Zero(t, h.RingRecord)
}

func TestParseHeaderTOB1(t *testing.T) {
	tt := testTable{format: "TOB1", columns: twoColumns}
	hdr := tt.header()
	size := int64(len(hdr) + 3*12 + 5)

	h, err := ParseHeader(strings.NewReader(hdr), size)
	require.NoError(t, err)
	require.Equal(t, TOB1, h.Format)
	require.Equal(t, "Table1", h.TableName)
	require.True(t, h.CreationTime.IsZero())
	require.Equal(t, 12, h.FrameRowSize)
	require.Equal(t, h.FrameRowSize, h.FrameSize)
	require.Equal(t, 1, h.FrameRowCount)
	require.Equal(t, 0, h.FrameRowPadding)
	require.Equal(t, 0, h.FrameHeaderSize)
	require.Equal(t, 0, h.FrameFooterSize)
	require.Equal(t, 3, h.IntendedTableSize)
	require.Equal(t, int64(len(hdr)), h.FirstFrameStart)
}

func TestGeometryInvariant(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		frameSize int
		rows      int
		padding   int
	}{
		{"tob3 single row", "TOB3", 12 + 4 + 12, 1, 0},
		{"tob3 padded row", "TOB3", 12 + 4 + 12 + 7, 1, 7},
		{"tob2 two rows", "TOB2", 8 + 4 + 2*12 + 2*3, 2, 3},
		{"tob2 four rows", "TOB2", 8 + 4 + 4*12, 4, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt := testTable{format: tc.format, frameSize: tc.frameSize, tableSize: 1, stamp: 1, columns: twoColumns}
			h, err := ParseHeader(strings.NewReader(tt.header()), -1)
			require.NoError(t, err)
			require.Equal(t, tc.rows, h.FrameRowCount)
			require.Equal(t, tc.padding, h.FrameRowPadding)
			require.Equal(t, h.FrameSize-h.FrameHeaderSize-h.FrameFooterSize,
				h.FrameRowSize*h.FrameRowCount+h.FrameRowCount*h.FrameRowPadding)
		})
	}
}

func TestParseHeaderErrors(t *testing.T) {
	good := testTable{format: "TOB3", frameSize: 32, tableSize: 1, stamp: 1, columns: twoColumns}

	replaceLine := func(n int, line string) string {
		lines := strings.SplitAfter(good.header(), "\r\n")
		lines[n] = line + "\r\n"
		return strings.Join(lines, "")
	}

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"unknown format", strings.Replace(good.header(), "TOB3", "TOA5", 1), ErrUnknownFormat},
		{"environment field count", replaceLine(0, `"TOB3","a","b"`), ErrFieldCount},
		{"bad creation time", replaceLine(0, `"TOB3","a","b","c","d","e","f","yesterday"`), ErrHeaderValue},
		{"tob3 table field count", replaceLine(1, `"Table1","1 SEC",32,1,1,"Sec100Usec"`), ErrFieldCount},
		{"tob2 table field count", strings.Replace(replaceLine(1, `"Table1","1 SEC",32,1,1,"Sec100Usec",0,0,0`), "TOB3", "TOB2", 1), ErrFieldCount},
		{"interval unit", replaceLine(1, `"Table1","1 FORTNIGHT",32,1,1,"Sec100Usec",0,0,0`), ErrUnknownIntervalUnit},
		{"interval number", replaceLine(1, `"Table1","x SEC",32,1,1,"Sec100Usec",0,0,0`), ErrHeaderValue},
		{"resolution", replaceLine(1, `"Table1","1 SEC",32,1,1,"SecFortnight",0,0,0`), ErrUnknownResolution},
		{"frame size", replaceLine(1, `"Table1","1 SEC",big,1,1,"Sec100Usec",0,0,0`), ErrHeaderValue},
		{"validation stamp", replaceLine(1, `"Table1","1 SEC",32,1,70000,"Sec100Usec",0,0,0`), ErrHeaderValue},
		{"column count", replaceLine(3, `"","C",""`), ErrColumnCount},
		{"unsupported type", replaceLine(5, `"ASCII(8)","IEEE16"`), codec.ErrUnsupportedType},
		{"frame too small", replaceLine(1, `"Table1","1 SEC",20,1,1,"Sec100Usec",0,0,0`), ErrGeometry},
		{"truncated", strings.TrimSuffix(good.header(), "\r\n"), ErrTruncatedHeader},
		{"empty", "", ErrTruncatedHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeader(strings.NewReader(tt.header), -1)
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestParseHeaderNonIntegralPadding(t *testing.T) {
	tt := testTable{format: "TOB2", frameSize: 8 + 4 + 2*12 + 5, tableSize: 1, stamp: 1, columns: twoColumns}
	_, err := ParseHeader(strings.NewReader(tt.header()), -1)
	require.ErrorIs(t, err, ErrGeometry)
}

func TestParseHeaderTrimsTrailingTagPadding(t *testing.T) {
	tt := testTable{format: "TOB3", frameSize: 28, tableSize: 1, stamp: 1, columns: twoColumns}
	hdr := strings.Replace(tt.header(), `"IEEE4"`+"\r\n", `"IEEE4"   `+"\r\n", 1)

	h, err := ParseHeader(strings.NewReader(hdr), -1)
	require.NoError(t, err)
	require.Equal(t, "IEEE4", h.Columns[1].Encoding.Tag)
	require.Equal(t, int64(len(hdr)), h.FirstFrameStart)
}

func TestParseHeaderIgnoresFrameBytes(t *testing.T) {
	tt := testTable{format: "TOB3", frameSize: 28, tableSize: 1, stamp: 1, columns: twoColumns}
	hdr := tt.header()
	data := append([]byte(hdr), bytes.Repeat([]byte{0xAB, '\n'}, 64)...)

	h, err := ParseHeader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, int64(len(hdr)), h.FirstFrameStart)
}

func TestFormatOrder(t *testing.T) {
	require.True(t, TOB2 > TOB1)
	require.True(t, TOB3 > TOB2)
	require.Equal(t, "TOB3", TOB3.String())
}
