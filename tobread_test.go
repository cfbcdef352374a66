package tobread

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

func tob1(values ...float32) []byte {
	var b bytes.Buffer
	b.WriteString(`"TOB1","Station","CR1000","1","OS","prog","1","Table1"` + "\r\n")
	b.WriteString(`"RECORD","Temp"` + "\r\n")
	b.WriteString(`"RN","C"` + "\r\n")
	b.WriteString(`"","Avg"` + "\r\n")
	b.WriteString(`"ULONG","IEEE4"` + "\r\n")
	for i, v := range values {
		row := make([]byte, 8)
		binary.LittleEndian.PutUint32(row[0:4], uint32(i))
		binary.LittleEndian.PutUint32(row[4:8], math.Float32bits(v))
		b.Write(row)
	}
	return b.Bytes()
}

func TestOpenFileZstd(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	data := enc.EncodeAll(tob1(1.5, -2, 40), nil)
	require.NoError(t, enc.Close())

	path := filepath.Join(t.TempDir(), "Table1.dat.zst")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	f, closer, err := OpenFile(path)
	require.NoError(t, err)
	defer closer.Close()

	require.Equal(t, "Table1", f.Header.TableName)
	col, ok := f.Column("Temp")
	require.True(t, ok)
	_, values, err := ReadColumn[float32](f, col)
	require.NoError(t, err)
	require.Equal(t, []float32{1.5, -2, 40}, values)
}

func TestOpenFileMissing(t *testing.T) {
	_, _, err := OpenFile(filepath.Join(t.TempDir(), "missing.dat"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
