package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// EpochOffset is the number of seconds between the Unix epoch and the
// logger epoch, 1990-01-01 00:00:00 UTC.
const EpochOffset = 631152000

// Epoch is the logger epoch.
var Epoch = time.Unix(EpochOffset, 0).UTC()

// FP2 special values, as read in the field's byte order.
const (
	fp2PosInf = 0xFF1F
	fp2NegInf = 0xFF9F
	fp2NaN    = 0xFE9F
)

var pow10 = [4]float64{1, 10, 100, 1000}

// DecodeFP2 decodes a two-byte FP2 value.
func DecodeFP2(b []byte, order binary.ByteOrder) float32 {
	v := order.Uint16(b)
	switch v {
	case fp2PosInf:
		return float32(math.Inf(1))
	case fp2NegInf:
		return float32(math.Inf(-1))
	case fp2NaN:
		return float32(math.NaN())
	}

	exp := (v >> 13) & 0x3
	val := float64(v&0x1FFF) / pow10[exp]
	if v&0x8000 != 0 {
		val = -val
	}
	return float32(val)
}

// DecodeFP4 decodes a four-byte FP4 value. Every bit pattern goes through the
// generic formula; no Inf/NaN patterns are defined for this encoding.
func DecodeFP4(b []byte, order binary.ByteOrder) float32 {
	v := order.Uint32(b)
	exp := int((v>>24)&0x7F) - 0x40
	val := math.Ldexp(float64(v&0xFFFFFF)/(1<<24), exp)
	if v&0x80000000 != 0 {
		val = -val
	}
	return float32(val)
}

// DecodeBool reports whether any bit of the span is set.
func DecodeBool(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return true
		}
	}
	return false
}

// DecodeTime decodes a seconds/nanoseconds pair relative to Epoch. The
// nanoseconds are applied with millisecond resolution.
func DecodeTime(b []byte, order binary.ByteOrder) time.Time {
	sec := int64(int32(order.Uint32(b[0:4])))
	nsec := int64(int32(order.Uint32(b[4:8])))
	return time.Unix(sec+EpochOffset, 0).UTC().Add(time.Duration(nsec/1e6) * time.Millisecond)
}

// DecodeNSec decodes an NSec timestamp (big-endian words).
func DecodeNSec(b []byte) time.Time {
	return DecodeTime(b, binary.BigEndian)
}

// DecodeSecNano decodes a SecNano timestamp (little-endian words).
func DecodeSecNano(b []byte) time.Time {
	return DecodeTime(b, binary.LittleEndian)
}

// DecodeASCII decodes fixed-width text. Trailing NULs are stripped and bytes
// outside 7-bit ASCII are replaced by '?'.
func DecodeASCII(b []byte) string {
	b = bytes.TrimRight(b, "\x00")
	out := make([]byte, len(b))
	for i, c := range b {
		if c > 0x7F {
			c = '?'
		}
		out[i] = c
	}
	return string(out)
}

// DecodeInt decodes a signed integer of 1, 2, 4 or 8 bytes.
func DecodeInt(b []byte, order binary.ByteOrder) int64 {
	switch len(b) {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(order.Uint16(b)))
	case 4:
		return int64(int32(order.Uint32(b)))
	default:
		return int64(order.Uint64(b))
	}
}

// DecodeUint decodes an unsigned integer of 1, 2, 4 or 8 bytes.
func DecodeUint(b []byte, order binary.ByteOrder) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	default:
		return order.Uint64(b)
	}
}

// DecodeFloat decodes an IEEE-754 float of 4 or 8 bytes.
func DecodeFloat(b []byte, order binary.ByteOrder) float64 {
	if len(b) == 4 {
		return float64(math.Float32frombits(order.Uint32(b)))
	}
	return math.Float64frombits(order.Uint64(b))
}

// Swap reverses the byte order of every width-sized element of b in place.
func Swap(b []byte, width int) {
	if width < 2 {
		return
	}
	for off := 0; off+width <= len(b); off += width {
		el := b[off : off+width]
		for i, j := 0, width-1; i < j; i, j = i+1, j-1 {
			el[i], el[j] = el[j], el[i]
		}
	}
}

// Decode decodes src and writes the natural value into dst as ValueWidth
// little-endian bytes.
func (e Encoding) Decode(dst, src []byte) error {
	if len(src) < e.Width {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortValue, e.Tag, e.Width, len(src))
	}
	if len(dst) < e.ValueWidth {
		return fmt.Errorf("%w: %s value needs %d bytes, got %d", ErrShortValue, e.Tag, e.ValueWidth, len(dst))
	}
	src = src[:e.Width]

	switch e.scheme {
	case schemeNative:
		copy(dst, src)
		if e.Order == binary.BigEndian {
			Swap(dst[:e.Width], e.Width)
		}
	case schemeFP2:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(DecodeFP2(src, e.Order)))
	case schemeFP4:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(DecodeFP4(src, e.Order)))
	case schemeBool:
		dst[0] = 0
		if DecodeBool(src) {
			dst[0] = 1
		}
	case schemeTime:
		binary.LittleEndian.PutUint64(dst, uint64(DecodeTime(src, e.Order).UnixNano()))
	default:
		return fmt.Errorf("%w: %s", ErrNotNumeric, e.Tag)
	}
	return nil
}

// Text decodes a fixed-text field.
func (e Encoding) Text(src []byte) (string, error) {
	if e.Kind != FixedText {
		return "", fmt.Errorf("%w: %s is %s", ErrUnsupportedType, e.Tag, e.Kind)
	}
	if len(src) < e.Width {
		return "", fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortValue, e.Tag, e.Width, len(src))
	}
	return DecodeASCII(src[:e.Width]), nil
}

// Time decodes a timestamp field.
func (e Encoding) Time(src []byte) (time.Time, error) {
	if e.Kind != Timestamp {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNotTime, e.Tag)
	}
	if len(src) < e.Width {
		return time.Time{}, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortValue, e.Tag, e.Width, len(src))
	}
	return DecodeTime(src, e.Order), nil
}
