package codec

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the semantic class of an encoding. It selects the decode path and
// the output representations a column can be read as.
type Kind uint8

const (
	SignedInt Kind = iota + 1
	UnsignedInt
	Float
	Boolean
	Timestamp
	FixedText
)

func (k Kind) String() string {
	switch k {
	case SignedInt:
		return "int"
	case UnsignedInt:
		return "uint"
	case Float:
		return "float"
	case Boolean:
		return "bool"
	case Timestamp:
		return "timestamp"
	case FixedText:
		return "text"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// scheme selects the bit-level decoder for an encoding.
type scheme uint8

const (
	schemeNative scheme = iota
	schemeFP2
	schemeFP4
	schemeBool
	schemeTime
	schemeASCII
)

// Encoding describes one on-disk field type.
type Encoding struct {
	// Tag is the type tag as declared in the header, e.g. "ASCII(16)".
	Tag string

	// Kind is the semantic class of the decoded value.
	Kind Kind

	// Width is the number of bytes the field occupies in a record.
	Width int

	// ValueWidth is the byte width of the decoded natural value
	// (float32 for FP2/FP4, bool for the boolean encodings, int64 unix
	// nanoseconds for timestamps). Zero for fixed text.
	ValueWidth int

	// Order is the byte order the field is stored in.
	Order binary.ByteOrder

	scheme scheme
}

var le, be = binary.LittleEndian, binary.BigEndian

var encodings = map[string]Encoding{
	"IEEE4":   {Kind: Float, Width: 4, ValueWidth: 4, Order: le},
	"IEEE4L":  {Kind: Float, Width: 4, ValueWidth: 4, Order: le},
	"IEEE4B":  {Kind: Float, Width: 4, ValueWidth: 4, Order: be},
	"IEEE8":   {Kind: Float, Width: 8, ValueWidth: 8, Order: le},
	"IEEE8L":  {Kind: Float, Width: 8, ValueWidth: 8, Order: le},
	"IEEE8B":  {Kind: Float, Width: 8, ValueWidth: 8, Order: be},
	"FP2":     {Kind: Float, Width: 2, ValueWidth: 4, Order: le, scheme: schemeFP2},
	"FP4":     {Kind: Float, Width: 4, ValueWidth: 4, Order: le, scheme: schemeFP4},
	"SHORT":   {Kind: SignedInt, Width: 2, ValueWidth: 2, Order: le},
	"INT2":    {Kind: SignedInt, Width: 2, ValueWidth: 2, Order: be},
	"USHORT":  {Kind: UnsignedInt, Width: 2, ValueWidth: 2, Order: le},
	"UINT2":   {Kind: UnsignedInt, Width: 2, ValueWidth: 2, Order: be},
	"LONG":    {Kind: SignedInt, Width: 4, ValueWidth: 4, Order: le},
	"INT4":    {Kind: SignedInt, Width: 4, ValueWidth: 4, Order: be},
	"ULONG":   {Kind: UnsignedInt, Width: 4, ValueWidth: 4, Order: le},
	"UINT4":   {Kind: UnsignedInt, Width: 4, ValueWidth: 4, Order: be},
	"BOOL":    {Kind: Boolean, Width: 1, ValueWidth: 1, Order: le, scheme: schemeBool},
	"BOOL2":   {Kind: Boolean, Width: 2, ValueWidth: 1, Order: le, scheme: schemeBool},
	"BOOL4":   {Kind: Boolean, Width: 4, ValueWidth: 1, Order: le, scheme: schemeBool},
	"NSec":    {Kind: Timestamp, Width: 8, ValueWidth: 8, Order: be, scheme: schemeTime},
	"SecNano": {Kind: Timestamp, Width: 8, ValueWidth: 8, Order: le, scheme: schemeTime},
}

// Lookup resolves a declared type tag. Surrounding quotes and whitespace are
// trimmed. A parenthesized suffix is dropped before lookup, except for ASCII
// where it declares the field length.
func Lookup(tag string) (Encoding, error) {
	declared := strings.Trim(tag, "\" \t\r\n\x00")
	base := declared
	var arg string
	if i := strings.IndexByte(declared, '('); i >= 0 {
		base = declared[:i]
		arg = strings.TrimSuffix(declared[i+1:], ")")
	}

	if base == "ASCII" {
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || n <= 0 {
			return Encoding{}, fmt.Errorf("%w: %q: bad length", ErrUnsupportedType, declared)
		}
		return Encoding{Tag: declared, Kind: FixedText, Width: n, Order: le, scheme: schemeASCII}, nil
	}

	enc, ok := encodings[base]
	if !ok {
		return Encoding{}, fmt.Errorf("%w: %q", ErrUnsupportedType, declared)
	}
	enc.Tag = declared
	return enc, nil
}

// Numeric reports whether the encoding decodes to a fixed-width value.
func (e Encoding) Numeric() bool {
	return e.Kind != FixedText
}
