// Package codec decodes the fixed-width numeric encodings written by
// Campbell-style data loggers into table files.
//
// Every on-disk encoding is identified by the type tag declared in the table
// header (for example "IEEE4", "FP2" or "ASCII(16)"). [Lookup] maps a tag to an
// [Encoding] describing its width, semantic [Kind] and byte order. The decode
// functions are pure and operate on byte spans already sliced out of a record.
//
// # Custom encodings
//
//   - FP2: 16 bits, sign(1) | decimal exponent(2) | mantissa(13).
//     value = mantissa * 10^-exponent. 0xFF1F, 0xFF9F and 0xFE9F are
//     +Inf, -Inf and NaN.
//   - FP4: 32 bits, sign(1) | binary exponent(7, bias 0x40) | mantissa(24).
//     value = mantissa/2^24 * 2^exponent. No special values are recognized.
//   - NSec / SecNano: two 32-bit words, seconds since 1990-01-01 UTC and
//     nanoseconds, big-endian and little-endian respectively.
//
// # Natural values
//
// [Encoding.Decode] writes the decoded value of a field into a little-endian
// buffer of ValueWidth bytes so that callers can reinterpret it as any type of
// the same width.
package codec
