// Package codec implements a declarative bitfield codec: packet layouts are
// described at bit granularity as ordered schemas of named fields, and the
// package derives symmetric encoders and decoders between structured records
// and raw byte strings.
//
// # Schemas and fields
//
// A schema is an ordered list of named fields plus a record type name used
// in diagnostics:
//
//	packet := codec.MustSchema("Packet",
//	    codec.F("version", codec.LitUint(4, 1)),
//	    codec.F("flags", codec.Uint(4)),
//	    codec.F("callsign", codec.Str(6)),
//	)
//
// Field builders cover unsigned and signed integers of 0 to 64 bits,
// booleans, byte and bit strings, NUL-padded strings in any text encoding,
// enums, and literals. Combinators compose fields: List repeats a field,
// Map applies a user value mapper, Nested embeds another schema, and
// Dynamic chooses a field's shape at codec time from the siblings decoded
// so far:
//
//	codec.F("payload", codec.Dynamic(func(partial *codec.Record, ctx any) (codec.Field, error) {
//	    kind, err := partial.Uint("flags")
//	    if err != nil {
//	        return nil, err
//	    }
//	    if kind == 0 {
//	        return codec.Int(8), nil
//	    }
//	    return codec.Str(1), nil
//	})),
//
// # Wire format
//
// The bit order is big-endian throughout: the first bit of a packet is the
// most significant bit of byte 0. Signed integers are two's complement.
// Strings are right-padded with NUL bytes to their declared width and
// trailing NULs are stripped on decode. Booleans encode as a single bit,
// 1 for true. Literal fields are checked for exact equality on decode.
//
// # Decoding variants
//
// DecodeExact requires the buffer to be fully consumed. Decode reads one
// record and returns the byte-aligned suffix. DecodeBatch reads records
// until one fails and never returns an error; the failing tail comes back
// unconsumed.
//
// # Errors
//
// All failures surface as *Error values carrying the error kind, the
// absolute field path from the outermost record (Packet.header.flags), and
// the bit position in the stream. Use KindOf to branch on the kind.
//
// # Concurrency
//
// Schemas and fields are immutable and safe to share. Each encode or decode
// call owns its streams and partial records, so concurrent operations on
// the same schema are safe.
package codec
