package codec

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"

	"github.com/khusmann/bydantic/pkg/bitstream"
)

// uintField is the root primitive: everything numeric is built over it.
type uintField struct {
	noDefault
	n int
}

// Uint builds an unsigned integer field of n bits, n in [0, 64]. Values are
// decoded as uint64.
func Uint(n int) Field {
	return uintField{n: n}
}

func (f uintField) length() (int, bool) { return f.n, true }

func (f uintField) validate() error {
	if f.n < 0 || f.n > 64 {
		return errorf(KindSchema, "uint width must be in [0, 64], got %d", f.n)
	}
	return nil
}

func (f uintField) read(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	v, err := r.Take(f.n)
	if err != nil {
		return nil, streamErr(err)
	}
	return v, nil
}

func (f uintField) write(w *bitstream.Writer, value any, _ *Record, _ any) error {
	u, ok := toUint64(value)
	if !ok {
		if _, neg := toInt64(value); neg {
			return errorf(KindRange, "expected non-negative value, got %v", value)
		}
		return errorf(KindTypeMismatch, "expected unsigned integer, got %T", value)
	}
	if f.n < 64 && u>>uint(f.n) != 0 {
		return errorf(KindRange, "value %d does not fit in %d bits", u, f.n)
	}
	if err := w.PutUint(u, f.n); err != nil {
		return streamErr(err)
	}
	return nil
}

// signMapper converts between the unsigned wire form and a two's-complement
// signed value of width n.
type signMapper struct {
	n int
}

func (m signMapper) Forward(x any) (any, error) {
	u, _ := toUint64(x)
	v := int64(u)
	if m.n > 0 && m.n < 64 && u&(1<<uint(m.n-1)) != 0 {
		v -= 1 << uint(m.n)
	}
	return v, nil
}

func (m signMapper) Back(y any) (any, error) {
	v, ok := toInt64(y)
	if !ok {
		return nil, errorf(KindTypeMismatch, "expected signed integer, got %T", y)
	}
	if !fitsSigned(v, m.n) {
		return nil, errorf(KindRange, "signed value %d does not fit in %d bits", v, m.n)
	}
	if v < 0 {
		return uint64(v + 1<<uint(m.n)), nil
	}
	return uint64(v), nil
}

func fitsSigned(v int64, n int) bool {
	if n <= 0 {
		return v == 0
	}
	if n >= 64 {
		return true
	}
	return v >= -(1<<uint(n-1)) && v < 1<<uint(n-1)
}

// Int builds a two's-complement signed integer field of n bits. Values are
// decoded as int64.
func Int(n int) Field {
	return mapField{inner: uintField{n: n}, vm: signMapper{n: n}}
}

// boolMapper converts between a 1-bit wire value and a bool.
type boolMapper struct{}

func (boolMapper) Forward(x any) (any, error) {
	u, _ := toUint64(x)
	return u != 0, nil
}

func (boolMapper) Back(y any) (any, error) {
	b, ok := y.(bool)
	if !ok {
		return nil, errorf(KindTypeMismatch, "expected bool, got %T", y)
	}
	if b {
		return uint64(1), nil
	}
	return uint64(0), nil
}

// Bool builds a 1-bit boolean field (1 = true).
func Bool() Field {
	return mapField{inner: uintField{n: 1}, vm: boolMapper{}}
}

// bytesField reads and writes a fixed number of bytes, which need not be
// byte aligned in the stream.
type bytesField struct {
	noDefault
	n int
}

// Bytes builds a field of exactly n bytes, decoded as []byte.
func Bytes(n int) Field {
	return bytesField{n: n}
}

func (f bytesField) length() (int, bool) { return f.n * 8, true }

func (f bytesField) validate() error {
	if f.n < 0 {
		return errorf(KindSchema, "bytes width must be non-negative, got %d", f.n)
	}
	return nil
}

func (f bytesField) read(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	b, err := r.TakeBytes(f.n)
	if err != nil {
		return nil, streamErr(err)
	}
	return b, nil
}

func (f bytesField) write(w *bitstream.Writer, value any, _ *Record, _ any) error {
	b, ok := value.([]byte)
	if !ok {
		return errorf(KindTypeMismatch, "expected []byte, got %T", value)
	}
	if len(b) != f.n {
		return errorf(KindRange, "expected %d bytes, got %d", f.n, len(b))
	}
	w.PutBytes(b)
	return nil
}

// bitsField reads and writes a raw bit string.
type bitsField struct {
	noDefault
	n int
}

// Bits builds a raw bit-string field of n bits, decoded as bitstream.Bits.
func Bits(n int) Field {
	return bitsField{n: n}
}

func (f bitsField) length() (int, bool) { return f.n, true }

func (f bitsField) validate() error {
	if f.n < 0 {
		return errorf(KindSchema, "bits width must be non-negative, got %d", f.n)
	}
	return nil
}

func (f bitsField) read(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	b, err := r.TakeBits(f.n)
	if err != nil {
		return nil, streamErr(err)
	}
	return b, nil
}

func (f bitsField) write(w *bitstream.Writer, value any, _ *Record, _ any) error {
	b, ok := value.(bitstream.Bits)
	if !ok {
		return errorf(KindTypeMismatch, "expected bitstream.Bits, got %T", value)
	}
	if len(b) != f.n {
		return errorf(KindRange, "expected %d bits, got %d", f.n, len(b))
	}
	w.PutBits(b)
	return nil
}

// strMapper converts between a fixed-width byte block and a string: decode
// then strip trailing NULs on the way out; encode then pad with NULs on the
// way in. A nil encoding means plain UTF-8.
type strMapper struct {
	n   int
	enc encoding.Encoding
}

func (m strMapper) Forward(x any) (any, error) {
	raw := x.([]byte)
	var s string
	if m.enc == nil {
		if !utf8.Valid(raw) {
			return nil, errorf(KindEncoding, "invalid UTF-8 sequence")
		}
		s = string(raw)
	} else {
		decoded, err := m.enc.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, wrapErr(KindEncoding, err)
		}
		s = string(decoded)
	}
	return strings.TrimRight(s, "\x00"), nil
}

func (m strMapper) Back(y any) (any, error) {
	s, ok := y.(string)
	if !ok {
		return nil, errorf(KindTypeMismatch, "expected string, got %T", y)
	}
	raw := []byte(s)
	if m.enc != nil {
		encoded, err := m.enc.NewEncoder().Bytes(raw)
		if err != nil {
			return nil, wrapErr(KindEncoding, err)
		}
		raw = encoded
	}
	if len(raw) > m.n {
		return nil, errorf(KindRange, "string of %d bytes does not fit in %d bytes", len(raw), m.n)
	}
	padded := make([]byte, m.n)
	copy(padded, raw)
	return padded, nil
}

// Str builds a UTF-8 string field of n bytes. Decoding strips trailing NUL
// bytes; encoding right-pads with NULs to the declared width.
func Str(n int) Field {
	return StrEnc(n, nil)
}

// StrEnc builds a string field of n bytes using the given text encoding. A
// nil encoding means plain UTF-8.
func StrEnc(n int, enc encoding.Encoding) Field {
	return mapField{inner: bytesField{n: n}, vm: strMapper{n: n, enc: enc}}
}

// noneField occupies zero bits and holds the nil value. Most useful from
// dynamic factories to express an absent field.
type noneField struct{}

// None builds a zero-width field whose value is always nil.
func None() Field {
	return noneField{}
}

func (noneField) length() (int, bool) { return 0, true }

func (noneField) validate() error { return nil }

func (noneField) defaultValue() (any, bool) { return nil, true }

func (noneField) read(*bitstream.Reader, *Record, any) (any, error) {
	return nil, nil
}

func (noneField) write(_ *bitstream.Writer, value any, _ *Record, _ any) error {
	if value != nil {
		return errorf(KindTypeMismatch, "expected nil, got %v", value)
	}
	return nil
}

// uintEnumMapper restricts an unsigned wire value to a member set, boxing it
// into the enum's own type.
type uintEnumMapper[E integer] struct {
	members []E
}

func (m uintEnumMapper[E]) Forward(x any) (any, error) {
	u, _ := toUint64(x)
	for _, member := range m.members {
		if uint64(member) == u {
			return member, nil
		}
	}
	return nil, errorf(KindEnumOutOfRange, "no enum member with value %d", u)
}

func (m uintEnumMapper[E]) Back(y any) (any, error) {
	e, ok := y.(E)
	if !ok {
		return nil, errorf(KindTypeMismatch, "expected %T, got %T", m.members[0], y)
	}
	for _, member := range m.members {
		if member == e {
			return uint64(e), nil
		}
	}
	return nil, errorf(KindEnumOutOfRange, "%v is not an enum member", y)
}

// UintEnum builds an unsigned enum field of n bits. Decoding fails when the
// read value matches no member; encoding checks membership.
func UintEnum[E integer](n int, members ...E) Field {
	if len(members) == 0 {
		return errField{err: errorf(KindSchema, "enum field needs at least one member")}
	}
	return mapField{inner: uintField{n: n}, vm: uintEnumMapper[E]{members: members}}
}

// intEnumMapper is the signed counterpart of uintEnumMapper.
type intEnumMapper[E integer] struct {
	members []E
}

func (m intEnumMapper[E]) Forward(x any) (any, error) {
	v, _ := toInt64(x)
	for _, member := range m.members {
		if int64(member) == v {
			return member, nil
		}
	}
	return nil, errorf(KindEnumOutOfRange, "no enum member with value %d", v)
}

func (m intEnumMapper[E]) Back(y any) (any, error) {
	e, ok := y.(E)
	if !ok {
		return nil, errorf(KindTypeMismatch, "expected %T, got %T", m.members[0], y)
	}
	for _, member := range m.members {
		if member == e {
			return int64(e), nil
		}
	}
	return nil, errorf(KindEnumOutOfRange, "%v is not an enum member", y)
}

// IntEnum builds a two's-complement signed enum field of n bits.
func IntEnum[E integer](n int, members ...E) Field {
	if len(members) == 0 {
		return errField{err: errorf(KindSchema, "enum field needs at least one member")}
	}
	return mapField{inner: Int(n), vm: intEnumMapper[E]{members: members}}
}

// litField constrains a field to a single constant value. The constant
// doubles as the field's construction default.
type litField struct {
	inner Field
	want  any
}

// Lit constrains inner to the constant value want. Decoding any other value
// fails with a literal mismatch; the constant is the field's default.
func Lit(inner Field, want any) Field {
	return litField{inner: inner, want: want}
}

// LitUint builds an n-bit unsigned literal field.
func LitUint(n int, want uint64) Field {
	return litField{inner: uintField{n: n}, want: want}
}

// LitInt builds an n-bit signed literal field.
func LitInt(n int, want int64) Field {
	return litField{inner: Int(n), want: want}
}

// LitBytes builds a literal field over exactly the given bytes.
func LitBytes(want []byte) Field {
	return litField{inner: bytesField{n: len(want)}, want: want}
}

// LitStr builds a literal UTF-8 string field whose byte width is the
// encoded length of want.
func LitStr(want string) Field {
	return litField{inner: Str(len(want)), want: want}
}

// LitStrEnc builds a literal string field in the given text encoding; the
// field's byte width is the encoded length of want.
func LitStrEnc(want string, enc encoding.Encoding) Field {
	encoded, err := enc.NewEncoder().Bytes([]byte(want))
	if err != nil {
		return errField{err: wrapErr(KindEncoding, err)}
	}
	return litField{inner: StrEnc(len(encoded), enc), want: want}
}

func (f litField) length() (int, bool) { return f.inner.length() }

func (f litField) validate() error { return f.inner.validate() }

func (f litField) defaultValue() (any, bool) { return f.want, true }

func (f litField) read(r *bitstream.Reader, partial *Record, ctx any) (any, error) {
	v, err := f.inner.read(r, partial, ctx)
	if err != nil {
		return nil, err
	}
	if !equalValue(v, f.want) {
		return nil, errorf(KindLiteralMismatch, "expected %v, got %v", f.want, v)
	}
	return v, nil
}

func (f litField) write(w *bitstream.Writer, value any, partial *Record, ctx any) error {
	if !equalValue(value, f.want) {
		return errorf(KindLiteralMismatch, "expected %v, got %v", f.want, value)
	}
	return f.inner.write(w, f.want, partial, ctx)
}

// streamErr maps bitstream errors onto codec kinds.
func streamErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bitstream.ErrEndOfStream):
		return wrapErr(KindEndOfStream, err)
	case errors.Is(err, bitstream.ErrUnaligned):
		return wrapErr(KindUnalignedConsumption, err)
	case errors.Is(err, bitstream.ErrValueRange):
		return wrapErr(KindRange, err)
	default:
		return wrapErr(KindSchema, err)
	}
}
