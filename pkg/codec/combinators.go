package codec

import (
	"github.com/khusmann/bydantic/pkg/bitstream"
)

// mapField applies a ValueMapper over an inner field: Forward after decode,
// Back before encode. The mapper is opaque to the engine.
type mapField struct {
	noDefault
	inner Field
	vm    ValueMapper
}

// Map wraps inner with a value mapper converting between the wire type and a
// domain type. Mapper errors and panics surface as mapper errors carrying
// the field path; errors the mapper tags with a codec kind pass through.
func Map(inner Field, vm ValueMapper) Field {
	return mapField{inner: inner, vm: vm}
}

func (f mapField) length() (int, bool) { return f.inner.length() }

func (f mapField) validate() error { return f.inner.validate() }

func (f mapField) read(r *bitstream.Reader, partial *Record, ctx any) (any, error) {
	v, err := f.inner.read(r, partial, ctx)
	if err != nil {
		return nil, err
	}
	return callForward(f.vm, v)
}

func (f mapField) write(w *bitstream.Writer, value any, partial *Record, ctx any) error {
	wire, err := callBack(f.vm, value)
	if err != nil {
		return err
	}
	return f.inner.write(w, wire, partial, ctx)
}

// listField holds an ordered sequence of values of one inner field. The
// count is fixed or computed from the partial record.
type listField struct {
	noDefault
	item    Field
	n       int
	countFn func(partial *Record, ctx any) (int, error)
}

// List builds a field holding exactly n values of item, decoded as []any.
func List(item Field, n int) Field {
	return listField{item: item, n: n}
}

// ListFn builds a list field whose count is computed from the partial record
// (an earlier count field, typically). The static length is unknown.
func ListFn(item Field, count func(partial *Record, ctx any) (int, error)) Field {
	return listField{item: item, countFn: count}
}

func (f listField) length() (int, bool) {
	if f.countFn != nil {
		return 0, false
	}
	itemLen, known := f.item.length()
	if !known {
		return 0, false
	}
	return f.n * itemLen, true
}

func (f listField) validate() error {
	if f.countFn == nil && f.n < 0 {
		return errorf(KindSchema, "list count must be non-negative, got %d", f.n)
	}
	return f.item.validate()
}

func (f listField) count(partial *Record, ctx any) (int, error) {
	if f.countFn == nil {
		return f.n, nil
	}
	n, err := f.countFn(partial, ctx)
	if err != nil {
		return 0, tagSchemaErr(err)
	}
	if n < 0 {
		return 0, errorf(KindSchema, "list count function returned %d", n)
	}
	return n, nil
}

func (f listField) read(r *bitstream.Reader, partial *Record, ctx any) (any, error) {
	n, err := f.count(partial, ctx)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := f.item.read(r, partial, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (f listField) write(w *bitstream.Writer, value any, partial *Record, ctx any) error {
	items, ok := toAnySlice(value)
	if !ok {
		return errorf(KindTypeMismatch, "expected a slice, got %T", value)
	}
	n, err := f.count(partial, ctx)
	if err != nil {
		return err
	}
	if len(items) != n {
		return errorf(KindRange, "expected %d items, got %d", n, len(items))
	}
	for _, item := range items {
		if err := f.item.write(w, item, partial, ctx); err != nil {
			return err
		}
	}
	return nil
}

// nestedField embeds another record schema as a single field. The child
// engine runs on the same stream and context; its partial record is isolated
// from the parent's.
type nestedField struct {
	noDefault
	schema *Schema
}

// Nested embeds schema as a field, decoded as *Record.
func Nested(schema *Schema) Field {
	return nestedField{schema: schema}
}

func (f nestedField) length() (int, bool) {
	if f.schema == nil {
		return 0, false
	}
	return f.schema.Length()
}

func (f nestedField) validate() error {
	if f.schema == nil {
		return errorf(KindSchema, "nested schema is nil")
	}
	if len(f.schema.reorder) != 0 {
		return errorf(KindSchema, "bit reordering is not supported on nested schemas")
	}
	return nil
}

func (f nestedField) read(r *bitstream.Reader, _ *Record, ctx any) (any, error) {
	return f.schema.readRecord(r, ctx)
}

func (f nestedField) write(w *bitstream.Writer, value any, _ *Record, ctx any) error {
	rec, ok := value.(*Record)
	if !ok {
		return errorf(KindTypeMismatch, "expected *Record, got %T", value)
	}
	if rec.schema != f.schema {
		return errorf(KindTypeMismatch, "expected record of schema %s, got %s", f.schema.name, rec.schema.name)
	}
	return f.schema.writeRecord(w, rec, ctx)
}

// DynamicFactory chooses a field from the siblings decoded (or encoded) so
// far. Returning a nil field means the value is absent: zero bits are
// consumed or produced and the value is nil.
type DynamicFactory func(partial *Record, ctx any) (Field, error)

// DynamicNFactory additionally receives the number of unread bits in the
// stream. Encoding through such a factory only accepts values whose
// serialized length is self-describing (*Record, bool, []byte, or nil),
// because no bit count exists during serialization.
type DynamicNFactory func(partial *Record, ctx any, remainingBits int) (Field, error)

// dynField resolves its shape from the partial record at codec time.
type dynField struct {
	noDefault
	fn DynamicFactory
}

// Dynamic builds a field whose shape is chosen by fn at decode and encode
// time from the siblings processed so far.
func Dynamic(fn DynamicFactory) Field {
	return dynField{fn: fn}
}

func (f dynField) length() (int, bool) { return 0, false }

func (f dynField) validate() error {
	if f.fn == nil {
		return errorf(KindSchema, "dynamic factory is nil")
	}
	return nil
}

func (f dynField) resolve(partial *Record, ctx any) (Field, error) {
	resolved, err := f.fn(partial, ctx)
	if err != nil {
		return nil, tagSchemaErr(err)
	}
	if resolved == nil {
		return nil, nil
	}
	if err := resolved.validate(); err != nil {
		return nil, tagSchemaErr(err)
	}
	return resolved, nil
}

func (f dynField) read(r *bitstream.Reader, partial *Record, ctx any) (any, error) {
	resolved, err := f.resolve(partial, ctx)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, nil
	}
	return resolved.read(r, partial, ctx)
}

func (f dynField) write(w *bitstream.Writer, value any, partial *Record, ctx any) error {
	resolved, err := f.resolve(partial, ctx)
	if err != nil {
		return err
	}
	if resolved == nil {
		if value != nil {
			return errorf(KindTypeMismatch, "expected nil for absent dynamic field, got %T", value)
		}
		return nil
	}
	return resolved.write(w, value, partial, ctx)
}

// dynNField is the remaining-bits variant of dynField.
type dynNField struct {
	noDefault
	fn DynamicNFactory
}

// DynamicN builds a dynamic field whose factory also sees the number of
// unread bits. See DynamicNFactory for the encode-side restriction.
func DynamicN(fn DynamicNFactory) Field {
	return dynNField{fn: fn}
}

func (f dynNField) length() (int, bool) { return 0, false }

func (f dynNField) validate() error {
	if f.fn == nil {
		return errorf(KindSchema, "dynamic factory is nil")
	}
	return nil
}

func (f dynNField) read(r *bitstream.Reader, partial *Record, ctx any) (any, error) {
	resolved, err := f.fn(partial, ctx, r.BitsRemaining())
	if err != nil {
		return nil, tagSchemaErr(err)
	}
	if resolved == nil {
		return nil, nil
	}
	if err := resolved.validate(); err != nil {
		return nil, tagSchemaErr(err)
	}
	return resolved.read(r, partial, ctx)
}

// write ignores the factory entirely: there is no remaining-bit count while
// serializing, so only self-describing values are accepted.
func (f dynNField) write(w *bitstream.Writer, value any, partial *Record, ctx any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		return Bool().write(w, v, partial, ctx)
	case []byte:
		w.PutBytes(v)
		return nil
	case *Record:
		return v.schema.writeRecord(w, v, ctx)
	default:
		return errorf(KindUnsupportedDynamicEncode,
			"dynamic fields with a remaining-bits factory can only encode records, bool, bytes, or nil; got %T", value)
	}
}

func tagSchemaErr(err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return wrapErr(KindSchema, err)
}
