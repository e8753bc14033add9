package codec

import (
	"fmt"

	"github.com/khusmann/bydantic/pkg/bitstream"
)

// FieldDef pairs a field name with its layout.
type FieldDef struct {
	Name  string
	Field Field
}

// F is shorthand for building a FieldDef.
func F(name string, field Field) FieldDef {
	return FieldDef{Name: name, Field: field}
}

// Schema is an ordered list of named fields plus a record type name used in
// diagnostics. Schemas are immutable after construction and safe to share.
type Schema struct {
	name    string
	fields  []FieldDef
	index   map[string]int
	reorder []int
}

// NewSchema builds and validates a schema. Field names must be unique and
// non-empty, every field definition must be well formed, and combinator
// children must not carry construction defaults (literal fields excepted).
func NewSchema(name string, fields ...FieldDef) (*Schema, error) {
	if name == "" {
		return nil, errorf(KindSchema, "schema name must not be empty")
	}
	s := &Schema{
		name:   name,
		fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i, fd := range fields {
		if fd.Name == "" {
			return nil, errorf(KindSchema, "%s: field %d has an empty name", name, i)
		}
		if _, dup := s.index[fd.Name]; dup {
			return nil, errorf(KindSchema, "%s: duplicate field %q", name, fd.Name)
		}
		if fd.Field == nil {
			return nil, errorf(KindSchema, "%s.%s: field is nil", name, fd.Name)
		}
		if err := fd.Field.validate(); err != nil {
			return nil, fmt.Errorf("in definition of %s.%s: %w", name, fd.Name, err)
		}
		if hasDefaultedChildren(fd.Field) {
			return nil, errorf(KindSchema,
				"in definition of %s.%s: inner field definitions cannot have defaults (except literal fields)", name, fd.Name)
		}
		s.index[fd.Name] = i
	}
	return s, nil
}

// MustSchema is NewSchema panicking on error, for package-level schema
// definitions.
func MustSchema(name string, fields ...FieldDef) *Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// WithBitReorder returns a copy of the schema that permutes the input bits
// before decoding and un-permutes the output bits after encoding. order
// lists the source bit indices moved to the front of the stream. Only valid
// on top-level schemas.
func (s *Schema) WithBitReorder(order ...int) *Schema {
	out := *s
	out.reorder = append([]int(nil), order...)
	return &out
}

// Name returns the record type name used in diagnostics.
func (s *Schema) Name() string {
	return s.name
}

// Length returns the total bit width when every field's width is statically
// known.
func (s *Schema) Length() (int, bool) {
	total := 0
	for _, fd := range s.fields {
		n, known := fd.Field.length()
		if !known {
			return 0, false
		}
		total += n
	}
	return total, true
}

// New constructs a record from a map of field values. Omitted fields take
// their declared default (literal fields default to their constant); a
// missing field without a default, or an unknown name, is an error.
func (s *Schema) New(values map[string]any) (*Record, error) {
	for name := range values {
		if _, ok := s.index[name]; !ok {
			return nil, fmt.Errorf("codec: %s has no field %q", s.name, name)
		}
	}
	rec := s.blank()
	for i, fd := range s.fields {
		v, ok := values[fd.Name]
		if !ok {
			d, has := fd.Field.defaultValue()
			if !has {
				return nil, fmt.Errorf("codec: missing value for field %s.%s", s.name, fd.Name)
			}
			v = d
		}
		rec.bind(i, v)
	}
	return rec, nil
}

// MustNew is New panicking on error, for tests and fixed values.
func (s *Schema) MustNew(values map[string]any) *Record {
	rec, err := s.New(values)
	if err != nil {
		panic(err)
	}
	return rec
}

// readRecord drives one decode pass over the schema's fields in declaration
// order, building the partial record as it goes.
func (s *Schema) readRecord(r *bitstream.Reader, ctx any) (*Record, error) {
	rec := s.blank()
	for i, fd := range s.fields {
		v, err := fd.Field.read(r, rec, ctx)
		if err != nil {
			return nil, s.frame(err, OpDecode, fd.Name, r.Pos())
		}
		rec.bind(i, v)
	}
	return rec, nil
}

// writeRecord drives one encode pass. The partial record handed to dynamic
// factories contains only fields already written, mirroring decode order.
func (s *Schema) writeRecord(w *bitstream.Writer, rec *Record, ctx any) error {
	if rec.schema != s {
		return errorf(KindTypeMismatch, "record of schema %s encoded with schema %s", rec.schema.name, s.name)
	}
	partial := s.blank()
	for i, fd := range s.fields {
		if !rec.set[i] {
			return s.frame(errorf(KindSchema, "field value not set"), OpEncode, fd.Name, w.Len())
		}
		v := rec.values[i]
		if err := fd.Field.write(w, v, partial, ctx); err != nil {
			return s.frame(err, OpEncode, fd.Name, w.Len())
		}
		partial.bind(i, v)
	}
	return nil
}

// frame wraps an error leaving this record with the field's name segment;
// nested records keep prepending as the error propagates outward.
func (s *Schema) frame(err error, op Op, field string, pos int) error {
	e, ok := err.(*Error)
	if !ok {
		e = wrapErr(KindUnknown, err)
	}
	return e.pushFrame(s.name, field, op, pos)
}

// Encode serializes a record. ctx is the opaque user context threaded to
// dynamic factories; pass nil when unused. The result must be whole bytes:
// a schema whose total width is not a multiple of 8 fails with an
// unaligned-output error rather than being padded.
func (s *Schema) Encode(rec *Record, ctx any) ([]byte, error) {
	w := bitstream.NewWriter()
	if err := s.writeRecord(w, rec, ctx); err != nil {
		return nil, err
	}
	nbits := w.Len()
	w, err := w.Unreorder(s.reorder)
	if err != nil {
		return nil, s.frame(wrapErr(KindSchema, err), OpEncode, "<reorder>", nbits)
	}
	out, err := w.Bytes()
	if err != nil {
		return nil, &Error{
			Kind:   KindUnalignedOutput,
			Op:     OpEncode,
			Record: s.name,
			Pos:    w.Len(),
			Detail: fmt.Sprintf("%d bits written", w.Len()),
		}
	}
	return out, nil
}

func (s *Schema) newReader(data []byte) (*bitstream.Reader, error) {
	r := bitstream.NewReader(data)
	r, err := r.Reorder(s.reorder)
	if err != nil {
		return nil, s.frame(wrapErr(KindSchema, err), OpDecode, "<reorder>", 0)
	}
	return r, nil
}

// DecodeExact deserializes a record that must consume the entire buffer;
// leftover bits fail with a trailing-bits error.
func (s *Schema) DecodeExact(data []byte, ctx any) (*Record, error) {
	r, err := s.newReader(data)
	if err != nil {
		return nil, err
	}
	rec, err := s.readRecord(r, ctx)
	if err != nil {
		return nil, err
	}
	if n := r.BitsRemaining(); n != 0 {
		return nil, &Error{
			Kind:   KindTrailingBits,
			Op:     OpDecode,
			Record: s.name,
			Pos:    r.Pos(),
			Detail: fmt.Sprintf("%d bits left over", n),
		}
	}
	return rec, nil
}

// Decode deserializes one record from the front of the buffer and returns
// the unconsumed suffix. The consumed prefix must end on a byte boundary.
func (s *Schema) Decode(data []byte, ctx any) (*Record, []byte, error) {
	r, err := s.newReader(data)
	if err != nil {
		return nil, nil, err
	}
	rec, err := s.readRecord(r, ctx)
	if err != nil {
		return nil, nil, err
	}
	rest, err := r.Rest()
	if err != nil {
		return nil, nil, &Error{
			Kind:   KindUnalignedConsumption,
			Op:     OpDecode,
			Record: s.name,
			Pos:    r.Pos(),
			Detail: fmt.Sprintf("consumed %d bits", r.Pos()),
		}
	}
	return rec, rest, nil
}

// DecodeBatch deserializes records from the buffer until one fails, and
// returns the records that did decode plus the unconsumed suffix. A failure
// on the first record simply yields an empty list; DecodeBatch itself never
// fails.
func (s *Schema) DecodeBatch(data []byte, ctx any) ([]*Record, []byte) {
	out := []*Record{}
	rest := data
	for len(rest) > 0 {
		rec, next, err := s.Decode(rest, ctx)
		if err != nil {
			break
		}
		if len(next) == len(rest) {
			// Zero-width schema; no progress is possible.
			break
		}
		out = append(out, rec)
		rest = next
	}
	return out, rest
}
