package codec

import (
	"fmt"
	"strings"

	"github.com/khusmann/bydantic/pkg/bitstream"
)

// Record is an ordered, named collection of field values bound to the schema
// that produced it. During decoding the record under construction doubles as
// the partial-record view handed to dynamic factories: a factory at position
// i sees exactly the values of positions 0..i-1.
type Record struct {
	schema *Schema
	values []any
	set    []bool
}

func (s *Schema) blank() *Record {
	return &Record{
		schema: s,
		values: make([]any, len(s.fields)),
		set:    make([]bool, len(s.fields)),
	}
}

// Schema returns the schema this record was built from.
func (r *Record) Schema() *Schema {
	return r.schema
}

// Fields returns the field names in declaration order.
func (r *Record) Fields() []string {
	out := make([]string, len(r.schema.fields))
	for i, fd := range r.schema.fields {
		out[i] = fd.Name
	}
	return out
}

// Get returns the value of a field, reporting false when the name is unknown
// or the field has not been decoded yet.
func (r *Record) Get(name string) (any, bool) {
	i, ok := r.schema.index[name]
	if !ok || !r.set[i] {
		return nil, false
	}
	return r.values[i], true
}

func (r *Record) lookup(name string) (any, error) {
	v, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("codec: %s has no decoded field %q", r.schema.name, name)
	}
	return v, nil
}

// Uint returns a field's value as an unsigned integer.
func (r *Record) Uint(name string) (uint64, error) {
	v, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	u, ok := toUint64(v)
	if !ok {
		return 0, fmt.Errorf("codec: field %q is %T, not an unsigned integer", name, v)
	}
	return u, nil
}

// Int returns a field's value as a signed integer.
func (r *Record) Int(name string) (int64, error) {
	v, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	i, ok := toInt64(v)
	if !ok {
		return 0, fmt.Errorf("codec: field %q is %T, not a signed integer", name, v)
	}
	return i, nil
}

// Bool returns a field's value as a bool.
func (r *Record) Bool(name string) (bool, error) {
	v, err := r.lookup(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("codec: field %q is %T, not a bool", name, v)
	}
	return b, nil
}

// Str returns a field's value as a string.
func (r *Record) Str(name string) (string, error) {
	v, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("codec: field %q is %T, not a string", name, v)
	}
	return s, nil
}

// Bytes returns a field's value as a byte slice.
func (r *Record) Bytes(name string) ([]byte, error) {
	v, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("codec: field %q is %T, not []byte", name, v)
	}
	return b, nil
}

// Bits returns a field's value as a raw bit string.
func (r *Record) Bits(name string) (bitstream.Bits, error) {
	v, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	b, ok := v.(bitstream.Bits)
	if !ok {
		return nil, fmt.Errorf("codec: field %q is %T, not bitstream.Bits", name, v)
	}
	return b, nil
}

// List returns a field's value as a slice of items.
func (r *Record) List(name string) ([]any, error) {
	v, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("codec: field %q is %T, not a list", name, v)
	}
	return l, nil
}

// Nested returns a field's value as a nested record.
func (r *Record) Nested(name string) (*Record, error) {
	v, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*Record)
	if !ok {
		return nil, fmt.Errorf("codec: field %q is %T, not a record", name, v)
	}
	return n, nil
}

// Float returns a field's value as a float64, for mapped fields.
func (r *Record) Float(name string) (float64, error) {
	v, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	return toFloat64(v)
}

// Equal reports structural equality: same schema and equal values field by
// field, with numeric kinds normalized.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.schema != other.schema {
		return false
	}
	for i := range r.values {
		if r.set[i] != other.set[i] {
			return false
		}
		if r.set[i] && !equalValue(r.values[i], other.values[i]) {
			return false
		}
	}
	return true
}

// String renders the record in declaration order, Name(a: v, b: v) style.
func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString(r.schema.name)
	sb.WriteByte('(')
	for i, fd := range r.schema.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fd.Name)
		sb.WriteString(": ")
		if !r.set[i] {
			sb.WriteString("<unset>")
			continue
		}
		fmt.Fprintf(&sb, "%v", r.values[i])
	}
	sb.WriteByte(')')
	return sb.String()
}

func (r *Record) bind(i int, v any) {
	r.values[i] = v
	r.set[i] = true
}
