package codec

import (
	"github.com/khusmann/bydantic/pkg/bitstream"
)

// Field describes how one value is laid out in a bit stream: how to read it,
// how to write it, and how many bits it occupies when that is statically
// known. Fields are immutable values; combinators hold their children by
// value, forming a finite tree.
//
// The interface is closed: implementations live in this package and are
// obtained through the builder functions (Uint, Str, List, Dynamic, ...).
type Field interface {
	// length reports the static bit width, if known independently of any
	// decoded siblings.
	length() (int, bool)

	// read decodes one value from r. partial holds the siblings decoded so
	// far; ctx is the opaque user context for the whole operation.
	read(r *bitstream.Reader, partial *Record, ctx any) (any, error)

	// write encodes value into w. partial holds the siblings already
	// encoded; values are never read back from the stream.
	write(w *bitstream.Writer, value any, partial *Record, ctx any) error

	// validate checks the field definition itself (widths, literal shapes).
	validate() error

	// defaultValue reports the value substituted when a record is
	// constructed without this field.
	defaultValue() (any, bool)
}

// noDefault is embedded by fields that carry no construction default.
type noDefault struct{}

func (noDefault) defaultValue() (any, bool) { return nil, false }

// defaultField wraps a field with a construction-time default value.
type defaultField struct {
	inner Field
	def   any
}

// Default attaches a default value to a field. The default is substituted
// when the field is omitted from Schema.New. Defaults are only permitted on
// top-level fields of a schema, not on the children of combinators.
func Default(field Field, value any) Field {
	return defaultField{inner: field, def: value}
}

func (f defaultField) length() (int, bool) { return f.inner.length() }

func (f defaultField) read(r *bitstream.Reader, partial *Record, ctx any) (any, error) {
	return f.inner.read(r, partial, ctx)
}

func (f defaultField) write(w *bitstream.Writer, value any, partial *Record, ctx any) error {
	return f.inner.write(w, value, partial, ctx)
}

func (f defaultField) validate() error {
	if err := f.inner.validate(); err != nil {
		return err
	}
	// A default for a fixed-width field can be checked now by encoding it
	// into a scratch writer. Dynamic shapes are checked on first use.
	if _, known := f.inner.length(); known {
		w := bitstream.NewWriter()
		if err := f.inner.write(w, f.def, nil, nil); err != nil {
			return errorf(KindSchema, "invalid default %v: %v", f.def, err)
		}
	}
	return nil
}

func (f defaultField) defaultValue() (any, bool) { return f.def, true }

// errField defers a builder-time failure until schema validation, so builder
// functions can keep value signatures.
type errField struct {
	noDefault
	err error
}

func (f errField) length() (int, bool) { return 0, false }

func (f errField) read(*bitstream.Reader, *Record, any) (any, error) { return nil, f.err }

func (f errField) write(*bitstream.Writer, any, *Record, any) error { return f.err }

func (f errField) validate() error { return f.err }

// hasDefaultedChildren reports whether a combinator's subtree carries a
// construction default. A Default wrapper on f itself is not a child and is
// allowed; only its inner field's subtree is checked. Literal fields are
// exempt: their implicit default is the literal value itself.
func hasDefaultedChildren(f Field) bool {
	switch x := f.(type) {
	case defaultField:
		return hasDefaultedChildren(x.inner)
	case listField:
		return childHasDefault(x.item)
	case mapField:
		return childHasDefault(x.inner)
	case litField:
		return childHasDefault(x.inner)
	}
	return false
}

func childHasDefault(f Field) bool {
	if _, ok := f.(defaultField); ok {
		return true
	}
	return hasDefaultedChildren(f)
}
