package codec

import (
	"errors"
	"fmt"
	"strings"
)

// Op identifies the top-level operation an error occurred in.
type Op int

const (
	OpDecode Op = iota + 1
	OpEncode
)

func (o Op) String() string {
	switch o {
	case OpDecode:
		return "decode"
	case OpEncode:
		return "encode"
	default:
		return "codec"
	}
}

// Kind classifies a codec error.
type Kind int

const (
	KindUnknown Kind = iota
	KindEndOfStream
	KindTrailingBits
	KindUnalignedConsumption
	KindUnalignedOutput
	KindRange
	KindLiteralMismatch
	KindEnumOutOfRange
	KindEncoding
	KindMapper
	KindUnsupportedDynamicEncode
	KindTypeMismatch
	KindSchema
)

var kindNames = map[Kind]string{
	KindUnknown:                  "unknown error",
	KindEndOfStream:              "end of stream",
	KindTrailingBits:             "trailing bits",
	KindUnalignedConsumption:     "unaligned consumption",
	KindUnalignedOutput:          "unaligned output",
	KindRange:                    "value out of range",
	KindLiteralMismatch:          "literal mismatch",
	KindEnumOutOfRange:           "enum value out of range",
	KindEncoding:                 "text encoding error",
	KindMapper:                   "value mapper error",
	KindUnsupportedDynamicEncode: "unsupported dynamic encode",
	KindTypeMismatch:             "type mismatch",
	KindSchema:                   "schema error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type raised by encode and decode operations. It carries
// the error kind, the absolute field path from the outermost record, and the
// bit position in the stream where the failure occurred.
type Error struct {
	Kind   Kind
	Op     Op
	Record string   // outermost record name
	Path   []string // field path, outermost first
	Pos    int      // bit position, -1 if unknown
	Detail string
	cause  error
}

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: -1, Detail: fmt.Sprintf(format, args...)}
}

func wrapErr(kind Kind, err error) *Error {
	return &Error{Kind: kind, Pos: -1, Detail: err.Error(), cause: err}
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != 0 {
		sb.WriteString(e.Op.String())
		sb.WriteString(": ")
	}
	if loc := e.location(); loc != "" {
		sb.WriteString(loc)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.String())
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Pos >= 0 {
		fmt.Fprintf(&sb, " (bit %d)", e.Pos)
	}
	return sb.String()
}

func (e *Error) location() string {
	if e.Record == "" && len(e.Path) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e.Path)+1)
	if e.Record != "" {
		parts = append(parts, e.Record)
	}
	parts = append(parts, e.Path...)
	return strings.Join(parts, ".")
}

// FieldPath returns the dotted field path including the record name, e.g.
// "Packet.header.flags".
func (e *Error) FieldPath() string {
	return e.location()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// pushFrame prepends a path segment as the error propagates out of a record.
// The record name is overwritten on each push so the outermost name wins.
func (e *Error) pushFrame(record, field string, op Op, pos int) *Error {
	e.Record = record
	e.Path = append([]string{field}, e.Path...)
	if e.Op == 0 {
		e.Op = op
	}
	if e.Pos < 0 {
		e.Pos = pos
	}
	return e
}

// KindOf extracts the Kind from an error, or KindUnknown if the error was not
// produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
