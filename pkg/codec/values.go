package codec

import (
	"bytes"
	"reflect"

	"github.com/khusmann/bydantic/pkg/bitstream"
)

// integer is the constraint for enum field builders.
type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func toUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint64:
		return x, true
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case int:
		if x < 0 {
			return 0, false
		}
		return uint64(x), true
	case int8:
		if x < 0 {
			return 0, false
		}
		return uint64(x), true
	case int16:
		if x < 0 {
			return 0, false
		}
		return uint64(x), true
	case int32:
		if x < 0 {
			return 0, false
		}
		return uint64(x), true
	case int64:
		if x < 0 {
			return 0, false
		}
		return uint64(x), true
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > 1<<63-1 {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	}
	if i, ok := toInt64(v); ok {
		return float64(i), nil
	}
	if u, ok := toUint64(v); ok {
		return float64(u), nil
	}
	return 0, errorf(KindTypeMismatch, "expected a number, got %T", v)
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func numericEqual(a, b any) bool {
	switch a.(type) {
	case float32, float64:
		af, _ := toFloat64(a)
		bf, err := toFloat64(b)
		return err == nil && af == bf
	}
	switch b.(type) {
	case float32, float64:
		af, _ := toFloat64(b)
		bf, err := toFloat64(a)
		return err == nil && af == bf
	}
	if ai, ok := toInt64(a); ok {
		if bi, ok := toInt64(b); ok {
			return ai == bi
		}
	}
	if au, ok := toUint64(a); ok {
		if bu, ok := toUint64(b); ok {
			return au == bu
		}
	}
	return false
}

// equalValue compares decoded and user-constructed values, normalizing the
// integer kinds Go programs commonly mix (a decoded uint64 against an int
// literal in a test, say).
func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNumeric(a) && isNumeric(b) {
		if reflect.TypeOf(a) == reflect.TypeOf(b) {
			return a == b
		}
		return numericEqual(a, b)
	}
	switch x := a.(type) {
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case bitstream.Bits:
		y, ok := b.(bitstream.Bits)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	case []any:
		y, ok := toAnySlice(b)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equalValue(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Record:
		y, ok := b.(*Record)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}

// toAnySlice accepts []any directly and converts other slice kinds via
// reflection, so callers can pass typed slices to list fields.
func toAnySlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
