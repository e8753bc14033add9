package codec

import (
	"math"
)

// ValueMapper converts between a field's wire representation and a domain
// value. Forward is applied after decoding, Back before encoding. The codec
// treats both as opaque: any error (or panic) raised by a mapper surfaces as
// a mapper error carrying the field path, except errors already tagged with
// a codec Kind, which keep their kind.
type ValueMapper interface {
	Forward(x any) (any, error)
	Back(y any) (any, error)
}

// Scale maps an integer wire value to a float by a linear transform:
// Forward(x) = x*By + Offset. Back rounds to the nearest integer.
type Scale struct {
	By     float64
	Offset float64
}

func (s Scale) Forward(x any) (any, error) {
	v, err := toFloat64(x)
	if err != nil {
		return nil, err
	}
	return v*s.By + s.Offset, nil
}

func (s Scale) Back(y any) (any, error) {
	v, err := toFloat64(y)
	if err != nil {
		return nil, err
	}
	return int64(math.Round((v - s.Offset) / s.By)), nil
}

// IntScale maps an integer wire value to a multiple of By.
type IntScale struct {
	By int64
}

func (s IntScale) Forward(x any) (any, error) {
	v, ok := toInt64(x)
	if !ok {
		return nil, errorf(KindTypeMismatch, "expected an integer, got %T", x)
	}
	return v * s.By, nil
}

func (s IntScale) Back(y any) (any, error) {
	v, ok := toInt64(y)
	if !ok {
		return nil, errorf(KindTypeMismatch, "expected an integer, got %T", y)
	}
	return int64(math.Round(float64(v) / float64(s.By))), nil
}

// callForward invokes vm.Forward, converting panics and untagged errors into
// mapper errors. Errors already tagged with a codec kind pass through.
func callForward(vm ValueMapper, x any) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errorf(KindMapper, "mapper panic: %v", r)
		}
	}()
	v, err = vm.Forward(x)
	if err != nil {
		err = tagMapperErr(err)
	}
	return v, err
}

// callBack invokes vm.Back with the same error discipline as callForward.
func callBack(vm ValueMapper, y any) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errorf(KindMapper, "mapper panic: %v", r)
		}
	}()
	v, err = vm.Back(y)
	if err != nil {
		err = tagMapperErr(err)
	}
	return v, err
}

func tagMapperErr(err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return wrapErr(KindMapper, err)
}
