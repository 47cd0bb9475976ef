package condition

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/cel-go/common/types/ref"
)

// ErrNoTruth is returned by Truth for values without a boolean interpretation.
var ErrNoTruth = errors.New("value has no boolean interpretation")

// Truther lets a type define its own truth value.
type Truther interface {
	Truth() (bool, error)
}

// Truth interprets a condition value as a boolean:
//
//	bool                                   itself
//	nil                                    false
//	numbers                                non-zero
//	string, slice, map, array, chan        non-empty
//	pointer, func, interface               non-nil
//	Truther                                its answer
//
// Anything else, structs in particular, yields ErrNoTruth.
func Truth(v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case Truther:
		return t.Truth()
	case ref.Val:
		if inner := t.Value(); inner != v {
			return Truth(inner)
		}
		return false, fmt.Errorf("%w: CEL %s", ErrNoTruth, t.Type())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0, nil
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() != 0, nil
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len() > 0, nil
	case reflect.Pointer, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return !rv.IsNil(), nil
	}
	return false, fmt.Errorf("%w: %T", ErrNoTruth, v)
}
