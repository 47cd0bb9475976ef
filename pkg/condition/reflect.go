package condition

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"runtime"
	"strings"

	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/errs"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// New wraps an ordinary Go function as a synchronous condition. The function
// takes one argument per name in params, optionally preceded by a
// context.Context, and returns a value with an optional trailing error:
//
//	condition.New(func(x int) bool { return x > 3 }, "x")
//	condition.New(func(ctx context.Context, lst []int) (int, error) { ... }, "lst")
//
// The shape is checked once here; per call only argument conversion remains.
func New(fn any, params ...string) (*Condition, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, errs.Configuration("condition", "expected a function, got %T", fn)
	}
	rt := rv.Type()
	name := funcName(rv)

	if rt.IsVariadic() {
		return nil, errs.Configuration(name, "variadic condition functions are not supported")
	}

	withCtx := rt.NumIn() > 0 && rt.In(0) == contextType
	offset := 0
	if withCtx {
		offset = 1
	}
	if got := rt.NumIn() - offset; got != len(params) {
		return nil, errs.Configuration(name,
			"the function takes %d argument(s) but %d parameter name(s) were declared", got, len(params))
	}

	switch rt.NumOut() {
	case 1:
	case 2:
		if !rt.Out(1).Implements(errorType) {
			return nil, errs.Configuration(name, "the second result must be an error, got %s", rt.Out(1))
		}
	default:
		return nil, errs.Configuration(name, "the function must return a value and optionally an error")
	}

	in := make([]reflect.Type, len(params))
	for i := range params {
		in[i] = rt.In(i + offset)
	}

	call := func(ctx context.Context, args binding.Binding) (any, error) {
		vals := make([]reflect.Value, 0, rt.NumIn())
		if withCtx {
			vals = append(vals, reflect.ValueOf(&ctx).Elem())
		}
		for i, p := range params {
			v, err := convert(args[p], in[i])
			if err != nil {
				return nil, &errs.ArgumentResolutionError{
					Reason: fmt.Sprintf("the argument %q of the condition %s: %v", p, name, err),
				}
			}
			vals = append(vals, v)
		}
		out := rv.Call(vals)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}

	return &Condition{text: name, params: append([]string(nil), params...), mode: Sync, sync: call}, nil
}

// MustNew is New that panics on a malformed function.
func MustNew(fn any, params ...string) *Condition {
	return Must(New(fn, params...))
}

func convert(v any, to reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch to.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(to), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use nil as %s", to)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(to) {
		return rv, nil
	}
	if numeric(rv.Kind()) && numeric(to.Kind()) && rv.CanConvert(to) {
		if out, ok := convertNumber(rv, to); ok {
			return out, nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use %v (%T) as %s without changing its value", v, v, to)
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, to)
}

// convertNumber converts between numeric kinds only when the value survives.
// Floats may narrow to float32 as long as they stay finite.
func convertNumber(rv reflect.Value, to reflect.Type) (reflect.Value, bool) {
	out := rv.Convert(to)
	if isFloat(rv.Kind()) && isFloat(to.Kind()) {
		f := rv.Float()
		return out, math.IsNaN(f) || math.IsInf(f, 0) || !reflect.Zero(to).OverflowFloat(f)
	}
	if negative(rv) != negative(out) {
		return reflect.Value{}, false
	}
	return out, out.Convert(rv.Type()).Equal(rv)
}

func negative(v reflect.Value) bool {
	switch {
	case isFloat(v.Kind()):
		return v.Float() < 0
	case v.CanInt():
		return v.Int() < 0
	}
	return false
}

func isFloat(k reflect.Kind) bool { return k == reflect.Float32 || k == reflect.Float64 }

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// funcName returns the short name of a function value, e.g. "account.positive"
// or "account.init.func1" for a closure.
func funcName(rv reflect.Value) string {
	f := runtime.FuncForPC(rv.Pointer())
	if f == nil {
		return "condition"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
