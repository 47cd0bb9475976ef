// Package binding resolves the arguments of a call into the named values a
// condition, snapshot capture or error factory declares.
package binding

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Mindburn-Labs/dbc/pkg/errs"
)

// Reserved names resolved from synthetic values rather than call arguments.
const (
	Result    = "result"
	Old       = "OLD"
	AllArgs   = "_ARGS"
	AllKwargs = "_KWARGS"
	Self      = "self"
)

// IsReserved reports whether name is one of the synthetic binding names.
func IsReserved(name string) bool {
	switch name {
	case Result, Old, AllArgs, AllKwargs, Self:
		return true
	}
	return false
}

// Param is a declared parameter of a checked function.
type Param struct {
	Name       string
	Default    any
	HasDefault bool
}

// Signature is the ordered parameter list of a checked function.
type Signature struct {
	params []Param
}

// Params returns a signature with the given parameters and no defaults.
func Params(names ...string) Signature {
	ps := make([]Param, len(names))
	for i, n := range names {
		ps[i] = Param{Name: n}
	}
	return Signature{params: ps}
}

// WithDefault returns a copy of s where name defaults to v. Unknown names are
// appended as new trailing parameters.
func (s Signature) WithDefault(name string, v any) Signature {
	ps := slices.Clone(s.params)
	for i := range ps {
		if ps[i].Name == name {
			ps[i].Default = v
			ps[i].HasDefault = true
			return Signature{params: ps}
		}
	}
	return Signature{params: append(ps, Param{Name: name, Default: v, HasDefault: true})}
}

// Prepend returns a copy of s with name as the first parameter.
func (s Signature) Prepend(name string) Signature {
	return Signature{params: append([]Param{{Name: name}}, s.params...)}
}

// Names returns the declared parameter names in order.
func (s Signature) Names() []string {
	names := make([]string, len(s.params))
	for i, p := range s.params {
		names[i] = p.Name
	}
	return names
}

// Has reports whether name is a declared parameter.
func (s Signature) Has(name string) bool {
	for _, p := range s.params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Len returns the number of declared parameters.
func (s Signature) Len() int { return len(s.params) }

// Call holds the raw arguments of one invocation.
type Call struct {
	Args   []any
	Kwargs map[string]any
}

// Args builds a call from positional arguments.
func Args(args ...any) Call {
	return Call{Args: args}
}

// Kw builds a call from alternating keyword names and values.
func Kw(pairs ...any) Call {
	return Call{}.With(pairs...)
}

// With returns a copy of c with additional keyword arguments given as
// alternating names and values. It panics on a malformed pair list.
func (c Call) With(pairs ...any) Call {
	if len(pairs)%2 != 0 {
		panic("binding: With expects name/value pairs")
	}
	kw := make(map[string]any, len(c.Kwargs)+len(pairs)/2)
	maps.Copy(kw, c.Kwargs)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("binding: keyword name must be a string, got %T", pairs[i]))
		}
		kw[name] = pairs[i+1]
	}
	return Call{Args: c.Args, Kwargs: kw}
}

// Prepend returns a copy of c with v as the first positional argument.
func (c Call) Prepend(v any) Call {
	return Call{Args: append([]any{v}, c.Args...), Kwargs: c.Kwargs}
}

// Binding maps names to resolved values.
type Binding map[string]any

// Resolve maps the call onto the signature. The result contains the raw
// positional and keyword arguments under AllArgs and AllKwargs, then every
// default, then the positional arguments by position and finally the keyword
// arguments, each layer overriding the previous one. Positional arguments
// beyond the signature only appear in AllArgs.
func Resolve(sig Signature, call Call) (Binding, error) {
	if _, ok := call.Kwargs[AllArgs]; ok {
		return nil, &errs.ArgumentResolutionError{
			Reason: fmt.Sprintf("the arguments of the call include %q which is a placeholder for positional arguments in a condition", AllArgs),
		}
	}
	if _, ok := call.Kwargs[AllKwargs]; ok {
		return nil, &errs.ArgumentResolutionError{
			Reason: fmt.Sprintf("the arguments of the call include %q which is a placeholder for keyword arguments in a condition", AllKwargs),
		}
	}

	args := slices.Clone(call.Args)
	if args == nil {
		args = []any{}
	}
	kwargs := maps.Clone(call.Kwargs)
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	b := make(Binding, len(sig.params)+2)
	b[AllArgs] = args
	b[AllKwargs] = kwargs
	for _, p := range sig.params {
		if p.HasDefault {
			b[p.Name] = p.Default
		}
	}
	for i, v := range call.Args {
		if i < len(sig.params) {
			b[sig.params[i].Name] = v
		}
	}
	for k, v := range call.Kwargs {
		b[k] = v
	}
	return b, nil
}

// Select returns the subset of full named by names. Every name must be
// present; the error lists all missing ones.
func Select(names []string, full Binding, location string) (Binding, error) {
	var missing []string
	sub := make(Binding, len(names))
	for _, n := range names {
		v, ok := full[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		sub[n] = v
	}
	if len(missing) > 0 {
		err := &errs.ArgumentResolutionError{Missing: missing, Location: location}
		if slices.Contains(missing, Old) {
			err.Hint = "Did you attach a snapshot to capture OLD values?"
		}
		return nil, err
	}
	return sub, nil
}

// Clone returns a shallow copy of b.
func (b Binding) Clone() Binding {
	return maps.Clone(b)
}

// Lookup returns the value of name converted to T.
func Lookup[T any](b Binding, name string) (T, bool) {
	v, ok := b[name]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Get returns the value of name converted to T, or the zero value of T.
func Get[T any](b Binding, name string) T {
	t, _ := Lookup[T](b, name)
	return t
}
