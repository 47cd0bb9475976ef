// Package condition evaluates the predicates and captures attached to checked
// functions and classes.
//
// A Condition declares the names it reads. The checker resolves exactly those
// names from the call and hands them over as a binding.Binding, so a condition
// never sees arguments it did not ask for.
package condition

import (
	"context"
	"fmt"
	"slices"

	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/errs"
	"github.com/Mindburn-Labs/dbc/pkg/future"
)

// Mode tells whether a condition may suspend.
type Mode int

const (
	Sync Mode = iota
	Async
)

func (m Mode) String() string {
	if m == Async {
		return "async"
	}
	return "sync"
}

// SyncFunc computes a condition value from its resolved arguments.
type SyncFunc func(ctx context.Context, args binding.Binding) (any, error)

// AsyncFunc starts the computation of a condition value.
type AsyncFunc func(ctx context.Context, args binding.Binding) *future.Future[any]

// Condition is an immutable predicate or capture over named arguments.
type Condition struct {
	text   string
	params []string
	mode   Mode
	sync   SyncFunc
	async  AsyncFunc
	expr   *Expression
}

// Func wraps fn as a synchronous condition reading params. text is what
// violation messages show for it.
func Func(text string, params []string, fn SyncFunc) *Condition {
	return &Condition{text: text, params: slices.Clone(params), mode: Sync, sync: fn}
}

// NewAsync wraps fn as an asynchronous condition reading params.
func NewAsync(text string, params []string, fn AsyncFunc) *Condition {
	return &Condition{text: text, params: slices.Clone(params), mode: Async, async: fn}
}

// Text returns the text shown for the condition in violation messages.
func (c *Condition) Text() string { return c.text }

// WithText returns a copy of c shown as text.
func (c *Condition) WithText(text string) *Condition {
	cp := *c
	cp.text = text
	return &cp
}

// Params returns the declared argument names in declaration order.
func (c *Condition) Params() []string { return slices.Clone(c.params) }

// Mode reports whether evaluation may suspend.
func (c *Condition) Mode() Mode { return c.mode }

// Expr returns the compiled expression behind c, or nil when c wraps a Go
// function.
func (c *Condition) Expr() *Expression { return c.expr }

func (c *Condition) String() string { return c.text }

// Eval computes the condition value. Awaiting an asynchronous condition or an
// awaitable result is only allowed when allowAwait is set; otherwise it is a
// configuration error, since a synchronous caller cannot suspend.
func (c *Condition) Eval(ctx context.Context, args binding.Binding, allowAwait bool) (any, error) {
	if c.mode == Async {
		if !allowAwait {
			return nil, errs.Configuration(c.text,
				"the condition is asynchronous and can not be evaluated by a synchronous function")
		}
		return c.async(ctx, args).Await(ctx)
	}

	v, err := c.sync(ctx, args)
	if err != nil {
		return nil, err
	}
	if aw, ok := v.(future.Awaitable); ok {
		if !allowAwait {
			return nil, errs.Configuration(c.text,
				"the condition returned an awaitable %T, but the checked function is synchronous", v)
		}
		return aw.AwaitAny(ctx)
	}
	return v, nil
}

// Holds evaluates c and interprets the value with Truth.
func (c *Condition) Holds(ctx context.Context, args binding.Binding, allowAwait bool, location string) (bool, error) {
	v, err := c.Eval(ctx, args, allowAwait)
	if err != nil {
		return false, err
	}
	ok, err := Truth(v)
	if err != nil {
		return false, &errs.ConditionValueError{Condition: c.text, Value: v, Location: location, Err: err}
	}
	return ok, nil
}

// Must panics if err is non-nil. It is meant for package-level condition
// declarations.
func Must(c *Condition, err error) *Condition {
	if err != nil {
		panic(fmt.Sprintf("condition: %v", err))
	}
	return c
}
