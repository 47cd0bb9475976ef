package contract

import (
	"context"
	"errors"
	"slices"

	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/errs"
)

type errorKind int

const (
	errDefault errorKind = iota
	errValue
	errType
	errFactory
)

// ErrorSpec decides which error a violated contract returns. The zero value
// returns an *errs.ViolationError carrying the rendered message.
type ErrorSpec struct {
	kind    errorKind
	value   error
	ctor    func(msg string) error
	factory func(args binding.Binding) error
	params  []string
}

// ErrorValue makes the violation return err as-is.
func ErrorValue(err error) ErrorSpec {
	return ErrorSpec{kind: errValue, value: err}
}

// ErrorType makes the violation return ctor applied to the rendered message.
func ErrorType(ctor func(msg string) error) ErrorSpec {
	return ErrorSpec{kind: errType, ctor: ctor}
}

// ErrorFactory makes the violation return fn applied to the named arguments of
// the call. No message is rendered.
func ErrorFactory(params []string, fn func(args binding.Binding) error) ErrorSpec {
	return ErrorSpec{kind: errFactory, factory: fn, params: slices.Clone(params)}
}

// IsZero reports whether the default violation error is used.
func (s ErrorSpec) IsZero() bool { return s.kind == errDefault }

// Params returns the arguments an error factory reads.
func (s ErrorSpec) Params() []string { return slices.Clone(s.params) }

// Renderer produces the message of a violated contract from the arguments its
// condition was evaluated with.
type Renderer interface {
	Render(ctx context.Context, c *Contract, args binding.Binding) (string, error)
}

// Violation builds the error returned when c does not hold. args are the
// resolved condition arguments; full is the complete call binding, used by
// error factories.
func (c *Contract) Violation(ctx context.Context, args, full binding.Binding, r Renderer) error {
	spec := c.errSpec
	switch spec.kind {
	case errValue:
		return spec.value
	case errFactory:
		sub, err := binding.Select(spec.params, full, c.location)
		if err != nil {
			var are *errs.ArgumentResolutionError
			if errors.As(err, &are) {
				are.Subject = "error"
			}
			return err
		}
		if e := spec.factory(sub); e != nil {
			return e
		}
		return &errs.ConfigurationError{
			Subject:  c.String(),
			Reason:   "the error factory returned nil instead of an error",
			Location: c.location,
		}
	}

	msg, err := r.Render(ctx, c, args)
	if err != nil {
		return &errs.RenderError{
			Condition:   c.cond.Text(),
			Description: c.description,
			Location:    c.location,
			Err:         err,
		}
	}
	if spec.kind == errType {
		if e := spec.ctor(msg); e != nil {
			return e
		}
		return &errs.ConfigurationError{
			Subject:  c.String(),
			Reason:   "the error constructor returned nil instead of an error",
			Location: c.location,
		}
	}
	return &errs.ViolationError{Kind: c.kind.String(), Message: msg}
}

// validate checks the error specification against the names available to the
// contract.
func (s ErrorSpec) validate(subject string, available func(string) bool) *errs.ConfigurationError {
	switch s.kind {
	case errValue:
		if s.value == nil {
			return errs.Configuration(subject, "the error value must not be nil")
		}
	case errType:
		if s.ctor == nil {
			return errs.Configuration(subject, "the error constructor must not be nil")
		}
	case errFactory:
		if s.factory == nil {
			return errs.Configuration(subject, "the error factory must not be nil")
		}
		for _, p := range s.params {
			if !available(p) {
				return errs.Configuration(subject, "the error factory reads %q which the function does not define", p)
			}
		}
	}
	return nil
}
