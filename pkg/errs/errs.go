// Package errs defines the failure taxonomy of the contract engine.
//
// Every error surfaced by a checked call or by a configuration step is one of
// the types below. Each type matches its sentinel with errors.Is and exposes a
// stable code in the DBC/CORE namespace.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Stable error codes.
const (
	CodeConfiguration      = "DBC/CORE/CONFIGURATION"
	CodeArgumentResolution = "DBC/CORE/ARGUMENT_RESOLUTION"
	CodeConditionValue     = "DBC/CORE/CONDITION_VALUE"
	CodeViolation          = "DBC/CORE/VIOLATION"
	CodeRender             = "DBC/CORE/RENDER"
)

// Sentinels for errors.Is.
var (
	ErrConfiguration      = errors.New("dbc: configuration error")
	ErrArgumentResolution = errors.New("dbc: argument resolution error")
	ErrConditionValue     = errors.New("dbc: condition value error")
	ErrViolation          = errors.New("dbc: contract violation")
	ErrRender             = errors.New("dbc: violation rendering failed")
)

// Coded is implemented by every error of the taxonomy.
type Coded interface {
	error
	Code() string
}

// ConfigurationError reports an invalid setup detected while attaching
// contracts or building a class.
type ConfigurationError struct {
	Subject  string // function, class or contract the problem belongs to
	Reason   string
	Location string
}

// Configuration builds a ConfigurationError with a formatted reason.
func Configuration(subject, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	if e.Location != "" {
		b.WriteString(e.Location)
		b.WriteString(":\n")
	}
	if e.Subject != "" {
		fmt.Fprintf(&b, "%s: ", e.Subject)
	}
	b.WriteString(e.Reason)
	return b.String()
}

func (e *ConfigurationError) Code() string         { return CodeConfiguration }
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ArgumentResolutionError reports condition arguments that could not be
// resolved from a call.
type ArgumentResolutionError struct {
	Missing  []string
	Reason   string // set instead of Missing for type mismatches and reserved-name clashes
	Location string
	Hint     string
	Subject  string // "condition" or "error"; defaults to "condition"
}

func (e *ArgumentResolutionError) Error() string {
	var b strings.Builder
	if e.Location != "" {
		b.WriteString(e.Location)
		b.WriteString(":\n")
	}
	switch {
	case len(e.Missing) > 0:
		subject := e.Subject
		if subject == "" {
			subject = "condition"
		}
		fmt.Fprintf(&b,
			"the argument(s) of the contract %s have not been set: %s. "+
				"Does the original function define them? Did you supply them in the call?",
			subject, formatNames(e.Missing))
	default:
		b.WriteString(e.Reason)
	}
	if e.Hint != "" {
		b.WriteString(" ")
		b.WriteString(e.Hint)
	}
	return b.String()
}

func (e *ArgumentResolutionError) Code() string         { return CodeArgumentResolution }
func (e *ArgumentResolutionError) Is(target error) bool { return target == ErrArgumentResolution }

// ConditionValueError reports a condition result without a boolean
// interpretation.
type ConditionValueError struct {
	Condition string
	Value     any
	Location  string
	Err       error
}

func (e *ConditionValueError) Error() string {
	var b strings.Builder
	if e.Location != "" {
		b.WriteString(e.Location)
		b.WriteString(":\n")
	}
	fmt.Fprintf(&b, "failed to interpret the result of the condition %s as a boolean: %T(%v)",
		e.Condition, e.Value, e.Value)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ConditionValueError) Code() string         { return CodeConditionValue }
func (e *ConditionValueError) Is(target error) bool { return target == ErrConditionValue }
func (e *ConditionValueError) Unwrap() error        { return e.Err }

// ViolationError is the default error returned when a precondition,
// postcondition or invariant does not hold.
type ViolationError struct {
	Kind    string
	Message string
}

func (e *ViolationError) Error() string        { return e.Message }
func (e *ViolationError) Code() string         { return CodeViolation }
func (e *ViolationError) Is(target error) bool { return target == ErrViolation }

// RenderError reports that a violation was detected but its message could not
// be produced.
type RenderError struct {
	Condition   string
	Description string
	Location    string
	Err         error
}

func (e *RenderError) Error() string {
	var b strings.Builder
	b.WriteString("failed to recompute the values of the contract condition:\n")
	if e.Location != "" {
		b.WriteString(e.Location)
		b.WriteString(":\n")
	}
	if e.Description != "" {
		b.WriteString(e.Description)
		b.WriteString(": ")
	}
	b.WriteString(e.Condition)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RenderError) Code() string         { return CodeRender }
func (e *RenderError) Is(target error) bool { return target == ErrRender }
func (e *RenderError) Unwrap() error        { return e.Err }

// CodeOf returns the taxonomy code of err, or "" if err is not part of it.
func CodeOf(err error) string {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

func formatNames(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
