// Package contract defines the immutable objects attached to checked
// functions and classes: contracts, snapshots and the ordered sets combining
// them.
package contract

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/Mindburn-Labs/dbc/pkg/condition"
	"github.com/Mindburn-Labs/dbc/pkg/config"
)

// Kind classifies a contract.
type Kind int

const (
	Precondition Kind = iota
	Postcondition
	Invariant
)

func (k Kind) String() string {
	switch k {
	case Precondition:
		return "precondition"
	case Postcondition:
		return "postcondition"
	case Invariant:
		return "invariant"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Trigger selects the object events that check an invariant.
type Trigger uint8

const (
	OnCall Trigger = 1 << iota
	OnSetattr

	OnAll = OnCall | OnSetattr
)

// Contract is a single condition with its reporting metadata. It is never
// modified after construction and is shared by pointer between a function and
// the subclasses inheriting it.
type Contract struct {
	kind        Kind
	cond        *condition.Condition
	description string
	errSpec     ErrorSpec
	enabled     bool
	location    string
	trigger     Trigger
}

// Option configures a contract or a snapshot.
type Option func(*options)

type options struct {
	description string
	errSpec     ErrorSpec
	enabled     *bool
	slow        bool
	location    string
	locationSet bool
	name        string
}

// WithDescription sets the text shown before the condition in violations.
func WithDescription(d string) Option {
	return func(o *options) { o.description = d }
}

// WithError replaces the default violation error.
func WithError(spec ErrorSpec) Option {
	return func(o *options) { o.errSpec = spec }
}

// WithEnabled overrides the process-wide enabled flag.
func WithEnabled(enabled bool) Option {
	return func(o *options) { o.enabled = &enabled }
}

// Slow enables the contract only when slow contracts are switched on.
func Slow() Option {
	return func(o *options) { o.slow = true }
}

// AtLocation overrides the captured declaration site.
func AtLocation(loc string) Option {
	return func(o *options) { o.location, o.locationSet = loc, true }
}

// Named sets the name under which a snapshot is exposed in OLD.
func Named(name string) Option {
	return func(o *options) { o.name = name }
}

// apply resolves opts. skip is the number of frames between apply and the
// user code declaring the contract.
func apply(opts []Option, skip int) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !o.locationSet {
		o.location = callerLocation(skip)
	}
	return o
}

func (o options) isEnabled() bool {
	if o.enabled != nil {
		return *o.enabled
	}
	s := config.Current()
	if o.slow {
		return s.Slow
	}
	return s.Enabled
}

// New creates a contract of the given kind. Whether it is enabled is decided
// here, once.
func New(kind Kind, cond *condition.Condition, opts ...Option) *Contract {
	return newContract(kind, cond, opts, 2)
}

// Pre creates a precondition.
func Pre(cond *condition.Condition, opts ...Option) *Contract {
	return newContract(Precondition, cond, opts, 2)
}

// Post creates a postcondition.
func Post(cond *condition.Condition, opts ...Option) *Contract {
	return newContract(Postcondition, cond, opts, 2)
}

// Inv creates an invariant.
func Inv(cond *condition.Condition, opts ...Option) *Contract {
	return newContract(Invariant, cond, opts, 2)
}

func newContract(kind Kind, cond *condition.Condition, opts []Option, skip int) *Contract {
	o := apply(opts, skip+1)
	return &Contract{
		kind:        kind,
		cond:        cond,
		description: o.description,
		errSpec:     o.errSpec,
		enabled:     o.isEnabled(),
		location:    o.location,
		trigger:     OnAll,
	}
}

func (c *Contract) Kind() Kind                      { return c.kind }
func (c *Contract) Condition() *condition.Condition { return c.cond }
func (c *Contract) Description() string             { return c.description }
func (c *Contract) ErrorSpec() ErrorSpec            { return c.errSpec }
func (c *Contract) Enabled() bool                   { return c.enabled }
func (c *Contract) Location() string                { return c.location }
func (c *Contract) Trigger() Trigger                { return c.trigger }

// Args returns the names the condition reads.
func (c *Contract) Args() []string {
	if c.cond == nil {
		return nil
	}
	return c.cond.Params()
}

// WithTrigger returns a copy of c checked on the given events.
func (c *Contract) WithTrigger(t Trigger) *Contract {
	cp := *c
	cp.trigger = t
	return &cp
}

func (c *Contract) String() string {
	if c.cond == nil {
		return c.kind.String()
	}
	return fmt.Sprintf("%s %s", c.kind, c.cond.Text())
}

func callerLocation(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
