// Package checker wraps functions with preconditions, snapshots and
// postconditions.
//
// A *Func is the checked form of a function: a body plus an ordered contract
// set. Contracts are attached with AttachPrecondition, AttachSnapshot and
// AttachPostcondition; the set is sealed by the first call. Calling a Func
// runs
//
//	preconditions -> snapshots -> body -> postconditions
//
// where the preconditions are OR-ed across inheritance levels and every
// postcondition must hold. While a Func is checking, calls to it through the
// same context skip the checks, so conditions may call the function they
// guard without recursing forever.
package checker

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/condition"
	"github.com/Mindburn-Labs/dbc/pkg/contract"
	"github.com/Mindburn-Labs/dbc/pkg/errs"
	"github.com/Mindburn-Labs/dbc/pkg/render"
	"github.com/Mindburn-Labs/dbc/pkg/telemetry"
)

// Func is a function with contracts.
type Func struct {
	name     string
	sig      binding.Signature
	body     Body
	async    AsyncBody
	mode     condition.Mode
	abstract bool

	mu     sync.Mutex
	set    atomic.Pointer[contract.Set]
	sealed atomic.Bool
	owner  any
	class  string

	renderer contract.Renderer
	logger   *slog.Logger
	recorder *telemetry.Recorder
}

// Option configures a Func.
type Option func(*Func)

// WithRenderer sets the renderer of violation messages.
func WithRenderer(r contract.Renderer) Option {
	return func(f *Func) { f.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Func) { f.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r *telemetry.Recorder) Option {
	return func(f *Func) { f.recorder = r }
}

// New wraps a synchronous body.
func New(name string, sig binding.Signature, body Body, opts ...Option) (*Func, error) {
	if body == nil {
		return nil, errs.Configuration(name, "the body must not be nil")
	}
	return newFunc(name, sig, condition.Sync, opts, func(f *Func) { f.body = body })
}

// NewAsync wraps a body that completes through a future. Conditions and
// snapshot captures of an asynchronous Func may themselves be asynchronous.
func NewAsync(name string, sig binding.Signature, body AsyncBody, opts ...Option) (*Func, error) {
	if body == nil {
		return nil, errs.Configuration(name, "the body must not be nil")
	}
	return newFunc(name, sig, condition.Async, opts, func(f *Func) { f.async = body })
}

// Abstract declares a function without a body. It carries contracts for the
// implementations overriding it; calling it is an error.
func Abstract(name string, sig binding.Signature, opts ...Option) (*Func, error) {
	return newFunc(name, sig, condition.Sync, opts, func(f *Func) { f.abstract = true })
}

// MustNew is New that panics on error.
func MustNew(name string, sig binding.Signature, body Body, opts ...Option) *Func {
	f, err := New(name, sig, body, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

func newFunc(name string, sig binding.Signature, mode condition.Mode, opts []Option, init func(*Func)) (*Func, error) {
	for _, p := range []string{binding.AllArgs, binding.AllKwargs} {
		if sig.Has(p) {
			return nil, errs.Configuration(name,
				"the function declares the parameter %q which is reserved for the contract placeholders", p)
		}
	}
	f := &Func{name: name, sig: sig, mode: mode}
	init(f)
	for _, opt := range opts {
		opt(f)
	}
	if f.renderer == nil {
		f.renderer = render.Default()
	}
	if f.logger == nil {
		f.logger = slog.Default().With("component", "checker")
	}
	if f.recorder == nil {
		f.recorder = telemetry.Default()
	}
	f.set.Store(&contract.Set{})
	return f, nil
}

func (f *Func) Name() string                 { return f.name }
func (f *Func) Signature() binding.Signature { return f.sig }
func (f *Func) Mode() condition.Mode         { return f.mode }
func (f *Func) IsAbstract() bool             { return f.abstract }
func (f *Func) Sealed() bool                 { return f.sealed.Load() }

// Owner returns the name of the class the Func is bound to, if any.
func (f *Func) Owner() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.class
}

// Contracts returns the current contract set. It must not be modified.
func (f *Func) Contracts() *contract.Set { return f.set.Load() }

func (f *Func) String() string { return f.name }

// Bind installs the merged contract set computed for a class and seals f. A
// Func can be bound to one class only. Owners are compared by identity, so
// owner must be comparable; classes pass themselves.
func (f *Func) Bind(owner any, s *contract.Set) error {
	if owner == nil {
		return errs.Configuration(f.name, "the owner must not be nil")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	name := fmt.Sprint(owner)
	if f.owner != nil && f.owner != owner {
		return errs.Configuration(f.name, "the function is already a method of %s and can not be reused by %s", f.class, name)
	}
	if f.owner == nil && f.sealed.Load() {
		return errs.Configuration(f.name, "the function has already been called and can not become a method of %s", name)
	}
	f.owner = owner
	f.class = name
	f.set.Store(s)
	f.sealed.Store(true)
	return nil
}
