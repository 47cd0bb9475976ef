// Package class provides classes whose instances check invariants, and whose
// methods inherit the contracts of the methods they override.
//
// A class is declared with a Builder and finalized with Build, which
// linearizes the bases, collects the invariants and merges the contracts of
// every overriding method with those of the bases:
//
//	account, err := class.New("Account").
//		Init(initFn).
//		Method("Deposit", depositFn).
//		Build()
//
// Preconditions of an override are OR-ed with the inherited ones, while
// postconditions, snapshots and invariants accumulate.
package class

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/checker"
	"github.com/Mindburn-Labs/dbc/pkg/contract"
	"github.com/Mindburn-Labs/dbc/pkg/errs"
	"github.com/Mindburn-Labs/dbc/pkg/telemetry"
)

// Special method names.
const (
	InitName         = "__init__"
	NewName          = "__new__"
	ReprName         = "__repr__"
	GetattrName      = "__getattr__"
	GetattributeName = "__getattribute__"
	SetattrName      = "__setattr__"
	DelattrName      = "__delattr__"
)

// ErrNoAttribute is returned when a name resolves to nothing along the MRO.
var ErrNoAttribute = errors.New("no such attribute")

// MethodKind tells how a method receives its first argument.
type MethodKind int

const (
	// Instance methods receive the object as "self".
	Instance MethodKind = iota
	// ClassMethod methods receive the class as "cls".
	ClassMethod
	// StaticMethod methods receive no implicit argument.
	StaticMethod
)

type method struct {
	fn   *checker.Func
	kind MethodKind
}

// MethodBody implements an instance method.
type MethodBody func(ctx context.Context, self *Object, args binding.Binding) (any, error)

// ClassBody implements a class method.
type ClassBody func(ctx context.Context, cls *Class, args binding.Binding) (any, error)

// Def creates the checked function of an instance method. The signature is
// given without "self", which is prepended.
func Def(name string, sig binding.Signature, body MethodBody, opts ...checker.Option) (*checker.Func, error) {
	return checker.New(name, sig.Prepend(binding.Self), func(ctx context.Context, args binding.Binding) (any, error) {
		self, _ := args[binding.Self].(*Object)
		return body(ctx, self, args)
	}, opts...)
}

// MustDef is Def that panics on error.
func MustDef(name string, sig binding.Signature, body MethodBody, opts ...checker.Option) *checker.Func {
	fn, err := Def(name, sig, body, opts...)
	if err != nil {
		panic(err)
	}
	return fn
}

// DefClass creates the checked function of a class method. The signature is
// given without "cls", which is prepended.
func DefClass(name string, sig binding.Signature, body ClassBody, opts ...checker.Option) (*checker.Func, error) {
	return checker.New(name, sig.Prepend("cls"), func(ctx context.Context, args binding.Binding) (any, error) {
		cls, _ := args["cls"].(*Class)
		return body(ctx, cls, args)
	}, opts...)
}

// DefAbstract declares an abstract instance method.
func DefAbstract(name string, sig binding.Signature, opts ...checker.Option) (*checker.Func, error) {
	return checker.Abstract(name, sig.Prepend(binding.Self), opts...)
}

// Option configures a class.
type Option func(*Builder)

// WithLogger sets the logger used by the class and its instances.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithRecorder sets the metrics recorder of invariant checks.
func WithRecorder(r *telemetry.Recorder) Option {
	return func(b *Builder) { b.recorder = r }
}

// WithRenderer sets the renderer of invariant violations.
func WithRenderer(r contract.Renderer) Option {
	return func(b *Builder) { b.renderer = r }
}

// Builder declares a class.
type Builder struct {
	name       string
	bases      []*Class
	methods    map[string]method
	order      []string
	invariants []*contract.Contract
	err        error

	logger   *slog.Logger
	recorder *telemetry.Recorder
	renderer contract.Renderer
}

// New starts the declaration of a class deriving from bases.
func New(name string, bases ...*Class) *Builder {
	return &Builder{name: name, bases: bases, methods: make(map[string]method)}
}

// With applies options.
func (b *Builder) With(opts ...Option) *Builder {
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init sets the initializer.
func (b *Builder) Init(fn *checker.Func) *Builder {
	return b.add(InitName, fn, Instance)
}

// Method adds an instance method.
func (b *Builder) Method(name string, fn *checker.Func) *Builder {
	return b.add(name, fn, Instance)
}

// ClassMethod adds a class method.
func (b *Builder) ClassMethod(name string, fn *checker.Func) *Builder {
	return b.add(name, fn, ClassMethod)
}

// StaticMethod adds a static method.
func (b *Builder) StaticMethod(name string, fn *checker.Func) *Builder {
	return b.add(name, fn, StaticMethod)
}

func (b *Builder) add(name string, fn *checker.Func, kind MethodKind) *Builder {
	if fn == nil {
		b.err = errors.Join(b.err, errs.Configuration(b.name+"."+name, "the method must not be nil"))
		return b
	}
	if _, ok := b.methods[name]; ok {
		b.err = errors.Join(b.err, errs.Configuration(b.name+"."+name, "the method is declared twice"))
		return b
	}
	b.methods[name] = method{fn: fn, kind: kind}
	b.order = append(b.order, name)
	return b
}

// Build finalizes the class.
func (b *Builder) Build() (*Class, error) {
	return ResolveInheritance(b)
}

// MustBuild is Build that panics on error.
func (b *Builder) MustBuild() *Class {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

// Class is a finalized class.
type Class struct {
	name       string
	bases      []*Class
	mro        []*Class
	methods    map[string]method
	invariants []*contract.Contract
	onCall     bool
	onSetattr  bool

	logger   *slog.Logger
	recorder *telemetry.Recorder
	renderer contract.Renderer
}

func (c *Class) Name() string    { return c.name }
func (c *Class) String() string  { return c.name }
func (c *Class) Bases() []*Class { return slices.Clone(c.bases) }
func (c *Class) MRO() []*Class   { return slices.Clone(c.mro) }

// Invariants returns the effective invariants, inherited ones first.
func (c *Class) Invariants() []*contract.Contract { return slices.Clone(c.invariants) }

// IsSubclass reports whether other appears in the MRO of c.
func (c *Class) IsSubclass(other *Class) bool { return slices.Contains(c.mro, other) }

// Lookup resolves name along the MRO.
func (c *Class) Lookup(name string) (*checker.Func, MethodKind, bool) {
	for _, k := range c.mro {
		if m, ok := k.methods[name]; ok {
			return m.fn, m.kind, true
		}
	}
	return nil, Instance, false
}

// Invoke calls a class or static method.
func (c *Class) Invoke(ctx context.Context, name string, call binding.Call) (any, error) {
	fn, kind, ok := c.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoAttribute, c.name, name)
	}
	switch kind {
	case ClassMethod:
		return fn.Call(ctx, call.Prepend(c))
	case StaticMethod:
		return fn.Call(ctx, call)
	}
	return nil, errs.Configuration(c.name+"."+name, "an instance method needs an object; use Object.Call")
}

// abstractMethods returns the names still resolving to abstract functions.
func (c *Class) abstractMethods() []string {
	var names []string
	seen := make(map[string]bool)
	for _, k := range c.mro {
		for name := range k.methods {
			if seen[name] {
				continue
			}
			seen[name] = true
			if fn, _, _ := c.Lookup(name); fn.IsAbstract() {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names
}

// isPublic reports whether calls to name check invariants.
func isPublic(name string, kind MethodKind) bool {
	if kind != Instance {
		return false
	}
	switch name {
	case InitName, NewName, ReprName, GetattributeName, GetattrName, SetattrName, DelattrName:
		return false
	}
	if len(name) > 4 && name[:2] == "__" && name[len(name)-2:] == "__" {
		return true
	}
	return name == "" || name[0] != '_'
}
