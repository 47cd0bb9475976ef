package class

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/contract"
	"github.com/Mindburn-Labs/dbc/pkg/errs"
	"github.com/Mindburn-Labs/dbc/pkg/guard"
)

// Object is an instance of a Class.
type Object struct {
	id    uuid.UUID
	class *Class

	mu    sync.RWMutex
	attrs map[string]any
}

// New creates an instance of c. The initializer runs without invariant
// checks; all invariants are checked once it returns.
func (c *Class) New(ctx context.Context, call binding.Call) (*Object, error) {
	if abstract := c.abstractMethods(); len(abstract) > 0 {
		return nil, errs.Configuration(c.name, "can not instantiate an abstract class with abstract methods %v", abstract)
	}

	o := &Object{id: uuid.New(), class: c, attrs: make(map[string]any)}
	inner := guard.Enter(ctx, o)

	if fn, _, ok := c.Lookup(InitName); ok {
		if _, err := fn.Call(inner, call.Prepend(o)); err != nil {
			return nil, err
		}
	} else if len(call.Args) > 0 || len(call.Kwargs) > 0 {
		return nil, errs.Configuration(c.name, "the class takes no arguments without an initializer")
	}

	if len(c.invariants) > 0 {
		if err := c.checkInvariants(inner, o, contract.OnAll); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// ID returns the identity of the object.
func (o *Object) ID() uuid.UUID { return o.id }

// Class returns the class of the object.
func (o *Object) Class() *Class { return o.class }

// Call invokes a method. Public instance methods of a class with call
// invariants check them before and after the body, unless a check on o is
// already in progress in ctx. Bodies starting goroutines that call back into
// o should hand them guard.Detach(ctx).
func (o *Object) Call(ctx context.Context, name string, call binding.Call) (any, error) {
	c := o.class
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

	if !c.onCall || !isPublic(name, kind) || guard.Active(ctx, o) {
		return fn.Call(ctx, call.Prepend(o))
	}

	inner := guard.Enter(ctx, o)
	if err := c.checkInvariants(inner, o, contract.OnCall); err != nil {
		return nil, err
	}
	result, err := fn.Call(inner, call.Prepend(o))
	if err != nil {
		return nil, err
	}
	if err := c.checkInvariants(inner, o, contract.OnCall); err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns the value of an attribute. A class defining __getattr__ is
// asked for attributes the object does not hold.
func (o *Object) Get(ctx context.Context, name string) (any, error) {
	o.mu.RLock()
	v, ok := o.attrs[name]
	o.mu.RUnlock()
	if ok {
		return v, nil
	}
	if fn, _, found := o.class.Lookup(GetattrName); found {
		return fn.Call(ctx, binding.Args(o, name))
	}
	return nil, fmt.Errorf("%w: %s has no attribute %q", ErrNoAttribute, o.class.name, name)
}

// Attr returns the value of an attribute, or nil.
func (o *Object) Attr(name string) any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.attrs[name]
}

// Set assigns an attribute. With setattr invariants, they are checked before
// and after the assignment unless a check on o is already in progress.
func (o *Object) Set(ctx context.Context, name string, v any) error {
	return o.mutate(ctx, SetattrName, binding.Args(o, name, v), func() {
		o.mu.Lock()
		o.attrs[name] = v
		o.mu.Unlock()
	})
}

// Delete removes an attribute, checking setattr invariants like Set.
func (o *Object) Delete(ctx context.Context, name string) error {
	o.mu.RLock()
	_, ok := o.attrs[name]
	o.mu.RUnlock()
	if !ok {
		if _, _, hooked := o.class.Lookup(DelattrName); !hooked {
			return fmt.Errorf("%w: %s has no attribute %q", ErrNoAttribute, o.class.name, name)
		}
	}
	return o.mutate(ctx, DelattrName, binding.Args(o, name), func() {
		o.mu.Lock()
		delete(o.attrs, name)
		o.mu.Unlock()
	})
}

// mutate applies a change either through the class hook or directly.
func (o *Object) mutate(ctx context.Context, hook string, call binding.Call, direct func()) error {
	c := o.class
	apply := func(ctx context.Context) error {
		if fn, _, ok := c.Lookup(hook); ok {
			_, err := fn.Call(ctx, call)
			return err
		}
		direct()
		return nil
	}

	if !c.onSetattr || guard.Active(ctx, o) {
		return apply(ctx)
	}
	inner := guard.Enter(ctx, o)
	if err := c.checkInvariants(inner, o, contract.OnSetattr); err != nil {
		return err
	}
	if err := apply(inner); err != nil {
		return err
	}
	return c.checkInvariants(inner, o, contract.OnSetattr)
}

// SetDirect assigns an attribute bypassing hooks and invariants. It is meant
// for __setattr__ hooks storing the final value.
func (o *Object) SetDirect(name string, v any) {
	o.mu.Lock()
	o.attrs[name] = v
	o.mu.Unlock()
}

// DeleteDirect removes an attribute bypassing hooks and invariants.
func (o *Object) DeleteDirect(name string) {
	o.mu.Lock()
	delete(o.attrs, name)
	o.mu.Unlock()
}

// Attrs returns a copy of the attribute table.
func (o *Object) Attrs() map[string]any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return maps.Clone(o.attrs)
}

// CELValue exposes the attributes to expression conditions, so that
// `self.balance` selects the attribute.
func (o *Object) CELValue() any {
	return o.Attrs()
}

// String uses the class's __repr__ when there is one.
func (o *Object) String() string {
	if fn, _, ok := o.class.Lookup(ReprName); ok {
		if v, err := fn.Call(context.Background(), binding.Args(o)); err == nil {
			if s, ok := v.(string); ok {
				return s
			}
			return fmt.Sprint(v)
		}
	}
	return fmt.Sprintf("<%s object %s>", o.class.name, o.id)
}
