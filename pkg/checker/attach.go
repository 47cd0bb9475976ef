package checker

import (
	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/condition"
	"github.com/Mindburn-Labs/dbc/pkg/contract"
	"github.com/Mindburn-Labs/dbc/pkg/errs"
)

// AttachPrecondition adds c to the preconditions of f. Contracts attached
// earlier are evaluated earlier. A disabled contract is not attached.
func AttachPrecondition(f *Func, c *contract.Contract) (*Func, error) {
	if err := f.checkAttach(c, contract.Precondition); err != nil {
		return f, err
	}
	if !c.Enabled() {
		return f, nil
	}
	if err := c.Validate(f.available(false)); err != nil {
		return f, err
	}
	if err := f.checkMode(c.Condition(), c.Location()); err != nil {
		return f, err
	}
	return f, f.update(func(s *contract.Set) (*contract.Set, error) {
		return s.WithPrecondition(c), nil
	})
}

// AttachPostcondition adds c to the postconditions of f. The condition may
// read the result of the call as "result" and the snapshots as "OLD".
func AttachPostcondition(f *Func, c *contract.Contract) (*Func, error) {
	if err := f.checkAttach(c, contract.Postcondition); err != nil {
		return f, err
	}
	if !c.Enabled() {
		return f, nil
	}
	for _, reserved := range []string{binding.Result, binding.Old} {
		if f.sig.Has(reserved) {
			return f, &errs.ConfigurationError{
				Subject:  f.name,
				Reason:   "the function declares the parameter " + quote(reserved) + " which collides with the postcondition argument of the same name",
				Location: c.Location(),
			}
		}
	}
	if err := c.Validate(f.available(true)); err != nil {
		return f, err
	}
	if err := f.checkMode(c.Condition(), c.Location()); err != nil {
		return f, err
	}
	return f, f.update(func(s *contract.Set) (*contract.Set, error) {
		return s.WithPostcondition(c), nil
	})
}

// AttachSnapshot adds a capture evaluated before the body. A snapshot is only
// useful to postconditions, so f must already carry one.
func AttachSnapshot(f *Func, snap *contract.Snapshot) (*Func, error) {
	if f == nil {
		return nil, errs.Configuration("snapshot", "the function must not be nil")
	}
	if snap == nil {
		return f, errs.Configuration(f.name, "the snapshot must not be nil")
	}
	if !snap.Enabled() {
		return f, nil
	}
	available := f.available(false)
	for _, a := range snap.Args() {
		if !available(a) {
			return f, &errs.ConfigurationError{
				Subject:  f.name,
				Reason:   "the snapshot " + quote(snap.Name()) + " reads " + quote(a) + " which the function does not define",
				Location: snap.Location(),
			}
		}
	}
	if err := f.checkMode(snap.Capture(), snap.Location()); err != nil {
		return f, err
	}
	return f, f.update(func(s *contract.Set) (*contract.Set, error) {
		if len(s.Postconditions) == 0 {
			return nil, &errs.ConfigurationError{
				Subject:  f.name,
				Reason:   "a snapshot was attached, but no postcondition was attached before it",
				Location: snap.Location(),
			}
		}
		return s.WithSnapshot(snap)
	})
}

// Attach adds preconditions and postconditions in order.
func Attach(f *Func, cs ...*contract.Contract) (*Func, error) {
	for _, c := range cs {
		if c == nil {
			return f, errs.Configuration(f.name, "the contract must not be nil")
		}
		var err error
		switch c.Kind() {
		case contract.Precondition:
			_, err = AttachPrecondition(f, c)
		case contract.Postcondition:
			_, err = AttachPostcondition(f, c)
		default:
			err = &errs.ConfigurationError{Subject: f.name, Reason: "invariants belong to classes, not functions", Location: c.Location()}
		}
		if err != nil {
			return f, err
		}
	}
	return f, nil
}

func (f *Func) checkAttach(c *contract.Contract, kind contract.Kind) error {
	if f == nil {
		return errs.Configuration(kind.String(), "the function must not be nil")
	}
	if c == nil {
		return errs.Configuration(f.name, "the %s must not be nil", kind)
	}
	if c.Kind() != kind {
		return &errs.ConfigurationError{
			Subject:  f.name,
			Reason:   "expected a " + kind.String() + ", got a " + c.Kind().String(),
			Location: c.Location(),
		}
	}
	return nil
}

// checkMode rejects asynchronous conditions on synchronous functions, which
// have no way to await them.
func (f *Func) checkMode(cond *condition.Condition, location string) error {
	if cond.Mode() == condition.Async && f.mode == condition.Sync {
		return &errs.ConfigurationError{
			Subject:  f.name,
			Reason:   "the condition " + cond.Text() + " is asynchronous, but the function is synchronous",
			Location: location,
		}
	}
	return nil
}

func (f *Func) available(post bool) func(string) bool {
	return func(name string) bool {
		switch name {
		case binding.AllArgs, binding.AllKwargs:
			return true
		case binding.Result, binding.Old:
			return post
		}
		return f.sig.Has(name)
	}
}

func (f *Func) update(fn func(*contract.Set) (*contract.Set, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sealed.Load() {
		return errs.Configuration(f.name,
			"contracts can not be attached after the function has been called or bound to a class")
	}
	next, err := fn(f.set.Load())
	if err != nil {
		return err
	}
	f.set.Store(next)
	return nil
}

func quote(s string) string { return `"` + s + `"` }
