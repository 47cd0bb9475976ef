package checker

import (
	"context"
	"time"

	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/contract"
	"github.com/Mindburn-Labs/dbc/pkg/errs"
	"github.com/Mindburn-Labs/dbc/pkg/future"
	"github.com/Mindburn-Labs/dbc/pkg/guard"
	"github.com/Mindburn-Labs/dbc/pkg/telemetry"
)

// Body is the implementation of a synchronous checked function. args holds
// the resolved arguments; the body owns it.
type Body func(ctx context.Context, args binding.Binding) (any, error)

// AsyncBody is the implementation of an asynchronous checked function.
type AsyncBody func(ctx context.Context, args binding.Binding) *future.Future[any]

// Call invokes f and blocks until it returns, awaiting the body of an
// asynchronous Func.
func (f *Func) Call(ctx context.Context, call binding.Call) (any, error) {
	if f.async != nil {
		return f.run(ctx, call, true)
	}
	return f.run(ctx, call, false)
}

// Go invokes f in a new goroutine.
func (f *Func) Go(ctx context.Context, call binding.Call) *future.Future[any] {
	return future.Go(func() (any, error) {
		return f.Call(ctx, call)
	})
}

func (f *Func) run(ctx context.Context, call binding.Call, allowAwait bool) (any, error) {
	if f.abstract {
		return nil, errs.Configuration(f.name, "the function is abstract and has no body")
	}
	f.sealed.Store(true)

	args, err := binding.Resolve(f.sig, call)
	if err != nil {
		return nil, err
	}

	set := f.set.Load()
	if set.Empty() {
		return f.invoke(ctx, args)
	}
	if guard.Active(ctx, f) {
		f.recorder.Suppressed(ctx, f.name)
		f.logger.DebugContext(ctx, "contract check suppressed", "func", f.name)
		return f.invoke(ctx, args)
	}
	ctx = guard.Enter(ctx, f)

	hasPost := len(set.Postconditions) > 0
	if hasPost {
		for _, reserved := range []string{binding.Result, binding.Old} {
			if _, ok := call.Kwargs[reserved]; ok {
				return nil, &errs.ArgumentResolutionError{
					Reason: "the arguments of the function " + f.name + " include " + quote(reserved) +
						" which is reserved for postconditions",
				}
			}
		}
	}

	start := time.Now()
	if err := f.checkPreconditions(ctx, set, args, allowAwait); err != nil {
		return nil, err
	}

	full := args
	if hasPost && len(set.Snapshots) > 0 {
		old, err := f.capture(ctx, set, args, allowAwait)
		if err != nil {
			return nil, err
		}
		full = args.Clone()
		full[binding.Old] = old
	}
	spent := time.Since(start)

	result, err := f.invoke(ctx, args.Clone())
	if err != nil {
		return nil, err
	}

	if hasPost {
		if _, ok := result.(future.Awaitable); ok && !allowAwait {
			return nil, errs.Configuration(f.name,
				"the call returned an awaitable %T; a function completing asynchronously must be created with NewAsync", result)
		}
		start = time.Now()
		post := full.Clone()
		post[binding.Result] = result
		if err := f.checkPostconditions(ctx, set, post, allowAwait); err != nil {
			return nil, err
		}
		spent += time.Since(start)
	}
	f.recorder.Duration(ctx, f.name, spent)
	return result, nil
}

func (f *Func) invoke(ctx context.Context, args binding.Binding) (any, error) {
	if f.async != nil {
		return f.async(ctx, args).Await(ctx)
	}
	return f.body(ctx, args)
}

// checkPreconditions accepts the call as soon as one level holds entirely.
// When none does, the first failing contract of the first level is reported.
func (f *Func) checkPreconditions(ctx context.Context, set *contract.Set, full binding.Binding, allowAwait bool) error {
	var (
		failed     *contract.Contract
		failedArgs binding.Binding
	)
	for _, level := range set.Preconditions {
		c, args, err := f.firstFailure(ctx, level.Contracts, full, allowAwait)
		if err != nil {
			return err
		}
		if c == nil {
			return nil
		}
		if failed == nil {
			failed, failedArgs = c, args
		}
	}
	if failed == nil {
		return nil
	}
	return f.violation(ctx, failed, failedArgs, full)
}

func (f *Func) checkPostconditions(ctx context.Context, set *contract.Set, full binding.Binding, allowAwait bool) error {
	c, args, err := f.firstFailure(ctx, set.Postconditions, full, allowAwait)
	if err != nil {
		return err
	}
	if c != nil {
		return f.violation(ctx, c, args, full)
	}
	return nil
}

// firstFailure evaluates cs in order and returns the first one that does not
// hold together with the arguments it was evaluated with.
func (f *Func) firstFailure(ctx context.Context, cs []*contract.Contract, full binding.Binding, allowAwait bool) (*contract.Contract, binding.Binding, error) {
	for _, c := range cs {
		if !c.Enabled() {
			continue
		}
		ok, args, err := Holds(ctx, c, full, allowAwait)
		if err != nil {
			f.recorder.Check(ctx, c.Kind().String(), f.name, telemetry.OutcomeFailed)
			return nil, nil, err
		}
		if !ok {
			return c, args, nil
		}
		f.recorder.Check(ctx, c.Kind().String(), f.name, telemetry.OutcomePassed)
	}
	return nil, nil, nil
}

func (f *Func) capture(ctx context.Context, set *contract.Set, full binding.Binding, allowAwait bool) (*binding.OldValues, error) {
	values := make(map[string]any, len(set.Snapshots))
	for _, snap := range set.Snapshots {
		if !snap.Enabled() {
			continue
		}
		args, err := binding.Select(snap.Args(), full, snap.Location())
		if err != nil {
			return nil, err
		}
		v, err := snap.Capture().Eval(ctx, args, allowAwait)
		if err != nil {
			return nil, err
		}
		values[snap.Name()] = v
	}
	return binding.NewOld(values), nil
}

func (f *Func) violation(ctx context.Context, c *contract.Contract, args, full binding.Binding) error {
	f.recorder.Violation(ctx, c.Kind().String(), f.name, c.Location())
	err := c.Violation(ctx, args, full, f.renderer)
	f.logger.DebugContext(ctx, "contract violated",
		"func", f.name,
		"kind", c.Kind().String(),
		"location", c.Location(),
		"error", err,
	)
	return err
}

// Holds resolves the arguments of c from full and evaluates its condition.
// It is shared with the invariant checks of classes.
func Holds(ctx context.Context, c *contract.Contract, full binding.Binding, allowAwait bool) (bool, binding.Binding, error) {
	args, err := binding.Select(c.Args(), full, c.Location())
	if err != nil {
		return false, nil, err
	}
	ok, err := c.Condition().Holds(ctx, args, allowAwait, c.Location())
	if err != nil {
		return false, args, err
	}
	return ok, args, nil
}
