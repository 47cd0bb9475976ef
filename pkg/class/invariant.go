package class

import (
	"context"
	"slices"

	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/checker"
	"github.com/Mindburn-Labs/dbc/pkg/condition"
	"github.com/Mindburn-Labs/dbc/pkg/contract"
	"github.com/Mindburn-Labs/dbc/pkg/errs"
	"github.com/Mindburn-Labs/dbc/pkg/telemetry"
)

// AttachInvariant adds an invariant to the class declared by b, checked on
// the given triggers. A disabled invariant is not attached.
func AttachInvariant(b *Builder, c *contract.Contract, trigger contract.Trigger) (*Builder, error) {
	if b == nil {
		return nil, errs.Configuration("invariant", "the class builder must not be nil")
	}
	if c == nil {
		return b, errs.Configuration(b.name, "the invariant must not be nil")
	}
	if c.Kind() != contract.Invariant {
		return b, &errs.ConfigurationError{Subject: b.name, Reason: "expected an invariant, got a " + c.Kind().String(), Location: c.Location()}
	}
	if trigger&contract.OnAll == 0 {
		return b, &errs.ConfigurationError{Subject: b.name, Reason: "the invariant is checked on no event", Location: c.Location()}
	}
	if !c.Enabled() {
		return b, nil
	}
	if err := c.Validate(func(name string) bool { return name == binding.Self }); err != nil {
		return b, err
	}
	if c.Condition().Mode() == condition.Async {
		return b, &errs.ConfigurationError{
			Subject:  b.name,
			Reason:   "invariants must be synchronous; the condition " + c.Condition().Text() + " is asynchronous",
			Location: c.Location(),
		}
	}
	if c.Trigger() != trigger {
		c = c.WithTrigger(trigger)
	}
	b.invariants = append(slices.Clone(b.invariants), c)
	return b, nil
}

// checkInvariants evaluates the invariants selected by trigger against o.
// ctx must already guard o.
func (c *Class) checkInvariants(ctx context.Context, o *Object, trigger contract.Trigger) error {
	full := binding.Binding{binding.Self: o}
	for _, inv := range c.invariants {
		if inv.Trigger()&trigger == 0 || !inv.Enabled() {
			continue
		}
		ok, args, err := checker.Holds(ctx, inv, full, false)
		if err != nil {
			c.recorder.Check(ctx, inv.Kind().String(), c.name, telemetry.OutcomeFailed)
			return err
		}
		if ok {
			c.recorder.Check(ctx, inv.Kind().String(), c.name, telemetry.OutcomePassed)
			continue
		}
		c.recorder.Violation(ctx, inv.Kind().String(), c.name, inv.Location())
		verr := inv.Violation(ctx, args, full, c.renderer)
		c.logger.DebugContext(ctx, "invariant violated",
			"object", o.ID().String(),
			"location", inv.Location(),
			"error", verr,
		)
		return verr
	}
	return nil
}
