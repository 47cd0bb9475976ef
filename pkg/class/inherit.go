package class

import (
	"log/slog"
	"slices"

	"github.com/Mindburn-Labs/dbc/pkg/contract"
	"github.com/Mindburn-Labs/dbc/pkg/errs"
	"github.com/Mindburn-Labs/dbc/pkg/render"
	"github.com/Mindburn-Labs/dbc/pkg/telemetry"
)

// noContracts lists the methods that may not carry contracts: they are used
// to render violations or to allocate objects.
var noContracts = []string{ReprName, GetattrName, GetattributeName, NewName}

// ResolveInheritance finalizes the class declared by b:
//
//   - the bases are linearized (C3);
//   - the invariants are the bases' followed by the own ones;
//   - every own method except the initializer gets the contracts of the
//     same method in the bases merged into its own.
//
// Base classes are never modified.
func ResolveInheritance(b *Builder) (*Class, error) {
	if b.err != nil {
		return nil, b.err
	}
	for _, base := range b.bases {
		if base == nil {
			return nil, errs.Configuration(b.name, "a base class is nil; bases must be built classes")
		}
	}
	for _, name := range noContracts {
		if m, ok := b.methods[name]; ok && !m.fn.Contracts().Empty() {
			return nil, errs.Configuration(b.name+"."+name, "the method can not carry contracts")
		}
	}

	c := &Class{
		name:     b.name,
		bases:    slices.Clone(b.bases),
		methods:  make(map[string]method, len(b.methods)),
		logger:   b.logger,
		recorder: b.recorder,
		renderer: b.renderer,
	}
	if c.logger == nil {
		c.logger = slog.Default().With("component", "class", "class", b.name)
	}
	if c.recorder == nil {
		c.recorder = telemetry.Default()
	}
	if c.renderer == nil {
		c.renderer = render.Default()
	}

	mro, err := linearize(c, b.bases)
	if err != nil {
		return nil, err
	}
	c.mro = mro

	var invariants []*contract.Contract
	for _, base := range b.bases {
		for _, inv := range base.invariants {
			if !slices.Contains(invariants, inv) {
				invariants = append(invariants, inv)
			}
		}
	}
	invariants = append(invariants, b.invariants...)
	c.invariants = invariants
	for _, inv := range invariants {
		c.onCall = c.onCall || inv.Trigger()&contract.OnCall != 0
		c.onSetattr = c.onSetattr || inv.Trigger()&contract.OnSetattr != 0
	}

	for _, name := range b.order {
		m := b.methods[name]
		subject := b.name + "." + name

		set := m.fn.Contracts()
		if name != InitName && name != NewName {
			var baseSets []*contract.Set
			found := false
			for _, base := range b.bases {
				if fn, _, ok := base.Lookup(name); ok {
					found = true
					baseSets = append(baseSets, fn.Contracts())
				}
			}
			set, err = contract.Merge(subject, m.fn.Contracts(), baseSets, found)
			if err != nil {
				return nil, err
			}
		}
		if err := m.fn.Bind(c, set); err != nil {
			return nil, err
		}
		c.methods[name] = m
	}

	c.logger.Debug("class built",
		"mro_len", len(c.mro),
		"invariants", len(c.invariants),
		"methods", len(c.methods),
	)
	return c, nil
}
