package contract

import (
	"slices"

	"github.com/Mindburn-Labs/dbc/pkg/errs"
)

// Validate checks that every name read by the condition and the error factory
// is available.
func (c *Contract) Validate(available func(string) bool) error {
	if c.cond == nil {
		return &errs.ConfigurationError{Subject: c.kind.String(), Reason: "the condition must not be nil", Location: c.location}
	}
	for _, a := range c.cond.Params() {
		if !available(a) {
			return &errs.ConfigurationError{
				Subject:  c.String(),
				Reason:   "the condition reads " + quote(a) + " which the function does not define",
				Location: c.location,
			}
		}
	}
	if err := c.errSpec.validate(c.String(), available); err != nil {
		err.Location = c.location
		return err
	}
	return nil
}

// Level is a group of preconditions that must all hold. A precondition set
// holds when any of its levels holds.
type Level struct {
	Contracts []*Contract
}

// Set is the ordered collection of contracts of one function. A Set is
// treated as immutable once published; the With methods return modified
// copies.
type Set struct {
	// Preconditions are OR-ed levels, the most-derived level first.
	Preconditions []*Level
	Snapshots     []*Snapshot
	// Postconditions must all hold, whichever class declared them.
	Postconditions []*Contract
}

// Empty reports whether the set carries no contracts at all.
func (s *Set) Empty() bool {
	return s == nil || (len(s.Preconditions) == 0 && len(s.Snapshots) == 0 && len(s.Postconditions) == 0)
}

// HasPreconditions reports whether any level carries a precondition.
func (s *Set) HasPreconditions() bool {
	if s == nil {
		return false
	}
	for _, l := range s.Preconditions {
		if len(l.Contracts) > 0 {
			return true
		}
	}
	return false
}

func (s *Set) clone() *Set {
	if s == nil {
		return &Set{}
	}
	return &Set{
		Preconditions:  slices.Clone(s.Preconditions),
		Snapshots:      slices.Clone(s.Snapshots),
		Postconditions: slices.Clone(s.Postconditions),
	}
}

// WithPrecondition returns a copy of s with c appended to the first level.
func (s *Set) WithPrecondition(c *Contract) *Set {
	out := s.clone()
	if len(out.Preconditions) == 0 {
		out.Preconditions = []*Level{{Contracts: []*Contract{c}}}
		return out
	}
	first := out.Preconditions[0]
	out.Preconditions[0] = &Level{Contracts: append(slices.Clone(first.Contracts), c)}
	return out
}

// WithPostcondition returns a copy of s with c appended.
func (s *Set) WithPostcondition(c *Contract) *Set {
	out := s.clone()
	out.Postconditions = append(out.Postconditions, c)
	return out
}

// WithSnapshot returns a copy of s with snap appended. Snapshot names must be
// unique.
func (s *Set) WithSnapshot(snap *Snapshot) (*Set, error) {
	if s != nil {
		for _, existing := range s.Snapshots {
			if existing.name == snap.name {
				return nil, &errs.ConfigurationError{
					Subject:  "snapshot " + quote(snap.name),
					Reason:   "there are conflicting snapshots with the same name",
					Location: snap.location,
				}
			}
		}
	}
	out := s.clone()
	out.Snapshots = append(out.Snapshots, snap)
	return out, nil
}

// Merge combines the set declared on a method with the sets of the same
// method in the bases, in base order. Preconditions weaken: the own level
// comes first, followed by the bases' levels. Postconditions and snapshots
// strengthen: the bases' come first, followed by the own ones. Contracts and
// levels shared by several bases appear once.
//
// basesHaveMethod tells whether any base defines the method at all; a method
// overriding one without preconditions can not declare any.
func Merge(subject string, own *Set, bases []*Set, basesHaveMethod bool) (*Set, error) {
	var baseLevels []*Level
	var baseSnaps []*Snapshot
	var basePosts []*Contract
	for _, b := range bases {
		if b == nil {
			continue
		}
		for _, l := range b.Preconditions {
			if !slices.Contains(baseLevels, l) {
				baseLevels = append(baseLevels, l)
			}
		}
		for _, sn := range b.Snapshots {
			if !slices.Contains(baseSnaps, sn) {
				baseSnaps = append(baseSnaps, sn)
			}
		}
		for _, c := range b.Postconditions {
			if !slices.Contains(basePosts, c) {
				basePosts = append(basePosts, c)
			}
		}
	}

	if own.HasPreconditions() && basesHaveMethod && len(baseLevels) == 0 {
		return nil, errs.Configuration(subject,
			"can not weaken the preconditions because the bases specify no preconditions at all; "+
				"the method must accept all possible input since an empty precondition set always holds")
	}

	out := &Set{}
	if own != nil {
		for _, l := range own.Preconditions {
			if len(l.Contracts) > 0 && !slices.Contains(baseLevels, l) {
				out.Preconditions = append(out.Preconditions, l)
			}
		}
	}
	out.Preconditions = append(out.Preconditions, baseLevels...)

	seen := make(map[string]bool)
	var snaps []*Snapshot
	snaps = append(snaps, baseSnaps...)
	if own != nil {
		for _, sn := range own.Snapshots {
			if !slices.Contains(snaps, sn) {
				snaps = append(snaps, sn)
			}
		}
	}
	for _, sn := range snaps {
		if seen[sn.name] {
			return nil, errs.Configuration(subject,
				"there are conflicting snapshots with the name %q; "+
					"snapshots are inherited from the base classes, does one of them define a snapshot with the same name?",
				sn.name)
		}
		seen[sn.name] = true
	}
	out.Snapshots = snaps

	out.Postconditions = basePosts
	if own != nil {
		for _, c := range own.Postconditions {
			if !slices.Contains(out.Postconditions, c) {
				out.Postconditions = append(out.Postconditions, c)
			}
		}
	}
	return out, nil
}

func quote(s string) string { return `"` + s + `"` }
