package binding

import (
	"fmt"
	"maps"
	"slices"
)

// OldValues holds the snapshots captured before a call, exposed to
// postconditions under the reserved name OLD.
type OldValues struct {
	values map[string]any
}

// NewOld wraps the captured values. The map is copied.
func NewOld(values map[string]any) *OldValues {
	return &OldValues{values: maps.Clone(values)}
}

// Get returns the captured value of name.
func (o *OldValues) Get(name string) (any, error) {
	v, ok := o.values[name]
	if !ok {
		return nil, fmt.Errorf(
			"the snapshot with the name %q is not available in the OLD of a postcondition; "+
				"have you attached a corresponding snapshot?", name)
	}
	return v, nil
}

// Value returns the captured value of name, or nil.
func (o *OldValues) Value(name string) any {
	return o.values[name]
}

// Names returns the captured names in sorted order.
func (o *OldValues) Names() []string {
	return slices.Sorted(maps.Keys(o.values))
}

// CELValue exposes the captured values as a map so that expressions can
// select them as OLD.name.
func (o *OldValues) CELValue() any {
	return maps.Clone(o.values)
}

func (o *OldValues) String() string {
	return "a bunch of OLD values"
}
