package class

import (
	"slices"
	"strings"

	"github.com/Mindburn-Labs/dbc/pkg/errs"
)

// linearize computes the C3 method resolution order of a class with the given
// bases. The class itself comes first.
func linearize(self *Class, bases []*Class) ([]*Class, error) {
	seqs := make([][]*Class, 0, len(bases)+1)
	for _, b := range bases {
		seqs = append(seqs, slices.Clone(b.mro))
	}
	seqs = append(seqs, slices.Clone(bases))

	out := []*Class{self}
	for {
		seqs = slices.DeleteFunc(seqs, func(s []*Class) bool { return len(s) == 0 })
		if len(seqs) == 0 {
			return out, nil
		}

		var next *Class
		for _, s := range seqs {
			if !inTail(s[0], seqs) {
				next = s[0]
				break
			}
		}
		if next == nil {
			names := make([]string, len(bases))
			for i, b := range bases {
				names[i] = b.name
			}
			return nil, errs.Configuration(self.name,
				"cannot create a consistent method resolution order for the bases %s", strings.Join(names, ", "))
		}

		out = append(out, next)
		for i, s := range seqs {
			if s[0] == next {
				seqs[i] = s[1:]
			}
		}
	}
}

func inTail(c *Class, seqs [][]*Class) bool {
	for _, s := range seqs {
		if slices.Contains(s[1:], c) {
			return true
		}
	}
	return false
}
