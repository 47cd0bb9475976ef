// Package render builds the messages of violated contracts.
//
// The default renderer shows the declaration site, the description and the
// condition text, followed by the values involved. For expression conditions
// the values of every sub-expression worth showing (identifiers, attribute
// chains and function calls) are recomputed against the failing arguments;
// for Go function conditions the arguments themselves are listed.
package render

import (
	"context"
	"fmt"
	"strings"

	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/parser"

	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/condition"
	"github.com/Mindburn-Labs/dbc/pkg/contract"
)

// Renderer produces violation messages.
type Renderer = contract.Renderer

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, c *contract.Contract, args binding.Binding) (string, error)

func (f RendererFunc) Render(ctx context.Context, c *contract.Contract, args binding.Binding) (string, error) {
	return f(ctx, c, args)
}

type defaultRenderer struct {
	limits Limits
}

// Default returns the renderer used when none is configured.
func Default() Renderer {
	return &defaultRenderer{limits: DefaultLimits()}
}

// WithLimits returns the default renderer with custom representation limits.
func WithLimits(l Limits) Renderer {
	return &defaultRenderer{limits: l}
}

type entry struct {
	text  string
	value string
}

func (r *defaultRenderer) Render(ctx context.Context, c *contract.Contract, args binding.Binding) (string, error) {
	cond := c.Condition()

	var entries []entry
	if e := cond.Expr(); e != nil {
		entries = r.recompute(ctx, e, args)
	} else {
		entries = r.arguments(cond, args)
	}
	return format(c, entries), nil
}

func format(c *contract.Contract, entries []entry) string {
	var b strings.Builder
	if loc := c.Location(); loc != "" {
		b.WriteString(loc)
		b.WriteString(":\n")
	}
	if d := c.Description(); d != "" {
		b.WriteString(d)
		b.WriteString(": ")
	}
	b.WriteString(c.Condition().Text())

	switch len(entries) {
	case 0:
	case 1:
		fmt.Fprintf(&b, ": %s was %s", entries[0].text, entries[0].value)
	default:
		b.WriteString(":")
		for _, e := range entries {
			fmt.Fprintf(&b, "\n%s was %s", e.text, e.value)
		}
	}
	return b.String()
}

func (r *defaultRenderer) arguments(cond *condition.Condition, args binding.Binding) []entry {
	var out []entry
	for _, p := range cond.Params() {
		v, ok := args[p]
		if !ok {
			continue
		}
		if old, ok := v.(*binding.OldValues); ok {
			for _, n := range old.Names() {
				out = append(out, entry{text: p + "." + n, value: Repr(old.Value(n), r.limits)})
			}
			continue
		}
		out = append(out, entry{text: p, value: Repr(v, r.limits)})
	}
	return out
}

func (r *defaultRenderer) recompute(ctx context.Context, e *condition.Expression, args binding.Binding) []entry {
	native := e.AST().NativeRep()
	info := native.SourceInfo()

	var out []entry
	seen := map[string]bool{e.Source(): true}
	condition.Walk(native.Expr(), func(x celast.Expr, bound []string) {
		if !showable(x) || (len(bound) > 0 && condition.References(x, bound)) {
			return
		}
		text, err := parser.Unparse(x, info)
		if err != nil || seen[text] {
			return
		}
		seen[text] = true

		v, err := e.EvalText(ctx, text, args)
		if err != nil {
			return
		}
		out = append(out, entry{text: text, value: Repr(v, r.limits)})
	})
	return out
}

// showable reports whether the value of x is worth listing: identifiers,
// attribute selections and calls of named functions. Operators and literals
// are obvious from the condition text.
func showable(x celast.Expr) bool {
	switch x.Kind() {
	case celast.IdentKind:
		return true
	case celast.SelectKind:
		return !x.AsSelect().IsTestOnly()
	case celast.CallKind:
		name := x.AsCall().FunctionName()
		if name == "_[_]" {
			return true
		}
		return name != "" && !strings.ContainsAny(name[:1], "_!-@")
	}
	return false
}
