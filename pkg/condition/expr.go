package condition

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/cel-go/cel"
	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"

	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/config"
	"github.com/Mindburn-Labs/dbc/pkg/errs"
)

// Valuer is implemented by binding values that expose a different shape to
// expressions, such as objects exposing their attribute table.
type Valuer interface {
	CELValue() any
}

// Expression is a compiled CEL condition. Its free identifiers are the
// condition parameters.
type Expression struct {
	source string
	env    *cel.Env
	ast    *cel.Ast
	prg    cel.Program

	mu       sync.RWMutex
	subCache map[string]cel.Program
}

// Expr compiles src into a synchronous condition. Every free identifier of
// the expression becomes a parameter of type dyn:
//
//	condition.Expr(`x > 3`)                      // params [x]
//	condition.Expr(`result == OLD.lst + [val]`)  // params [result OLD val]
//	condition.Expr(`lst.all(v, v > 0)`)          // params [lst]
func Expr(src string) (*Condition, error) {
	base, err := cel.NewEnv(ext.Strings())
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	parsed, iss := base.Parse(src)
	if iss != nil && iss.Err() != nil {
		return nil, errs.Configuration(src, "parse: %v", iss.Err())
	}

	params := FreeIdents(parsed.NativeRep().Expr())

	opts := []cel.EnvOption{ext.Strings()}
	for _, p := range params {
		opts = append(opts, cel.Variable(p, cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	checked, iss := env.Compile(src)
	if iss != nil && iss.Err() != nil {
		return nil, errs.Configuration(src, "compile: %v", iss.Err())
	}
	prg, err := program(env, checked)
	if err != nil {
		return nil, errs.Configuration(src, "program: %v", err)
	}

	e := &Expression{
		source:   src,
		env:      env,
		ast:      checked,
		prg:      prg,
		subCache: make(map[string]cel.Program),
	}
	return &Condition{
		text:   src,
		params: params,
		mode:   Sync,
		sync:   e.eval,
		expr:   e,
	}, nil
}

// MustExpr is Expr that panics on an invalid expression.
func MustExpr(src string) *Condition {
	return Must(Expr(src))
}

func program(env *cel.Env, a *cel.Ast) (cel.Program, error) {
	return env.Program(a,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(config.Current().CELCostLimit),
	)
}

// Source returns the expression text.
func (e *Expression) Source() string { return e.source }

// AST returns the checked expression tree.
func (e *Expression) AST() *cel.Ast { return e.ast }

func (e *Expression) eval(ctx context.Context, args binding.Binding) (any, error) {
	out, _, err := e.prg.ContextEval(ctx, Activation(args))
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", e.source, err)
	}
	return out.Value(), nil
}

// EvalText compiles text in the environment of e and evaluates it against
// args. Programs are cached by text.
func (e *Expression) EvalText(ctx context.Context, text string, args binding.Binding) (any, error) {
	e.mu.RLock()
	prg, hit := e.subCache[text]
	e.mu.RUnlock()

	if !hit {
		e.mu.Lock()
		if prg, hit = e.subCache[text]; !hit {
			a, iss := e.env.Compile(text)
			if iss != nil && iss.Err() != nil {
				e.mu.Unlock()
				return nil, fmt.Errorf("compile: %w", iss.Err())
			}
			p, err := program(e.env, a)
			if err != nil {
				e.mu.Unlock()
				return nil, fmt.Errorf("program: %w", err)
			}
			e.subCache[text] = p
			prg = p
		}
		e.mu.Unlock()
	}

	out, _, err := prg.ContextEval(ctx, Activation(args))
	if err != nil {
		return nil, fmt.Errorf("eval: %w", err)
	}
	return out.Value(), nil
}

// Activation converts a binding into CEL input. Valuer implementations are
// replaced by their CEL value.
func Activation(args binding.Binding) map[string]any {
	act := make(map[string]any, len(args))
	for k, v := range args {
		act[k] = celValue(v)
	}
	return act
}

func celValue(v any) any {
	switch t := v.(type) {
	case Valuer:
		return celValue(t.CELValue())
	case ref.Val:
		return t
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = celValue(x)
		}
		return m
	}
	return v
}

// FreeIdents returns the identifiers of e that are not bound by a
// comprehension, in order of first appearance.
func FreeIdents(e celast.Expr) []string {
	var out []string
	walk(e, nil, func(x celast.Expr, bound []string) {
		if x.Kind() != celast.IdentKind {
			return
		}
		name := x.AsIdent()
		if !slices.Contains(bound, name) && !slices.Contains(out, name) {
			out = append(out, name)
		}
	})
	return out
}

// References reports whether e reads any of names outside a comprehension
// that binds them.
func References(e celast.Expr, names []string) bool {
	found := false
	walk(e, nil, func(x celast.Expr, bound []string) {
		if x.Kind() == celast.IdentKind && slices.Contains(names, x.AsIdent()) && !slices.Contains(bound, x.AsIdent()) {
			found = true
		}
	})
	return found
}

// Walk visits e and its children in pre-order. bound lists the comprehension
// variables in scope at each node.
func Walk(e celast.Expr, visit func(x celast.Expr, bound []string)) {
	walk(e, nil, visit)
}

func walk(e celast.Expr, bound []string, visit func(celast.Expr, []string)) {
	if e == nil {
		return
	}
	visit(e, bound)
	switch e.Kind() {
	case celast.SelectKind:
		walk(e.AsSelect().Operand(), bound, visit)
	case celast.CallKind:
		call := e.AsCall()
		if call.IsMemberFunction() {
			walk(call.Target(), bound, visit)
		}
		for _, a := range call.Args() {
			walk(a, bound, visit)
		}
	case celast.ListKind:
		for _, el := range e.AsList().Elements() {
			walk(el, bound, visit)
		}
	case celast.MapKind:
		for _, entry := range e.AsMap().Entries() {
			me := entry.AsMapEntry()
			walk(me.Key(), bound, visit)
			walk(me.Value(), bound, visit)
		}
	case celast.StructKind:
		for _, f := range e.AsStruct().Fields() {
			walk(f.AsStructField().Value(), bound, visit)
		}
	case celast.ComprehensionKind:
		comp := e.AsComprehension()
		walk(comp.IterRange(), bound, visit)
		walk(comp.AccuInit(), bound, visit)
		inner := append(slices.Clone(bound), comp.IterVar(), comp.AccuVar())
		walk(comp.LoopCondition(), inner, visit)
		walk(comp.LoopStep(), inner, visit)
		walk(comp.Result(), inner, visit)
	}
}
