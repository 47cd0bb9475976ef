//go:build property
// +build property

// Package checker_test contains property-based tests for contract evaluation.
package checker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/checker"
	"github.com/Mindburn-Labs/dbc/pkg/condition"
	"github.com/Mindburn-Labs/dbc/pkg/contract"
	"github.com/Mindburn-Labs/dbc/pkg/errs"
	"github.com/Mindburn-Labs/dbc/pkg/render"
)

func echo(name string) *checker.Func {
	return checker.MustNew(name, binding.Params("x"), func(_ context.Context, args binding.Binding) (any, error) {
		return args["x"], nil
	})
}

// TestDisabledContractsAreNeverEvaluated verifies that disabled contracts
// cost nothing.
// Property: calls(cond) == 0 for any argument when the contract is disabled
func TestDisabledContractsAreNeverEvaluated(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	var calls atomic.Int64
	cond := condition.Func("counted", []string{"x"}, func(context.Context, binding.Binding) (any, error) {
		calls.Add(1)
		return false, nil
	})
	f := echo("f")
	if _, err := checker.Attach(f,
		contract.Pre(cond, contract.WithEnabled(false)),
		contract.Post(cond, contract.WithEnabled(false)),
	); err != nil {
		t.Fatal(err)
	}

	properties.Property("disabled contracts are skipped", prop.ForAll(
		func(x int) bool {
			got, err := f.Call(context.Background(), binding.Args(x))
			return err == nil && got == x && calls.Load() == 0
		},
		gen.Int(),
	))

	properties.TestingRun(t)
}

// TestPreconditionLevelsAreOred verifies the weakening of preconditions.
// Property: f(x) succeeds iff x%2 == 0 || x%3 == 0
func TestPreconditionLevelsAreOred(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	f := echo("f")
	if err := f.Bind("C", &contract.Set{Preconditions: []*contract.Level{
		{Contracts: []*contract.Contract{contract.Pre(condition.MustExpr(`x % 2 == 0`))}},
		{Contracts: []*contract.Contract{contract.Pre(condition.MustExpr(`x % 3 == 0`))}},
	}}); err != nil {
		t.Fatal(err)
	}

	properties.Property("any satisfied level accepts the call", prop.ForAll(
		func(x int) bool {
			_, err := f.Call(context.Background(), binding.Args(x))
			want := x%2 == 0 || x%3 == 0
			if want {
				return err == nil
			}
			return errors.Is(err, errs.ErrViolation)
		},
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}

// TestPostconditionsAreAnded verifies the strengthening of postconditions.
// Property: f(x) succeeds iff every postcondition holds
func TestPostconditionsAreAnded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	f := echo("f")
	if err := f.Bind("C", &contract.Set{Postconditions: []*contract.Contract{
		contract.Post(condition.MustExpr(`result % 2 == 0`)),
		contract.Post(condition.MustExpr(`result % 3 == 0`)),
	}}); err != nil {
		t.Fatal(err)
	}

	properties.Property("every postcondition must hold", prop.ForAll(
		func(x int) bool {
			_, err := f.Call(context.Background(), binding.Args(x))
			want := x%2 == 0 && x%3 == 0
			if want {
				return err == nil
			}
			return errors.Is(err, errs.ErrViolation)
		},
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}

// TestRenderingIsIdempotent verifies that messages depend only on the
// arguments.
// Property: Render(c, args) == Render(c, args)
func TestRenderingIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	c := contract.Pre(condition.MustExpr(`size(name) > n && name.startsWith("a")`))
	r := render.Default()

	properties.Property("rendering is deterministic", prop.ForAll(
		func(name string, n int) bool {
			args := binding.Binding{"name": name, "n": n}
			m1, err1 := r.Render(context.Background(), c, args)
			m2, err2 := r.Render(context.Background(), c, args)
			return err1 == nil && err2 == nil && m1 == m2
		},
		gen.AlphaString(),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}
