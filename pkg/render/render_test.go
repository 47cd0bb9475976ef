package render

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/dbc/pkg/binding"
	"github.com/Mindburn-Labs/dbc/pkg/condition"
	"github.com/Mindburn-Labs/dbc/pkg/contract"
)

func render(t *testing.T, c *contract.Contract, args binding.Binding) string {
	t.Helper()
	msg, err := Default().Render(context.Background(), c, args)
	require.NoError(t, err)
	return msg
}

func TestSingleValue(t *testing.T) {
	c := contract.Pre(condition.MustExpr(`x > 3`), contract.AtLocation("f.go:10"))
	assert.Equal(t, "f.go:10:\nx > 3: x was 1", render(t, c, binding.Binding{"x": 1}))
}

func TestDescription(t *testing.T) {
	c := contract.Pre(condition.MustExpr(`x > 3`), contract.AtLocation("f.go:10"), contract.WithDescription("x must be big"))
	assert.Equal(t, "f.go:10:\nx must be big: x > 3: x was 1", render(t, c, binding.Binding{"x": 1}))
}

func TestManyValues(t *testing.T) {
	c := contract.Post(condition.MustExpr(`size(result) == size(OLD.lst) + 1`), contract.AtLocation(""))
	msg := render(t, c, binding.Binding{
		"result": []int{1, 2, 2},
		"OLD":    binding.NewOld(map[string]any{"lst": []int{1}}),
	})

	lines := strings.Split(msg, "\n")
	assert.Equal(t, "size(result) == size(OLD.lst) + 1:", lines[0])
	assert.Contains(t, lines, "size(result) was 3")
	assert.Contains(t, lines, "result was [1, 2, 2]")
	assert.Contains(t, lines, "size(OLD.lst) was 1")
	assert.Contains(t, lines, "OLD.lst was [1]")
}

func TestComprehensionVariablesAreNotShown(t *testing.T) {
	c := contract.Pre(condition.MustExpr(`lst.all(v, v > 0)`), contract.AtLocation(""))
	msg := render(t, c, binding.Binding{"lst": []int{1, -1}})
	assert.Equal(t, "lst.all(v, v > 0): lst was [1, -1]", msg)
}

func TestGoFunctionConditionListsArguments(t *testing.T) {
	cond := condition.MustNew(func(x, y int) bool { return x < y }, "x", "y").WithText("x < y")
	c := contract.Pre(cond, contract.AtLocation(""))
	assert.Equal(t, "x < y:\nx was 5\ny was 2", render(t, c, binding.Binding{"x": 5, "y": 2}))

	cond = condition.MustNew(func(old *binding.OldValues) bool { return false }, "OLD").WithText("unchanged")
	c = contract.Post(cond, contract.AtLocation(""))
	msg := render(t, c, binding.Binding{"OLD": binding.NewOld(map[string]any{"n": 1})})
	assert.Equal(t, "unchanged: OLD.n was 1", msg)
}

func TestRenderingIsIdempotent(t *testing.T) {
	c := contract.Pre(condition.MustExpr(`x + y > z`))
	args := binding.Binding{"x": 1, "y": 2, "z": 10}
	assert.Equal(t, render(t, c, args), render(t, c, args))
}

func TestRendererFunc(t *testing.T) {
	r := RendererFunc(func(_ context.Context, c *contract.Contract, _ binding.Binding) (string, error) {
		return "custom " + c.Condition().Text(), nil
	})
	msg, err := r.Render(context.Background(), contract.Pre(condition.MustExpr(`x > 0`)), nil)
	require.NoError(t, err)
	assert.Equal(t, "custom x > 0", msg)
}

func TestRepr(t *testing.T) {
	l := Limits{MaxString: 64, MaxItems: 3}

	assert.Equal(t, "nil", Repr(nil, l))
	assert.Equal(t, `"hi"`, Repr("hi", l))
	assert.Equal(t, "[1, 2, 3, ... 2 more]", Repr([]int{1, 2, 3, 4, 5}, l))
	assert.Equal(t, `{"a": 1, "b": 2}`, Repr(map[string]int{"b": 2, "a": 1}, l))
	assert.Equal(t, `"`+strings.Repeat("a", 19)+"...", Repr(strings.Repeat("a", 30), Limits{MaxString: 20}))
	assert.Equal(t, "a bunch of OLD values", Repr(binding.NewOld(nil), l))
}

type node struct{ name string }

func (n *node) String() string { return n.name }

type brokenError struct{}

func (brokenError) Error() string { panic("boom") }

func TestNilPointerArgument(t *testing.T) {
	cond := condition.MustNew(func(n *node) bool { return n != nil }, "n").WithText("n != nil")
	c := contract.Pre(cond, contract.AtLocation(""))
	assert.Equal(t, "n != nil: n was nil", render(t, c, binding.Binding{"n": (*node)(nil)}))
}

func TestReprSurvivesPanickingMethods(t *testing.T) {
	l := DefaultLimits()
	assert.Equal(t, "nil", Repr((*node)(nil), l))
	assert.Equal(t, "leaf", Repr(&node{name: "leaf"}, l))
	assert.Equal(t, "%!v(PANIC=Error method: boom)", Repr(brokenError{}, l))
}

func TestReprTruncatesOnRuneBoundary(t *testing.T) {
	got := Repr(strings.Repeat("é", 30), Limits{MaxString: 20})
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, `"`+strings.Repeat("é", 9)+"...", got)
}
