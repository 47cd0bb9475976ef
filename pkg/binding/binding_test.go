package binding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/dbc/pkg/errs"
)

func TestResolveOrder(t *testing.T) {
	sig := Params("x", "y").WithDefault("y", 5).WithDefault("z", 7)

	b, err := Resolve(sig, Args(1).With("z", 9))
	require.NoError(t, err)

	assert.Equal(t, 1, b["x"], "positional argument mapped by position")
	assert.Equal(t, 5, b["y"], "default value")
	assert.Equal(t, 9, b["z"], "keyword wins over default")
	assert.Equal(t, []any{1}, b[AllArgs])
	assert.Equal(t, map[string]any{"z": 9}, b[AllKwargs])
}

func TestResolveKeywordOverridesPositional(t *testing.T) {
	b, err := Resolve(Params("x"), Call{Args: []any{1}, Kwargs: map[string]any{"x": 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, b["x"])
}

func TestResolveCapturesExtraPositionalVerbatim(t *testing.T) {
	b, err := Resolve(Params("x"), Args(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, b[AllArgs])
	_, ok := b["y"]
	assert.False(t, ok)
}

func TestResolveRejectsPlaceholders(t *testing.T) {
	for _, name := range []string{AllArgs, AllKwargs} {
		_, err := Resolve(Params("x"), Kw(name, 1))
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrArgumentResolution)
		assert.Contains(t, err.Error(), name)
	}
}

func TestSelect(t *testing.T) {
	full := Binding{"x": 1, "y": 2, AllArgs: []any{1}}

	sub, err := Select([]string{"x"}, full, "")
	require.NoError(t, err)
	assert.Equal(t, Binding{"x": 1}, sub)

	_, err = Select([]string{"x", "q", "w"}, full, "cond.go:12")
	var are *errs.ArgumentResolutionError
	require.True(t, errors.As(err, &are))
	assert.Equal(t, []string{"q", "w"}, are.Missing)
	assert.Contains(t, err.Error(), `"q"`)
	assert.Contains(t, err.Error(), "cond.go:12")
}

func TestSelectHintsAtSnapshotsForOld(t *testing.T) {
	_, err := Select([]string{Old}, Binding{}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot")
}

func TestDefaultedParamIsNotMissing(t *testing.T) {
	b, err := Resolve(Params("x").WithDefault("y", 5), Args(1))
	require.NoError(t, err)
	_, err = Select([]string{"x", "y"}, b, "")
	assert.NoError(t, err)
}

func TestWithDoesNotAlias(t *testing.T) {
	base := Kw("a", 1)
	derived := base.With("b", 2)
	assert.Len(t, base.Kwargs, 1)
	assert.Len(t, derived.Kwargs, 2)
}

func TestOld(t *testing.T) {
	old := NewOld(map[string]any{"lst": []int{1}})
	v, err := old.Get("lst")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, v)

	_, err = old.Get("missing")
	assert.ErrorContains(t, err, `"missing"`)
	assert.Equal(t, []string{"lst"}, old.Names())
	assert.Equal(t, "a bunch of OLD values", old.String())
}

func TestTypedAccessors(t *testing.T) {
	b := Binding{"x": 3, "s": "hi"}
	assert.Equal(t, 3, Get[int](b, "x"))
	assert.Equal(t, "", Get[string](b, "x"))
	_, ok := Lookup[int](b, "nope")
	assert.False(t, ok)
}
