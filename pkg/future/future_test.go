package future

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoAwait(t *testing.T) {
	f := Go(func() (int, error) { return 42, nil })
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, f.Done())

	// A resolved future can be awaited again.
	v, err = f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestFailed(t *testing.T) {
	boom := errors.New("boom")
	_, err := Failed[string](boom).Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestAwaitHonorsContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	f := Go(func() (int, error) {
		<-block
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestThen(t *testing.T) {
	ctx := context.Background()
	f := Then(ctx, Resolved(20), func(v int) (string, error) {
		if v > 10 {
			return "big", nil
		}
		return "small", nil
	})
	v, err := f.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "big", v)
}

func TestAwaitAny(t *testing.T) {
	var a Awaitable = Resolved(true)
	v, err := a.AwaitAny(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, v)
}
