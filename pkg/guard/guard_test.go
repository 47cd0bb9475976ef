package guard

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnterIsScopedToDerivedContext(t *testing.T) {
	root := context.Background()
	a, b := new(int), new(int)

	inner := Enter(root, a)
	assert.True(t, Active(inner, a))
	assert.False(t, Active(inner, b))
	assert.False(t, Active(root, a), "parent context is untouched")

	both := Enter(inner, b)
	assert.True(t, Active(both, a))
	assert.True(t, Active(both, b))
	assert.Equal(t, 2, Depth(both))
	assert.Equal(t, 0, Depth(root))
}

func TestGoroutinesDoNotShareKeys(t *testing.T) {
	key := new(int)
	root := context.Background()

	var wg sync.WaitGroup
	seen := make([]bool, 8)
	for i := range seen {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := root
			if i%2 == 0 {
				ctx = Enter(ctx, key)
			}
			seen[i] = Active(ctx, key)
		}(i)
	}
	wg.Wait()

	for i, s := range seen {
		assert.Equal(t, i%2 == 0, s, "goroutine %d", i)
	}
}

func TestDetachDropsKeys(t *testing.T) {
	type traceKey struct{}
	key := new(int)
	root := context.WithValue(context.Background(), traceKey{}, "trace-1")
	inner := Enter(root, key)

	detached := Detach(inner)
	assert.False(t, Active(detached, key))
	assert.Equal(t, 0, Depth(detached))
	assert.Equal(t, "trace-1", detached.Value(traceKey{}), "other values survive")
	assert.True(t, Active(inner, key), "the original context is untouched")
	assert.Equal(t, root, Detach(root))
}
