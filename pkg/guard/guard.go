// Package guard tracks which checks are in progress along a call chain.
//
// The in-progress set lives in the context. Entering a key derives a new
// context; leaving is dropping that context, so a key is released on every
// return path, and goroutines that do not share a context never see each
// other's keys.
//
// A goroutine started from a checked body inherits the body's context and
// with it the keys in progress. Pass it Detach(ctx) so its own calls are
// checked.
package guard

import "context"

type ctxKey struct{}

// set is an immutable linked list of active keys. Chains are short: one
// entry per nested checked call.
type set struct {
	key  any
	next *set
}

// Active reports whether key is in progress in ctx.
func Active(ctx context.Context, key any) bool {
	s, _ := ctx.Value(ctxKey{}).(*set)
	for ; s != nil; s = s.next {
		if s.key == key {
			return true
		}
	}
	return false
}

// Enter returns a context in which key is in progress. ctx is unchanged. key
// must be comparable; checkers use their own pointers.
func Enter(ctx context.Context, key any) context.Context {
	s, _ := ctx.Value(ctxKey{}).(*set)
	return context.WithValue(ctx, ctxKey{}, &set{key: key, next: s})
}

// Depth returns the number of keys in progress in ctx.
func Depth(ctx context.Context) int {
	n := 0
	s, _ := ctx.Value(ctxKey{}).(*set)
	for ; s != nil; s = s.next {
		n++
	}
	return n
}

// Detach returns a context carrying the values, deadline and cancellation of
// ctx but no keys in progress.
func Detach(ctx context.Context) context.Context {
	if s, _ := ctx.Value(ctxKey{}).(*set); s == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, (*set)(nil))
}
