// Package context holds the request-scoped values shared between transport
// middleware, services and the logger.
package context

import "context"

// key is a typed context key; the type parameter ties each key to the type
// of value stored under it.
type key[T any] struct{ name string }

func (k key[T]) with(ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, k, v)
}

func (k key[T]) from(ctx context.Context) (T, bool) {
	v, ok := ctx.Value(k).(T)

	return v, ok
}
