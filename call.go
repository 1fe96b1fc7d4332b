package drivekit

import (
	"context"
	"fmt"
	"reflect"
)

// callResult is implemented by every *Call[T]. The proxy uses it to bind an
// execution to a Call of a type it only knows through reflection.
type callResult interface {
	bind(exec func(ctx context.Context) (any, error), method string)
	resultType() reflect.Type
}

// Call is a cold, deferred storage operation producing a T. Nothing runs
// until Get or Subscribe; each of them runs one fresh execution.
type Call[T any] struct {
	method string
	exec   func(ctx context.Context) (any, error)
}

// NewCall returns a Call backed by fn. It is mostly useful for stubbing
// service fields in tests.
func NewCall[T any](fn func(ctx context.Context) (T, error)) *Call[T] {
	return &Call[T]{exec: func(ctx context.Context) (any, error) {
		return fn(ctx)
	}}
}

func (c *Call[T]) bind(exec func(ctx context.Context) (any, error), method string) {
	c.exec = exec
	c.method = method
}

func (c *Call[T]) resultType() reflect.Type {
	return reflect.TypeFor[T]()
}

// Get executes the call and waits for its single value or error. A context
// that is already done prevents the backend call.
func (c *Call[T]) Get(ctx context.Context) (T, error) {
	var zero T
	if c == nil || c.exec == nil {
		return zero, fmt.Errorf("%w: call is not bound to a method", ErrInvalidService)
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	v, err := c.exec(ctx)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s produced %T, want %v", ErrResultType, c.method, v, reflect.TypeFor[T]())
	}
	return t, nil
}

// Result is the single outcome delivered by Subscribe.
type Result[T any] struct {
	Value T
	Err   error
}

// Subscribe runs the call on s and returns a channel that yields exactly one
// Result and is then closed. A nil scheduler runs the call immediately.
func (c *Call[T]) Subscribe(ctx context.Context, s Scheduler) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	if s == nil {
		s = Immediate
	}
	s.Schedule(func() {
		v, err := c.Get(ctx)
		ch <- Result[T]{Value: v, Err: err}
		close(ch)
	})
	return ch
}
