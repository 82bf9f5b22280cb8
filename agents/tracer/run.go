/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracer

import (
	"context"
	"errors"
	"fmt"
)

var errExited = errors.New("call exited without returning")

// Run calls fn synchronously as the traced call described by spec. When the
// tracer is stopped, or the toggle for spec's type is off, fn is called
// directly. The result and error of fn are returned unchanged, and a panic
// in fn is recorded and then re-raised.
func Run[T any](ctx context.Context, t *Tracer, spec Spec, fn func(context.Context) (T, error)) (T, error) {
	if spec.site == "" {
		spec.site = funcSite(fn)
	}
	c, ctx := t.begin(ctx, spec)
	if c == nil {
		return fn(ctx)
	}

	completed := false
	defer func() {
		if completed {
			return
		}
		r := recover()
		if r == nil {
			// fn called runtime.Goexit.
			c.finish(outcome{err: errExited})
			return
		}
		c.finish(outcome{err: panicError{value: r}})
		panic(r)
	}()

	out, err := fn(ctx)
	completed = true
	c.finish(outcome{output: out, err: err})
	return out, err
}

// Go starts fn on a new goroutine as the traced call described by spec.
// The component is created, and its parent resolved, before Go returns, so
// the call is attributed to the caller's enclosing agent even if that agent
// returns first. A panic in fn is recorded and re-raised by Await; a call
// that exits through runtime.Goexit is recorded and awaited as an error.
func Go[T any](ctx context.Context, t *Tracer, spec Spec, fn func(context.Context) (T, error)) *Future[T] {
	if spec.site == "" {
		spec.site = funcSite(fn)
	}
	c, ctx := t.begin(ctx, spec)
	f := newFuture[T]()
	go func() {
		defer close(f.done)
		completed := false
		defer func() {
			if completed {
				return
			}
			if r := recover(); r != nil {
				f.panicked = &panicError{value: r}
				f.err = *f.panicked
			} else {
				// fn called runtime.Goexit.
				f.err = errExited
			}
			if c != nil {
				c.finish(outcome{err: f.err})
			}
		}()
		f.value, f.err = fn(ctx)
		completed = true
		if c != nil {
			c.finish(outcome{output: f.value, err: f.err})
		}
	}()
	return f
}

// Spawn runs fn on a new goroutine without tracing it. Calls fn makes are
// still traced against ctx.
func Spawn[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		defer close(f.done)
		completed := false
		defer func() {
			if completed {
				return
			}
			if r := recover(); r != nil {
				f.panicked = &panicError{value: r}
				return
			}
			f.err = errExited
		}()
		f.value, f.err = fn(ctx)
		completed = true
	}()
	return f
}

// Future is the pending result of an asynchronous call.
type Future[T any] struct {
	done     chan struct{}
	value    T
	err      error
	panicked *panicError
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Done is closed when the call has finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await waits for the call and returns its result. If ctx ends first, Await
// returns ctx.Err() and the call keeps running. If the call panicked, Await
// panics with the same value.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	if f.panicked != nil {
		panic(f.panicked.value)
	}
	return f.value, f.err
}

// panicError is the recorded form of a panic in a traced call.
type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

// Unwrap exposes a panicked error value.
func (p panicError) Unwrap() error {
	if err, ok := p.value.(error); ok {
		return err
	}
	return nil
}
