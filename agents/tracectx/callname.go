/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracectx

import (
	"context"
	"sync/atomic"
)

// CallName is the logical name a caller gave to an llm call whose entry point
// is dispatched dynamically and cannot see the caller's name itself.
type CallName struct {
	Name     string
	observed atomic.Int64
}

type callNameKey struct{}

// WithCallName returns a context in which intercepted llm calls are named name.
func WithCallName(ctx context.Context, name string) (context.Context, *CallName) {
	cn := &CallName{Name: name}
	return context.WithValue(ctx, callNameKey{}, cn), cn
}

// CallNameFrom returns the logical call name in effect, or nil.
func CallNameFrom(ctx context.Context) *CallName {
	if cn, ok := ctx.Value(callNameKey{}).(*CallName); ok {
		return cn
	}
	return nil
}

// Observe records that an intercepted call used the name and returns it.
func (c *CallName) Observe() string {
	c.observed.Add(1)
	return c.Name
}

// Observed reports how many intercepted calls used the name.
func (c *CallName) Observed() int64 {
	return c.observed.Load()
}
