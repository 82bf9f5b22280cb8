/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracectx

import (
	"context"
	"sync"

	"chainguard.dev/spantree/agents/agenttrace"
)

// Frame is an enclosing agent call. It collects the components that finish
// while the agent is running.
type Frame struct {
	ID     string
	parent *Frame

	mu       sync.Mutex
	children []*agenttrace.Component
	closed   bool
}

type frameKey struct{}

// WithAgent returns a context in which id is the current agent, along with
// the frame that will accumulate its children.
func WithAgent(ctx context.Context, id string) (context.Context, *Frame) {
	f := &Frame{
		ID:     id,
		parent: CurrentAgent(ctx),
	}
	return context.WithValue(ctx, frameKey{}, f), f
}

// CurrentAgent returns the nearest enclosing agent frame, or nil at the root.
func CurrentAgent(ctx context.Context) *Frame {
	if f, ok := ctx.Value(frameKey{}).(*Frame); ok {
		return f
	}
	return nil
}

// ParentID returns the id of the nearest enclosing agent, or nil at the root.
func ParentID(ctx context.Context) *string {
	f := CurrentAgent(ctx)
	if f == nil {
		return nil
	}
	id := f.ID
	return &id
}

// Parent returns the frame enclosing f, or nil.
func (f *Frame) Parent() *Frame {
	return f.parent
}

// Ancestors returns the chain of agent ids from the root to f.
func (f *Frame) Ancestors() []string {
	var ids []string
	for cur := f; cur != nil; cur = cur.parent {
		ids = append(ids, cur.ID)
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids
}

// Adopt appends a finished child. It returns false once the frame has been
// closed, in which case the caller owns the orphaned component.
func (f *Frame) Adopt(c *agenttrace.Component) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.children = append(f.children, c)
	return true
}

// Close seals the frame and returns its children in completion order.
// Subsequent calls return nil.
func (f *Frame) Close() []*agenttrace.Component {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	children := f.children
	f.children = nil
	return children
}
