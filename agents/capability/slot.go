/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package capability

import (
	"context"
	"sync"

	"chainguard.dev/spantree/agents/tracer"
)

// Slot holds the current implementation of one entry point.
type Slot[Req, Resp any] struct {
	mu  sync.RWMutex
	fn  func(context.Context, Req) (Resp, error)
	gen uint64
}

// NewSlot creates a slot calling fn.
func NewSlot[Req, Resp any](fn func(context.Context, Req) (Resp, error)) *Slot[Req, Resp] {
	return &Slot[Req, Resp]{fn: fn}
}

// Call invokes the current implementation synchronously.
func (s *Slot[Req, Resp]) Call(ctx context.Context, req Req) (Resp, error) {
	s.mu.RLock()
	fn := s.fn
	s.mu.RUnlock()
	return fn(ctx, req)
}

// Go invokes the current implementation on a new goroutine.
func (s *Slot[Req, Resp]) Go(ctx context.Context, req Req) *tracer.Future[Resp] {
	return tracer.Spawn(ctx, func(ctx context.Context) (Resp, error) {
		return s.Call(ctx, req)
	})
}

// swap installs wrap(current) and returns a function that puts current back.
func (s *Slot[Req, Resp]) swap(wrap func(func(context.Context, Req) (Resp, error)) func(context.Context, Req) (Resp, error)) func() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orig := s.fn
	s.fn = wrap(orig)
	s.gen++
	installed := s.gen

	restored := false
	return func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if restored {
			return nil
		}
		if s.gen != installed {
			return tracer.ErrEntryPointReplaced
		}
		s.fn = orig
		s.gen = installed - 1
		restored = true
		return nil
	}
}
