/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNoScorer is returned when no scorer is registered for a provider.
var ErrNoScorer = errors.New("no scorer registered")

// Router dispatches requests to scorers by provider name.
type Router struct {
	mu       sync.RWMutex
	scorers  map[string]Scorer
	fallback Scorer
}

var _ Scorer = (*Router)(nil)

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{scorers: make(map[string]Scorer)}
}

// Register routes requests for provider to s. Provider names are case
// insensitive.
func (r *Router) Register(provider string, s Scorer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scorers[strings.ToLower(provider)] = s
}

// SetFallback routes requests for unregistered providers to s.
func (r *Router) SetFallback(s Scorer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = s
}

// Score implements Scorer.
func (r *Router) Score(ctx context.Context, req *Request) (*Result, error) {
	r.mu.RLock()
	s, ok := r.scorers[strings.ToLower(req.Provider)]
	if !ok {
		s = r.fallback
	}
	r.mu.RUnlock()

	if s == nil {
		return nil, fmt.Errorf("%w for provider %q", ErrNoScorer, req.Provider)
	}
	return s.Score(ctx, req)
}
