/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package spanattrs holds caller-declared attributes for calls of a given
// logical name. Attributes are registered ahead of a call and consumed
// exactly once by the next matching call.
package spanattrs

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"

	"chainguard.dev/spantree/agents/agenttrace"
)

// LocalMetric requests that a metric be scored for the next matching call.
type LocalMetric struct {
	Name     string
	Model    string
	Provider string
	// Threshold bounds; nil means unbounded.
	LTE *float64
	GTE *float64
}

// Feedback is free-form end-user feedback attached to a call.
type Feedback struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment,omitempty"`
}

// Snapshot is the consumed state of one name.
type Snapshot struct {
	Tags          []string
	Metadata      map[string]any
	Metrics       []agenttrace.Metric
	LocalMetrics  []LocalMetric
	GroundTruth   any
	Context       string
	Feedback      []Feedback
	HasAttributes bool
}

// Attributes accumulates the attributes for one name.
type Attributes struct {
	mu       sync.Mutex
	snap     Snapshot
	consumed bool
}

// ErrConsumed is returned when attributes are added through a handle whose
// call has already consumed them.
var ErrConsumed = errors.New("span attributes already consumed")

// Consumed reports whether a call has taken these attributes. Later writes
// through this handle are ignored; fetch a fresh one with Registry.Span.
func (a *Attributes) Consumed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.consumed
}

// AddTags appends tags, skipping duplicates.
func (a *Attributes) AddTags(tags ...string) *Attributes {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.consumed {
		return a
	}
	for _, tag := range tags {
		if tag != "" && !slices.Contains(a.snap.Tags, tag) {
			a.snap.Tags = append(a.snap.Tags, tag)
		}
	}
	a.snap.HasAttributes = true
	return a
}

// AddMetadata merges md into the metadata.
func (a *Attributes) AddMetadata(md map[string]any) *Attributes {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.consumed {
		return a
	}
	if a.snap.Metadata == nil {
		a.snap.Metadata = make(map[string]any, len(md))
	}
	maps.Copy(a.snap.Metadata, md)
	a.snap.HasAttributes = true
	return a
}

// ErrInvalidMetric is returned for metrics without a name or a finite score.
var ErrInvalidMetric = errors.New("invalid metric")

// AddMetrics attaches caller-scored metrics. Nothing is added if any metric
// is invalid.
func (a *Attributes) AddMetrics(metrics ...agenttrace.Metric) error {
	for _, m := range metrics {
		if m.Name == "" {
			return fmt.Errorf("%w: name is required", ErrInvalidMetric)
		}
		if math.IsNaN(m.Score) || math.IsInf(m.Score, 0) {
			return fmt.Errorf("%w: %s has non-finite score %v", ErrInvalidMetric, m.Name, m.Score)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.consumed {
		return ErrConsumed
	}
	for _, m := range metrics {
		if m.Source == "" {
			m.Source = "user"
		}
		a.snap.Metrics = append(a.snap.Metrics, m)
	}
	a.snap.HasAttributes = true
	return nil
}

// AddLocalMetric requests scoring of a metric for the next matching call.
func (a *Attributes) AddLocalMetric(m LocalMetric) error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMetric)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.consumed {
		return ErrConsumed
	}
	a.snap.LocalMetrics = append(a.snap.LocalMetrics, m)
	a.snap.HasAttributes = true
	return nil
}

// AddGroundTruth sets the expected output.
func (a *Attributes) AddGroundTruth(gt any) *Attributes {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.consumed {
		return a
	}
	a.snap.GroundTruth = gt
	a.snap.HasAttributes = true
	return a
}

// AddContext sets the retrieval or background context.
func (a *Attributes) AddContext(text string) *Attributes {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.consumed {
		return a
	}
	a.snap.Context = text
	a.snap.HasAttributes = true
	return a
}

// AddFeedback appends end-user feedback.
func (a *Attributes) AddFeedback(f Feedback) *Attributes {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.consumed {
		return a
	}
	a.snap.Feedback = append(a.snap.Feedback, f)
	a.snap.HasAttributes = true
	return a
}

// Registry maps logical names to their pending attributes.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Attributes
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Attributes)}
}

// Span returns the pending attributes for name, creating them on first use.
// The handle is only good until the next call named name consumes it; after
// that its writes are dropped and AddMetrics and AddLocalMetric return
// ErrConsumed.
func (r *Registry) Span(name string) *Attributes {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.entries[name]
	if !ok {
		a = &Attributes{}
		r.entries[name] = a
	}
	return a
}

// Consume returns the pending attributes for name and resets the entry to a
// fresh empty one. Names with nothing registered yield a zero Snapshot.
func (r *Registry) Consume(name string) Snapshot {
	r.mu.Lock()
	a, ok := r.entries[name]
	if ok {
		r.entries[name] = &Attributes{}
	}
	r.mu.Unlock()

	if !ok {
		return Snapshot{}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.consumed = true
	return a.snap
}

// Reset drops every pending entry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
}
