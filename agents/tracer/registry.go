/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracer

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"
)

// Capability is an external operation family whose entry points can be
// intercepted, such as a provider's message API.
type Capability interface {
	// Name identifies the capability in Enable.
	Name() string
	// Install wraps the capability's entry points with tracer and returns
	// one Patch per replaced entry point.
	Install(t *Tracer) ([]Patch, error)
}

// Patch records one replaced entry point so it can be put back.
type Patch struct {
	Target  string
	Member  string
	restore func() error
}

// NewPatch records that target.member was replaced. restore puts the
// original back.
func NewPatch(target, member string, restore func() error) Patch {
	return Patch{Target: target, Member: member, restore: restore}
}

// Restore puts the original entry point back.
func (p Patch) Restore() error {
	if p.restore == nil {
		return fmt.Errorf("%s.%s: original entry point unavailable", p.Target, p.Member)
	}
	return p.restore()
}

// Register makes a capability available to the tracer. If it has been
// enabled and interception is on, it is installed immediately; otherwise
// installation waits for Enable or Start. Registering a name twice replaces the pending capability but
// never an installed one.
func (t *Tracer) Register(ctx context.Context, c Capability) {
	t.regMu.Lock()
	defer t.regMu.Unlock()

	name := c.Name()
	if _, ok := t.installed[name]; ok {
		clog.FromContext(ctx).With("capability", name).
			Warn("Capability already intercepted, ignoring registration")
		return
	}
	if _, ok := t.caps[name]; !ok {
		t.capOrder = append(t.capOrder, name)
	}
	t.caps[name] = c

	if t.live && t.chosen(name) {
		t.install(ctx, name)
	}
}

// chosen must be called with regMu held.
func (t *Tracer) chosen(name string) bool {
	return t.enableAll || t.enabled[name]
}

// Enable installs the named capabilities that are registered and defers the
// rest until they are registered. With no names, every registered and
// future capability is enabled. Installed capabilities are never wrapped
// twice.
func (t *Tracer) Enable(ctx context.Context, names ...string) {
	t.regMu.Lock()
	defer t.regMu.Unlock()

	t.live = true
	if len(names) == 0 {
		t.enableAll = true
		names = t.capOrder
	}
	for _, name := range names {
		t.enabled[name] = true
		if _, ok := t.caps[name]; !ok {
			clog.FromContext(ctx).With("capability", name).
				Debug("Capability not registered yet, deferring interception")
			continue
		}
		t.install(ctx, name)
	}
}

// resume turns interception back on for the chosen capabilities. When
// nothing was ever chosen every capability is enabled.
func (t *Tracer) resume(ctx context.Context) {
	t.regMu.Lock()
	defer t.regMu.Unlock()

	t.live = true
	if !t.enableAll && len(t.enabled) == 0 {
		t.enableAll = true
	}
	for _, name := range t.capOrder {
		if t.chosen(name) {
			t.install(ctx, name)
		}
	}
}

// install must be called with regMu held. Failures are logged and leave the
// capability uninstalled; other capabilities are unaffected.
func (t *Tracer) install(ctx context.Context, name string) {
	if _, ok := t.installed[name]; ok {
		return
	}

	patches, err := safeInstall(t, t.caps[name])
	if err != nil {
		// Undo whatever the capability managed to replace before failing.
		restoreAll(ctx, patches)
		t.installErrs[name] = err
		clog.FromContext(ctx).With("capability", name).
			Error("Failed to intercept capability", "error", err)
		return
	}
	delete(t.installErrs, name)
	t.installed[name] = patches
	clog.FromContext(ctx).With("capability", name).
		With("entry_points", len(patches)).
		Info("Capability intercepted")
}

func safeInstall(t *Tracer, c Capability) (patches []Patch, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("install panicked: %v", r)
		}
	}()
	return c.Install(t)
}

// DisableAll restores every intercepted entry point and turns interception
// off until the next Enable or Start. The chosen set is kept for that
// Start. A failed restore is logged and does not stop the others.
func (t *Tracer) DisableAll(ctx context.Context) {
	t.regMu.Lock()
	defer t.regMu.Unlock()

	for name, patches := range t.installed {
		if n := restoreAll(ctx, patches); n > 0 {
			clog.FromContext(ctx).With("capability", name).
				With("failures", n).
				Warn("Some entry points could not be restored")
		}
		delete(t.installed, name)
	}
	t.live = false
}

func restoreAll(ctx context.Context, patches []Patch) int {
	var failures int
	for _, p := range patches {
		if err := safeRestore(p); err != nil {
			failures++
			clog.FromContext(ctx).With("target", p.Target).
				With("member", p.Member).
				Warn("Failed to restore entry point", "error", err)
		}
	}
	return failures
}

func safeRestore(p Patch) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("restore panicked: %v", r)
		}
	}()
	return p.Restore()
}

// Installed reports whether the named capability is currently intercepted.
func (t *Tracer) Installed(name string) bool {
	t.regMu.Lock()
	defer t.regMu.Unlock()
	_, ok := t.installed[name]
	return ok
}

// InstallError returns why the named capability could not be intercepted,
// or nil.
func (t *Tracer) InstallError(name string) error {
	t.regMu.Lock()
	defer t.regMu.Unlock()
	return t.installErrs[name]
}

// ErrEntryPointReplaced is returned by a restore when the entry point was
// replaced again after interception, so the original cannot be put back
// safely.
var ErrEntryPointReplaced = errors.New("entry point replaced since interception")
