/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package capability exposes provider SDK entry points as swappable slots
// so the tracer can intercept them without the SDK's cooperation.
//
// Application code calls providers through a capability instead of the
// client directly:
//
//	claude := capability.Anthropic(anthropic.NewClient())
//	t.Register(ctx, claude)
//
//	msg, err := claude.Messages.Call(ctx, params)
//
// While the capability is enabled on a running tracer, every call through
// its slots records an llm component. Otherwise calls go straight to the
// client.
package capability
