/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package tracectx carries the per-call-chain tracing state through
context.Context: the enclosing agent frame, the component currently running,
and the logical name a caller gave to a dynamically dispatched llm call.

Values are only ever attached to derived contexts, so concurrent call chains
that start from distinct contexts never observe each other's state.

	ctx, frame := tracectx.WithAgent(ctx, agentID)
	// ... calls made with ctx have parent agentID ...
	children := frame.Close()
*/
package tracectx
