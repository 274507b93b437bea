// Copyright (c) VoiceGate Authors.
// Licensed under the MIT License.

/*
Package engine implements the protocol engine: the per-session state
machine that owns a realtime session's lifecycle.

Each connection gets one session loop. The loop redeems the client
secret, emits session.created and rate_limits.updated, then consumes
inbound protocol events strictly sequentially, which by construction
yields the per-session outbound ordering guarantees. The engine is the
sole writer to session state and the sole caller into the codec layer,
rate limiter, conversation store, and function-call engine.

States: AwaitingSecret -> Created -> Active -> Closed (terminal).
Multiple sessions run concurrently and independently; no lock is
shared across sessions on the steady-state path.
*/
package engine
