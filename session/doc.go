// Package session provides Redis-backed session persistence and a compact
// binary session encoding.
//
// A session token (see the jwt package) names a SessionID; the record stored
// here is what makes the token live. Deleting it is sign-out.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Session] model. It does NOT
// interpret tokens or decide who may sign in; the Engine does.
//
// # What this package must NOT do
//
//   - Import checkin or jwt (no upward imports).
//   - Store plaintext secrets in [Session] fields.
package session
