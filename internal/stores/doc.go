// Package stores provides the Redis-backed records the checkin engine owns:
// identity records (email, password hash, profile names, confirmation flag)
// and short-lived one-time code challenges.
//
// # Design
//
// Each store persists a versioned, binary-encoded record. Identity records are
// created with SETNX so duplicate registrations are detected atomically, and
// confirmation uses a WATCH/MULTI optimistic transaction with retry. Challenge
// records carry a TTL and are consumed by a Lua script that checks expiry,
// compares the code hash, counts failed attempts and deletes the record on
// success or once the attempt cap is reached.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control only. It does NOT
// generate codes, enforce rate limits or decide what a failure means to the
// caller; the engine in the root package does.
//
// # What this package must NOT do
//
//   - Import checkin or any sibling internal package.
//   - Log or store plaintext codes or passwords.
//   - Use non-constant-time comparisons for secret matching.
package stores
