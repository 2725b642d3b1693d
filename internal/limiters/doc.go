// Package limiters provides the Redis-backed throttles used by the checkin
// engine.
//
// # Limiters
//
//   - [OTPLimiter]: fixed windows per email and per IP for signup, resend and verify.
//   - [LockoutLimiter]: failed password sign-in counter with a lock threshold.
//
// All limiters are nil-safe: calling any method on a nil receiver returns nil.
//
// # Architecture boundaries
//
// Each limiter owns its own Redis key namespace and error types. Policy thresholds
// come from Config structs supplied at construction time.
//
// # What this package must NOT do
//
//   - Import checkin or any sibling internal package.
//   - Make policy decisions beyond counting; the engine decides consequences.
package limiters
