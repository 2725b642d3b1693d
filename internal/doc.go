// Package internal contains helper utilities that are private to the checkin
// engine: session identifiers, one-time code generation and code hashing.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - bootstrap: runtime assembly and graceful serving for the binaries
//   - config: layered runtime configuration for the binaries
//   - httpapi: chi router for the check-in application
//   - limiters: fixed-window throttles and sign-in lockout
//   - logging: zerolog logger construction
//   - stores: Redis identity and OTP challenge records
//
// # What this package must NOT do
//
//   - Export types that appear in the public checkin API.
//   - Be imported by any package outside the checkin module.
package internal
