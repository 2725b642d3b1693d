// Package checkin is the identity provider behind the check-in application.
//
// It owns institution-restricted accounts, the one-time code that confirms a
// new address, and the signed session tokens that the route guard resolves on
// every request. Engine methods are safe for concurrent use after
// [Builder.Build].
//
// # Architecture boundaries
//
// checkin is the public surface. It exposes [Engine], [Builder], [Config] and
// the value types returned to callers ([User], [Session]). Redis records,
// limiters, randomness and audit dispatch live under internal/ and are never
// exported.
//
// # Errors
//
// Every user-facing failure is a [*ProviderError] whose Message is safe to show
// verbatim. [ErrUnavailable] and other plain errors mean a backend fault and
// must be rendered as a generic message.
package checkin
