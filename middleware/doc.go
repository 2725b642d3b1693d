// Package middleware is the route guard of the check-in application.
//
// [Guard] runs on every request before any page handler. It resolves the
// session token once, applies the decision table in [Decide] and either
// redirects or passes the request on with the principal attached to its
// context. Pages read the principal with [UserFromContext] and never
// re-derive authorization themselves.
//
// [RequireSession] is the JSON variant used by API endpoints.
package middleware
