// Package httpapi is the HTTP surface of the check-in server: the guarded
// pages and the auth-flow API under /auth/v1.
package httpapi
