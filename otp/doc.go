// Package otp implements the reducer behind the eight-cell confirmation code
// entry: per-cell input, backspace navigation and whole-code paste, together
// with the completeness rule that decides when a code is auto-submitted.
//
// The reducer only decides; it never calls a provider. Callers (see the
// verification package) act on the Submit flag of the returned Event.
package otp
