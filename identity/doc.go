// Package identity holds the pure predicates that gate registration input:
// the institutional email-domain rule, the password policy and the name
// format rule, plus name-casing normalization.
//
// The same functions back client-side fast-fail checks (the verification
// package) and the authoritative server-side re-validation (the provision
// package and the engine's SignUp).
//
// # What this package must NOT do
//
//   - Perform I/O or keep state beyond the immutable Validator.
//   - Import checkin or any sibling package.
package identity
