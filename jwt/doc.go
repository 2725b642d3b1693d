// Package jwt issues and verifies the signed session tokens carried by the
// session cookie, using Ed25519 or HS256 keys with strict algorithm, key id,
// issuer, audience and time-claim checks.
package jwt
