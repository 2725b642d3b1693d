// Package password hashes account passwords with Argon2id.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports hashes produced with weaker parameters so the
// caller can rehash on the next successful sign-in. Password policy beyond the
// six byte floor is enforced by the identity validator, not here.
package password
