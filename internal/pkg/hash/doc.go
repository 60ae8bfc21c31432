// Package hash provides helpers for hashing and verifying secrets.
//
// Stored passwords come from more than one producer, so Compat picks the
// verifier from the encoded hash itself: werkzeug "pbkdf2:" and "scrypt:"
// strings, bcrypt "$2a$"/"$2b$"/"$2y$" and "$argon2id$". HMACSHA256 is used for
// short, non-reversible fingerprints of tokens that must never be logged.
package hash
