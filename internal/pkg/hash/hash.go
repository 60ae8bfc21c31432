package hash

// Hash produces and checks password or token digests.
type Hash interface {
	// Hash returns the encoded digest of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches the encoded digest.
	Verify(hashed, str string) bool
}
