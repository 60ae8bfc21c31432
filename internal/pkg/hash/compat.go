package hash

import "strings"

// Compat verifies any of the stored password formats this service accepts and
// hashes new passwords with the werkzeug scrypt format.
type Compat struct {
	werkzeug Hash
	bcrypt   Hash
	argon2id Hash
}

// NewCompat builds a Compat from the individual hashers. A nil hasher disables
// its format.
func NewCompat(werkzeug, bcrypt, argon2id Hash) *Compat {
	return &Compat{werkzeug: werkzeug, bcrypt: bcrypt, argon2id: argon2id}
}

// Hash hashes with the werkzeug format.
func (c *Compat) Hash(plaintext string) ([]byte, error) {
	return c.werkzeug.Hash(plaintext)
}

// Verify dispatches on the hash prefix. Unknown formats never verify.
func (c *Compat) Verify(hashed, plaintext string) bool {
	if hashed == "" {
		return false
	}

	var h Hash
	switch {
	case strings.HasPrefix(hashed, "$2a$"), strings.HasPrefix(hashed, "$2b$"), strings.HasPrefix(hashed, "$2y$"):
		h = c.bcrypt
	case strings.HasPrefix(hashed, "$argon2id$"):
		h = c.argon2id
	case IsWerkzeug(hashed):
		h = c.werkzeug
	}

	if h == nil {
		return false
	}
	return h.Verify(hashed, plaintext)
}
