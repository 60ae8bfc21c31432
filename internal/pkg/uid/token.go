package uid

import (
	"crypto/rand"
	"encoding/hex"
)

// DefaultTokenBytes is the entropy of a session token: 256 bits.
const DefaultTokenBytes = 32

// Token generates opaque, hex encoded random tokens from crypto/rand.
type Token struct {
	size int
}

// NewToken returns a generator producing tokens of size random bytes.
// Sizes below 16 bytes (128 bits) are raised to DefaultTokenBytes.
func NewToken(size int) *Token {
	if size < 16 {
		size = DefaultTokenBytes
	}
	return &Token{size: size}
}

// Generate returns a fresh token. crypto/rand.Read never fails on supported
// platforms; it crashes the program instead of returning a weak token.
func (t *Token) Generate() string {
	b := make([]byte, t.size)
	//nolint:errcheck // documented to never return an error
	rand.Read(b)
	return hex.EncodeToString(b)
}
