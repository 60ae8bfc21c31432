package hash

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // pbkdf2:sha1 hashes exist in the wild
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	stdhash "hash"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

const (
	werkzeugSaltChars      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	werkzeugSaltLength     = 16
	werkzeugPBKDF2Iter     = 600000
	werkzeugScryptN        = 1 << 15
	werkzeugScryptR        = 8
	werkzeugScryptP        = 1
	werkzeugScryptKeyBytes = 64
)

// Werkzeug reads and writes the "method$salt$hexdigest" password format.
//
// Supported methods: "pbkdf2[:algo[:iterations]]" with sha1, sha256 or sha512
// and "scrypt[:N:r:p]". New hashes use scrypt with werkzeug's defaults.
type Werkzeug struct{}

// NewWerkzeug returns a werkzeug compatible hasher.
func NewWerkzeug() *Werkzeug {
	return &Werkzeug{}
}

// Hash returns "scrypt:32768:8:1$<salt>$<hex>" for plaintext.
func (w *Werkzeug) Hash(plaintext string) ([]byte, error) {
	salt, err := werkzeugSalt()
	if err != nil {
		return nil, err
	}

	key, err := scrypt.Key([]byte(plaintext), []byte(salt), werkzeugScryptN, werkzeugScryptR, werkzeugScryptP, werkzeugScryptKeyBytes)
	if err != nil {
		return nil, err
	}

	method := "scrypt:" + strconv.Itoa(werkzeugScryptN) + ":" + strconv.Itoa(werkzeugScryptR) + ":" + strconv.Itoa(werkzeugScryptP)
	return []byte(method + "$" + salt + "$" + hex.EncodeToString(key)), nil
}

// Verify reports whether plaintext matches a werkzeug encoded hash.
func (w *Werkzeug) Verify(hashed, plaintext string) bool {
	method, rest, ok := strings.Cut(hashed, "$")
	if !ok {
		return false
	}
	salt, digest, ok := strings.Cut(rest, "$")
	if !ok || salt == "" {
		return false
	}

	expected, err := hex.DecodeString(digest)
	if err != nil || len(expected) == 0 {
		return false
	}

	computed, ok := werkzeugDerive(method, []byte(plaintext), []byte(salt), len(expected))
	if !ok {
		return false
	}

	return subtle.ConstantTimeCompare(expected, computed) == 1
}

// IsWerkzeug reports whether hashed looks like a werkzeug encoded hash.
func IsWerkzeug(hashed string) bool {
	return strings.HasPrefix(hashed, "pbkdf2") || strings.HasPrefix(hashed, "scrypt")
}

func werkzeugDerive(method string, password, salt []byte, keyLen int) ([]byte, bool) {
	parts := strings.Split(method, ":")
	switch parts[0] {
	case "pbkdf2":
		algo := "sha256"
		iter := werkzeugPBKDF2Iter
		if len(parts) > 1 {
			algo = parts[1]
		}
		if len(parts) > 2 {
			n, err := strconv.Atoi(parts[2])
			if err != nil || n < 1 {
				return nil, false
			}
			iter = n
		}
		if len(parts) > 3 {
			return nil, false
		}

		h, size := werkzeugDigest(algo)
		if h == nil || keyLen != size {
			return nil, false
		}
		return pbkdf2.Key(password, salt, iter, keyLen, h), true

	case "scrypt":
		n, r, p := werkzeugScryptN, werkzeugScryptR, werkzeugScryptP
		if len(parts) == 4 {
			var err error
			if n, err = strconv.Atoi(parts[1]); err != nil {
				return nil, false
			}
			if r, err = strconv.Atoi(parts[2]); err != nil {
				return nil, false
			}
			if p, err = strconv.Atoi(parts[3]); err != nil {
				return nil, false
			}
		} else if len(parts) != 1 {
			return nil, false
		}

		key, err := scrypt.Key(password, salt, n, r, p, keyLen)
		if err != nil {
			return nil, false
		}
		return key, true

	default:
		return nil, false
	}
}

func werkzeugDigest(algo string) (func() stdhash.Hash, int) {
	switch algo {
	case "sha1":
		return sha1.New, sha1.Size
	case "sha256":
		return sha256.New, sha256.Size
	case "sha512":
		return sha512.New, sha512.Size
	default:
		return nil, 0
	}
}

func werkzeugSalt() (string, error) {
	var b strings.Builder
	b.Grow(werkzeugSaltLength)
	limit := big.NewInt(int64(len(werkzeugSaltChars)))
	for range werkzeugSaltLength {
		i, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(werkzeugSaltChars[i.Int64()])
	}
	return b.String(), nil
}
