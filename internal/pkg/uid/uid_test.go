package uid

import (
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
)

func TestToken(t *testing.T) {

	t.Run("DefaultEntropy", func(t *testing.T) {

		// Arrange
		gen := NewToken(0)

		// Act
		tok := gen.Generate()

		// Assert
		raw, err := hex.DecodeString(tok)
		if err != nil {
			t.Fatalf("token is not hex: %v", err)
		}
		if len(raw) != DefaultTokenBytes {
			t.Fatalf("expected %d bytes, got %d", DefaultTokenBytes, len(raw))
		}
	})

	t.Run("Unique", func(t *testing.T) {

		// Arrange
		gen := NewToken(DefaultTokenBytes)
		seen := make(map[string]struct{}, 1000)

		// Act & Assert
		for range 1000 {
			tok := gen.Generate()
			if _, dup := seen[tok]; dup {
				t.Fatalf("duplicate token %s", tok)
			}
			seen[tok] = struct{}{}
		}
	})
}

func TestUUID(t *testing.T) {

	// Act
	id := NewUUID().Generate()

	// Assert
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("invalid uuid %q: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected v7, got v%d", parsed.Version())
	}
}
