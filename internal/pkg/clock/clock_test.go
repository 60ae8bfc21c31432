package clock

import (
	"testing"
	"time"
)

func TestManual(t *testing.T) {

	// Arrange
	start := time.Unix(59, 0).UTC()
	c := NewManual(start)

	// Act
	c.Advance(30 * time.Second)

	// Assert
	if got := c.Now(); !got.Equal(start.Add(30 * time.Second)) {
		t.Fatalf("expected %v, got %v", start.Add(30*time.Second), got)
	}

	c.Set(start)
	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("expected %v after Set, got %v", start, got)
	}
}
