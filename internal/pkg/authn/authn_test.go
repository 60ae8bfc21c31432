package authn

import (
	"context"
	"testing"
)

func TestSessionContext(t *testing.T) {

	t.Run("MissingIsNoToken", func(t *testing.T) {

		// Act
		s := GetSession(context.Background())

		// Assert
		if s.State != NoToken || s.IsAuthenticated() || s.HasToken() {
			t.Fatalf("unexpected session %+v", s)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {

		// Arrange
		ctx := SetSession(context.Background(), Session{State: Authenticated, Email: "u@test.com", Token: "tok"})

		// Act
		s := GetSession(ctx)

		// Assert
		if !s.IsAuthenticated() || s.Email != "u@test.com" || !s.HasToken() {
			t.Fatalf("unexpected session %+v", s)
		}
	})

	t.Run("RejectedIsNotAuthenticated", func(t *testing.T) {

		// Act
		s := Session{State: Rejected, Token: "stale"}

		// Assert
		if s.IsAuthenticated() {
			t.Fatalf("rejected session must not authenticate")
		}
		if s.State.String() != "rejected" {
			t.Fatalf("unexpected state name %q", s.State.String())
		}
	})
}
