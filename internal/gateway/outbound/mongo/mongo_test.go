package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdash/internal/pkg/instrument"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func newTestDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	if testing.Short() {
		t.Skip("mongodb container test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := mongodb.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start mongodb: %v", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("uri: %v", err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return client.Database("otpdash")
}

func TestMongo(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	store := NewMongo(db, instrument.NewNoop())

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	if _, err := db.Collection(collUsers).InsertOne(ctx, bson.D{
		{Key: "email", Value: "U@Test.com"},
		{Key: "password", Value: "hash"},
	}); err != nil {
		t.Fatalf("seed users: %v", err)
	}
	if _, err := db.Collection(collAuthData).InsertMany(ctx, []any{
		bson.D{{Key: "ID", Value: "a@x.com"}, {Key: "email", Value: "a@x.com"}, {Key: "OTP_Secret", Value: "JBSWY3DPEHPK3PXP"}},
		bson.D{{Key: "ID", Value: "b@x.com"}, {Key: "email", Value: "b@x.com"}, {Key: "OTP_Secret", Value: "JBSWY3DPEHPK3PXP"}},
		bson.D{{Key: "ID", Value: "ab@x.com"}, {Key: "email", Value: "AB@x.com"}},
		bson.D{{Key: "ID", Value: "dot@x.com"}, {Key: "email", Value: "a.b@x.com"}},
	}); err != nil {
		t.Fatalf("seed auth data: %v", err)
	}

	t.Run("FindUserByEmailIgnoresCase", func(t *testing.T) {

		// Act
		user, err := store.FindUserByEmail(ctx, "u@test.com")

		// Assert
		if err != nil || user.Email != "U@Test.com" || user.Password != "hash" {
			t.Fatalf("unexpected result %+v %v", user, err)
		}
	})

	t.Run("FindUserByEmailMissing", func(t *testing.T) {

		// Act
		_, err := store.FindUserByEmail(ctx, "ghost@test.com")

		// Assert
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListUserAuthDataFilters", func(t *testing.T) {

		// Act
		filtered, err := store.ListUserAuthData(ctx, "A")
		literal, errLiteral := store.ListUserAuthData(ctx, "a.b")

		// Assert
		if err != nil || errLiteral != nil {
			t.Fatalf("unexpected errors %v %v", err, errLiteral)
		}
		ids := map[string]bool{}
		for _, d := range filtered {
			ids[d.ID] = true
		}
		if len(filtered) != 3 || !ids["a@x.com"] || !ids["ab@x.com"] || !ids["dot@x.com"] || ids["b@x.com"] {
			t.Fatalf("unexpected filter result %+v", filtered)
		}
		if len(literal) != 1 || literal[0].ID != "dot@x.com" {
			t.Fatalf("expected search to be matched literally, got %+v", literal)
		}
	})

	t.Run("SessionLifecycle", func(t *testing.T) {

		// Arrange
		now := time.Now().UTC().Truncate(time.Millisecond)
		sess := entity.Session{Token: "tok-1", Email: "u@test.com", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

		// Act
		errCreate := store.CreateSession(ctx, sess)
		errDup := store.CreateSession(ctx, sess)
		got, errGet := store.GetSession(ctx, "tok-1")
		errDelete := store.DeleteSession(ctx, "tok-1")
		errDeleteAgain := store.DeleteSession(ctx, "tok-1")
		_, errGone := store.GetSession(ctx, "tok-1")

		// Assert
		if errCreate != nil || errGet != nil || errDelete != nil || errDeleteAgain != nil {
			t.Fatalf("unexpected errors %v %v %v %v", errCreate, errGet, errDelete, errDeleteAgain)
		}
		if !errors.Is(errDup, goerror.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", errDup)
		}
		if got.Email != "u@test.com" || !got.ExpiresAt.Equal(sess.ExpiresAt) {
			t.Fatalf("unexpected session %+v", got)
		}
		if !errors.Is(errGone, goerror.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", errGone)
		}
	})
}
