// Package mongo stores users and sessions in the document database the
// dashboard was first built on: collections sessions, users and UserAuthData.
package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdash/internal/pkg/instrument"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	collSessions = "sessions"
	collUsers    = "users"
	collAuthData = "UserAuthData"
)

// caseInsensitive makes equality on strings ignore case.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type userDoc struct {
	Email    string `bson:"email"`
	Password string `bson:"password"`
}

type authDataDoc struct {
	ID        string `bson:"ID"`
	Email     string `bson:"email"`
	OTPSecret string `bson:"OTP_Secret"`
}

type sessionDoc struct {
	SessionID string     `bson:"session_id"`
	Email     string     `bson:"email"`
	CreatedAt time.Time  `bson:"created_at,omitempty"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

type Mongo struct {
	db  *mongo.Database
	ins instrument.Instrumentation
}

func NewMongo(db *mongo.Database, ins instrument.Instrumentation) *Mongo {
	return &Mongo{db: db, ins: ins}
}

// EnsureIndexes makes session tokens unique and lets the server drop
// sessions once expires_at has passed. Sessions without expires_at stay.
func (m *Mongo) EnsureIndexes(ctx context.Context) (err error) {
	ctx, span := m.startSpan(ctx, "EnsureIndexes")
	defer func() { m.endSpan(span, err) }()

	_, err = m.db.Collection(collSessions).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	return err
}

func (m *Mongo) FindUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := m.startSpan(ctx, "FindUserByEmail")
	defer func() { m.endSpan(span, err) }()

	var doc userDoc
	err = m.db.Collection(collUsers).
		FindOne(ctx, bson.D{{Key: "email", Value: email}}, options.FindOne().SetCollation(caseInsensitive)).
		Decode(&doc)
	if err != nil {
		return nil, m.mapError(err)
	}

	return &entity.User{Email: doc.Email, Password: doc.Password}, nil
}

// ListUserAuthData returns records whose email contains search, ignoring
// case, in natural order.
func (m *Mongo) ListUserAuthData(ctx context.Context, search string) (_ []entity.UserAuthData, err error) {
	ctx, span := m.startSpan(ctx, "ListUserAuthData")
	defer func() { m.endSpan(span, err) }()

	filter := bson.D{}
	if search != "" {
		filter = bson.D{{Key: "email", Value: bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(search)},
			{Key: "$options", Value: "i"},
		}}}
	}

	cur, err := m.db.Collection(collAuthData).Find(ctx, filter)
	if err != nil {
		return nil, m.mapError(err)
	}

	var docs []authDataDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, m.mapError(err)
	}

	out := make([]entity.UserAuthData, 0, len(docs))
	for _, d := range docs {
		out = append(out, entity.UserAuthData{ID: d.ID, Email: d.Email, OTPSecret: d.OTPSecret})
	}
	return out, nil
}

func (m *Mongo) CreateSession(ctx context.Context, in entity.Session) (err error) {
	ctx, span := m.startSpan(ctx, "CreateSession")
	defer func() { m.endSpan(span, err) }()

	doc := sessionDoc{SessionID: in.Token, Email: in.Email, CreatedAt: in.CreatedAt}
	if !in.ExpiresAt.IsZero() {
		doc.ExpiresAt = &in.ExpiresAt
	}

	_, err = m.db.Collection(collSessions).InsertOne(ctx, doc)
	err = m.mapError(err)
	return err
}

func (m *Mongo) GetSession(ctx context.Context, token string) (_ *entity.Session, err error) {
	ctx, span := m.startSpan(ctx, "GetSession")
	defer func() { m.endSpan(span, err) }()

	var doc sessionDoc
	err = m.db.Collection(collSessions).FindOne(ctx, bson.D{{Key: "session_id", Value: token}}).Decode(&doc)
	if err != nil {
		return nil, m.mapError(err)
	}

	sess := &entity.Session{Token: doc.SessionID, Email: doc.Email, CreatedAt: doc.CreatedAt}
	if doc.ExpiresAt != nil {
		sess.ExpiresAt = *doc.ExpiresAt
	}
	return sess, nil
}

func (m *Mongo) DeleteSession(ctx context.Context, token string) (err error) {
	ctx, span := m.startSpan(ctx, "DeleteSession")
	defer func() { m.endSpan(span, err) }()

	_, err = m.db.Collection(collSessions).DeleteOne(ctx, bson.D{{Key: "session_id", Value: token}})
	err = m.mapError(err)
	return err
}

func (m *Mongo) mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return goerror.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return goerror.ErrConflict
	default:
		return err
	}
}

func (m *Mongo) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.ins.Tracer("gateway.outbound.mongo").Start(ctx, name)
}

func (m *Mongo) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
