package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdash/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix = "otpdash:session:"

type sessionValue struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Cache keeps sessions in Redis. A session with an expiry becomes a key
// with the same lifetime; one without never expires.
type Cache struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) CreateSession(ctx context.Context, in entity.Session) (err error) {
	ctx, span := c.startSpan(ctx, "CreateSession")
	defer func() { c.endSpan(span, err) }()

	var ttl time.Duration
	if !in.ExpiresAt.IsZero() {
		ttl = in.ExpiresAt.Sub(in.CreatedAt)
		if ttl <= 0 {
			return nil
		}
	}

	val, err := json.Marshal(sessionValue{Email: in.Email, CreatedAt: in.CreatedAt, ExpiresAt: in.ExpiresAt})
	if err != nil {
		return err
	}

	ok, err := c.client.SetNX(ctx, keyPrefix+in.Token, val, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		err = goerror.ErrConflict
	}
	return err
}

func (c *Cache) GetSession(ctx context.Context, token string) (_ *entity.Session, err error) {
	ctx, span := c.startSpan(ctx, "GetSession")
	defer func() { c.endSpan(span, err) }()

	raw, err := c.client.Get(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		err = goerror.ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	var val sessionValue
	if err = json.Unmarshal(raw, &val); err != nil {
		return nil, err
	}

	return &entity.Session{
		Token:     token,
		Email:     val.Email,
		CreatedAt: val.CreatedAt,
		ExpiresAt: val.ExpiresAt,
	}, nil
}

func (c *Cache) DeleteSession(ctx context.Context, token string) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteSession")
	defer func() { c.endSpan(span, err) }()

	err = c.client.Del(ctx, keyPrefix+token).Err()
	return err
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("gateway.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
