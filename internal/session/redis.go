package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RedisBackend stores each session as a JSON string under "session:<id>".
type RedisBackend struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisBackend returns a Redis-backed store. ttl <= 0 keeps keys without expiry.
func NewRedisBackend(client *redis.Client, ttl time.Duration) *RedisBackend {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	return &RedisBackend{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("clinic.internal.session.redis"),
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Load implements Backend.
func (b *RedisBackend) Load(ctx context.Context, id string) (*State, error) {
	ctx, span := b.tracer.Start(ctx, "session.load")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.session_id", id))

	data, err := b.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &st, nil
}

// Save implements Backend.
func (b *RedisBackend) Save(ctx context.Context, st *State) error {
	ctx, span := b.tracer.Start(ctx, "session.save")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.session_id", st.SessionID),
		attribute.String("clinic.dialog_state", st.DialogState.String()),
	)

	data, err := json.Marshal(st)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("encode state: %w", err)
	}
	ttl := b.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := b.redis.Set(ctx, sessionKey(st.SessionID), data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	if err := b.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
