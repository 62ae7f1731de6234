package booking

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

const (
	sessionKeyPrefix  = "booking_session:"
	maxUpdateAttempts = 10
)

// RedisSessionStore keeps flows as JSON strings with a TTL refreshed on write.
// Update uses WATCH so concurrent requests for one session apply in order.
type RedisSessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	now    func() time.Time
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if client == nil {
		panic("booking: redis client required")
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisSessionStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("kims.internal.booking.session_store"),
		now:    time.Now,
	}
}

func (s *RedisSessionStore) Create(ctx context.Context, flow *Flow) error {
	if flow == nil || flow.SessionID == "" {
		return errEmptySessionID
	}
	ctx, span := s.tracer.Start(ctx, "booking.session_store.create")
	defer span.End()
	span.SetAttributes(attribute.String("kims.session_id", flow.SessionID))

	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("booking: marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(flow.SessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*Flow, error) {
	ctx, span := s.tracer.Start(ctx, "booking.session_store.get")
	defer span.End()
	span.SetAttributes(attribute.String("kims.session_id", sessionID))

	raw, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("booking: load session: %w", err)
	}
	return decodeFlow(raw)
}

func (s *RedisSessionStore) Update(ctx context.Context, sessionID string, fn func(*Flow) error) (*Flow, error) {
	ctx, span := s.tracer.Start(ctx, "booking.session_store.update")
	defer span.End()
	span.SetAttributes(attribute.String("kims.session_id", sessionID))

	key := sessionKey(sessionID)
	var updated *Flow
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("booking: load session: %w", err)
		}
		flow, err := decodeFlow(raw)
		if err != nil {
			return err
		}
		if err := fn(flow); err != nil {
			return err
		}
		flow.UpdatedAt = s.now().UTC()
		data, err := json.Marshal(flow)
		if err != nil {
			return fmt.Errorf("booking: marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = flow
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.redis.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		span.RecordError(err)
		return nil, err
	}
	span.RecordError(redis.TxFailedErr)
	return nil, fmt.Errorf("booking: update session %s: %w", sessionID, redis.TxFailedErr)
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("booking: delete session: %w", err)
	}
	return nil
}

func decodeFlow(raw []byte) (*Flow, error) {
	var flow Flow
	if err := json.Unmarshal(raw, &flow); err != nil {
		return nil, fmt.Errorf("booking: decode session: %w", err)
	}
	return &flow, nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}
