package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const pendingMarker = "pending"

// IdempotencyStore remembers which order a repeated request already produced.
type IdempotencyStore interface {
	// Claim marks key as in progress. When the key is already taken it
	// returns claimed=false and the recorded order id, or uuid.Nil while the
	// first request is still running.
	Claim(ctx context.Context, key string) (existing uuid.UUID, claimed bool, err error)
	Complete(ctx context.Context, key string, orderID uuid.UUID) error
	Release(ctx context.Context, key string) error
}

type redisIdempotency struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotency(client *redis.Client, ttl time.Duration) IdempotencyStore {
	return &redisIdempotency{client: client, ttl: ttl}
}

func (r *redisIdempotency) Claim(ctx context.Context, key string) (uuid.UUID, bool, error) {
	ok, err := r.client.SetNX(ctx, key, pendingMarker, r.ttl).Result()
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("claim key: %w", err)
	}
	if ok {
		return uuid.Nil, true, nil
	}
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET; let the caller retry
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("read key: %w", err)
	}
	if val == pendingMarker {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("parse order id: %w", err)
	}
	return id, false, nil
}

func (r *redisIdempotency) Complete(ctx context.Context, key string, orderID uuid.UUID) error {
	return r.client.Set(ctx, key, orderID.String(), r.ttl).Err()
}

func (r *redisIdempotency) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]uuid.UUID
}

// NewMemoryIdempotency is used when Redis is not configured. Keys never expire.
func NewMemoryIdempotency() IdempotencyStore {
	return &memIdempotency{keys: make(map[string]uuid.UUID)}
}

func (m *memIdempotency) Claim(_ context.Context, key string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.keys[key]; ok {
		return id, false, nil
	}
	m.keys[key] = uuid.Nil
	return uuid.Nil, true, nil
}

func (m *memIdempotency) Complete(_ context.Context, key string, orderID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = orderID
	return nil
}

func (m *memIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}
