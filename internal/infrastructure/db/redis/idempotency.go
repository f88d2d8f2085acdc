package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyTTL = 24 * time.Hour
	// pendingOrder marks a key whose first request is still placing its order.
	pendingOrder = "pending"
)

// IdempotencyStore maps an Idempotency-Key to the order it produced.
// Key format: idem:order:<scope>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL}
}

// Reserve claims key with SETNX before an order is placed. When the key is
// already taken it returns the remembered order id, or "" while the request
// holding the key has not finished.
func (s *IdempotencyStore) Reserve(ctx context.Context, scope, key string) (string, bool, error) {
	k := idempotencyKey(scope, key)
	ok, err := s.client.SetNX(ctx, k, pendingOrder, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return "", true, nil
	}

	v, err := s.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return storedOrderID(v), false, nil
}

// Remember replaces the reservation with the id of the placed order.
func (s *IdempotencyStore) Remember(ctx context.Context, scope, key, orderID string) error {
	if err := s.client.Set(ctx, idempotencyKey(scope, key), orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

// Release drops a reservation whose order could not be placed so the client
// can retry with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func storedOrderID(v string) string {
	if v == pendingOrder {
		return ""
	}
	return v
}

func idempotencyKey(scope, key string) string {
	return fmt.Sprintf("idem:order:%s:%s", scope, key)
}
