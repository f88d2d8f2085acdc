package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"
)

const oauthStateTTL = 10 * time.Minute

// OAuthStateStore issues single-use OAuth state values.
// Key format: oauth:state:<state>
type OAuthStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOAuthStateStore(client *redis.Client) *OAuthStateStore {
	return &OAuthStateStore{client: client, ttl: oauthStateTTL}
}

// Issue generates and stores a new state value.
func (s *OAuthStateStore) Issue(ctx context.Context) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("oauth state: %w", err)
	}
	state := id.String()
	if err := s.client.Set(ctx, stateKey(state), "1", s.ttl).Err(); err != nil {
		return "", fmt.Errorf("oauth state: %w", err)
	}
	return state, nil
}

// Consume deletes the state and reports whether it was outstanding.
func (s *OAuthStateStore) Consume(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	err := s.client.GetDel(ctx, stateKey(state)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("oauth state: %w", err)
	}
	return true, nil
}

func stateKey(state string) string {
	return "oauth:state:" + state
}
