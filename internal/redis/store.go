package redis

import (
	"context"
	"errors"
	"time"

	"mazi-recorder/internal/persistence"

	goredis "github.com/redis/go-redis/v9"
)

// Store key pattern: {prefix}{key}, e.g. mazi:store:InterviewStore.
// Collections are stored without expiry.

// stringClient is the part of the Redis API the state store uses;
// *goredis.Client satisfies it.
type stringClient interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// StateStore implements persistence.Provider on top of Redis strings.
type StateStore struct {
	client stringClient
	prefix string
}

func NewStateStore(client stringClient, prefix string) *StateStore {
	return &StateStore{client: client, prefix: prefix}
}

func (s *StateStore) Name() string { return "redis" }

func (s *StateStore) Key(key string) string {
	return s.prefix + key
}

func (s *StateStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.Key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *StateStore) Save(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, s.Key(key), data, 0).Err()
}
