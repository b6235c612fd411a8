package backends

import (
	"context"
	"fmt"

	"mazi-recorder/config"
	"mazi-recorder/internal/persistence"
	"mazi-recorder/internal/redis"
	"mazi-recorder/internal/storage"
	"mazi-recorder/pkg/events"
	"mazi-recorder/pkg/logger"
)

// Closer releases connections held by a provider. It is a no-op for
// providers without connections.
type Closer func() error

// NewProvider builds the persistence backend named by backend.
func NewProvider(ctx context.Context, backend string, cfg *config.Config) (persistence.Provider, Closer, error) {
	noop := func() error { return nil }

	switch backend {
	case "", config.BackendFile:
		return persistence.NewFileProvider(cfg.DataDir), noop, nil
	case config.BackendMemory:
		return persistence.NewMemoryProvider(), noop, nil
	case config.BackendRedis:
		client, err := redis.NewClient(ctx, redisConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		return redis.NewStateStore(client, cfg.Redis.KeyPrefix), client.Close, nil
	case config.BackendS3:
		client, err := storage.NewClient(ctx, storage.S3Config{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Endpoint:  cfg.S3.Endpoint,
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// Relay receives events published by any instance.
type Relay func(channel string, payload []byte)

// NewEventBus returns the publisher submission events go through. With the
// local bus events go straight to local; with the Redis bus they are
// published to Redis and relayed back to local by a subscriber that runs
// until ctx is done.
func NewEventBus(ctx context.Context, cfg *config.Config, local events.Publisher, relay Relay, log *logger.Logger) (events.Publisher, Closer, error) {
	noop := func() error { return nil }

	switch cfg.EventBus {
	case "", config.EventBusLocal:
		return local, noop, nil
	case config.EventBusRedis:
		client, err := redis.NewClient(ctx, redisConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		subscriber := redis.NewSubscriber(client)
		go func() {
			if err := subscriber.Subscribe(ctx, []string{events.InterviewChannel("*")}, relay); err != nil {
				logger.OrNop(log).Errorf("event relay stopped: %v", err)
			}
		}()
		return redis.NewPublisher(client), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown event bus %q", cfg.EventBus)
	}
}

func redisConfig(cfg *config.Config) redis.Config {
	return redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}
