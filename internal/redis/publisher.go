package redis

import (
	"context"
	"encoding/json"

	"mazi-recorder/pkg/events"

	"github.com/redis/go-redis/v9"
)

type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher sends events to Redis channels so every API instance can relay
// them to its own websocket clients.
type Publisher struct {
	client publishClient
}

func NewPublisher(client publishClient) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, channel string, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, channel, payload).Err()
}
