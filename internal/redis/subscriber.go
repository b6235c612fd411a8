package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// messageSource is an open pattern subscription; *redis.PubSub satisfies it.
type messageSource interface {
	ReceiveMessage(ctx context.Context) (*redis.Message, error)
	Close() error
}

type Subscriber struct {
	open func(ctx context.Context, patterns ...string) messageSource
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{
		open: func(ctx context.Context, patterns ...string) messageSource {
			return client.PSubscribe(ctx, patterns...)
		},
	}
}

// Subscribe delivers messages on channels matching patterns until ctx is
// done. A cancelled context is not reported as an error.
func (s *Subscriber) Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error {
	sub := s.open(ctx, patterns...)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		handler(msg.Channel, []byte(msg.Payload))
	}
}
