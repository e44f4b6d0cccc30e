package bus

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisBus is the production Bus implementation, connecting to the
// channels named in spec.md §6 (`pool_created`, `swap_created`).
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus parses a redis:// URL (REDIS_URL per §6) and dials eagerly so
// configuration mistakes surface at startup rather than on first message.
func NewRedisBus(ctx context.Context, redisURL string) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, busErr(err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, busErr(err)
	}
	return &RedisBus{client: client}, nil
}

// Subscribe opens a pub/sub connection to the given channels.
func (b *RedisBus) Subscribe(ctx context.Context, channels ...string) (Subscription, error) {
	sub := b.client.Subscribe(ctx, channels...)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, busErr(err)
	}
	return &redisSubscription{sub: sub, ch: sub.Channel()}, nil
}

// Close releases the underlying Redis connection pool.
func (b *RedisBus) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	sub *redis.PubSub
	ch  <-chan *redis.Message
}

func (s *redisSubscription) Receive(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, busErr(ctx.Err())
	case msg, ok := <-s.ch:
		if !ok {
			return Message{}, busErr(errClosed)
		}
		return Message{Channel: msg.Channel, Payload: []byte(msg.Payload)}, nil
	}
}

func (s *redisSubscription) Close() error {
	return s.sub.Close()
}

var errClosed = redisClosedErr{}

type redisClosedErr struct{}

func (redisClosedErr) Error() string { return "redis: subscription channel closed" }
