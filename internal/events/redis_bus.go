package events

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisBus carries events over Redis Pub/Sub. Redis pub/sub is
// fire-and-forget with no replay, which matches the bus contract:
// subscribers missing a window of events recover via full refresh.
type redisBus struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBus creates a bus backed by the given Redis client.
func NewRedisBus(client *redis.Client, logger *zap.Logger) Bus {
	return &redisBus{client: client, logger: logger}
}

func (b *redisBus) Publish(ctx context.Context, channel string, event Event) error {
	payload, err := Encode(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *redisBus) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		ch:     make(chan Event, subscriberBuffer),
	}
	go sub.pump(b.logger)
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	ch     chan Event
}

func (s *redisSubscription) pump(logger *zap.Logger) {
	defer close(s.ch)
	for msg := range s.pubsub.Channel() {
		event, err := Decode([]byte(msg.Payload))
		if err != nil {
			logger.Warn("dropping undecodable bus message",
				zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}
		select {
		case s.ch <- event:
		default:
			logger.Warn("subscriber backlog full; dropping event",
				zap.String("channel", msg.Channel), zap.String("event_id", event.ID))
		}
	}
}

func (s *redisSubscription) Events() <-chan Event {
	return s.ch
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
