package events

import (
	"context"
	"sync"
)

// Subscription is a live feed of events for one channel. Events is
// closed after Close, or when the transport gives up on the stream.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Bus is a named-channel publish/subscribe transport. Delivery is
// best-effort, at-most-once per subscriber.
type Bus interface {
	Publish(ctx context.Context, channel string, event Event) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

const subscriberBuffer = 64

// memoryBus is an in-process bus for tests and single-node deployments.
type memoryBus struct {
	mu   sync.Mutex
	subs map[string][]*memorySubscription
}

// NewMemoryBus creates an in-process bus.
func NewMemoryBus() Bus {
	return &memoryBus{subs: make(map[string][]*memorySubscription)}
}

func (b *memoryBus) Publish(ctx context.Context, channel string, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	subs := append([]*memorySubscription{}, b.subs[channel]...)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.send(event)
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	sub := &memorySubscription{
		bus:     b,
		channel: channel,
		ch:      make(chan Event, subscriberBuffer),
	}
	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], sub)
	b.mu.Unlock()
	return sub, nil
}

type memorySubscription struct {
	bus     *memoryBus
	channel string

	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func (s *memorySubscription) Events() <-chan Event {
	return s.ch
}

// send delivers one event unless the subscription is closed. Sends and
// Close serialize on s.mu, so a publisher holding a stale subscriber
// snapshot can never hit a closed channel.
func (s *memorySubscription) send(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- event:
	default:
		// slow subscriber: drop rather than block the publisher
	}
}

func (s *memorySubscription) Close() error {
	s.bus.mu.Lock()
	subs := s.bus.subs[s.channel]
	for i, candidate := range subs {
		if candidate == s {
			s.bus.subs[s.channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	s.bus.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.ch)
	return nil
}
