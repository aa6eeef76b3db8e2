// Package memory is an in-process, channel-backed broker used by tests
// and local runs without a real Kafka or Redis nearby.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/broker"
)

type Broker struct {
	mu     sync.Mutex
	subs   map[string][]*subscription
	closed bool
}

func New() *Broker {
	return &Broker{subs: make(map[string][]*subscription)}
}

func (b *Broker) Publish(_ context.Context, topic string, key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return broker.ErrClosed
	}
	for _, s := range b.subs[topic] {
		select {
		case s.ch <- broker.Message{Key: key, Value: value}:
		default:
			// slow subscriber, drop rather than block the publisher
		}
	}
	return nil
}

func (b *Broker) Subscribe(_ context.Context, topic string) (broker.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, broker.ErrClosed
	}
	s := &subscription{ch: make(chan broker.Message, 1024)}
	b.subs[topic] = append(b.subs[topic], s)
	return s, nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

type subscription struct {
	ch chan broker.Message
}

// Poll waits up to timeout for the first message, then drains whatever
// else is already buffered and returns.
func (s *subscription) Poll(ctx context.Context, timeout time.Duration) ([]broker.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-s.ch:
		out := []broker.Message{msg}
		for {
			select {
			case m := <-s.ch:
				out = append(out, m)
			default:
				return out, nil
			}
		}
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *subscription) Commit(context.Context) error { return nil }

func (s *subscription) Close() error { return nil }
