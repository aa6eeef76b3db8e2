// Package redis adapts Redis pub/sub to the broker interface. Unlike
// Kafka it is fire-and-forget: no offsets, no replay, so Commit is a
// no-op and messages published with no subscriber listening are lost.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/broker"
)

type Config struct {
	Addr     string
	Password string // optional
	DB       int    // optional
}

type Broker struct {
	client *redis.Client
}

func New(ctx context.Context, cfg Config) (*Broker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Broker{client: client}, nil
}

func (b *Broker) Publish(ctx context.Context, topic string, _, value []byte) error {
	if err := b.client.Publish(ctx, topic, value).Err(); err != nil {
		return fmt.Errorf("redis publish to %s: %w", topic, err)
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, topic string) (broker.Subscription, error) {
	ps := b.client.Subscribe(ctx, topic)
	// Force the subscription to be established before the first Poll.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("redis subscribe to %s: %w", topic, err)
	}
	return &subscription{ps: ps, ch: ps.Channel()}, nil
}

func (b *Broker) Close() error {
	return b.client.Close()
}

type subscription struct {
	ps *redis.PubSub
	ch <-chan *redis.Message
}

func (s *subscription) Poll(ctx context.Context, timeout time.Duration) ([]broker.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var out []broker.Message
	for {
		select {
		case msg, ok := <-s.ch:
			if !ok {
				return out, broker.ErrClosed
			}
			out = append(out, broker.Message{Value: []byte(msg.Payload)})
		case <-timer.C:
			return out, nil
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
}

func (s *subscription) Commit(context.Context) error { return nil }

func (s *subscription) Close() error { return s.ps.Close() }
