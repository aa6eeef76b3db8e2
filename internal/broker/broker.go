// Package broker defines the transport surface the pipeline depends
// on. Any durable, multi-subscriber topic implementation satisfies it;
// the broker itself (partitioning, offset storage) stays a black box.
package broker

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("broker: closed")

// Message is one opaque payload pulled from a topic.
type Message struct {
	Key   []byte
	Value []byte
}

// Broker publishes payloads to named topics and opens subscriptions.
type Broker interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
	Subscribe(ctx context.Context, topic string) (Subscription, error)
	Close() error
}

// Subscription is a single consumer's handle on a topic.
//
// Poll blocks for at most the given timeout and returns zero or more
// messages; an empty batch with a nil error just means nothing arrived
// in time. Commit acknowledges everything returned by the previous
// Poll; transports without offsets treat it as a no-op.
type Subscription interface {
	Poll(ctx context.Context, timeout time.Duration) ([]Message, error)
	Commit(ctx context.Context) error
	Close() error
}
