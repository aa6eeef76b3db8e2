package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/broker"
)

type Config struct {
	Brokers []string
	GroupID string
	// StartOffset applies when the consumer group has no committed
	// offset yet. Supported: "earliest" (default), "latest".
	StartOffset string
	BatchSize   int
}

// Broker is the Kafka-backed transport. The writer is shared across
// topics; each Subscribe opens its own reader inside the configured
// consumer group.
type Broker struct {
	cfg    Config
	writer *kafka.Writer
}

func New(cfg Config) *Broker {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		MaxAttempts:            1, // retries belong to the caller
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return &Broker{cfg: cfg, writer: w}
}

func (b *Broker) Publish(ctx context.Context, topic string, key, value []byte) error {
	err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("kafka publish to %s: %w", topic, err)
	}
	return nil
}

func (b *Broker) Subscribe(_ context.Context, topic string) (broker.Subscription, error) {
	startOffset := kafka.FirstOffset
	if strings.EqualFold(b.cfg.StartOffset, "latest") {
		startOffset = kafka.LastOffset
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: false, // Force IPv4
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.cfg.Brokers,
		Topic:       topic,
		GroupID:     b.cfg.GroupID,
		MinBytes:    1, // Process immediately
		MaxBytes:    10e6,
		MaxWait:     1 * time.Second,
		Dialer:      dialer,
		StartOffset: startOffset,
	})

	batch := b.cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &subscription{reader: r, batch: batch}, nil
}

func (b *Broker) Close() error {
	return b.writer.Close()
}

type subscription struct {
	reader  *kafka.Reader
	batch   int
	pending []kafka.Message
}

// Poll fetches messages until the timeout budget is spent or the batch
// is full. Fetched messages stay uncommitted until Commit.
func (s *subscription) Poll(ctx context.Context, timeout time.Duration) ([]broker.Message, error) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.pending = s.pending[:0]
	var out []broker.Message
	for len(out) < s.batch {
		msg, err := s.reader.FetchMessage(pollCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && pollCtx.Err() != nil && ctx.Err() == nil {
				// budget spent, not a transport failure
				return out, nil
			}
			if len(out) > 0 {
				return out, nil
			}
			return nil, fmt.Errorf("kafka fetch: %w", err)
		}
		s.pending = append(s.pending, msg)
		out = append(out, broker.Message{Key: msg.Key, Value: msg.Value})
	}
	return out, nil
}

func (s *subscription) Commit(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.reader.CommitMessages(ctx, s.pending...); err != nil {
		return fmt.Errorf("kafka commit: %w", err)
	}
	s.pending = s.pending[:0]
	return nil
}

func (s *subscription) Close() error {
	return s.reader.Close()
}
