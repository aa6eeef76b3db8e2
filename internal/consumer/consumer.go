// Package consumer runs the subscribe/deserialize/aggregate loop: poll
// the topic with a bounded timeout, apply every pulled message to the
// aggregation engine, commit, repeat until cancelled.
package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/aggregate"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/broker"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/domain/reading"
)

var (
	messagesConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_consumed_total",
		Help: "The total number of messages applied to the aggregate",
	})
	decodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consumer_decode_failures_total",
		Help: "The total number of messages skipped for failing to decode",
	})
	pollErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consumer_poll_errors_total",
		Help: "The total number of failed polls against the subscription",
	})
	applyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "consumer_batch_apply_duration_seconds",
		Help:    "Time taken to apply one polled batch",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
	})
)

const maxPollBackoff = 30 * time.Second

type Config struct {
	Topic       string
	PollTimeout time.Duration
}

type Consumer struct {
	cfg    Config
	broker broker.Broker
	engine *aggregate.Engine
	logger *slog.Logger
}

func New(cfg Config, b broker.Broker, engine *aggregate.Engine) *Consumer {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = time.Second
	}
	return &Consumer{
		cfg:    cfg,
		broker: b,
		engine: engine,
		logger: slog.With("component", "consumer", "topic", cfg.Topic),
	}
}

// Run subscribes and polls until ctx is cancelled. Poll errors are
// retried forever with capped backoff since the consumer's job is
// long-lived monitoring; only the initial subscribe failing is
// returned to the caller.
func (c *Consumer) Run(ctx context.Context) error {
	sub, err := c.broker.Subscribe(ctx, c.cfg.Topic)
	if err != nil {
		return err
	}
	defer sub.Close()

	c.logger.Info("consumer started", "poll_timeout", c.cfg.PollTimeout)

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}

		msgs, err := sub.Poll(ctx, c.cfg.PollTimeout)

		// Apply whatever was pulled before looking at the error or the
		// shutdown signal: a message fetched is a message owed to the
		// aggregate.
		if len(msgs) > 0 {
			c.apply(msgs)
			if cerr := sub.Commit(context.WithoutCancel(ctx)); cerr != nil {
				c.logger.Error("commit failed", "error", cerr)
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, broker.ErrClosed) {
				return err
			}
			pollErrors.Inc()
			c.logger.Error("poll failed", "backoff", backoff, "error", err)
			if serr := sleepCtx(ctx, backoff); serr != nil {
				return nil
			}
			if backoff *= 2; backoff > maxPollBackoff {
				backoff = maxPollBackoff
			}
			continue
		}
		backoff = time.Second
	}
}

// apply decodes and aggregates one polled batch. A message that fails
// to decode is counted and skipped; it never stops the rest of the
// batch from landing.
func (c *Consumer) apply(msgs []broker.Message) {
	started := time.Now()
	for _, msg := range msgs {
		ev, err := reading.Decode(msg.Value)
		if err != nil {
			decodeFailures.Inc()
			c.logger.Error("skipping undecodable message", "error", err)
			continue
		}
		c.engine.Update(ev)
		messagesConsumed.Inc()
	}
	applyDuration.Observe(time.Since(started).Seconds())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
