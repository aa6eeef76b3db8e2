// Package producer runs the publish side of the pipeline: pull a
// reading event from the source, encode it, publish it to the topic,
// sleep for the configured interval, repeat until cancelled.
package producer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/broker"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/domain/reading"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/source"
)

var (
	eventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "producer_events_published_total",
		Help: "The total number of reading events published to the topic",
	})
	publishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "producer_publish_errors_total",
		Help: "The total number of failed publish attempts",
	})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "producer_events_dropped_total",
		Help: "The total number of events dropped after retries were exhausted",
	})
	sourceSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "producer_source_events_skipped_total",
		Help: "The total number of source events skipped for failing validation",
	})
)

type Config struct {
	Topic       string
	Interval    time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
}

type Producer struct {
	cfg    Config
	src    source.Source
	broker broker.Broker
	logger *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, src source.Source, b broker.Broker) *Producer {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}
	return &Producer{
		cfg:    cfg,
		src:    src,
		broker: b,
		logger: slog.With("component", "producer", "topic", cfg.Topic),
		sleep:  sleepCtx,
	}
}

// Run loops until ctx is cancelled or the source is exhausted. A
// publish failure never crashes the loop: the event is retried with
// exponential backoff and dropped once retries run out.
func (p *Producer) Run(ctx context.Context) error {
	p.logger.Info("producer started", "interval", p.cfg.Interval)

	for {
		ev, err := p.src.Next(ctx)
		if err != nil {
			if errors.Is(err, source.ErrExhausted) {
				p.logger.Info("source exhausted, stopping")
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		payload, err := reading.Encode(ev)
		if err != nil {
			// validated at the source, so this is a source bug; skip
			p.logger.Warn("dropping unencodable event", "title", ev.Title, "error", err)
			sourceSkipped.Inc()
			continue
		}

		if err := p.publishWithRetry(ctx, payload); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("dropping event after retries", "title", ev.Title, "retries", p.cfg.MaxRetries, "error", err)
			eventsDropped.Inc()
		} else {
			eventsPublished.Inc()
			p.logger.Debug("published", "title", ev.Title, "reader", ev.Reader)
		}

		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			return nil
		}
	}
}

func (p *Producer) publishWithRetry(ctx context.Context, payload []byte) error {
	key := []byte(uuid.NewString())

	var err error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := p.cfg.BaseBackoff * time.Duration(1<<(attempt-1))
			p.logger.Info("retrying publish", "attempt", attempt, "max", p.cfg.MaxRetries, "backoff", backoff)
			if serr := p.sleep(ctx, backoff); serr != nil {
				return serr
			}
		}

		err = p.broker.Publish(ctx, p.cfg.Topic, key, payload)
		if err == nil {
			return nil
		}
		publishErrors.Inc()
		p.logger.Error("publish failed", "attempt", attempt, "error", err)
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
