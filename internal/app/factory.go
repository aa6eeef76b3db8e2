// Package app wires configuration to concrete infrastructure: which
// broker backs the topic and where the producer's dataset comes from.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/broker"
	kafkabroker "github.com/ajhatfield/buzzline-06-hatfield/internal/broker/kafka"
	redisbroker "github.com/ajhatfield/buzzline-06-hatfield/internal/broker/redis"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/config"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/source"
	pgsource "github.com/ajhatfield/buzzline-06-hatfield/internal/source/postgres"
)

type Factory struct {
	cfg    *config.Config
	brk    broker.Broker
	pgPool *pgxpool.Pool
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{cfg: cfg}
}

// Broker returns the configured transport. A broker that cannot be
// reached at startup is a fatal configuration error for the caller.
func (f *Factory) Broker(ctx context.Context) (broker.Broker, error) {
	if f.brk != nil {
		return f.brk, nil
	}

	switch f.cfg.Broker.Kind {
	case "kafka":
		f.brk = kafkabroker.New(kafkabroker.Config{
			Brokers:     f.cfg.Kafka.Brokers,
			GroupID:     f.cfg.Kafka.GroupID,
			StartOffset: f.cfg.Kafka.StartOffset,
			BatchSize:   f.cfg.Consumer.BatchSize,
		})
	case "redis":
		b, err := redisbroker.New(ctx, redisbroker.Config{Addr: f.cfg.Redis.Addr})
		if err != nil {
			return nil, fmt.Errorf("init redis broker: %w", err)
		}
		f.brk = b
	default:
		return nil, fmt.Errorf("unknown broker kind %q", f.cfg.Broker.Kind)
	}
	return f.brk, nil
}

// Source returns the producer's record source.
func (f *Factory) Source(ctx context.Context) (source.Source, error) {
	switch f.cfg.Source.Kind {
	case "static":
		return source.NewStatic(source.WithLoop(f.cfg.Source.Loop)), nil
	case "postgres":
		pool, err := f.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return pgsource.NewSource(pool, f.cfg.Source.Loop), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", f.cfg.Source.Kind)
	}
}

func (f *Factory) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if f.pgPool != nil {
		return f.pgPool, nil
	}

	var pool *pgxpool.Pool
	var err error

	// Retry connection up to 5 times
	for i := 0; i < 5; i++ {
		pool, err = pgsource.NewPool(ctx, pgsource.Config{
			Host:     f.cfg.Postgres.Host,
			Port:     f.cfg.Postgres.Port,
			User:     f.cfg.Postgres.User,
			Password: f.cfg.Postgres.Password,
			DBName:   f.cfg.Postgres.DBName,
		})
		if err == nil {
			break
		}
		slog.Warn("failed to connect to postgres, retrying in 2s", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to init postgres after retries: %w", err)
	}

	f.pgPool = pool
	return pool, nil
}

func (f *Factory) Close() {
	if f.brk != nil {
		f.brk.Close()
	}
	if f.pgPool != nil {
		f.pgPool.Close()
	}
}
