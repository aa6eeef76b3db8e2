package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/app"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/config"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/producer"
)

func main() {
	// Initialize structured JSON logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Metrics Server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := ":" + cfg.Producer.MetricsPort
		logger.Info("Producer metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()

	factory := app.NewFactory(cfg)
	defer factory.Close()

	brk, err := factory.Broker(ctx)
	if err != nil {
		logger.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}

	src, err := factory.Source(ctx)
	if err != nil {
		logger.Error("failed to open record source", "error", err)
		os.Exit(1)
	}

	p := producer.New(producer.Config{
		Topic:       cfg.Kafka.Topic,
		Interval:    cfg.Producer.Interval,
		MaxRetries:  cfg.Producer.MaxRetries,
		BaseBackoff: cfg.Producer.BaseBackoff,
	}, src, brk)

	if err := p.Run(ctx); err != nil {
		logger.Error("producer stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("producer exited")
}
