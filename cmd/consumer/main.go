package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/aggregate"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/api"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/app"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/chart"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/config"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/consumer"
)

func main() {
	// Initialize structured JSON logger. The chart owns stdout, so
	// logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine := aggregate.New()

	// Dashboard + metrics server
	srv := &http.Server{
		Addr:    ":" + cfg.Dashboard.Port,
		Handler: api.NewRouter(engine),
	}
	go func() {
		logger.Info("Dashboard listening", "port", cfg.Dashboard.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("dashboard server failed", "error", err)
		}
	}()

	factory := app.NewFactory(cfg)
	defer factory.Close()

	brk, err := factory.Broker(ctx)
	if err != nil {
		logger.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}

	cons := consumer.New(consumer.Config{
		Topic:       cfg.Kafka.Topic,
		PollTimeout: cfg.Consumer.PollTimeout,
	}, brk, engine)

	renderer := chart.NewTerminal(os.Stdout, cfg.Chart.Width)
	driver := chart.NewDriver(engine, renderer, cfg.Chart.Refresh, cfg.Chart.TopN)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := cons.Run(ctx); err != nil {
			logger.Error("consumer stopped with error", "error", err)
			cancel()
		}
	}()

	go func() {
		defer wg.Done()
		driver.Run(ctx)
	}()

	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	logger.Info("consumer exited", "events", engine.Total(), "titles", engine.Titles())
}
