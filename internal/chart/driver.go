package chart

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/aggregate"
)

var renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "chart_render_duration_seconds",
	Help:    "Time taken to redraw the chart",
	Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
})

// Driver redraws the chart on a fixed tick, reading snapshots from the
// engine. It never touches the consumer's write path beyond taking a
// read lock, so ingestion is never starved by rendering.
type Driver struct {
	engine   *aggregate.Engine
	renderer Renderer
	interval time.Duration
	topN     int
	logger   *slog.Logger
}

func NewDriver(engine *aggregate.Engine, renderer Renderer, interval time.Duration, topN int) *Driver {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if topN <= 0 {
		topN = 10
	}
	return &Driver{
		engine:   engine,
		renderer: renderer,
		interval: interval,
		topN:     topN,
		logger:   slog.With("component", "chart"),
	}
}

// Run ticks until ctx is cancelled. A render failure is logged and the
// next tick tries again; if nothing arrived since the last frame the
// tick is a no-op.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	lastTotal := -1
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			total := d.engine.Total()
			if total == lastTotal {
				continue
			}

			started := time.Now()
			if err := d.renderer.Render(d.engine.TopN(d.topN)); err != nil {
				d.logger.Error("render failed", "error", err)
				continue
			}
			renderDuration.Observe(time.Since(started).Seconds())
			lastTotal = total
		}
	}
}
