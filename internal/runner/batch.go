package runner

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/llm-bench/internal/telemetry"
)

// BatchProgressFunc is called after each task finishes with the number of
// finished tasks so far.
type BatchProgressFunc func(done, total int)

type batchConfig struct {
	progress BatchProgressFunc
	metrics  *telemetry.Metrics
	name     string
}

// BatchOption configures RunBatch.
type BatchOption func(*batchConfig)

// WithProgress reports completion counts.
func WithProgress(fn BatchProgressFunc) BatchOption {
	return func(c *batchConfig) {
		c.progress = fn
	}
}

// WithBatchMetrics counts finished tasks under the given batch name.
func WithBatchMetrics(m *telemetry.Metrics, name string) BatchOption {
	return func(c *batchConfig) {
		c.metrics = m
		c.name = name
	}
}

type taskResult[R any] struct {
	value R
	err   error
}

// RunBatch runs fn for every task with at most maxThread running at once
// (no limit when maxThread <= 0) and returns the successful values in
// completion order. Tasks that fail or panic are logged and dropped; they do
// not cancel their siblings.
func RunBatch[T, R any](ctx context.Context, tasks []T, fn func(context.Context, T) (R, error), maxThread int, opts ...BatchOption) []R {
	if len(tasks) == 0 {
		return []R{}
	}

	cfg := &batchConfig{name: "default"}
	for _, opt := range opts {
		opt(cfg)
	}

	results := make(chan taskResult[R], len(tasks))

	var g errgroup.Group
	if maxThread > 0 {
		g.SetLimit(maxThread)
	}
	go func() {
		for _, task := range tasks {
			g.Go(func() error {
				value, err := runTask(ctx, fn, task)
				results <- taskResult[R]{value: value, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	out := make([]R, 0, len(tasks))
	done := 0
	for r := range results {
		done++
		cfg.metrics.RecordTask(cfg.name, r.err)
		if r.err != nil {
			slog.Error("batch task failed", "batch", cfg.name, "error", r.err)
		} else {
			out = append(out, r.value)
		}
		if cfg.progress != nil {
			cfg.progress(done, len(tasks))
		}
	}
	return out
}

func runTask[T, R any](ctx context.Context, fn func(context.Context, T) (R, error), task T) (value R, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return fn(ctx, task)
}
