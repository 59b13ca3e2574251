package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/giantswarm/llm-bench/internal/telemetry"
)

// clientConfig holds optional settings for a Client.
type clientConfig struct {
	httpClient *http.Client
	metrics    *telemetry.Metrics
	maxJitter  *time.Duration
	wait       func(context.Context) error
}

// Option is a functional option for configuring a Client.
type Option func(*clientConfig)

// WithHTTPClient replaces the HTTP client. Its timeout is used as-is.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) {
		cfg.httpClient = c
	}
}

// WithMetrics records attempts and results.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(cfg *clientConfig) {
		cfg.metrics = m
	}
}

// WithMaxJitter overrides the configured pre-attempt jitter bound.
func WithMaxJitter(d time.Duration) Option {
	return func(cfg *clientConfig) {
		cfg.maxJitter = &d
	}
}

// WithWaitFunc replaces the pre-attempt sleep entirely.
func WithWaitFunc(fn func(context.Context) error) Option {
	return func(cfg *clientConfig) {
		cfg.wait = fn
	}
}
