package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-bench/internal/config"
	"github.com/giantswarm/llm-bench/internal/llm"
	"github.com/giantswarm/llm-bench/internal/telemetry"
)

const (
	defaultDataRoot  = "../datasets/BigBench"
	defaultOutputDir = "results"
)

// loadConfig reads the file named by --config, or returns the built-in
// configuration when the flag is empty.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid built-in configuration: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newMetrics returns a registry with process and Go runtime collectors plus
// the harness metrics.
func newMetrics() (*prometheus.Registry, *telemetry.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, telemetry.NewMetrics(reg)
}

// newClient creates the completion client shared by all requests of a command.
func newClient(cfg *config.Config, metrics *telemetry.Metrics) *llm.Client {
	return llm.NewClient(cfg, llm.WithMetrics(metrics))
}
