package server

import (
	"github.com/giantswarm/llm-bench/internal/config"
	"github.com/giantswarm/llm-bench/internal/llm"
	"github.com/giantswarm/llm-bench/internal/telemetry"
)

// ServerContext holds shared dependencies for MCP tool handlers.
type ServerContext struct {
	Config    *config.Config
	Client    llm.Completer
	Metrics   *telemetry.Metrics
	DataRoot  string // BigBench dataset root (cot-prompts/, bbh/)
	OutputDir string // results root (cot_results/, answers/)
	ScoresDir string // where score files are written
}
