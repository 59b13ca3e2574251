package runner

import (
	"github.com/giantswarm/llm-bench/internal/bigbench"
	"github.com/giantswarm/llm-bench/internal/config"
	"github.com/giantswarm/llm-bench/internal/llm"
)

// Strategy turns a few-shot prompt and a test example into a completion
// request for one API style.
type Strategy interface {
	// Name returns the API style identifier, used in result file names.
	Name() string

	// DefaultModel is the model used when the runner has none configured.
	DefaultModel() string

	// Request builds the request for a single example.
	Request(prompt *bigbench.CoTPrompt, example bigbench.Example) llm.Request
}

// GetStrategy returns the Strategy for the given API style.
func GetStrategy(name string) (Strategy, error) {
	switch name {
	case string(config.StyleChat), "":
		return &ChatStrategy{}, nil
	case string(config.StyleCompletion):
		return &CompletionStrategy{}, nil
	default:
		return nil, &UnsupportedStrategyError{Name: name}
	}
}

// UnsupportedStrategyError is returned when an unknown API style is requested.
type UnsupportedStrategyError struct {
	Name string
}

func (e *UnsupportedStrategyError) Error() string {
	return "unsupported API style: " + e.Name
}
