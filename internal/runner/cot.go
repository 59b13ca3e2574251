package runner

import (
	"github.com/giantswarm/llm-bench/internal/bigbench"
	"github.com/giantswarm/llm-bench/internal/config"
	"github.com/giantswarm/llm-bench/internal/llm"
)

const cotMaxTokens = 2000

// ChatStrategy sends the few-shot examples as a conversation.
type ChatStrategy struct{}

func (s *ChatStrategy) Name() string {
	return string(config.StyleChat)
}

func (s *ChatStrategy) DefaultModel() string {
	return config.DefaultModel
}

func (s *ChatStrategy) Request(prompt *bigbench.CoTPrompt, example bigbench.Example) llm.Request {
	req := llm.NewRequest(llm.MessagesPrompt(prompt.ChatMessages(example.Input)...))
	req.Model = s.DefaultModel()
	req.MaxTokens = cotMaxTokens
	return req
}

// CompletionStrategy sends the whole prompt file as text and stops at the
// end of the reasoning paragraph.
type CompletionStrategy struct{}

func (s *CompletionStrategy) Name() string {
	return string(config.StyleCompletion)
}

func (s *CompletionStrategy) DefaultModel() string {
	return config.DefaultCompletionModel
}

func (s *CompletionStrategy) Request(prompt *bigbench.CoTPrompt, example bigbench.Example) llm.Request {
	req := llm.NewRequest(llm.TextPrompt(prompt.CompletionText(example.Input)))
	req.Model = s.DefaultModel()
	req.MaxTokens = cotMaxTokens
	req.Stop = []string{"\n\n"}
	return req
}
