package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/giantswarm/llm-bench/internal/config"
)

// Message is a single role/content chat turn.
type Message = openai.ChatCompletionMessage

// Prompt is either plain text (one or more strings) or an ordered list of
// chat messages. Use TextPrompt, TextsPrompt or MessagesPrompt to build one.
type Prompt struct {
	texts    []string
	messages []Message
}

// TextPrompt builds a single-string prompt.
func TextPrompt(text string) Prompt {
	return Prompt{texts: []string{text}}
}

// TextsPrompt builds a multi-string prompt. Completion endpoints answer each
// string with its own choice; chat endpoints accept exactly one.
func TextsPrompt(texts ...string) Prompt {
	return Prompt{texts: append([]string(nil), texts...)}
}

// MessagesPrompt builds a chat prompt from role/content messages.
func MessagesPrompt(messages ...Message) Prompt {
	return Prompt{messages: append([]Message(nil), messages...)}
}

// IsMessages reports whether the prompt is a message list.
func (p Prompt) IsMessages() bool {
	return p.messages != nil
}

// Messages returns a copy of the prompt's messages.
func (p Prompt) Messages() []Message {
	return append([]Message(nil), p.messages...)
}

// String renders the prompt for human-readable transcripts.
func (p Prompt) String() string {
	if p.IsMessages() {
		var b strings.Builder
		for i, m := range p.messages {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "[%s] %s", m.Role, m.Content)
		}
		return b.String()
	}
	return strings.Join(p.texts, "\n")
}

// MarshalJSON encodes the prompt as a string, a string array or a message
// array, matching what was sent to the provider.
func (p Prompt) MarshalJSON() ([]byte, error) {
	switch {
	case p.IsMessages():
		return json.Marshal(p.messages)
	case len(p.texts) == 1:
		return json.Marshal(p.texts[0])
	default:
		return json.Marshal(p.texts)
	}
}

// UnmarshalJSON accepts the forms produced by MarshalJSON.
func (p *Prompt) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*p = TextPrompt(text)
		return nil
	}
	var texts []string
	if err := json.Unmarshal(data, &texts); err == nil {
		*p = TextsPrompt(texts...)
		return nil
	}
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("prompt must be a string, string array or message array: %w", err)
	}
	*p = MessagesPrompt(messages...)
	return nil
}

// Request is one logical completion request.
type Request struct {
	Prompt           Prompt
	Model            string
	Temperature      float64
	MaxTokens        int
	TopP             float64
	Logprobs         *int
	Stop             []string
	Echo             bool
	PresencePenalty  float64
	FrequencyPenalty float64

	// MaxTrial bounds the number of HTTP attempts. Zero uses the configured default.
	MaxTrial int

	// LogFile, when set, receives an appended transcript of the call.
	LogFile string
}

const (
	defaultMaxTokens = 3500
	defaultLogprobs  = 10
	defaultStop      = "<|diff_marker|>"
)

// NewRequest returns a request for prompt with the harness defaults.
func NewRequest(prompt Prompt) Request {
	logprobs := defaultLogprobs
	return Request{
		Prompt:      prompt,
		Model:       config.DefaultModel,
		Temperature: 0,
		MaxTokens:   defaultMaxTokens,
		TopP:        1.0,
		Logprobs:    &logprobs,
		Stop:        []string{defaultStop},
	}
}

// applyDefaults fills fields the caller left at their zero value.
func (r Request) applyDefaults(cfg *config.Config) Request {
	if r.Model == "" {
		r.Model = config.DefaultModel
	}
	if r.MaxTokens == 0 {
		r.MaxTokens = defaultMaxTokens
	}
	if r.MaxTrial <= 0 {
		r.MaxTrial = cfg.MaxTrial
	}
	if r.MaxTrial <= 0 {
		r.MaxTrial = 1
	}
	return r
}

// UnsupportedStyleError is returned for models whose request style cannot
// serve completions, or prompts that do not fit the style.
type UnsupportedStyleError struct {
	Model  string
	Style  config.RequestStyle
	Reason string
}

func (e *UnsupportedStyleError) Error() string {
	msg := fmt.Sprintf("model %s: request style %q is not supported", e.Model, e.Style)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// normalizePrompt reshapes the prompt for the model's request style. Chat
// models get messages; completion models get flattened text.
func normalizePrompt(model string, p Prompt, style config.RequestStyle) (Prompt, error) {
	switch style {
	case config.StyleChat:
		if p.IsMessages() {
			return p, nil
		}
		if len(p.texts) != 1 {
			return Prompt{}, &UnsupportedStyleError{
				Model:  model,
				Style:  style,
				Reason: fmt.Sprintf("chat models accept one prompt at a time, got %d", len(p.texts)),
			}
		}
		return MessagesPrompt(Message{Role: openai.ChatMessageRoleUser, Content: p.texts[0]}), nil

	case config.StyleCompletion:
		if !p.IsMessages() {
			return p, nil
		}
		var b strings.Builder
		for _, m := range p.messages {
			fmt.Fprintf(&b, "<|im_start|>%s<|im_sep|>%s<|diff_marker|>", m.Role, m.Content)
		}
		b.WriteString("<|im_start|>assistant")
		return TextPrompt(b.String()), nil

	default:
		return Prompt{}, &UnsupportedStyleError{Model: model, Style: style}
	}
}

// payload is the provider request body. Prompt and Messages are mutually
// exclusive; Logprobs and Echo are only sent to completion endpoints.
type payload struct {
	Model            string    `json:"model"`
	Prompt           any       `json:"prompt,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	N                int       `json:"n"`
	Stream           bool      `json:"stream"`
	TopP             float64   `json:"top_p"`
	Logprobs         *int      `json:"logprobs,omitempty"`
	PresencePenalty  float64   `json:"presence_penalty"`
	FrequencyPenalty float64   `json:"frequency_penalty"`
	Echo             *bool     `json:"echo,omitempty"`
	Stop             []string  `json:"stop,omitempty"`
}

func buildPayload(req Request, prompt Prompt, style config.RequestStyle) payload {
	p := payload{
		Model:            req.Model,
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		N:                1,
		Stream:           false,
		TopP:             req.TopP,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
		Stop:             req.Stop,
	}

	if style == config.StyleChat {
		p.Messages = prompt.Messages()
		return p
	}

	if len(prompt.texts) == 1 {
		p.Prompt = prompt.texts[0]
	} else {
		p.Prompt = prompt.texts
	}
	p.Logprobs = req.Logprobs
	echo := req.Echo
	p.Echo = &echo
	return p
}
