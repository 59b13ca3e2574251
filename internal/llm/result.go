package llm

import (
	"encoding/json"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Response is the provider payload after normalization: every choice carries
// its text in Text, chat message content included.
type Response struct {
	ID      string        `json:"id,omitempty"`
	Object  string        `json:"object,omitempty"`
	Created int64         `json:"created,omitempty"`
	Model   string        `json:"model,omitempty"`
	Choices []Choice      `json:"choices"`
	Usage   *openai.Usage `json:"usage,omitempty"`

	// Raw is the undecoded response body.
	Raw json.RawMessage `json:"-"`
}

// Choice is one generated alternative.
type Choice struct {
	Index        int                 `json:"index"`
	Text         string              `json:"text"`
	FinishReason openai.FinishReason `json:"finish_reason,omitempty"`
	Message      *Message            `json:"message,omitempty"`
	Logprobs     json.RawMessage     `json:"logprobs,omitempty"`
}

// Text holds per-choice completion text in provider order. With exactly one
// choice it behaves as a scalar string.
type Text []string

// IsScalar reports whether the provider returned exactly one choice.
func (t Text) IsScalar() bool {
	return len(t) == 1
}

// String returns the single text, or all texts joined by newlines.
func (t Text) String() string {
	if t.IsScalar() {
		return t[0]
	}
	return strings.Join(t, "\n")
}

// MarshalJSON encodes a scalar as a JSON string and anything else as an array.
func (t Text) MarshalJSON() ([]byte, error) {
	if t.IsScalar() {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

// UnmarshalJSON accepts a JSON string or string array.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text{s}
		return nil
	}
	var ss []string
	if err := json.Unmarshal(data, &ss); err != nil {
		return err
	}
	*t = Text(ss)
	return nil
}

// Result is the outcome of a logical completion request: either a success
// with Response and Text, or a failure with Error holding the last raw
// response body.
type Result struct {
	Response *Response `json:"response,omitempty"`
	Text     Text      `json:"text,omitempty"`

	// Filtered marks the provider content-filter sentinel.
	Filtered bool   `json:"filtered,omitempty"`
	Error    string `json:"error,omitempty"`

	// Attempts is the number of HTTP attempts made.
	Attempts int `json:"attempts"`
}

// Success reports whether the result carries a response.
func (r *Result) Success() bool {
	return r != nil && r.Response != nil
}

func successResult(resp *Response) *Result {
	text := make(Text, len(resp.Choices))
	for i, c := range resp.Choices {
		text[i] = c.Text
	}
	return &Result{Response: resp, Text: text}
}

func failureResult(body string) *Result {
	return &Result{Error: body}
}
