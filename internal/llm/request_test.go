package llm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/llm-bench/internal/config"
)

func TestNewRequestDefaults(t *testing.T) {
	req := NewRequest(TextPrompt("q"))

	assert.Equal(t, config.DefaultModel, req.Model)
	assert.Equal(t, 3500, req.MaxTokens)
	assert.Equal(t, 1.0, req.TopP)
	require.NotNil(t, req.Logprobs)
	assert.Equal(t, 10, *req.Logprobs)
	assert.Equal(t, []string{"<|diff_marker|>"}, req.Stop)
	assert.False(t, req.Echo)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &config.Config{MaxTrial: 7}

	req := Request{}.applyDefaults(cfg)
	assert.Equal(t, config.DefaultModel, req.Model)
	assert.Equal(t, 7, req.MaxTrial)

	req = Request{MaxTrial: 2}.applyDefaults(cfg)
	assert.Equal(t, 2, req.MaxTrial)

	req = Request{}.applyDefaults(&config.Config{})
	assert.Equal(t, 1, req.MaxTrial)
}

func TestNormalizePrompt(t *testing.T) {
	tests := []struct {
		name    string
		prompt  Prompt
		style   config.RequestStyle
		want    string
		wantErr bool
	}{
		{
			name:   "chat string",
			prompt: TextPrompt("hello"),
			style:  config.StyleChat,
			want:   `[{"role":"user","content":"hello"}]`,
		},
		{
			name:   "chat messages unchanged",
			prompt: MessagesPrompt(Message{Role: openai.ChatMessageRoleSystem, Content: "sys"}),
			style:  config.StyleChat,
			want:   `[{"role":"system","content":"sys"}]`,
		},
		{
			name:    "chat several strings",
			prompt:  TextsPrompt("a", "b"),
			style:   config.StyleChat,
			wantErr: true,
		},
		{
			name:   "completion strings unchanged",
			prompt: TextsPrompt("a", "b"),
			style:  config.StyleCompletion,
			want:   `["a","b"]`,
		},
		{
			name:   "completion messages flattened",
			prompt: MessagesPrompt(Message{Role: openai.ChatMessageRoleUser, Content: "hi"}),
			style:  config.StyleCompletion,
			want:   `"<|im_start|>user<|im_sep|>hi<|diff_marker|><|im_start|>assistant"`,
		},
		{
			name:    "embedding",
			prompt:  TextPrompt("x"),
			style:   config.StyleEmbedding,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizePrompt("m", tt.prompt, tt.style)
			if tt.wantErr {
				var styleErr *UnsupportedStyleError
				require.True(t, errors.As(err, &styleErr))
				assert.Equal(t, "m", styleErr.Model)
				return
			}
			require.NoError(t, err)
			encoded, err := json.Marshal(got)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(encoded))
		})
	}
}

func TestPromptJSONForms(t *testing.T) {
	for _, raw := range []string{
		`"single"`,
		`["one","two"]`,
		`[{"role":"user","content":"hi"}]`,
	} {
		var p Prompt
		require.NoError(t, json.Unmarshal([]byte(raw), &p), raw)
		encoded, err := json.Marshal(p)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(encoded))
	}

	var p Prompt
	assert.Error(t, json.Unmarshal([]byte(`42`), &p))
}

func TestPromptString(t *testing.T) {
	assert.Equal(t, "a\nb", TextsPrompt("a", "b").String())
	assert.Equal(t, "[system] rules\n[user] question", MessagesPrompt(
		Message{Role: openai.ChatMessageRoleSystem, Content: "rules"},
		Message{Role: openai.ChatMessageRoleUser, Content: "question"},
	).String())
}
