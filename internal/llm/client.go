// Package llm implements the completion client: a single logical request
// against a configured model endpoint, retried on transient failure, with
// chat and completion response shapes normalized into one Result.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/giantswarm/llm-bench/internal/config"
	"github.com/giantswarm/llm-bench/internal/telemetry"
)

// azureFilterMarker is the 400 body fragment Azure returns when its content
// management policy rejects a prompt.
const azureFilterMarker = "The response was filtered due to the prompt triggering Azure OpenAI"

const contentFilterCode = "content_filter"

// Completer issues logical completion requests.
type Completer interface {
	// Complete returns a Result for every provider outcome. The error is
	// reserved for configuration problems such as an unknown model.
	Complete(ctx context.Context, req Request) (*Result, error)
}

// Client implements Completer over HTTP.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	metrics    *telemetry.Metrics
	wait       func(context.Context) error
}

// NewClient creates a client for the given configuration. cfg is shared and
// must not be modified afterwards.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	cc := &clientConfig{}
	for _, opt := range opts {
		opt(cc)
	}

	httpClient := cc.httpClient
	if httpClient == nil {
		timeout := cfg.RequestTimeout
		if timeout == 0 {
			timeout = config.DefaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	wait := cc.wait
	if wait == nil {
		maxJitter := cfg.MaxJitter
		if cc.maxJitter != nil {
			maxJitter = *cc.maxJitter
		}
		wait = jitterWait(maxJitter)
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		metrics:    cc.metrics,
		wait:       wait,
	}
}

// target is everything an attempt needs, resolved once per logical request.
type target struct {
	model   string
	style   config.RequestStyle
	url     string
	headers config.HeaderProvider
	body    []byte
}

// Complete sends req to the endpoint serving req.Model.
func (c *Client) Complete(ctx context.Context, req Request) (*Result, error) {
	req = req.applyDefaults(c.cfg)

	modelCfg, endpoint, err := c.cfg.Resolve(req.Model)
	if err != nil {
		return nil, err
	}

	prompt, err := normalizePrompt(req.Model, req.Prompt, modelCfg.Type)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(buildPayload(req, prompt, modelCfg.Type))
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	slog.Debug("completion request", "model", req.Model, "payload", string(body))

	t := target{
		model:   req.Model,
		style:   modelCfg.Type,
		url:     endpoint.URL,
		headers: endpoint.HeaderProvider(),
		body:    body,
	}

	start := time.Now()
	last, attempts, waitErr := retry(ctx, req.MaxTrial, c.wait, func(ctx context.Context, _ int) outcome {
		return c.attempt(ctx, t)
	})
	if last.err != nil {
		return nil, last.err
	}

	var result *Result
	switch {
	case last.kind == outcomeSuccess:
		result = last.result
	case last.body != "":
		result = failureResult(last.body)
	case waitErr != nil:
		result = failureResult(waitErr.Error())
	default:
		result = failureResult(last.transportErr)
	}
	result.Attempts = attempts

	c.metrics.RecordResult(req.Model, resultOutcome(result), time.Since(start))
	if !result.Success() {
		slog.Debug("completion failed", "model", req.Model, "attempts", attempts, "status", last.status)
	}

	if req.LogFile != "" {
		if err := appendTranscript(req.LogFile, req, result); err != nil {
			slog.Error("failed to write transcript", "file", req.LogFile, "error", err)
		}
	}

	return result, nil
}

// attempt performs one HTTP round trip and classifies it.
func (c *Client) attempt(ctx context.Context, t target) outcome {
	headers, err := t.headers.Headers()
	if err != nil {
		return outcome{kind: outcomeFatal, err: fmt.Errorf("resolve headers for model %s: %w", t.model, err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(t.body))
	if err != nil {
		return outcome{kind: outcomeFatal, err: fmt.Errorf("construct request for model %s: %w", t.model, err)}
	}
	httpReq.Header = headers
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.RecordAttempt(t.model, 0)
		slog.Error("error during completion request", "model", t.model, "error", err)
		return outcome{kind: outcomeRetryable, transportErr: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.RecordAttempt(t.model, resp.StatusCode)
	if err != nil {
		slog.Error("error reading completion response", "model", t.model, "status", resp.StatusCode, "error", err)
		return outcome{kind: outcomeRetryable, status: resp.StatusCode, transportErr: err.Error()}
	}

	body := string(data)
	slog.Debug("completion response", "model", t.model, "status", resp.StatusCode, "body", body)

	if resp.StatusCode == http.StatusBadRequest && c.isContentFiltered(data) {
		return outcome{kind: outcomeSuccess, status: resp.StatusCode, body: body, result: c.filteredResult(data)}
	}

	if resp.StatusCode == http.StatusOK {
		result, err := c.decodeSuccess(data, t.style)
		if err != nil {
			slog.Error("error decoding completion response", "model", t.model, "error", err)
			return outcome{kind: outcomeRetryable, status: resp.StatusCode, body: body}
		}
		return outcome{kind: outcomeSuccess, status: resp.StatusCode, body: body, result: result}
	}

	if resp.StatusCode != http.StatusTooManyRequests && !c.isBusy(body) {
		slog.Warn("completion request unsuccessful", "model", t.model, "status", resp.StatusCode, "body", body)
	}

	if isRetryableStatus(resp.StatusCode) {
		return outcome{kind: outcomeRetryable, status: resp.StatusCode, body: body}
	}
	return outcome{kind: outcomeFatal, status: resp.StatusCode, body: body}
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusFailedDependency:
		return true
	default:
		return false
	}
}

func (c *Client) isBusy(body string) bool {
	for _, msg := range c.cfg.BusyMessages {
		if strings.Contains(body, msg) {
			return true
		}
	}
	return false
}

// isContentFiltered reports whether a 400 body is a provider content-filter
// rejection. The sentinel is disabled when no filtered message is configured.
func (c *Client) isContentFiltered(data []byte) bool {
	if c.cfg.FilteredMessage == "" {
		return false
	}
	if bytes.Contains(data, []byte(azureFilterMarker)) {
		return true
	}
	var errResp openai.ErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil || errResp.Error == nil {
		return false
	}
	return errResp.Error.Code == contentFilterCode
}

func (c *Client) filteredResult(data []byte) *Result {
	resp := &Response{
		Choices: []Choice{{
			Text:         c.cfg.FilteredMessage,
			FinishReason: openai.FinishReasonContentFilter,
		}},
		Raw: append(json.RawMessage(nil), data...),
	}
	result := successResult(resp)
	result.Filtered = true
	return result
}

// decodeSuccess parses a 200 body and moves chat message content into the
// flat text field. Choices stopped by the content filter get the sentinel.
func (c *Client) decodeSuccess(data []byte, style config.RequestStyle) (*Result, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal completion response: %w", err)
	}
	resp.Raw = append(json.RawMessage(nil), data...)

	filtered := false
	for i := range resp.Choices {
		choice := &resp.Choices[i]
		if style == config.StyleChat && choice.Message != nil {
			choice.Text = choice.Message.Content
			choice.Message = nil
		}
		if choice.FinishReason == openai.FinishReasonContentFilter && c.cfg.FilteredMessage != "" {
			choice.Text = c.cfg.FilteredMessage
			filtered = true
		}
	}

	result := successResult(&resp)
	result.Filtered = filtered
	return result, nil
}

func resultOutcome(r *Result) string {
	switch {
	case r.Filtered:
		return telemetry.OutcomeFiltered
	case r.Success():
		return telemetry.OutcomeSuccess
	default:
		return telemetry.OutcomeFailure
	}
}
