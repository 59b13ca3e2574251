package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/giantswarm/llm-bench/internal/bigbench"
	"github.com/giantswarm/llm-bench/internal/llm"
	"github.com/giantswarm/llm-bench/internal/telemetry"
)

// DefaultMaxThread is the per-subject request concurrency used by the CLI
// and MCP surfaces when none is given. Providers throttle aggressively, so it
// stays small; an explicit 0 removes the bound.
const DefaultMaxThread = 8

// ProgressFunc is called to report progress during a run.
type ProgressFunc func(subject string, done, total int)

// Options tune a Runner. Zero values fall back to the strategy's defaults.
type Options struct {
	// Model overrides the strategy's default model.
	Model string

	MaxTokens int
	MaxTrial  int

	// MaxThread bounds concurrent requests per subject. Zero means no bound.
	MaxThread int

	// SubjectThreads bounds concurrently processed subjects. Zero runs all
	// subjects at once.
	SubjectThreads int

	// LogFile receives the transcript of every request.
	LogFile string

	Metrics *telemetry.Metrics
}

// Runner runs chain-of-thought benchmarks against a completion client.
type Runner struct {
	client    llm.Completer
	strategy  Strategy
	dataset   *bigbench.Dataset
	outputDir string
	opts      Options
	progress  ProgressFunc
}

// NewRunner creates a runner writing results under outputDir.
func NewRunner(client llm.Completer, strategy Strategy, dataset *bigbench.Dataset, outputDir string, opts Options) *Runner {
	return &Runner{
		client:    client,
		strategy:  strategy,
		dataset:   dataset,
		outputDir: outputDir,
		opts:      opts,
	}
}

// SetProgressFunc sets the progress callback. It may be called concurrently
// for different subjects.
func (r *Runner) SetProgressFunc(fn ProgressFunc) {
	r.progress = fn
}

// Model returns the model requests are sent to.
func (r *Runner) Model() string {
	if r.opts.Model != "" {
		return r.opts.Model
	}
	return r.strategy.DefaultModel()
}

// Run processes subjects concurrently and writes run metadata. Subjects that
// fail are logged and left out of the returned run.
func (r *Runner) Run(ctx context.Context, subjects []string) (*bigbench.Run, error) {
	if len(subjects) == 0 {
		return nil, fmt.Errorf("no subjects specified for run")
	}

	outputPath := bigbench.ResultsDir(r.outputDir, r.strategy.Name())
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now()
	run := &bigbench.Run{
		ID:        fmt.Sprintf("bigbench_%s_%s", r.strategy.Name(), timestamp.Format("20060102-150405")),
		Style:     r.strategy.Name(),
		Model:     r.Model(),
		Timestamp: timestamp,
	}

	slog.Info("processing CoT for BigBench subjects", "style", run.Style, "model", run.Model, "subjects", subjects)

	subjectRuns := RunBatch(ctx, subjects, r.RunSubject, r.opts.SubjectThreads,
		WithBatchMetrics(r.opts.Metrics, "subjects"))
	slices.SortFunc(subjectRuns, func(a, b bigbench.SubjectRun) int {
		return slices.Index(subjects, a.Subject) - slices.Index(subjects, b.Subject)
	})
	run.Subjects = subjectRuns
	run.Duration = time.Since(timestamp)

	if err := writeRunMetadata(outputPath, run); err != nil {
		return nil, fmt.Errorf("failed to write run metadata: %w", err)
	}

	slog.Info("run complete", "id", run.ID, "subjects", len(run.Subjects), "duration", run.Duration)
	return run, nil
}

type indexedExample struct {
	index   int
	example bigbench.Example
}

// RunSubject completes every example of a subject and writes the records,
// sorted by example index. Examples whose request fails are dropped.
func (r *Runner) RunSubject(ctx context.Context, subject string) (bigbench.SubjectRun, error) {
	start := time.Now()

	prompt, err := r.dataset.LoadPrompt(subject)
	if err != nil {
		return bigbench.SubjectRun{}, err
	}
	examples, err := r.dataset.LoadExamples(subject)
	if err != nil {
		return bigbench.SubjectRun{}, err
	}

	slog.Info("processing subject", "subject", subject, "examples", len(examples))

	tasks := make([]indexedExample, len(examples))
	for i, ex := range examples {
		tasks[i] = indexedExample{index: i, example: ex}
	}

	complete := func(ctx context.Context, task indexedExample) (bigbench.Record, error) {
		req := r.request(prompt, task.example)
		result, err := r.client.Complete(ctx, req)
		if err != nil {
			return bigbench.Record{}, fmt.Errorf("example %d of %s: %w", task.index, subject, err)
		}
		if !result.Success() {
			return bigbench.Record{}, fmt.Errorf("example %d of %s failed after %d attempts: %s", task.index, subject, result.Attempts, result.Error)
		}
		return bigbench.Record{
			Index:      task.index,
			TestName:   subject,
			Prompt:     req.Prompt,
			Completion: result.Text.String(),
		}, nil
	}

	opts := []BatchOption{WithBatchMetrics(r.opts.Metrics, subject)}
	if r.progress != nil {
		opts = append(opts, WithProgress(func(done, total int) {
			r.progress(subject, done, total)
		}))
	}
	records := RunBatch(ctx, tasks, complete, r.opts.MaxThread, opts...)
	slices.SortFunc(records, func(a, b bigbench.Record) int {
		return a.Index - b.Index
	})

	resultsFile := bigbench.ResultsFile(r.outputDir, subject, r.strategy.Name())
	if err := writeJSON(resultsFile, records); err != nil {
		return bigbench.SubjectRun{}, fmt.Errorf("failed to write results for %s: %w", subject, err)
	}

	sr := bigbench.SubjectRun{
		Subject:     subject,
		Examples:    len(examples),
		Completed:   len(records),
		Duration:    time.Since(start),
		ResultsFile: resultsFile,
	}
	if sr.Completed < sr.Examples {
		slog.Warn("subject incomplete", "subject", subject, "completed", sr.Completed, "examples", sr.Examples)
	}
	slog.Info("subject complete", "subject", subject, "completed", sr.Completed, "duration", sr.Duration)
	return sr, nil
}

func (r *Runner) request(prompt *bigbench.CoTPrompt, example bigbench.Example) llm.Request {
	req := r.strategy.Request(prompt, example)
	req.Model = r.Model()
	if r.opts.MaxTokens > 0 {
		req.MaxTokens = r.opts.MaxTokens
	}
	if r.opts.MaxTrial > 0 {
		req.MaxTrial = r.opts.MaxTrial
	}
	req.LogFile = r.opts.LogFile
	return req
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeRunMetadata(outputPath string, run *bigbench.Run) error {
	subjects := make([]map[string]interface{}, 0, len(run.Subjects))
	for _, s := range run.Subjects {
		subjects = append(subjects, map[string]interface{}{
			"subject":      s.Subject,
			"examples":     s.Examples,
			"completed":    s.Completed,
			"duration":     s.Duration.Seconds(),
			"results_file": s.ResultsFile,
		})
	}

	metadata := map[string]interface{}{
		"id":            run.ID,
		"style":         run.Style,
		"model":         run.Model,
		"timestamp":     run.Timestamp,
		"full_duration": run.Duration.Seconds(),
		"subjects":      subjects,
	}

	return writeJSON(filepath.Join(outputPath, bigbench.ResultSetFile), metadata)
}
