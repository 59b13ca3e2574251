package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-bench/internal/bigbench"
	"github.com/giantswarm/llm-bench/internal/runner"
	"github.com/giantswarm/llm-bench/internal/server"
)

func newRunCmd() *cobra.Command {
	var (
		apiStyle       string
		model          string
		dataRoot       string
		outputDir      string
		maxThread      int
		subjectThreads int
		maxTrial       int
		maxTokens      int
		logFile        string
		metricsAddr    string
		timeout        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run <subject|all>",
		Short: "Run BigBench-Hard chain-of-thought completions",
		Long: `Send the few-shot chain-of-thought prompt of each subject together with every
test example to the configured model and record the completions.

Results are written to <output-dir>/cot_results/<api-style>/ as one JSON file per
subject, sorted by example index, plus a resultset.json run manifest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			subjects, err := bigbench.ResolveSubjects(args[0])
			if err != nil {
				return err
			}

			strategy, err := runner.GetStrategy(apiStyle)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			reg, metrics := newMetrics()
			if metricsAddr != "" {
				srv := server.NewMetricsServer(metricsAddr, reg)
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						slog.Error("metrics server failed", "error", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Metrics: http://%s/metrics\n", metricsAddr)
			}

			r := runner.NewRunner(newClient(cfg, metrics), strategy, bigbench.Open(dataRoot), outputDir, runner.Options{
				Model:          model,
				MaxTokens:      maxTokens,
				MaxTrial:       maxTrial,
				MaxThread:      maxThread,
				SubjectThreads: subjectThreads,
				LogFile:        logFile,
				Metrics:        metrics,
			})
			if _, _, err := cfg.Resolve(r.Model()); err != nil {
				return err
			}

			fmt.Printf("API style: %s\n", strategy.Name())
			fmt.Printf("Model: %s\n", r.Model())
			fmt.Printf("Subjects: %d\n\n", len(subjects))

			r.SetProgressFunc(func(subject string, done, total int) {
				slog.Debug("progress", "subject", subject, "done", done, "total", total)
			})

			run, err := r.Run(ctx, subjects)
			if err != nil {
				return err
			}

			fmt.Printf("Run completed.\n")
			fmt.Printf("Run ID: %s\n", run.ID)
			fmt.Printf("Duration: %s\n", run.Duration)
			fmt.Printf("Results:\n")
			for _, s := range run.Subjects {
				fmt.Printf("  - %s: %d/%d examples, %s\n", s.Subject, s.Completed, s.Examples, s.ResultsFile)
			}
			if missing := len(subjects) - len(run.Subjects); missing > 0 {
				fmt.Printf("%d subject(s) failed, see log for details\n", missing)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&apiStyle, "api-style", "chat", "API style: chat or completion")
	cmd.Flags().StringVar(&model, "model", "", "Configured model name (default: gpt-4-1106-preview for chat, gemini-compete-wus for completion)")
	cmd.Flags().StringVar(&dataRoot, "data-root", defaultDataRoot, "BigBench dataset root containing cot-prompts/ and bbh/")
	cmd.Flags().StringVar(&outputDir, "output-dir", defaultOutputDir, "Directory for results")
	cmd.Flags().IntVar(&maxThread, "max-thread", runner.DefaultMaxThread, "Maximum concurrent requests per subject (0 means unlimited)")
	cmd.Flags().IntVar(&subjectThreads, "subject-threads", 0, "Maximum concurrently processed subjects (0 means unlimited)")
	cmd.Flags().IntVar(&maxTrial, "max-trial", 0, "Maximum attempts per request (default: from configuration)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Maximum completion tokens (default: 2000)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Append a transcript of every request to this file")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run (e.g. :9090)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall timeout for the run (e.g. 30m, 1h). 0 means no timeout")

	return cmd
}
