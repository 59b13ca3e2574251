package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-bench/internal/bigbench"
	"github.com/giantswarm/llm-bench/internal/runner"
	"github.com/giantswarm/llm-bench/internal/scorer"
)

func newScoreCmd() *cobra.Command {
	var (
		apiStyle  string
		dataRoot  string
		outputDir string
		scoresDir string
		watch     bool
		debounce  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score extracted answers against BigBench-Hard targets",
		Long: `Compare every answers file of the given API style with the targets of the
matching BigBench-Hard test file by exact string match. Subjects without an
answers file, or with a different number of answers than examples, are skipped.

Scores are written to bigbench_scores_<api-style>_<timestamp>.json with one
entry per subject and an "overall" entry. With --watch, answers files are
rescored whenever they change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := runner.GetStrategy(apiStyle); err != nil {
				return err
			}
			dataset := bigbench.Open(dataRoot)

			scoreOnce := func() error {
				scores, err := scorer.ScoreDir(dataset, outputDir, apiStyle)
				if err != nil {
					return err
				}
				path, err := scorer.WriteScoreFile(scores, scoresDir, apiStyle, time.Now())
				if err != nil {
					return err
				}
				printScores(scores)
				fmt.Printf("\nScores written to: %s\n", path)
				return nil
			}

			if err := scoreOnce(); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			fmt.Printf("\nWatching %s for changes...\n", bigbench.AnswersDir(outputDir))
			return scorer.Watch(ctx, outputDir, apiStyle, debounce, scoreOnce)
		},
	}

	cmd.Flags().StringVar(&apiStyle, "api-style", "chat", "API style of the answers: chat or completion")
	cmd.Flags().StringVar(&dataRoot, "data-root", defaultDataRoot, "BigBench dataset root containing bbh/")
	cmd.Flags().StringVar(&outputDir, "output-dir", defaultOutputDir, "Directory containing answers/")
	cmd.Flags().StringVar(&scoresDir, "scores-dir", ".", "Directory for score files")
	cmd.Flags().BoolVar(&watch, "watch", false, "Rescore whenever an answers file changes")
	cmd.Flags().DurationVar(&debounce, "debounce", time.Second, "Quiet period before rescoring in watch mode")

	return cmd
}

func printScores(scores scorer.Scores) {
	names := make([]string, 0, len(scores))
	for name := range scores {
		if name != scorer.OverallKey {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	fmt.Printf("Scores:\n")
	for _, name := range append(names, scorer.OverallKey) {
		s := scores[name]
		line := fmt.Sprintf("  %-42s %4d/%-4d %6.2f%%", name, s.Correct, s.Total, s.Score*100)
		if s.Missing > 0 {
			line += fmt.Sprintf("  (%d without answer)", s.Missing)
		}
		fmt.Println(line)
	}
}
