package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-bench/internal/bigbench"
	"github.com/giantswarm/llm-bench/internal/runner"
	"github.com/giantswarm/llm-bench/internal/scorer"
)

func newExtractCmd() *cobra.Command {
	var (
		apiStyle  string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "extract [subject|all]",
		Short: "Extract final answers from chain-of-thought results",
		Long: `Read the CoT results of each subject and write the text following the last
"So the answer is" to <output-dir>/answers/<subject>_<api-style>_answers.json.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := runner.GetStrategy(apiStyle); err != nil {
				return err
			}

			name := bigbench.AllSubjects
			if len(args) == 1 {
				name = args[0]
			}
			subjects, err := bigbench.ResolveSubjects(name)
			if err != nil {
				return err
			}

			written, err := scorer.ExtractAll(outputDir, apiStyle, subjects)
			if err != nil {
				return err
			}
			if len(written) == 0 {
				return fmt.Errorf("no %s results found in %s", apiStyle, outputDir)
			}

			fmt.Printf("Answers written:\n")
			for _, path := range written {
				fmt.Printf("  - %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiStyle, "api-style", "chat", "API style of the results: chat or completion")
	cmd.Flags().StringVar(&outputDir, "output-dir", defaultOutputDir, "Directory containing cot_results/")

	return cmd
}
