package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-bench/internal/bigbench"
)

func newListCmd() *cobra.Command {
	var dataRoot string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List BigBench-Hard subjects and configured models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			available := bigbench.Open(dataRoot).Available()
			fmt.Printf("Subjects (%d of %d available in %s):\n\n", len(available), len(bigbench.Subjects), dataRoot)
			for _, name := range bigbench.Subjects {
				marker := " "
				if slices.Contains(available, name) {
					marker = "*"
				}
				fmt.Printf("  %s %s\n", marker, name)
			}

			names := cfg.ModelNames()
			slices.Sort(names)
			fmt.Printf("\nModels:\n\n")
			for _, name := range names {
				m := cfg.Models[name]
				status := "ready"
				if _, _, err := cfg.Resolve(name); err != nil {
					status = err.Error()
				}
				fmt.Printf("  - %s\n", name)
				fmt.Printf("    Type: %s\n", m.Type)
				fmt.Printf("    Endpoint: %s (%s)\n\n", m.Endpoint, status)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&dataRoot, "data-root", defaultDataRoot, "BigBench dataset root containing cot-prompts/ and bbh/")

	return cmd
}
