package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/llm-bench/internal/bigbench"
	"github.com/giantswarm/llm-bench/internal/server"
)

func handleListSubjects(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	available := bigbench.Open(sc.DataRoot).Available()

	type subjectInfo struct {
		Name       string `json:"name"`
		Available  bool   `json:"available"`
		PromptFile string `json:"prompt_file"`
		TestFile   string `json:"test_file"`
	}

	subjects := make([]subjectInfo, 0, len(bigbench.Subjects))
	for _, name := range bigbench.Subjects {
		subjects = append(subjects, subjectInfo{
			Name:       name,
			Available:  slices.Contains(available, name),
			PromptFile: bigbench.PromptFile(name),
			TestFile:   bigbench.TestFile(name),
		})
	}

	data, err := json.MarshalIndent(subjects, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal subjects: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
