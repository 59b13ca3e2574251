package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/llm-bench/internal/bigbench"
	"github.com/giantswarm/llm-bench/internal/config"
	"github.com/giantswarm/llm-bench/internal/server"
)

func handleGetResults(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	file, _ := args["file"].(string)

	if file != "" {
		return getResultFile(sc, file)
	}
	return listRuns(sc)
}

// listRuns returns the run metadata of each API style plus the score files.
func listRuns(sc *server.ServerContext) (*mcp.CallToolResult, error) {
	runs := []map[string]interface{}{}
	for _, style := range []config.RequestStyle{config.StyleChat, config.StyleCompletion} {
		metadataPath := filepath.Join(bigbench.ResultsDir(sc.OutputDir, string(style)), bigbench.ResultSetFile)
		data, err := os.ReadFile(metadataPath)
		if err != nil {
			continue
		}

		var metadata map[string]interface{}
		if err := json.Unmarshal(data, &metadata); err != nil {
			continue
		}
		metadata["score_files"] = scoreFiles(sc, string(style))
		runs = append(runs, metadata)
	}

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal runs: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// scoreFiles lists score file names for style. get_results resolves them
// against the scores directory.
func scoreFiles(sc *server.ServerContext, style string) []string {
	entries, err := os.ReadDir(scoresRoot(sc))
	if err != nil {
		return nil
	}
	prefix := "bigbench_scores_" + style + "_"
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, e.Name())
		}
	}
	return files
}

func getResultFile(sc *server.ServerContext, file string) (*mcp.CallToolResult, error) {
	path, err := resolveResultFile(sc, file)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid file: %v", err)), nil
	}
	if filepath.Ext(path) != ".json" {
		return mcp.NewToolResultError("only JSON result files can be retrieved"), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("result file %q not found: %v", file, err)), nil
	}
	if !json.Valid(data) {
		return mcp.NewToolResultError(fmt.Sprintf("result file %q is not valid JSON", file)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
