package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/llm-bench/internal/bigbench"
	"github.com/giantswarm/llm-bench/internal/runner"
	"github.com/giantswarm/llm-bench/internal/scorer"
	"github.com/giantswarm/llm-bench/internal/server"
)

func handleExtractAnswers(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	style := styleArg(args)
	if _, err := runner.GetStrategy(style); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	subject, _ := args["subject"].(string)
	if subject == "" {
		subject = bigbench.AllSubjects
	}
	subjects, err := bigbench.ResolveSubjects(subject)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	written, err := scorer.ExtractAll(sc.OutputDir, style, subjects)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extraction failed: %v", err)), nil
	}
	if len(written) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no %s results found in %s", style, sc.OutputDir)), nil
	}

	data, err := json.MarshalIndent(map[string]interface{}{
		"style":        style,
		"answer_files": written,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func handleScoreResults(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	style := styleArg(args)
	if _, err := runner.GetStrategy(style); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	scores, err := scorer.ScoreDir(bigbench.Open(sc.DataRoot), sc.OutputDir, style)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}

	scoresDir := sc.ScoresDir
	if scoresDir == "" {
		scoresDir = sc.OutputDir
	}
	scoresFile, err := scorer.WriteScoreFile(scores, scoresDir, style, time.Now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to write scores: %v", err)), nil
	}

	data, err := json.MarshalIndent(map[string]interface{}{
		"scores_file": scoresFile,
		"scores":      scores,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
