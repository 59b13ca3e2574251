package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/llm-bench/internal/bigbench"
	"github.com/giantswarm/llm-bench/internal/runner"
	"github.com/giantswarm/llm-bench/internal/server"
)

func handleRunCoT(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if sc.Client == nil {
		return mcp.NewToolResultError("LLM client is not configured"), nil
	}

	args := request.GetArguments()

	subject, ok := args["subject"].(string)
	if !ok || subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}
	subjects, err := bigbench.ResolveSubjects(subject)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	strategy, err := runner.GetStrategy(styleArg(args))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	model, _ := args["model"].(string)
	if model != "" && sc.Config != nil {
		if _, _, err := sc.Config.Resolve(model); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid model: %v", err)), nil
		}
	}

	r := runner.NewRunner(sc.Client, strategy, bigbench.Open(sc.DataRoot), sc.OutputDir, runOptions(args, model, sc))
	run, err := r.Run(ctx, subjects)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run failed: %v", err)), nil
	}

	results := make([]map[string]interface{}, 0, len(run.Subjects))
	for _, s := range run.Subjects {
		results = append(results, map[string]interface{}{
			"subject":      s.Subject,
			"examples":     s.Examples,
			"completed":    s.Completed,
			"results_file": s.ResultsFile,
			"duration":     s.Duration.String(),
		})
	}

	summary := map[string]interface{}{
		"run_id":   run.ID,
		"style":    run.Style,
		"model":    run.Model,
		"duration": run.Duration.String(),
		"subjects": results,
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal summary: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func runOptions(args map[string]interface{}, model string, sc *server.ServerContext) runner.Options {
	maxThread := runner.DefaultMaxThread
	if v, ok := args["max_thread"].(float64); ok && v >= 0 {
		maxThread = int(v)
	}
	return runner.Options{
		Model:     model,
		MaxThread: maxThread,
		MaxTokens: intArg(args, "max_tokens"),
		MaxTrial:  intArg(args, "max_trial"),
		Metrics:   sc.Metrics,
	}
}
