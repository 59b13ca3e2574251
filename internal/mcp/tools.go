package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/llm-bench/internal/server"
)

// RegisterTools registers all MCP tools with the server.
func RegisterTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := registerBenchmarkTools(s, sc); err != nil {
		return err
	}
	if err := registerModelTools(s, sc); err != nil {
		return err
	}
	return nil
}

func registerBenchmarkTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// list_subjects
	listTool := mcp.NewTool("list_subjects",
		mcp.WithDescription("List BigBench-Hard subjects and whether their prompt and test files are present in the dataset"),
	)
	s.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListSubjects(ctx, request, sc)
	})

	// run_cot
	runTool := mcp.NewTool("run_cot",
		mcp.WithDescription("Run chain-of-thought completions for a BigBench subject (or 'all') and write the results"),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Subject name (e.g. 'boolean_expressions') or 'all'"),
		),
		mcp.WithString("api_style",
			mcp.Description("API style: 'chat' (default) or 'completion'"),
			mcp.Enum("chat", "completion"),
		),
		mcp.WithString("model",
			mcp.Description("Configured model to use (default: the style's default model)"),
		),
		mcp.WithNumber("max_thread",
			mcp.Description("Maximum concurrent requests per subject (default: 8, 0 means unlimited)"),
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Maximum completion tokens (default: 2000)"),
		),
		mcp.WithNumber("max_trial",
			mcp.Description("Maximum attempts per request (default: from config)"),
		),
	)
	s.AddTool(runTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRunCoT(ctx, request, sc)
	})

	// extract_answers
	extractTool := mcp.NewTool("extract_answers",
		mcp.WithDescription("Extract final answers from chain-of-thought results into answer files"),
		mcp.WithString("api_style",
			mcp.Description("API style of the results: 'chat' (default) or 'completion'"),
			mcp.Enum("chat", "completion"),
		),
		mcp.WithString("subject",
			mcp.Description("Subject to extract (default: all subjects with results)"),
		),
	)
	s.AddTool(extractTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExtractAnswers(ctx, request, sc)
	})

	// score_results
	scoreTool := mcp.NewTool("score_results",
		mcp.WithDescription("Score extracted answers against BigBench targets by exact match and write a score file"),
		mcp.WithString("api_style",
			mcp.Description("API style of the answers: 'chat' (default) or 'completion'"),
			mcp.Enum("chat", "completion"),
		),
	)
	s.AddTool(scoreTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleScoreResults(ctx, request, sc)
	})

	// get_results
	getResultsTool := mcp.NewTool("get_results",
		mcp.WithDescription("Retrieve run metadata and score files, or the content of a single result file"),
		mcp.WithString("file",
			mcp.Description("Path of a result, answer or score file relative to the output directory (optional, lists runs if omitted)"),
		),
	)
	s.AddTool(getResultsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetResults(ctx, request, sc)
	})

	return nil
}

func registerModelTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// list_models
	listTool := mcp.NewTool("list_models",
		mcp.WithDescription("List configured models with their endpoint and request style"),
	)
	s.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListModels(ctx, request, sc)
	})

	return nil
}

// styleArg returns the api_style argument, defaulting to chat.
func styleArg(args map[string]interface{}) string {
	style, _ := args["api_style"].(string)
	if style == "" {
		return "chat"
	}
	return style
}

// intArg returns a positive integer argument or zero.
func intArg(args map[string]interface{}, name string) int {
	if v, ok := args[name].(float64); ok && v > 0 {
		return int(v)
	}
	return 0
}
