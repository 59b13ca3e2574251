package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/llm-bench/internal/server"
)

func handleListModels(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if sc.Config == nil {
		return mcp.NewToolResultError("model configuration is not loaded"), nil
	}

	type modelInfo struct {
		Name       string `json:"name"`
		Endpoint   string `json:"endpoint"`
		Type       string `json:"type"`
		Configured bool   `json:"configured"`
	}

	names := sc.Config.ModelNames()
	slices.Sort(names)

	models := make([]modelInfo, 0, len(names))
	for _, name := range names {
		m := sc.Config.Models[name]
		_, _, err := sc.Config.Resolve(name)
		models = append(models, modelInfo{
			Name:       name,
			Endpoint:   m.Endpoint,
			Type:       string(m.Type),
			Configured: err == nil,
		})
	}

	data, err := json.MarshalIndent(models, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal models: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
