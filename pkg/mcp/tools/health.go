package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type healthResult struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	TenantConfigured bool   `json:"tenant_configured"`
}

// RegisterHealthTool adds a health check tool to the MCP server. The
// tool reports the server version and whether a tenant is wired up.
func RegisterHealthTool(s *server.MCPServer, version string, tenantConfigured bool) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version, and tenant connectivity configuration"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := json.Marshal(healthResult{
			Status:           "ok",
			Version:          version,
			TenantConfigured: tenantConfigured,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
