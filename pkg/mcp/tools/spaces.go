package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/qlikfox/qlikfox/pkg/qlik"
)

// RegisterSpaceTools adds tenant space discovery tools.
func RegisterSpaceTools(s *server.MCPServer, client *qlik.Client) {
	tool := mcp.NewTool(
		"list_spaces",
		mcp.WithDescription("List shared and managed spaces on the tenant."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of spaces to return (default 25)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := defaultListLimit
		if val, ok := getOptionalInt(req, "limit"); ok {
			limit = val
		}

		spaces, err := client.ListSpaces(ctx, limit)
		if err != nil {
			return errorResult(err), nil
		}
		if len(spaces) == 0 {
			return mcp.NewToolResultText("No spaces found on the tenant."), nil
		}

		var b strings.Builder
		for _, space := range spaces {
			fmt.Fprintf(&b, "%s  %-8s %s\n", space.ID, space.Type, space.Name)
		}
		return mcp.NewToolResultText(b.String()), nil
	})
}
