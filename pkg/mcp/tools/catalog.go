package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/qlikfox/qlikfox/pkg/qlik"
)

// RegisterCatalogTools adds the data catalog browsing tool.
func RegisterCatalogTools(s *server.MCPServer, client *qlik.Client) {
	tool := mcp.NewTool(
		"list_catalog_items",
		mcp.WithDescription(
			"Browse the tenant data catalog, optionally filtered by resource type "+
				"(app, dataset, automation). Useful for locating source datasets before modeling.",
		),
		mcp.WithString("resource_type", mcp.Description("Filter by resource type, e.g. dataset")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of items to return (default 25)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := defaultListLimit
		if val, ok := getOptionalInt(req, "limit"); ok {
			limit = val
		}

		items, err := client.ListItems(ctx, getString(req, "resource_type"), limit)
		if err != nil {
			return errorResult(err), nil
		}
		if len(items) == 0 {
			return mcp.NewToolResultText("No catalog items found."), nil
		}

		var b strings.Builder
		for _, item := range items {
			fmt.Fprintf(&b, "%s  %-12s %s", item.ID, item.ResourceType, item.Name)
			if item.SpaceID != "" {
				fmt.Fprintf(&b, " (space %s)", item.SpaceID)
			}
			b.WriteString("\n")
		}
		return mcp.NewToolResultText(b.String()), nil
	})
}
