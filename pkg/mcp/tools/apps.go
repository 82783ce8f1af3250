package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/qlikfox/qlikfox/pkg/apperrors"
	"github.com/qlikfox/qlikfox/pkg/qlik"
)

const defaultListLimit = 25

// RegisterAppTools adds tenant app discovery tools.
func RegisterAppTools(s *server.MCPServer, client *qlik.Client) {
	registerListAppsTool(s, client)
	registerGetAppTool(s, client)
}

func registerListAppsTool(s *server.MCPServer, client *qlik.Client) {
	tool := mcp.NewTool(
		"list_apps",
		mcp.WithDescription("List applications on the tenant. Useful for finding the app a generated data model should target."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of apps to return (default 25)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := defaultListLimit
		if val, ok := getOptionalInt(req, "limit"); ok {
			limit = val
		}

		apps, err := client.ListApps(ctx, limit)
		if err != nil {
			return errorResult(err), nil
		}
		if len(apps) == 0 {
			return mcp.NewToolResultText("No apps found on the tenant."), nil
		}

		var b strings.Builder
		for _, app := range apps {
			fmt.Fprintf(&b, "%s  %s", app.ID, app.Name)
			if app.SpaceID != "" {
				fmt.Fprintf(&b, " (space %s)", app.SpaceID)
			}
			b.WriteString("\n")
		}
		return mcp.NewToolResultText(b.String()), nil
	})
}

func registerGetAppTool(s *server.MCPServer, client *qlik.Client) {
	tool := mcp.NewTool(
		"get_app",
		mcp.WithDescription("Get details for a single app by id."),
		mcp.WithString("app_id",
			mcp.Required(),
			mcp.Description("Id of the app to fetch"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		appID := getString(req, "app_id")
		if appID == "" {
			return errorResult(apperrors.NewValidation("app_id is required")), nil
		}

		app, err := client.GetApp(ctx, appID)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(app), nil
	})
}
