package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/qlikfox/qlikfox/pkg/apperrors"
	"github.com/qlikfox/qlikfox/pkg/qlik"
)

// RegisterReloadTools adds app reload tools: listing recent runs and
// triggering a new one.
func RegisterReloadTools(s *server.MCPServer, client *qlik.Client, logger *zap.Logger) {
	registerListReloadsTool(s, client)
	registerTriggerReloadTool(s, client, logger)
}

func registerListReloadsTool(s *server.MCPServer, client *qlik.Client) {
	tool := mcp.NewTool(
		"list_reloads",
		mcp.WithDescription("List recent reload runs, optionally filtered to one app."),
		mcp.WithString("app_id", mcp.Description("Only show reloads of this app")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of reloads to return (default 25)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := defaultListLimit
		if val, ok := getOptionalInt(req, "limit"); ok {
			limit = val
		}

		reloads, err := client.ListReloads(ctx, getString(req, "app_id"), limit)
		if err != nil {
			return errorResult(err), nil
		}
		if len(reloads) == 0 {
			return mcp.NewToolResultText("No reloads found."), nil
		}

		var b strings.Builder
		for _, reload := range reloads {
			fmt.Fprintf(&b, "%s  app=%s status=%s", reload.ID, reload.AppID, reload.Status)
			if !reload.StartTime.IsZero() {
				fmt.Fprintf(&b, " started=%s", reload.StartTime.Format("2006-01-02 15:04:05"))
			}
			b.WriteString("\n")
		}
		return mcp.NewToolResultText(b.String()), nil
	})
}

func registerTriggerReloadTool(s *server.MCPServer, client *qlik.Client, logger *zap.Logger) {
	tool := mcp.NewTool(
		"trigger_reload",
		mcp.WithDescription(
			"Start a reload of an app, e.g. after deploying an exported load script. "+
				"Returns immediately with the queued run; poll list_reloads for completion.",
		),
		mcp.WithString("app_id",
			mcp.Required(),
			mcp.Description("Id of the app to reload"),
		),
		mcp.WithBoolean("partial", mcp.Description("Run a partial reload (default false)")),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		appID := getString(req, "app_id")
		if appID == "" {
			return errorResult(apperrors.NewValidation("app_id is required")), nil
		}

		partial := false
		if val, ok := getOptionalBool(req, "partial"); ok {
			partial = val
		}

		reload, err := client.TriggerReload(ctx, appID, partial)
		if err != nil {
			return errorResult(err), nil
		}

		logger.Info("reload triggered",
			zap.String("app_id", appID),
			zap.String("reload_id", reload.ID),
			zap.Bool("partial", partial))

		return mcp.NewToolResultText(fmt.Sprintf(
			"Reload %s queued for app %s (status %s).", reload.ID, appID, reload.Status)), nil
	})
}
