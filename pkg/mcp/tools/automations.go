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

// RegisterAutomationTools adds tenant automation tools.
func RegisterAutomationTools(s *server.MCPServer, client *qlik.Client, logger *zap.Logger) {
	registerListAutomationsTool(s, client)
	registerRunAutomationTool(s, client, logger)
}

func registerListAutomationsTool(s *server.MCPServer, client *qlik.Client) {
	tool := mcp.NewTool(
		"list_automations",
		mcp.WithDescription("List automation workflows on the tenant."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of automations to return (default 25)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := defaultListLimit
		if val, ok := getOptionalInt(req, "limit"); ok {
			limit = val
		}

		automations, err := client.ListAutomations(ctx, limit)
		if err != nil {
			return errorResult(err), nil
		}
		if len(automations) == 0 {
			return mcp.NewToolResultText("No automations found on the tenant."), nil
		}

		var b strings.Builder
		for _, a := range automations {
			fmt.Fprintf(&b, "%s  %-10s %s\n", a.ID, a.State, a.Name)
		}
		return mcp.NewToolResultText(b.String()), nil
	})
}

func registerRunAutomationTool(s *server.MCPServer, client *qlik.Client, logger *zap.Logger) {
	tool := mcp.NewTool(
		"run_automation",
		mcp.WithDescription("Trigger a run of an automation workflow, e.g. a post-deployment pipeline."),
		mcp.WithString("automation_id",
			mcp.Required(),
			mcp.Description("Id of the automation to run"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		automationID := getString(req, "automation_id")
		if automationID == "" {
			return errorResult(apperrors.NewValidation("automation_id is required")), nil
		}

		if err := client.RunAutomation(ctx, automationID); err != nil {
			return errorResult(err), nil
		}

		logger.Info("automation run triggered", zap.String("automation_id", automationID))
		return mcp.NewToolResultText(fmt.Sprintf("Automation %s run queued.", automationID)), nil
	})
}
