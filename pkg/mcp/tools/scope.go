package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/qlikfox/qlikfox/pkg/logging"
	"github.com/qlikfox/qlikfox/pkg/modeler"
)

// RegisterScopeTool adds the request scope gate. Agents call it before
// dispatching free-form user requests to the heavier tools.
func RegisterScopeTool(s *server.MCPServer, validator *modeler.ScopeValidator, logger *zap.Logger) {
	tool := mcp.NewTool(
		"validate_request_scope",
		mcp.WithDescription(
			"Check whether a free-form user request is in scope for this server: analytics, data modeling, "+
				"and platform operations. Returns a verdict with a rationale. Out-of-scope or hostile "+
				"requests should not be forwarded to any other tool.",
		),
		mcp.WithString("request",
			mcp.Required(),
			mcp.Description("The user request text to evaluate"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		request := getString(req, "request")
		decision := validator.Validate(request)

		if !decision.Allowed {
			logger.Warn("request rejected by scope gate",
				zap.String("request", logging.SanitizeRequest(request)),
				zap.String("rationale", decision.Rationale))
			return mcp.NewToolResultText(fmt.Sprintf("BLOCKED: %s", decision.Rationale)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("ALLOWED: %s", decision.Rationale)), nil
	})
}
