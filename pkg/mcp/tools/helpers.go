package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/qlikfox/qlikfox/pkg/apperrors"
)

// requestArgs returns the argument map of a tool call, or an empty map.
func requestArgs(req mcp.CallToolRequest) map[string]any {
	if args, ok := req.Params.Arguments.(map[string]any); ok {
		return args
	}
	return map[string]any{}
}

// getString extracts a trimmed string parameter; empty when absent.
func getString(req mcp.CallToolRequest, key string) string {
	if val, ok := requestArgs(req)[key].(string); ok {
		return strings.TrimSpace(val)
	}
	return ""
}

// getOptionalBool extracts an optional boolean parameter from the request.
func getOptionalBool(req mcp.CallToolRequest, key string) (bool, bool) {
	if val, ok := requestArgs(req)[key].(bool); ok {
		return val, true
	}
	return false, false
}

// getOptionalInt extracts an optional integer parameter. JSON numbers
// arrive as float64.
func getOptionalInt(req mcp.CallToolRequest, key string) (int, bool) {
	if val, ok := requestArgs(req)[key].(float64); ok {
		return int(val), true
	}
	return 0, false
}

// extractArrayParam returns an array parameter, accepting both native
// JSON arrays and stringified arrays (agents frequently double-encode).
func extractArrayParam(args map[string]any, key string) ([]any, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}

	if arr, ok := raw.([]any); ok {
		return arr, nil
	}

	if str, ok := raw.(string); ok {
		str = strings.TrimSpace(str)
		if str == "" {
			return nil, nil
		}
		var arr []any
		if err := json.Unmarshal([]byte(str), &arr); err != nil {
			return nil, fmt.Errorf("parameter %q is not a valid JSON array: %w", key, err)
		}
		return arr, nil
	}

	return nil, fmt.Errorf("parameter %q must be an array", key)
}

// decodeParam re-marshals a loosely typed value into a concrete type.
func decodeParam(value any, out any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}

// errorResult maps the error taxonomy onto a tagged tool failure so a
// calling agent can branch deterministically on the prefix.
func errorResult(err error) *mcp.CallToolResult {
	switch {
	case apperrors.IsValidation(err):
		return mcp.NewToolResultError("validation error: " + err.Error())
	case apperrors.IsSession(err):
		return mcp.NewToolResultError("session error: " + err.Error())
	case apperrors.IsWorkflow(err):
		return mcp.NewToolResultError("workflow error: " + err.Error())
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

// jsonResult renders a response struct as a JSON tool result.
func jsonResult(v any) *mcp.CallToolResult {
	payload, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError("failed to encode response: " + err.Error())
	}
	return mcp.NewToolResultText(string(payload))
}
