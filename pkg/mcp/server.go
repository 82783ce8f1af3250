package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// instructions is surfaced to MCP clients on initialize so agents know
// the intended tool order before they start calling.
const instructions = `qlikfox builds Qlik data models through a staged workflow:
start_model_session, analyze_data_model, select_model_type, then
build_model_stage / approve_model_stage through stages A-F, and finally
export_data_model. Run validate_request_scope first when unsure whether
a request belongs to data modeling at all.`

// Server wraps the mcp-go MCPServer with qlikfox patterns.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates a new MCP server instance. Tool handlers run with
// panic recovery so a malformed payload cannot take the session down.
func NewServer(name, version string, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)

	return &Server{
		mcp:    mcpServer,
		logger: logger.Named("mcp"),
	}
}

// MCP returns the underlying MCPServer for tool registration.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates an HTTP transport server wrapping this MCP server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}
