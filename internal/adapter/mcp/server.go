// Package mcp exposes the task tools over the Model Context Protocol so AI
// agents can manage todo lists through a stdio transport, sharing the same
// executor and store as the chat surface.
package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/taskchat/taskchat/internal/port/reasoning"
)

// ServerConfig holds the MCP server identity.
type ServerConfig struct {
	Name    string
	Version string
}

// ToolRunner executes one task tool call scoped to an owner.
// *service.ToolExecutor satisfies it.
type ToolRunner interface {
	Execute(ctx context.Context, owner string, call reasoning.ProposedCall) (json.RawMessage, error)
}

// ServerDeps carries the dependencies for tool and resource handlers. Nil
// fields make the affected handlers answer with a configuration error
// instead of panicking.
type ServerDeps struct {
	Executor ToolRunner

	// DemoOwner backs the tasks resource, which carries no user_id.
	DemoOwner string
}

// Server wraps an MCP server with the taskchat tool registrations.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
}

// NewServer creates the MCP server and registers all tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(
			cfg.Name,
			cfg.Version,
			mcpserver.WithToolCapabilities(true),
			mcpserver.WithResourceCapabilities(false, true),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server for transports and tests.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the MCP protocol on stdin/stdout until the transport
// closes. Logs must go to stderr while this runs; stdout belongs to the
// protocol.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcpServer)
}

// toolResultJSON wraps a JSON payload as MCP text content.
func toolResultJSON(data string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(data)
}
