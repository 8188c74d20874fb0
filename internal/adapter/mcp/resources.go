package mcp

import (
	"context"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/taskchat/taskchat/internal/port/reasoning"
	"github.com/taskchat/taskchat/internal/service"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"taskchat://tasks",
			"Task List",
			mcplib.WithResourceDescription("The demo owner's current task list"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleTasksResource,
	)
}

// handleTasksResource serves the demo owner's task list. Resources carry no
// arguments, so per-user lists go through the list_tasks tool instead.
func (s *Server) handleTasksResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Executor == nil || s.deps.DemoOwner == "" {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"task executor not configured"}`,
			},
		}, nil
	}

	payload, err := s.deps.Executor.Execute(ctx, s.deps.DemoOwner, reasoning.ProposedCall{
		Name: service.ToolList,
	})
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(payload),
		},
	}, nil
}
