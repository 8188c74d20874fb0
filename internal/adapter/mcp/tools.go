package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/taskchat/taskchat/internal/port/reasoning"
	"github.com/taskchat/taskchat/internal/service"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.addTaskTool(),
		s.listTasksTool(),
		s.completeTaskTool(),
		s.deleteTaskTool(),
		s.updateTaskTool(),
	)
}

func (s *Server) addTaskTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("add_task",
		mcplib.WithDescription("Add a new task to a user's todo list"),
		mcplib.WithString("user_id",
			mcplib.Required(),
			mcplib.Description("The owner of the todo list"),
		),
		mcplib.WithString("title",
			mcplib.Required(),
			mcplib.Description("Short task title, at most 255 characters"),
		),
		mcplib.WithString("description",
			mcplib.Description("Optional longer details"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.toolHandler(service.ToolAdd),
	}
}

func (s *Server) listTasksTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_tasks",
		mcplib.WithDescription("List a user's tasks, optionally filtered by status"),
		mcplib.WithString("user_id",
			mcplib.Required(),
			mcplib.Description("The owner of the todo list"),
		),
		mcplib.WithString("status",
			mcplib.Description("Which tasks to return: all, pending, or completed. Defaults to all"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.toolHandler(service.ToolList),
	}
}

func (s *Server) completeTaskTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("complete_task",
		mcplib.WithDescription("Mark a task as completed by its numeric id"),
		mcplib.WithString("user_id",
			mcplib.Required(),
			mcplib.Description("The owner of the todo list"),
		),
		mcplib.WithNumber("task_id",
			mcplib.Required(),
			mcplib.Description("Numeric id of the task"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.toolHandler(service.ToolComplete),
	}
}

func (s *Server) deleteTaskTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("delete_task",
		mcplib.WithDescription("Delete a task by its numeric id"),
		mcplib.WithString("user_id",
			mcplib.Required(),
			mcplib.Description("The owner of the todo list"),
		),
		mcplib.WithNumber("task_id",
			mcplib.Required(),
			mcplib.Description("Numeric id of the task"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.toolHandler(service.ToolDelete),
	}
}

func (s *Server) updateTaskTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("update_task",
		mcplib.WithDescription("Change the title and/or description of a task"),
		mcplib.WithString("user_id",
			mcplib.Required(),
			mcplib.Description("The owner of the todo list"),
		),
		mcplib.WithNumber("task_id",
			mcplib.Required(),
			mcplib.Description("Numeric id of the task"),
		),
		mcplib.WithString("title",
			mcplib.Description("New title"),
		),
		mcplib.WithString("description",
			mcplib.Description("New description"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.toolHandler(service.ToolUpdate),
	}
}

// toolHandler builds a handler that forwards to the shared tool executor.
// user_id scopes the call; the remaining arguments pass through unchanged,
// so results match what the chat surface reports, folded errors included.
func (s *Server) toolHandler(toolName string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		if s.deps.Executor == nil {
			return mcplib.NewToolResultError("task executor not configured"), nil
		}

		args := req.GetArguments()
		owner, ok := args["user_id"].(string)
		if !ok || owner == "" {
			return mcplib.NewToolResultError("user_id is required"), nil
		}

		forward := make(map[string]any, len(args))
		for k, v := range args {
			if k == "user_id" {
				continue
			}
			forward[k] = v
		}
		raw, err := json.Marshal(forward)
		if err != nil {
			return mcplib.NewToolResultErrorFromErr("failed to marshal arguments", err), nil
		}

		payload, err := s.deps.Executor.Execute(ctx, owner, reasoning.ProposedCall{
			Name:      toolName,
			Arguments: raw,
		})
		if err != nil {
			return mcplib.NewToolResultErrorFromErr("task store unavailable", err), nil
		}
		return toolResultJSON(string(payload)), nil
	}
}
