// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes taskview tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/taskview/internal/apperr"
	"github.com/starford/taskview/internal/models"
	"github.com/starford/taskview/internal/tasklist"
	"github.com/starford/taskview/internal/taskservice"
)

// Server wraps the MCP server with taskview tools.
type Server struct {
	mcp *server.MCPServer
	svc *taskservice.Service
}

// New creates a new MCP server with all taskview tools registered.
func New(svc *taskservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Taskview",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	filterOpts := []mcp.ToolOption{
		mcp.WithDescription("List tasks, sorted and annotated with overdue flags. " +
			"Read the " + SortModesURI + " resource for sort modes and overdue rules."),
		mcp.WithString("status", mcp.Description("Filter by status (todo, doing, blocked, done)")),
		mcp.WithString("priority", mcp.Description("Filter by priority (low, medium, high)")),
		mcp.WithString("tag", mcp.Description("Filter by tag")),
		mcp.WithString("q", mcp.Description("Text search in title and description")),
		mcp.WithString("due_before", mcp.Description("Only tasks due before this date (YYYY-MM-DD)")),
		mcp.WithString("sort", mcp.Description("Sort mode, default created-desc")),
	}
	s.mcp.AddTool(mcp.NewTool("list_tasks", filterOpts...), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("task_summary",
		mcp.WithDescription("Counts of tasks by status and priority, plus the overdue count."),
	), s.taskSummary)

	s.mcp.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a new task."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("desc", mcp.Description("Longer description")),
		mcp.WithString("priority", mcp.Description("low, medium or high")),
		mcp.WithString("due", mcp.Description("Due date (YYYY-MM-DD)")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
	), s.createTask)

	s.mcp.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task as done."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Task ID")),
	), s.completeTask)

	s.mcp.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task permanently."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Task ID")),
	), s.deleteTask)

	s.mcp.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Change some fields of a task. Omitted fields are left unchanged."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("desc", mcp.Description("New description")),
		mcp.WithString("status", mcp.Description("todo, doing, blocked or done")),
		mcp.WithString("priority", mcp.Description("low, medium or high")),
		mcp.WithString("due", mcp.Description("New due date (YYYY-MM-DD)")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags, replaces existing tags")),
	), s.updateTask)

	s.mcp.AddResource(
		mcp.NewResource(SortModesURI, "Task List Contract",
			mcp.WithResourceDescription("Sort modes, filters and overdue rules of task lists."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readViewContract,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func errorResult(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("task not found")
	}
	return mcp.NewToolResultError(err.Error())
}

// taskIDArg reads the id argument, which clients send as a number or a string.
func taskIDArg(req mcp.CallToolRequest) (int64, error) {
	raw, ok := req.GetArguments()["id"]
	if !ok {
		return 0, fmt.Errorf("required argument \"id\" not found")
	}
	var id int64
	switch v := raw.(type) {
	case float64:
		id = int64(v)
		if float64(id) != v {
			return 0, fmt.Errorf("id must be an integer")
		}
	case int:
		id = int64(v)
	case int64:
		id = v
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("id must be an integer")
		}
		id = n
	default:
		return 0, fmt.Errorf("id must be an integer")
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive")
	}
	return id, nil
}

func boardQuery(req mcp.CallToolRequest) taskservice.Query {
	return taskservice.Query{
		Filter: tasklist.FilterRequest{
			Status:    req.GetString("status", ""),
			Priority:  req.GetString("priority", ""),
			Tag:       req.GetString("tag", ""),
			Query:     req.GetString("q", ""),
			DueBefore: req.GetString("due_before", ""),
		},
		Sort: tasklist.ParseSortMode(req.GetString("sort", "")),
	}
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	board, err := s.svc.Board(ctx, boardQuery(req))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(board), nil
}

func (s *Server) taskSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.svc.Summary(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(summary), nil
}

func (s *Server) createTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := models.NewTask{
		Title:    title,
		Desc:     req.GetString("desc", ""),
		Priority: models.Priority(req.GetString("priority", "")),
		Tags:     models.ParseTags(req.GetString("tags", "")),
	}
	if due := req.GetString("due", ""); due != "" {
		d, err := models.ParseDate(due)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		in.Due = d
	}

	if err := s.svc.CreateTask(ctx, in); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", in.Title)), nil
}

func (s *Server) completeTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := taskIDArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.CompleteTask(ctx, id); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("completed: %d", id)), nil
}

func (s *Server) deleteTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := taskIDArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteTask(ctx, id); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %d", id)), nil
}

func (s *Server) updateTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := taskIDArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patch := models.TaskPatch{
		Title:    req.GetString("title", ""),
		Desc:     req.GetString("desc", ""),
		Status:   models.Status(req.GetString("status", "")),
		Priority: models.Priority(req.GetString("priority", "")),
		Due:      req.GetString("due", ""),
	}
	if tags := req.GetString("tags", ""); tags != "" {
		patch.Tags = models.ParseTags(tags)
	}
	changed, err := s.svc.UpdateTask(ctx, id, patch)
	if err != nil {
		return errorResult(err), nil
	}
	if !changed {
		return mcp.NewToolResultText("nothing to update"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %d", id)), nil
}

func (s *Server) readViewContract(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SortModesURI,
			MIMEType: "text/markdown",
			Text:     ViewContract,
		},
	}, nil
}
