// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes project workflow tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ferrand/raido/internal/projectservice"
)

// Server wraps the MCP server with project workflow tools.
type Server struct {
	mcp *server.MCPServer
	svc *projectservice.Service
}

// New creates a new MCP server with all workflow tools registered.
func New(svc *projectservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List all client projects with their current pipeline position."),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Read one project aggregate: stages, comments, proposals, feedback."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
	), s.getProject)

	s.mcp.AddTool(mcp.NewTool("advance_stage",
		mcp.WithDescription("Mark the active stage done and open the next one. "+
			"Fails on the last stage; read the pipeline contract first via the "+
			"get_pipeline_contract tool or the raido://pipeline resource."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
	), s.advanceStage)

	s.mcp.AddTool(mcp.NewTool("revert_stage",
		mcp.WithDescription("Reopen the previous stage; the active one goes back to locked. "+
			"Stage payloads and dates are preserved."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
	), s.revertStage)

	s.mcp.AddTool(mcp.NewTool("add_comment",
		mcp.WithDescription("Append a comment to a stage of a project."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
		mcp.WithNumber("stage_id", mcp.Required(), mcp.Description("Stage id (1-based)")),
		mcp.WithString("author", mcp.Required(), mcp.Description("Comment author")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Comment text")),
	), s.addComment)

	s.mcp.AddTool(mcp.NewTool("propose_meeting",
		mcp.WithDescription("Propose a kickoff meeting slot on the discovery stage."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
		mcp.WithString("date_time", mcp.Required(), mcp.Description("Proposed slot, RFC 3339 (e.g. 2026-09-01T14:00:00Z)")),
	), s.proposeMeeting)

	s.mcp.AddTool(mcp.NewTool("get_pipeline_contract",
		mcp.WithDescription("Returns the pipeline contract: the ordered stage catalog "+
			"and the rules for advancing, reverting, meetings, and feedback rounds."),
	), s.getPipelineContract)

	// Resource: pipeline contract.
	s.mcp.AddResource(
		mcp.NewResource("raido://pipeline", "Pipeline Contract",
			mcp.WithResourceDescription("Ordered stage catalog and workflow rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPipelineResource,
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

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := s.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(p, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) advanceStage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.AdvanceStage(ctx, id, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("advanced: %s is now at stage %d", p.ID, p.CurrentStage)), nil
}

func (s *Server) revertStage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.RevertStage(ctx, id, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("reverted: %s is now at stage %d", p.ID, p.CurrentStage)), nil
}

func (s *Server) addComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stageID, err := req.RequireInt("stage_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	author, err := req.RequireString("author")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.AddComment(ctx, id, stageID, author, text); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("comment added to stage %d of %s", stageID, id)), nil
}

func (s *Server) proposeMeeting(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("date_time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid date_time, want RFC 3339: %s", raw)), nil
	}
	p, err := s.svc.ProposeMeeting(ctx, id, at.UTC())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(p, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getPipelineContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PipelineContract()), nil
}

func (s *Server) readPipelineResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://pipeline",
			MIMEType: "text/markdown",
			Text:     PipelineContract(),
		},
	}, nil
}
