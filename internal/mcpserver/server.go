// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Raido bookmark tools for LLM integration via stdio transport.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/linkservice"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/query"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp *server.MCPServer
	svc *linkservice.Service
}

// New creates a new MCP server with all Raido tools registered.
func New(svc *linkservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_links",
		mcp.WithDescription("Search saved links. The query may mix free text with "+
			"scoped tokens: topic:<code-or-label>, priority:<...>, status:<...>, "+
			"in:notes, in:file. Quoted values with spaces are supported."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("sort", mcp.Description("Sort mode: default, title, or priority")),
	), s.searchLinks)

	s.mcp.AddTool(mcp.NewTool("get_link",
		mcp.WithDescription("Read one saved link with all its fields."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Link id")),
	), s.getLink)

	s.mcp.AddTool(mcp.NewTool("save_link",
		mcp.WithDescription("Save a new link. topic/priority/status take dictionary "+
			"codes; call list_dictionaries first to see the valid codes."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Resource URL")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Display title")),
		mcp.WithString("description", mcp.Description("One-sentence description")),
		mcp.WithString("topic", mcp.Description("Topic code (default: other)")),
		mcp.WithString("priority", mcp.Description("Priority code (default: low)")),
		mcp.WithString("status", mcp.Description("Status code (default: to-read)")),
		mcp.WithString("notes", mcp.Description("Free-form notes")),
	), s.saveLink)

	s.mcp.AddTool(mcp.NewTool("list_dictionaries",
		mcp.WithDescription("List the topic, priority, and status taxonomies with "+
			"their codes and labels."),
	), s.listDictionaries)

	s.mcp.AddTool(mcp.NewTool("export_csv",
		mcp.WithDescription("Export the whole link collection as CSV text."),
	), s.exportCSV)

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

func (s *Server) searchLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sortMode := query.SortDefault
	if v, err := req.RequireString("sort"); err == nil && v != "" {
		sortMode = v
	}
	res := s.svc.List(ctx, q, query.Selection{}, sortMode, 1, 20)
	out, _ := json.MarshalIndent(res.Links, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	link, err := s.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(link, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) saveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	l := models.Link{
		URL:      url,
		Title:    title,
		Topic:    models.FallbackTopic,
		Priority: models.FallbackPriority,
		Status:   models.FallbackStatus,
	}
	if v, err := req.RequireString("description"); err == nil {
		l.Description = v
	}
	if v, err := req.RequireString("topic"); err == nil && v != "" {
		l.Topic = v
	}
	if v, err := req.RequireString("priority"); err == nil && v != "" {
		l.Priority = v
	}
	if v, err := req.RequireString("status"); err == nil && v != "" {
		l.Status = v
	}
	if v, err := req.RequireString("notes"); err == nil {
		l.Notes = v
	}
	saved, err := s.svc.Save(ctx, l)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(saved, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDictionaries(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.svc.Dictionaries(ctx), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) exportCSV(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if _, err := s.svc.Export(ctx, &buf); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
