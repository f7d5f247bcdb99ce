// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes homesite tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"homesite/internal/docservice"
	"homesite/internal/models"
)

// Server wraps the MCP server with homesite tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all homesite tools registered.
func New(svc *docservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Homesite",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the documents of a collection with their derived metadata."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection to list: blog or note")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full Markdown content of a stored document."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection the document lives in: blog or note")),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Stored filename (e.g. my_post.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("upload_document",
		mcp.WithDescription("Store a Markdown document with an optional tag list. "+
			"The filename is sanitized and forced to a .md suffix; content above 2 MiB is rejected."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Target collection: blog or note")),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Desired filename")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content")),
		mcp.WithString("tags", mcp.Description("Optional JSON array of tag strings")),
	), s.uploadDocument)

	s.mcp.AddTool(mcp.NewTool("search_site",
		mcp.WithDescription("Full-text search across stored documents."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("collection", mcp.Description("Optional collection filter: blog or note")),
	), s.searchSite)

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

func requireCollection(req mcp.CallToolRequest) (models.Collection, error) {
	raw, err := req.RequireString("collection")
	if err != nil {
		return "", err
	}
	return models.ParseCollection(raw)
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	col, err := requireCollection(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docs, err := s.svc.List(ctx, col)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(docs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	col, err := requireCollection(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.svc.Read(ctx, col, filename)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s/%s", col, filename)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) uploadDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	col, err := requireCollection(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tags := []string{}
	if raw, tagErr := req.RequireString("tags"); tagErr == nil && raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			tags = []string{}
		}
	}

	stored, err := s.svc.Upload(ctx, col, filename, []byte(content), tags)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("stored: %s (tags: %s)", stored.Path, strings.Join(stored.Tags, ", "))), nil
}

func (s *Server) searchSite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	collection := ""
	if raw, colErr := req.RequireString("collection"); colErr == nil && raw != "" {
		col, err := models.ParseCollection(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		collection = string(col)
	}

	results, err := s.svc.Search(ctx, query, collection, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no results"), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
