// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the content tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/docsadmin/internal/analytics"
	"github.com/starford/docsadmin/internal/apperr"
	"github.com/starford/docsadmin/internal/docstore"
	"github.com/starford/docsadmin/internal/folderstore"
	"github.com/starford/docsadmin/internal/media"
)

// Server wraps the MCP server with the content tools.
type Server struct {
	mcp     *server.MCPServer
	docs    *docstore.Store
	folders *folderstore.Store
	media   *media.Store
	fetcher *fetcher
	now     func() time.Time
}

// New creates a new MCP server with all tools registered. The media tool
// is only offered when assets is non-nil.
func New(docs *docstore.Store, folders *folderstore.Store, assets *media.Store, version string) *Server {
	s := &Server{
		docs:    docs,
		folders: folders,
		media:   assets,
		fetcher: newFetcher(),
		now:     time.Now,
	}

	s.mcp = server.NewMCPServer(
		"docsadmin",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the documents and subfolders of a folder. Documents are sorted by title."),
		mcp.WithString("folder", mcp.Description("Folder relative to the content root (empty for the root)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read a document's title, description and Markdown body."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path (e.g. guides/deploy.mdx)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("write_document",
		mcp.WithDescription("Create or fully replace a document. Read the format contract first via "+
			"get_document_format or the "+DocumentFormatURI+" resource."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("File name; .mdx is appended when no extension is given")),
		mcp.WithString("title", mcp.Description("Page title")),
		mcp.WithString("description", mcp.Description("Short page description")),
		mcp.WithString("content", mcp.Description("Markdown body without front-matter")),
		mcp.WithString("folder", mcp.Description("Target folder, created when missing")),
	), s.writeDocument)

	s.mcp.AddTool(mcp.NewTool("delete_document",
		mcp.WithDescription("Delete a single document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path")),
	), s.deleteDocument)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Case-insensitive search over titles, descriptions, paths and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 20)")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("create_folder",
		mcp.WithDescription("Create a folder and any missing parents. Fails if it already exists."),
		mcp.WithString("folder", mcp.Required(), mcp.Description("Folder path")),
	), s.createFolder)

	s.mcp.AddTool(mcp.NewTool("delete_folder",
		mcp.WithDescription("Delete a folder. A folder with content is only removed when force is true; "+
			"otherwise the result reports how many files and folders it contains."),
		mcp.WithString("folder", mcp.Required(), mcp.Description("Folder path")),
		mcp.WithBoolean("force", mcp.Description("Delete all contents recursively")),
	), s.deleteFolder)

	s.mcp.AddTool(mcp.NewTool("content_stats",
		mcp.WithDescription("Document counts, recent documents, per-folder distribution and last-week activity."),
		mcp.WithString("folder", mcp.Description("Folder to summarize (empty for the root)")),
	), s.contentStats)

	s.mcp.AddTool(mcp.NewTool("get_document_format",
		mcp.WithDescription("Returns the document format contract. Call this before writing documents."),
	), s.getDocumentFormat)

	if s.media != nil {
		s.mcp.AddTool(mcp.NewTool("upload_media",
			mcp.WithDescription("Download an asset from an http(s) URL or decode a base64 data URI and store it "+
				"in the media library. Returns the public URL and a Markdown snippet."),
			mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI")),
			mcp.WithString("filename", mcp.Description("File name to store under (derived from the URL when empty)")),
			mcp.WithString("folder", mcp.Description("images, videos, gifs, files or auto (default)")),
		), s.uploadMedia)
	}

	s.mcp.AddResource(
		mcp.NewResource(DocumentFormatURI, "Document Format Contract",
			mcp.WithResourceDescription("How documents are laid out on disk."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
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

// toolError reports taxonomy errors verbatim and hides anything else.
func toolError(op string, err error) *mcp.CallToolResult {
	var notEmpty *apperr.NotEmptyError
	switch {
	case errors.As(err, &notEmpty):
		return mcp.NewToolResultError(fmt.Sprintf(
			"%s; call again with force=true to delete %d items", notEmpty.Error(), notEmpty.TotalItems))
	case errors.Is(err, apperr.ErrInvalidPath),
		errors.Is(err, apperr.ErrInvalidInput),
		errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError(err.Error())
	}
	slog.Error(op+" failed", slog.String("error", err.Error()))
	return mcp.NewToolResultError(op + " failed")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listing, err := s.docs.List(ctx, req.GetString("folder", ""))
	if err != nil {
		return toolError("list documents", err), nil
	}
	return jsonResult(listing)
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.docs.Read(ctx, p)
	if err != nil {
		return toolError("read document", err), nil
	}
	return jsonResult(doc)
}

func (s *Server) writeDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.docs.Write(ctx, docstore.WriteInput{
		Filename:    filename,
		Title:       req.GetString("title", ""),
		Description: req.GetString("description", ""),
		Content:     req.GetString("content", ""),
		Folder:      req.GetString("folder", ""),
	})
	if err != nil {
		return toolError("write document", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", doc.Path)), nil
}

func (s *Server) deleteDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.docs.Delete(ctx, p); err != nil {
		return toolError("delete document", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", p)), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.docs.Search(ctx, query, req.GetInt("limit", docstore.DefaultSearchLimit))
	if err != nil {
		return toolError("search", err), nil
	}
	return jsonResult(hits)
}

func (s *Server) createFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder, err := req.RequireString("folder")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	created, err := s.folders.Create(ctx, folder)
	if err != nil {
		return toolError("create folder", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", created)), nil
}

func (s *Server) deleteFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder, err := req.RequireString("folder")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.folders.Delete(ctx, folder, req.GetBool("force", false))
	if err != nil {
		return toolError("delete folder", err), nil
	}
	return jsonResult(res)
}

func (s *Server) contentStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listing, err := s.docs.List(ctx, req.GetString("folder", ""))
	if err != nil {
		return toolError("content stats", err), nil
	}
	return jsonResult(analytics.Compute(listing.Files, listing.Folders, s.now()))
}

func (s *Server) getDocumentFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readDocumentFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      DocumentFormatURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
