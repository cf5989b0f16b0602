package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/docsadmin/internal/docstore"
	"github.com/starford/docsadmin/internal/folderstore"
	"github.com/starford/docsadmin/internal/media"
	"github.com/starford/docsadmin/internal/models"
	"github.com/starford/docsadmin/internal/storage"
	"github.com/starford/docsadmin/internal/testutil"
)

func testServer(t *testing.T) (*Server, string, string) {
	t.Helper()

	contentDir, contentFS := testutil.ContentRoot(t)
	mediaDir := t.TempDir()
	mediaFS, err := storage.NewFS(mediaDir)
	if err != nil {
		t.Fatal(err)
	}

	srv := New(
		docstore.New(contentFS, nil),
		folderstore.New(contentFS, nil),
		media.NewStore(media.NewLocal(mediaFS)),
		"test",
	)
	return srv, contentDir, mediaDir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper, so handlers are called
	// directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "write_document":
		result, err = srv.writeDocument(ctx, req)
	case "delete_document":
		result, err = srv.deleteDocument(ctx, req)
	case "search_documents":
		result, err = srv.searchDocuments(ctx, req)
	case "create_folder":
		result, err = srv.createFolder(ctx, req)
	case "delete_folder":
		result, err = srv.deleteFolder(ctx, req)
	case "content_stats":
		result, err = srv.contentStats(ctx, req)
	case "get_document_format":
		result, err = srv.getDocumentFormat(ctx, req)
	case "upload_media":
		result, err = srv.uploadMedia(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestWriteAndReadDocument(t *testing.T) {
	srv, dir, _ := testServer(t)

	r := callTool(t, srv, "write_document", map[string]interface{}{
		"filename": "deploy",
		"title":    "Deploy",
		"content":  "# Deploy\nSteps",
		"folder":   "guides",
	})
	if text := resultText(r); text != "saved: guides/deploy.mdx" {
		t.Fatalf("write result = %q", text)
	}
	if _, err := os.Stat(filepath.Join(dir, "guides", "deploy.mdx")); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	r = callTool(t, srv, "read_document", map[string]interface{}{"path": "guides/deploy.mdx"})
	var doc models.Document
	if err := json.Unmarshal([]byte(resultText(r)), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Title != "Deploy" || doc.Content != "# Deploy\nSteps" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestReadDocumentMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "read_document", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
	r = callTool(t, srv, "read_document", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing path argument")
	}
}

func TestListDocuments(t *testing.T) {
	srv, dir, _ := testServer(t)
	testutil.WriteFile(t, dir, "b.md", testutil.Doc("Beta", "", "b"))
	testutil.WriteFile(t, dir, "a.md", testutil.Doc("Alpha", "", "a"))
	testutil.WriteFile(t, dir, "guides/c.md", testutil.Doc("C", "", "c"))

	r := callTool(t, srv, "list_documents", map[string]interface{}{})
	var listing models.Listing
	if err := json.Unmarshal([]byte(resultText(r)), &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listing.Files) != 2 || listing.Files[0].Title != "Alpha" {
		t.Errorf("files = %+v", listing.Files)
	}
	if len(listing.Folders) != 1 || listing.Folders[0] != "guides" {
		t.Errorf("folders = %v", listing.Folders)
	}
}

func TestDeleteDocument(t *testing.T) {
	srv, dir, _ := testServer(t)
	testutil.WriteFile(t, dir, "a.md", testutil.Doc("A", "", "a"))

	r := callTool(t, srv, "delete_document", map[string]interface{}{"path": "a.md"})
	if r.IsError {
		t.Fatalf("delete failed: %s", resultText(r))
	}
	r = callTool(t, srv, "delete_document", map[string]interface{}{"path": "a.md"})
	if !r.IsError {
		t.Error("expected error deleting twice")
	}
}

func TestSearchDocuments(t *testing.T) {
	srv, dir, _ := testServer(t)
	testutil.WriteFile(t, dir, "a.md", testutil.Doc("Ingress", "", "nginx config"))
	testutil.WriteFile(t, dir, "b.md", testutil.Doc("Other", "", "unrelated"))

	r := callTool(t, srv, "search_documents", map[string]interface{}{"query": "NGINX"})
	var hits []models.SearchHit
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hits) != 1 || hits[0].Path != "a.md" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestFolderTools(t *testing.T) {
	srv, dir, _ := testServer(t)

	r := callTool(t, srv, "create_folder", map[string]interface{}{"folder": "guides"})
	if text := resultText(r); text != "created: guides" {
		t.Fatalf("create result = %q", text)
	}
	r = callTool(t, srv, "create_folder", map[string]interface{}{"folder": "guides"})
	if !r.IsError {
		t.Error("expected error creating existing folder")
	}

	testutil.WriteFile(t, dir, "guides/a.md", testutil.Doc("A", "", "a"))
	r = callTool(t, srv, "delete_folder", map[string]interface{}{"folder": "guides"})
	if !r.IsError || !strings.Contains(resultText(r), "force=true") {
		t.Errorf("non-forced delete = %q", resultText(r))
	}

	r = callTool(t, srv, "delete_folder", map[string]interface{}{"folder": "guides", "force": true})
	if r.IsError {
		t.Fatalf("forced delete failed: %s", resultText(r))
	}
	if _, err := os.Stat(filepath.Join(dir, "guides")); !os.IsNotExist(err) {
		t.Errorf("folder still exists: %v", err)
	}
}

func TestContentStats(t *testing.T) {
	srv, dir, _ := testServer(t)
	testutil.WriteFile(t, dir, "a.md", testutil.Doc("A", "", "a"))
	testutil.WriteFile(t, dir, "b.md", testutil.Doc("B", "", "b"))

	r := callTool(t, srv, "content_stats", map[string]interface{}{})
	var stats struct {
		TotalDocs int `json:"totalDocs"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalDocs != 2 {
		t.Errorf("totalDocs = %d, want 2", stats.TotalDocs)
	}
}

func TestGetDocumentFormat(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_document_format", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "title:") {
		t.Errorf("format contract missing front-matter example: %q", text)
	}
}

func TestUploadMediaDataURI(t *testing.T) {
	srv, _, mediaDir := testServer(t)

	r := callTool(t, srv, "upload_media", map[string]interface{}{
		"url":      "data:image/gif;base64,R0lGODlhAQABAAAAACw=",
		"filename": "dot.gif",
	})
	if r.IsError {
		t.Fatalf("upload failed: %s", resultText(r))
	}
	var res uploadMediaResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Folder != media.Gifs {
		t.Errorf("folder = %q, want gifs", res.Folder)
	}
	if !strings.HasPrefix(res.Markdown, "![dot.gif](/gifs/") {
		t.Errorf("markdown = %q", res.Markdown)
	}
	entries, err := os.ReadDir(filepath.Join(mediaDir, media.Gifs))
	if err != nil || len(entries) != 1 {
		t.Fatalf("stored entries = %v, err = %v", entries, err)
	}
}

func TestUploadMediaRejectsBadInput(t *testing.T) {
	srv, _, _ := testServer(t)
	for _, u := range []string{
		"data:image/png,notbase64",
		"data:image/png;base64",
		"ftp://example.com/a.png",
		"http://127.0.0.1/a.png",
	} {
		r := callTool(t, srv, "upload_media", map[string]interface{}{"url": u})
		if !r.IsError {
			t.Errorf("%s: expected error", u)
		}
	}
}

func TestCheckBlockedHost(t *testing.T) {
	for _, host := range []string{"127.0.0.1", "::1", "169.254.169.254", "metadata.google.internal"} {
		if err := checkBlockedHost(host); err == nil {
			t.Errorf("%s should be blocked", host)
		}
	}
	if err := checkBlockedHost("93.184.216.34"); err != nil {
		t.Errorf("public address blocked: %v", err)
	}
}

func TestFilenameFromURL(t *testing.T) {
	if got := filenameFromURL("https://example.com/img/logo.png?v=2", ".png"); got != "logo.png" {
		t.Errorf("got %q", got)
	}
	if got := filenameFromURL("https://example.com/", ".jpg"); !strings.HasSuffix(got, ".jpg") {
		t.Errorf("got %q", got)
	}
	if got := filenameFromURL("data:image/gif;base64,xx", ""); !strings.HasSuffix(got, ".bin") {
		t.Errorf("got %q", got)
	}
}
