package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/docsadmin/internal/analytics"
	"github.com/starford/docsadmin/internal/apperr"
	"github.com/starford/docsadmin/internal/docstore"
	"github.com/starford/docsadmin/internal/folderstore"
	"github.com/starford/docsadmin/internal/media"
	"github.com/starford/docsadmin/internal/parser"
	"github.com/starford/docsadmin/internal/session"
	"github.com/starford/docsadmin/internal/sse"
)

// multipartMemory is how much of a multipart upload is buffered in memory
// before spilling to temporary files.
const multipartMemory = 32 << 20

// Deps are the stores behind the API.
type Deps struct {
	Documents      *docstore.Store
	Folders        *folderstore.Store
	Media          *media.Store
	Auth           *session.Authenticator
	Events         sse.Publisher
	MaxUploadBytes int64
}

// Handler holds API route handlers.
type Handler struct {
	docs      *docstore.Store
	folders   *folderstore.Store
	media     *media.Store
	auth      *session.Authenticator
	events    sse.Publisher
	maxUpload int64
	now       func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	auth := d.Auth
	if auth == nil {
		auth = session.Disabled()
	}
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 50 << 20
	}
	return &Handler{
		docs:      d.Documents,
		folders:   d.Folders,
		media:     d.Media,
		auth:      auth,
		events:    d.Events,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

// documentPath extracts the document path from the URL (everything after
// the route prefix). Supports encoded slashes (e.g. guides%2Fdeploy.mdx).
// chi matches on RawPath when it is set and on the decoded Path otherwise,
// so only the former needs unescaping.
func documentPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" || r.URL.RawPath == "" {
		return raw
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func (h *Handler) publish(kind, path string) {
	if h.events != nil {
		h.events.PublishChange(kind, path)
	}
}

// Login handles POST /api/login.
//
//	@Summary		Exchange the admin password for a session token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	LoginResponse
//	@Failure		401		{object}	errResponse
//	@Failure		429		{object}	errResponse
//	@Router			/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "login", err)
		return
	}
	sess, err := h.auth.Login(r.Context(), req.Password)
	if err != nil {
		writeError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

// Logout handles POST /api/logout.
//
//	@Summary		Revoke the current session
//	@Tags			auth
//	@Success		204	"Session revoked"
//	@Security		BearerAuth
//	@Router			/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(w, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List the documents and subfolders of a folder
//	@Tags			documents
//	@Produce		json
//	@Param			folder	query		string	false	"Folder path relative to the content root"
//	@Success		200		{object}	models.Listing
//	@Failure		400		{object}	errResponse
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	listing, err := h.docs.List(r.Context(), r.URL.Query().Get("folder"))
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a single document by path
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	models.Document
//	@Success		304		"Not modified"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	p := documentPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.docs.Read(r.Context(), p)
	if err != nil {
		writeError(w, "get document", err)
		return
	}
	etag := `"` + doc.Checksum + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// SaveDocument handles POST /api/documents.
//
//	@Summary		Create or replace a document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SaveDocumentRequest	true	"Document to save"
//	@Success		200		{object}	SaveDocumentResponse
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	var req SaveDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "save document", err)
		return
	}
	doc, err := h.docs.Write(r.Context(), docstore.WriteInput{
		Filename:    req.Filename,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Folder:      req.Folder,
	})
	if err != nil {
		writeError(w, "save document", err)
		return
	}
	writeJSON(w, http.StatusOK, SaveDocumentResponse{Filename: doc.Filename, Path: doc.Path})
}

// DeleteDocument handles DELETE /api/documents.
//
//	@Summary		Delete a document
//	@Tags			documents
//	@Param			path	query	string	true	"Document path"
//	@Success		204		"Document deleted"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.docs.Delete(r.Context(), p); err != nil {
		writeError(w, "delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveDocuments handles POST /api/documents/move.
//
//	@Summary		Move documents into a folder
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MoveDocumentsRequest	true	"Paths and target folder"
//	@Success		200		{object}	MoveDocumentsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/move [post]
func (h *Handler) MoveDocuments(w http.ResponseWriter, r *http.Request) {
	var req MoveDocumentsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "move documents", err)
		return
	}
	resp := MoveDocumentsResponse{Moved: []MovedDocument{}, Failed: []FailedItem{}}
	for _, p := range req.Paths {
		dest, err := h.docs.Move(r.Context(), p, req.Folder)
		if err != nil {
			resp.Failed = append(resp.Failed, FailedItem{Path: p, Error: itemError(err)})
			continue
		}
		resp.Moved = append(resp.Moved, MovedDocument{From: p, To: dest})
	}
	writeJSON(w, http.StatusOK, resp)
}

// BulkDeleteDocuments handles POST /api/documents/bulk-delete.
//
//	@Summary		Delete several documents
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		BulkDeleteRequest	true	"Paths to delete"
//	@Success		200		{object}	BulkDeleteResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/bulk-delete [post]
func (h *Handler) BulkDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "bulk delete", err)
		return
	}
	resp := BulkDeleteResponse{Deleted: []string{}, Failed: []FailedItem{}}
	for _, p := range req.Paths {
		if err := h.docs.Delete(r.Context(), p); err != nil {
			resp.Failed = append(resp.Failed, FailedItem{Path: p, Error: itemError(err)})
			continue
		}
		resp.Deleted = append(resp.Deleted, p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// itemError hides unexpected failures the same way writeError does.
func itemError(err error) string {
	for _, known := range []error{apperr.ErrInvalidPath, apperr.ErrInvalidInput, apperr.ErrNotFound, apperr.ErrConflict} {
		if errors.Is(err, known) {
			return err.Error()
		}
	}
	return "internal error"
}

// Outline handles GET /api/outline/*.
//
//	@Summary		Heading outline and table of contents of a document
//	@Tags			documents
//	@Produce		json
//	@Param			path		path		string	true	"Document path"
//	@Param			maxLevel	query		int		false	"Deepest heading level (default 3)"
//	@Success		200			{object}	OutlineResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Router			/outline/{path} [get]
func (h *Handler) Outline(w http.ResponseWriter, r *http.Request) {
	p := documentPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	maxLevel := parser.DefaultOutlineLevel
	if raw := r.URL.Query().Get("maxLevel"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 6 {
			writeJSON(w, http.StatusBadRequest, errorBody("maxLevel must be between 1 and 6"))
			return
		}
		maxLevel = n
	}
	doc, err := h.docs.Read(r.Context(), p)
	if err != nil {
		writeError(w, "outline", err)
		return
	}
	headings := parser.Outline(doc.Content, maxLevel)
	writeJSON(w, http.StatusOK, OutlineResponse{
		Path:     doc.Path,
		Headings: headings,
		TOC:      parser.RenderTOC(headings),
	})
}

// Search handles GET /api/search.
//
//	@Summary		Search documents by title, description, path or body
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.docs.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Analytics handles GET /api/analytics.
//
//	@Summary		Summary statistics over a folder listing
//	@Tags			analytics
//	@Produce		json
//	@Param			folder	query		string	false	"Folder path"
//	@Success		200		{object}	StatsResponse
//	@Failure		400		{object}	errResponse
//	@Router			/analytics [get]
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	listing, err := h.docs.List(r.Context(), r.URL.Query().Get("folder"))
	if err != nil {
		writeError(w, "analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, analytics.Compute(listing.Files, listing.Folders, h.now()))
}

// CreateFolder handles POST /api/folders.
//
//	@Summary		Create a folder and any missing parents
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateFolderRequest	true	"Folder to create"
//	@Success		201		{object}	CreateFolderResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [post]
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "create folder", err)
		return
	}
	folder, err := h.folders.Create(r.Context(), req.Folder)
	if err != nil {
		writeError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateFolderResponse{Folder: folder})
}

// InspectFolder handles GET /api/folders.
//
//	@Summary		Count the children of a folder before deleting it
//	@Tags			folders
//	@Produce		json
//	@Param			folder	query		string	true	"Folder path"
//	@Success		200		{object}	FolderInfoResponse
//	@Failure		404		{object}	errResponse
//	@Router			/folders [get]
func (h *Handler) InspectFolder(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	if folder == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("folder is required"))
		return
	}
	rep, err := h.folders.Inspect(r.Context(), folder)
	if err != nil {
		writeError(w, "inspect folder", err)
		return
	}
	writeJSON(w, http.StatusOK, FolderInfoResponse{
		Folder:       folder,
		IsEmpty:      rep.TotalItems == 0,
		FilesCount:   rep.FilesCount,
		FoldersCount: rep.FoldersCount,
		TotalItems:   rep.TotalItems,
	})
}

// DeleteFolder handles DELETE /api/folders.
//
//	@Summary		Delete a folder, recursively when forced
//	@Tags			folders
//	@Produce		json
//	@Param			folder	query		string	true	"Folder path"
//	@Param			force	query		bool	false	"Delete contents too"
//	@Success		200		{object}	DeleteFolderResponse
//	@Failure		400		{object}	notEmptyResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [delete]
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	folder := q.Get("folder")
	if folder == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("folder is required"))
		return
	}
	force := false
	if raw := q.Get("force"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("force must be a boolean"))
			return
		}
		force = v
	}
	res, err := h.folders.Delete(r.Context(), folder, force)
	if err != nil {
		writeError(w, "delete folder", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteFolderResponse{
		Folder:       res.Folder,
		Recursive:    res.Recursive,
		FilesCount:   res.Report.FilesCount,
		FoldersCount: res.Report.FoldersCount,
		TotalItems:   res.Report.TotalItems,
	})
}

// UploadMedia handles POST /api/media (multipart/form-data, fields
// "file" and "folder").
//
//	@Summary		Upload a media asset
//	@Tags			media
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"Asset"
//	@Param			folder	formData	string	false	"Category or auto"
//	@Success		201		{object}	models.UploadResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/media [post]
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartMemory/32)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	res, err := h.media.Upload(r.Context(), media.UploadInput{
		Reader:       file,
		Size:         header.Size,
		Folder:       r.FormValue("folder"),
		ContentType:  header.Header.Get("Content-Type"),
		OriginalName: header.Filename,
	})
	if err != nil {
		writeError(w, "upload media", err)
		return
	}
	h.publish(sse.MediaUploaded, res.Folder+"/"+res.FileName)
	writeJSON(w, http.StatusCreated, res)
}

// ListMedia handles GET /api/media.
//
//	@Summary		List the assets of one category
//	@Tags			media
//	@Produce		json
//	@Param			folder	query		string	true	"Category"	Enums(images, videos, gifs, files)
//	@Success		200		{object}	MediaListResponse
//	@Failure		400		{object}	errResponse
//	@Router			/media [get]
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	assets, err := h.media.List(r.Context(), r.URL.Query().Get("folder"))
	if err != nil {
		writeError(w, "list media", err)
		return
	}
	writeJSON(w, http.StatusOK, MediaListResponse{Files: assets})
}

// DeleteMedia handles DELETE /api/media.
//
//	@Summary		Delete a media asset
//	@Tags			media
//	@Param			path	query	string	true	"Asset path or URL"
//	@Success		204		"Asset deleted"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/media [delete]
func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	key, err := h.media.Delete(r.Context(), p)
	if err != nil {
		writeError(w, "delete media", err)
		return
	}
	h.publish(sse.MediaDeleted, key)
	w.WriteHeader(http.StatusNoContent)
}
