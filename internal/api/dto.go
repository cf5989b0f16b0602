package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/docsadmin/internal/analytics"
	"github.com/starford/docsadmin/internal/models"
	"github.com/starford/docsadmin/internal/parser"
)

const maxJSONBytes = 10 << 20

type validatable interface {
	Validate() error
}

// LoginRequest is the request body for POST /api/login.
type LoginRequest struct {
	Password string `json:"password" example:"s3cret" validate:"required"`
}

// Validate validates the request.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse carries the issued session.
type LoginResponse struct {
	Token     string    `json:"token" validate:"required"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SaveDocumentRequest is the request body for POST /api/documents.
type SaveDocumentRequest struct {
	Filename    string `json:"filename" example:"deploy.mdx" validate:"required"`
	Title       string `json:"title" example:"Deploy"`
	Description string `json:"description" example:"How to deploy"`
	Content     string `json:"content" example:"# Deploy"`
	Folder      string `json:"folder" example:"guides"`
}

// Validate validates the request.
func (r SaveDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Filename, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Title, validation.Length(0, 500)),
		validation.Field(&r.Folder, validation.Length(0, 1024)),
	)
}

// SaveDocumentResponse is returned after an upsert.
type SaveDocumentResponse struct {
	Filename string `json:"filename" example:"deploy.mdx" validate:"required"`
	Path     string `json:"path" example:"guides/deploy.mdx" validate:"required"`
}

// MoveDocumentsRequest is the request body for POST /api/documents/move.
type MoveDocumentsRequest struct {
	Paths  []string `json:"paths" validate:"required"`
	Folder string   `json:"folder" example:"archive"`
}

// Validate validates the request.
func (r MoveDocumentsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Paths, validation.Required, validation.Each(validation.Required)),
	)
}

// BulkDeleteRequest is the request body for POST /api/documents/bulk-delete.
type BulkDeleteRequest struct {
	Paths []string `json:"paths" validate:"required"`
}

// Validate validates the request.
func (r BulkDeleteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Paths, validation.Required, validation.Each(validation.Required)),
	)
}

// MovedDocument pairs an old path with its new location.
type MovedDocument struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FailedItem reports why one path of a bulk request was skipped.
type FailedItem struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// MoveDocumentsResponse reports per-path results of a move.
type MoveDocumentsResponse struct {
	Moved  []MovedDocument `json:"moved"`
	Failed []FailedItem    `json:"failed"`
}

// BulkDeleteResponse reports per-path results of a bulk delete.
type BulkDeleteResponse struct {
	Deleted []string     `json:"deleted"`
	Failed  []FailedItem `json:"failed"`
}

// CreateFolderRequest is the request body for POST /api/folders.
type CreateFolderRequest struct {
	Folder string `json:"folder" example:"guides/advanced" validate:"required"`
}

// Validate validates the request.
func (r CreateFolderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Folder, validation.Required, validation.Length(1, 1024)),
	)
}

// CreateFolderResponse is returned after a folder is created.
type CreateFolderResponse struct {
	Folder string `json:"folder" example:"guides/advanced"`
}

// FolderInfoResponse previews what deleting a folder would remove.
type FolderInfoResponse struct {
	Folder       string `json:"folder"`
	IsEmpty      bool   `json:"isEmpty"`
	FilesCount   int    `json:"filesCount"`
	FoldersCount int    `json:"foldersCount"`
	TotalItems   int    `json:"totalItems"`
}

// DeleteFolderResponse is returned after a folder is removed.
type DeleteFolderResponse struct {
	Folder       string `json:"folder"`
	Recursive    bool   `json:"recursive"`
	FilesCount   int    `json:"filesCount"`
	FoldersCount int    `json:"foldersCount"`
	TotalItems   int    `json:"totalItems"`
}

// MediaListResponse wraps the assets of one category.
type MediaListResponse struct {
	Files []models.MediaAsset `json:"files"`
}

// OutlineResponse is the heading outline of a document.
type OutlineResponse struct {
	Path     string           `json:"path"`
	Headings []parser.Heading `json:"headings"`
	TOC      string           `json:"toc"`
}

// SearchResponse wraps search hits.
type SearchResponse struct {
	Results []models.SearchHit `json:"results"`
}

// StatsResponse is the analytics payload.
type StatsResponse = analytics.Stats
