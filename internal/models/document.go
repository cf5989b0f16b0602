// Package models defines the domain types exchanged between the stores,
// the HTTP API and the MCP server.
package models

import "time"

// DateLayout is the day-granularity format of lastModified values.
const DateLayout = "2006-01-02"

// Document is a Markdown/MDX file under the content root.
type Document struct {
	Filename     string `json:"filename"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Content      string `json:"content"`
	Folder       string `json:"folder"`
	Path         string `json:"path"`
	LastModified string `json:"lastModified"`
	Checksum     string `json:"-"`
}

// DocumentSummary is a Document without its body, as returned by listings.
type DocumentSummary struct {
	Filename     string   `json:"filename"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	LastModified string   `json:"lastModified"`
	Path         string   `json:"path"`
	Folder       string   `json:"folder"`
	Folders      []string `json:"folders"`
}

// Listing is the joint folder/document view of one directory.
type Listing struct {
	Files         []DocumentSummary `json:"files"`
	Folders       []string          `json:"folders"`
	CurrentFolder string            `json:"currentFolder"`
	ParentFolder  string            `json:"parentFolder"`
	Breadcrumbs   []string          `json:"breadcrumbs"`
}

// FolderReport counts the immediate children of a folder.
type FolderReport struct {
	FilesCount   int `json:"filesCount"`
	FoldersCount int `json:"foldersCount"`
	TotalItems   int `json:"totalItems"`
}

// SearchHit is one document matched by a content search.
type SearchHit struct {
	Path        string `json:"path"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Folder      string `json:"folder"`
}

// MediaAsset is an uploaded binary under the asset root.
type MediaAsset struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Type     string    `json:"type"`
}

// UploadResult describes a stored upload.
type UploadResult struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	Folder   string `json:"folder"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
}

// FormatDate truncates t to the UTC day string used for lastModified.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
